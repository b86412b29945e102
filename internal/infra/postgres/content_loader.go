package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quiz-hub/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ContentLoader loads content JSONB documents from Postgres.
type ContentLoader struct {
	pool *pgxpool.Pool
}

func NewContentLoader(pool *pgxpool.Pool) *ContentLoader {
	return &ContentLoader{pool: pool}
}

func (l *ContentLoader) LoadLevel(ctx context.Context, levelID string) (domain.LevelContent, error) {
	var level domain.LevelConfig
	if err := l.loadDocument(ctx, `SELECT data FROM levels WHERE id=$1`, levelID, &level, domain.ErrLevelNotFound); err != nil {
		return domain.LevelContent{}, fmt.Errorf("load level %s: %w", levelID, err)
	}
	questions, err := l.loadQuestions(ctx, level.QuestionIDs)
	if err != nil {
		return domain.LevelContent{}, fmt.Errorf("load level %s: %w", levelID, err)
	}
	return domain.LevelContent{Level: level, Questions: questions}, nil
}

func (l *ContentLoader) LoadVenue(ctx context.Context, venueID string) (domain.Venue, error) {
	var venue domain.Venue
	if err := l.loadDocument(ctx, `SELECT data FROM venues WHERE id=$1`, venueID, &venue, domain.ErrVenueNotFound); err != nil {
		return domain.Venue{}, fmt.Errorf("load venue %s: %w", venueID, err)
	}
	return venue, nil
}

func (l *ContentLoader) LoadChallenge(ctx context.Context, challengeID string) (domain.ChallengeContent, error) {
	var ch domain.DailyChallenge
	if err := l.loadDocument(ctx, `SELECT data FROM challenges WHERE id=$1`, challengeID, &ch, domain.ErrChallengeNotFound); err != nil {
		return domain.ChallengeContent{}, fmt.Errorf("load challenge %s: %w", challengeID, err)
	}
	questions, err := l.loadQuestions(ctx, ch.QuestionIDs)
	if err != nil {
		return domain.ChallengeContent{}, fmt.Errorf("load challenge %s: %w", challengeID, err)
	}
	return domain.ChallengeContent{Challenge: ch, Questions: questions}, nil
}

func (l *ContentLoader) loadDocument(ctx context.Context, query, id string, out any, notFound error) error {
	var raw []byte
	err := l.pool.QueryRow(ctx, query, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

// loadQuestions returns the questions for ids in sequence order. Unknown ids
// are skipped; the engine reports them as unresolvable.
func (l *ContentLoader) loadQuestions(ctx context.Context, ids []string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, data FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Question, len(ids))
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question %s: %w", id, err)
		}
		byID[id] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	questions := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			questions = append(questions, q)
		}
	}
	return questions, nil
}
