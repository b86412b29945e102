package postgres

import (
	"context"
	"fmt"

	"quiz-hub/internal/domain"

	"github.com/uptrace/bun"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID   string          `bun:"id,pk"`
	Data domain.Question `bun:"data,type:jsonb"`
}

type venueRow struct {
	bun.BaseModel `bun:"table:venues"`

	ID   string       `bun:"id,pk"`
	Data domain.Venue `bun:"data,type:jsonb"`
}

type levelRow struct {
	bun.BaseModel `bun:"table:levels"`

	ID          string             `bun:"id,pk"`
	VenueID     string             `bun:"venue_id"`
	LevelNumber int                `bun:"level_number"`
	Data        domain.LevelConfig `bun:"data,type:jsonb"`
}

type challengeRow struct {
	bun.BaseModel `bun:"table:challenges"`

	ID            string                `bun:"id,pk"`
	ChallengeDate string                `bun:"challenge_date"`
	Data          domain.DailyChallenge `bun:"data,type:jsonb"`
}

// SeedStats counts rows written by Seed.
type SeedStats struct {
	Questions  int
	Venues     int
	Levels     int
	Challenges int
}

// Seed validates pack and upserts it in one transaction.
func Seed(ctx context.Context, db *bun.DB, pack domain.ContentPack) (SeedStats, error) {
	if _, err := pack.Index(); err != nil {
		return SeedStats{}, err
	}

	questions := make([]questionRow, 0, len(pack.Questions))
	for _, q := range pack.Questions {
		questions = append(questions, questionRow{ID: q.ID, Data: q})
	}
	venues := make([]venueRow, 0, len(pack.Venues))
	for _, v := range pack.Venues {
		venues = append(venues, venueRow{ID: v.ID, Data: v})
	}
	levels := make([]levelRow, 0, len(pack.Levels))
	for _, l := range pack.Levels {
		levels = append(levels, levelRow{ID: l.ID, VenueID: l.VenueID, LevelNumber: l.LevelNumber, Data: l})
	}
	challenges := make([]challengeRow, 0, len(pack.Challenges))
	for _, c := range pack.Challenges {
		challenges = append(challenges, challengeRow{ID: c.ID, ChallengeDate: c.Date, Data: c})
	}

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := upsert(ctx, tx, &questions, len(questions), "data = EXCLUDED.data"); err != nil {
			return fmt.Errorf("questions: %w", err)
		}
		if err := upsert(ctx, tx, &venues, len(venues), "data = EXCLUDED.data"); err != nil {
			return fmt.Errorf("venues: %w", err)
		}
		if err := upsert(ctx, tx, &levels, len(levels), "venue_id = EXCLUDED.venue_id", "level_number = EXCLUDED.level_number", "data = EXCLUDED.data"); err != nil {
			return fmt.Errorf("levels: %w", err)
		}
		if err := upsert(ctx, tx, &challenges, len(challenges), "challenge_date = EXCLUDED.challenge_date", "data = EXCLUDED.data"); err != nil {
			return fmt.Errorf("challenges: %w", err)
		}
		return nil
	})
	if err != nil {
		return SeedStats{}, fmt.Errorf("seed content: %w", err)
	}
	return SeedStats{
		Questions:  len(questions),
		Venues:     len(venues),
		Levels:     len(levels),
		Challenges: len(challenges),
	}, nil
}

func upsert(ctx context.Context, tx bun.Tx, rows any, n int, sets ...string) error {
	if n == 0 {
		return nil
	}
	q := tx.NewInsert().Model(rows).On("CONFLICT (id) DO UPDATE").Set("updated_at = now()")
	for _, set := range sets {
		q = q.Set(set)
	}
	_, err := q.Exec(ctx)
	return err
}
