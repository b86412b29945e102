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

// ProfileStore persists player profiles as JSONB and completed levels as rows.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) GetProfile(ctx context.Context, playerID string) (domain.PlayerProfile, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM player_profiles WHERE player_id=$1`, playerID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PlayerProfile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.PlayerProfile{}, fmt.Errorf("load profile: %w", err)
	}
	var profile domain.PlayerProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.PlayerProfile{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	return profile.Clone(), nil
}

func (s *ProfileStore) SaveProfile(ctx context.Context, profile domain.PlayerProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO player_profiles (player_id, data, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (player_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		profile.PlayerID, string(raw))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) GetProgress(ctx context.Context, playerID string) (domain.PlayerProgress, error) {
	rows, err := s.pool.Query(ctx, `SELECT level_id FROM player_progress WHERE player_id=$1 ORDER BY completed_at, level_id`, playerID)
	if err != nil {
		return domain.PlayerProgress{}, fmt.Errorf("load progress: %w", err)
	}
	defer rows.Close()

	progress := domain.PlayerProgress{PlayerID: playerID}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return domain.PlayerProgress{}, fmt.Errorf("scan progress: %w", err)
		}
		progress.CompletedLevelIDs = append(progress.CompletedLevelIDs, id)
	}
	return progress, rows.Err()
}

// SaveProgress records completed levels. Completion is append-only, so rows
// are only ever inserted.
func (s *ProfileStore) SaveProgress(ctx context.Context, progress domain.PlayerProgress) error {
	if len(progress.CompletedLevelIDs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, id := range progress.CompletedLevelIDs {
		batch.Queue(`INSERT INTO player_progress (player_id, level_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, progress.PlayerID, id)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range progress.CompletedLevelIDs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}
	}
	return nil
}
