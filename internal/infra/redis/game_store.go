package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quiz-hub/internal/app"
	"quiz-hub/internal/domain"

	"github.com/redis/go-redis/v9"
)

var _ app.GameStore = (*GameStore)(nil)

// GameStore keeps active games as JSON snapshots so any instance can serve
// the next event. Keys expire after ttl of inactivity.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGameStore(client *redis.Client, ttl time.Duration) *GameStore {
	return &GameStore{client: client, ttl: ttl}
}

func (s *GameStore) SaveGame(ctx context.Context, game app.Game) error {
	raw, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", game.ID, err)
	}
	if err := s.client.Set(ctx, s.key(game.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save game %s: %w", game.ID, err)
	}
	return nil
}

func (s *GameStore) GetGame(ctx context.Context, gameID string) (app.Game, error) {
	raw, err := s.client.Get(ctx, s.key(gameID)).Bytes()
	if isMiss(err) {
		return app.Game{}, domain.ErrGameNotFound
	}
	if err != nil {
		return app.Game{}, fmt.Errorf("load game %s: %w", gameID, err)
	}
	var game app.Game
	if err := json.Unmarshal(raw, &game); err != nil {
		return app.Game{}, fmt.Errorf("decode game %s: %w", gameID, err)
	}
	return game, nil
}

func (s *GameStore) DeleteGame(ctx context.Context, gameID string) error {
	return s.client.Del(ctx, s.key(gameID)).Err()
}

func (s *GameStore) key(gameID string) string {
	return "game:" + gameID
}
