package memory

import (
	"context"
	"sync"

	"quiz-hub/internal/app"
	"quiz-hub/internal/domain"
)

// GameStore is an in-memory implementation of app.GameStore.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]app.Game
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[string]app.Game),
	}
}

func (s *GameStore) SaveGame(_ context.Context, game app.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = cloneGame(game)
	return nil
}

func (s *GameStore) GetGame(_ context.Context, gameID string) (app.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[gameID]
	if !ok {
		return app.Game{}, domain.ErrGameNotFound
	}
	return cloneGame(game), nil
}

func (s *GameStore) DeleteGame(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
	return nil
}

// Len reports how many games are held.
func (s *GameStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// cloneGame copies mutable session state. Content is read-only and shared.
func cloneGame(g app.Game) app.Game {
	g.Session = g.Session.Clone()
	g.Run.Session = g.Run.Session.Clone()
	return g
}
