package memory

import (
	"context"
	"sync"

	"quiz-hub/internal/domain"
)

// ProfileStore is an in-memory implementation of app.ProfileStore.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.PlayerProfile
	progress map[string]domain.PlayerProgress
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]domain.PlayerProfile),
		progress: make(map[string]domain.PlayerProgress),
	}
}

func (s *ProfileStore) GetProfile(_ context.Context, playerID string) (domain.PlayerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[playerID]
	if !ok {
		return domain.PlayerProfile{}, domain.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (s *ProfileStore) SaveProfile(_ context.Context, profile domain.PlayerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.PlayerID] = profile.Clone()
	return nil
}

func (s *ProfileStore) GetProgress(_ context.Context, playerID string) (domain.PlayerProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[playerID]
	if !ok {
		return domain.PlayerProgress{PlayerID: playerID}, nil
	}
	p.CompletedLevelIDs = append([]string(nil), p.CompletedLevelIDs...)
	return p, nil
}

func (s *ProfileStore) SaveProgress(_ context.Context, progress domain.PlayerProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	progress.CompletedLevelIDs = append([]string(nil), progress.CompletedLevelIDs...)
	s.progress[progress.PlayerID] = progress
	return nil
}
