package app

import (
	"context"

	"quiz-hub/internal/domain"
)

// ContentRepository loads read-only game content (from cache/backing store).
type ContentRepository interface {
	GetLevel(ctx context.Context, levelID string) (domain.LevelContent, error)
	GetVenue(ctx context.Context, venueID string) (domain.Venue, error)
	GetChallenge(ctx context.Context, challengeID string) (domain.ChallengeContent, error)
}

// GameStore abstracts where active games live between events (in-memory, Redis).
type GameStore interface {
	SaveGame(ctx context.Context, game Game) error
	// GetGame returns domain.ErrGameNotFound when id is unknown.
	GetGame(ctx context.Context, gameID string) (Game, error)
	DeleteGame(ctx context.Context, gameID string) error
}

// ProfileStore persists player snapshots.
type ProfileStore interface {
	// GetProfile returns domain.ErrProfileNotFound for unknown players.
	GetProfile(ctx context.Context, playerID string) (domain.PlayerProfile, error)
	SaveProfile(ctx context.Context, profile domain.PlayerProfile) error
	// GetProgress returns empty progress for unknown players.
	GetProgress(ctx context.Context, playerID string) (domain.PlayerProgress, error)
	SaveProgress(ctx context.Context, progress domain.PlayerProgress) error
}
