package app

import (
	"context"
	"fmt"
	"time"

	"quiz-hub/internal/domain"
	"quiz-hub/internal/progression"

	"go.uber.org/zap"
)

// PlayerView is a player's profile, progress and heart timer.
type PlayerView struct {
	Profile     domain.PlayerProfile  `json:"profile"`
	Progress    domain.PlayerProgress `json:"progress"`
	NextHeartAt *time.Time            `json:"nextHeartAt,omitempty"`

	// Notifications carries persistence warnings. They travel as separate
	// notification messages.
	Notifications []domain.Notification `json:"-"`
}

// Player returns the player's snapshot, creating it on first sight. Regenerated
// hearts are persisted.
func (s *GameService) Player(ctx context.Context, playerID string) (PlayerView, error) {
	unlock := s.playerLocks.lock(playerID)
	defer unlock()

	profile, err := s.loadProfile(ctx, playerID, s.now())
	if err != nil {
		return PlayerView{}, err
	}
	progress, err := s.profiles.GetProgress(ctx, playerID)
	if err != nil {
		return PlayerView{}, fmt.Errorf("load progress: %w", err)
	}
	view := PlayerView{
		Profile:       profile,
		Progress:      progress,
		Notifications: s.saveProfile(ctx, profile, ""),
	}
	if at, ok := progression.NextHeartAt(profile, s.tuning.HeartRegenInterval); ok {
		view.NextHeartAt = &at
	}
	return view, nil
}

// ProfileChange is a profile mutation and what it unlocked.
type ProfileChange struct {
	Profile       domain.PlayerProfile  `json:"profile"`
	Notifications []domain.Notification `json:"notifications,omitempty"`
}

// Purchase buys itemID from the shop.
func (s *GameService) Purchase(ctx context.Context, playerID, itemID string) (ProfileChange, error) {
	return s.mutateProfile(ctx, playerID, func(p domain.PlayerProfile) (domain.PlayerProfile, string, error) {
		next, err := progression.Purchase(p, s.catalog, itemID)
		if err != nil {
			return p, "", err
		}
		s.metrics.Purchases.WithLabelValues(itemID).Inc()
		return next, "Purchased " + itemID, nil
	})
}

// ClaimStreakReward grants a one-time streak milestone reward.
func (s *GameService) ClaimStreakReward(ctx context.Context, playerID, rewardID string) (ProfileChange, error) {
	return s.mutateProfile(ctx, playerID, func(p domain.PlayerProfile) (domain.PlayerProfile, string, error) {
		next, reward, err := progression.ClaimStreakReward(p, s.streakRewards, rewardID)
		if err != nil {
			return p, "", err
		}
		return next, fmt.Sprintf("%d-day streak reward claimed", reward.Days), nil
	})
}

func (s *GameService) mutateProfile(ctx context.Context, playerID string, mutate func(domain.PlayerProfile) (domain.PlayerProfile, string, error)) (ProfileChange, error) {
	unlock := s.playerLocks.lock(playerID)
	defer unlock()

	now := s.now()
	profile, err := s.loadProfile(ctx, playerID, now)
	if err != nil {
		return ProfileChange{}, err
	}
	next, message, err := mutate(profile)
	if err != nil {
		return ProfileChange{}, err
	}
	next, notes := s.achievements.EvaluateProfile(next, now)
	s.metrics.AchievementUnlocks.Add(float64(countUnlocks(notes)))

	change := ProfileChange{Profile: next}
	change.Notifications = append(change.Notifications, domain.Notification{
		Message:  message,
		Severity: domain.SeveritySuccess,
		Duration: 2 * time.Second,
	})
	change.Notifications = append(change.Notifications, notes...)
	change.Notifications = append(change.Notifications, s.saveProfile(ctx, next, "")...)
	s.log.Debug("profile updated", zap.String("player_id", playerID), zap.String("change", message))
	return change, nil
}

// Achievements returns the achievement rule table.
func (s *GameService) Achievements() []domain.Achievement {
	return s.achievements.Rules()
}

// Catalog returns the shop catalog.
func (s *GameService) Catalog() progression.Catalog {
	return s.catalog
}
