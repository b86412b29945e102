package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"quiz-hub/internal/app"
	"quiz-hub/internal/domain"

	"github.com/redis/go-redis/v9"
)

var _ app.ProfileStore = (*ProfileStore)(nil)

// ProfileStore keeps player snapshots in Redis.
//
//	SET  player:{playerID}:profile   {PlayerProfile}
//	SADD player:{playerID}:completed {levelID...}
type ProfileStore struct {
	client *redis.Client
}

func NewProfileStore(client *redis.Client) *ProfileStore {
	return &ProfileStore{client: client}
}

func (s *ProfileStore) GetProfile(ctx context.Context, playerID string) (domain.PlayerProfile, error) {
	raw, err := s.client.Get(ctx, s.profileKey(playerID)).Bytes()
	if isMiss(err) {
		return domain.PlayerProfile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.PlayerProfile{}, fmt.Errorf("load profile %s: %w", playerID, err)
	}
	var profile domain.PlayerProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.PlayerProfile{}, fmt.Errorf("decode profile %s: %w", playerID, err)
	}
	return profile.Clone(), nil
}

func (s *ProfileStore) SaveProfile(ctx context.Context, profile domain.PlayerProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", profile.PlayerID, err)
	}
	if err := s.client.Set(ctx, s.profileKey(profile.PlayerID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save profile %s: %w", profile.PlayerID, err)
	}
	return nil
}

func (s *ProfileStore) GetProgress(ctx context.Context, playerID string) (domain.PlayerProgress, error) {
	ids, err := s.client.SMembers(ctx, s.completedKey(playerID)).Result()
	if err != nil && !isMiss(err) {
		return domain.PlayerProgress{}, fmt.Errorf("load progress %s: %w", playerID, err)
	}
	sort.Strings(ids)
	return domain.PlayerProgress{PlayerID: playerID, CompletedLevelIDs: ids}, nil
}

// SaveProgress adds completed levels. Completion is append-only, so members
// are never removed.
func (s *ProfileStore) SaveProgress(ctx context.Context, progress domain.PlayerProgress) error {
	if len(progress.CompletedLevelIDs) == 0 {
		return nil
	}
	members := make([]interface{}, 0, len(progress.CompletedLevelIDs))
	for _, id := range progress.CompletedLevelIDs {
		members = append(members, id)
	}
	if err := s.client.SAdd(ctx, s.completedKey(progress.PlayerID), members...).Err(); err != nil {
		return fmt.Errorf("save progress %s: %w", progress.PlayerID, err)
	}
	return nil
}

func (s *ProfileStore) profileKey(playerID string) string {
	return "player:" + playerID + ":profile"
}

func (s *ProfileStore) completedKey(playerID string) string {
	return "player:" + playerID + ":completed"
}
