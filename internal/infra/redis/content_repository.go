package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"quiz-hub/internal/domain"
	"quiz-hub/internal/infra/memory"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ContentRepository caches content documents in Redis as JSON strings and
// falls back to a loader on cache miss.
//
//	SET content:level:{levelID}         {LevelContent}
//	SET content:venue:{venueID}         {Venue}
//	SET content:challenge:{challengeID} {ChallengeContent}
type ContentRepository struct {
	client *redis.Client
	loader memory.ContentLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewContentRepository(client *redis.Client, loader memory.ContentLoader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ContentRepository) GetLevel(ctx context.Context, levelID string) (domain.LevelContent, error) {
	return cached(ctx, r, "content:level:"+levelID, func() (domain.LevelContent, error) {
		return r.loader.LoadLevel(ctx, levelID)
	})
}

func (r *ContentRepository) GetVenue(ctx context.Context, venueID string) (domain.Venue, error) {
	return cached(ctx, r, "content:venue:"+venueID, func() (domain.Venue, error) {
		return r.loader.LoadVenue(ctx, venueID)
	})
}

func (r *ContentRepository) GetChallenge(ctx context.Context, challengeID string) (domain.ChallengeContent, error) {
	return cached(ctx, r, "content:challenge:"+challengeID, func() (domain.ChallengeContent, error) {
		return r.loader.LoadChallenge(ctx, challengeID)
	})
}

func readCached[T any](ctx context.Context, client *redis.Client, key string) (T, bool) {
	var value T
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false
	}
	return value, true
}

func cached[T any](ctx context.Context, r *ContentRepository, key string, load func() (T, error)) (T, error) {
	if value, ok := readCached[T](ctx, r.client, key); ok {
		return value, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if value, ok := readCached[T](ctx, r.client, key); ok {
			return value, nil
		}

		value, err := load()
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		// best-effort fill; a failed write only costs a reload
		_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

// Invalidate removes every cached content document.
func (r *ContentRepository) Invalidate(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, "content:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan content keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func isMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
