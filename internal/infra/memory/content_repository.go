package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-hub/internal/domain"

	"golang.org/x/sync/singleflight"
)

// ContentLoader fetches content from a backing store (YAML pack, Postgres).
type ContentLoader interface {
	LoadLevel(ctx context.Context, levelID string) (domain.LevelContent, error)
	LoadVenue(ctx context.Context, venueID string) (domain.Venue, error)
	LoadChallenge(ctx context.Context, challengeID string) (domain.ChallengeContent, error)
}

// ContentRepository caches content with TTL to avoid repeated loader hits.
// Concurrent misses for the same key share one load.
type ContentRepository struct {
	loader ContentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedContent
}

type cachedContent struct {
	value     any
	expiresAt time.Time
}

func NewContentRepository(loader ContentLoader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedContent),
	}
}

func (r *ContentRepository) GetLevel(ctx context.Context, levelID string) (domain.LevelContent, error) {
	return cached(r, "level:"+levelID, func() (domain.LevelContent, error) {
		return r.loader.LoadLevel(ctx, levelID)
	})
}

func (r *ContentRepository) GetVenue(ctx context.Context, venueID string) (domain.Venue, error) {
	return cached(r, "venue:"+venueID, func() (domain.Venue, error) {
		return r.loader.LoadVenue(ctx, venueID)
	})
}

func (r *ContentRepository) GetChallenge(ctx context.Context, challengeID string) (domain.ChallengeContent, error) {
	return cached(r, "challenge:"+challengeID, func() (domain.ChallengeContent, error) {
		return r.loader.LoadChallenge(ctx, challengeID)
	})
}

// Invalidate drops every cached entry.
func (r *ContentRepository) Invalidate() {
	r.mu.Lock()
	r.cache = make(map[string]cachedContent)
	r.mu.Unlock()
}

func (r *ContentRepository) lookup(key string, now time.Time) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		return entry.value, true
	}
	return nil, false
}

func cached[T any](r *ContentRepository, key string, load func() (T, error)) (T, error) {
	if v, ok := r.lookup(key, r.clock()); ok {
		return v.(T), nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		if v, ok := r.lookup(key, now); ok {
			return v, nil
		}

		value, err := load()
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[key] = cachedContent{
			value:     value,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
