package rbac

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"staff-portal/pkg/utils"
)

// Limiter decides whether one more request for key fits within the trailing
// window. Implementations must be safe for concurrent use: two concurrent
// requests for the same key must not race the prune-count-append sequence
// into under- or overcounting.
type Limiter interface {
	Allow(ctx context.Context, key string, now time.Time) (bool, error)
}

// SlidingWindow is the in-process limiter: a mutex-guarded map of per-key
// request timestamps, pruned lazily on each check. Lifecycle is tied to the
// process; state is not shared across instances.
type SlidingWindow struct {
	max    int
	window time.Duration

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewSlidingWindow(max int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		max:    max,
		window: window,
		hits:   make(map[string][]time.Time),
	}
}

func (s *SlidingWindow) Allow(_ context.Context, key string, now time.Time) (bool, error) {
	cutoff := now.Add(-s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.hits[key][:0]
	for _, ts := range s.hits[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= s.max {
		s.hits[key] = kept
		return false, nil
	}

	s.hits[key] = append(kept, now)
	return true, nil
}

// RedisSlidingWindow mirrors SlidingWindow semantics across instances using
// a Lua script over a sorted set per key.
type RedisSlidingWindow struct {
	rdb    *redis.Client
	max    int
	window time.Duration
	prefix string
}

func NewRedisSlidingWindow(rdb *redis.Client, max int, window time.Duration) *RedisSlidingWindow {
	return &RedisSlidingWindow{rdb: rdb, max: max, window: window, prefix: "ratelimit:"}
}

func (r *RedisSlidingWindow) Allow(ctx context.Context, key string, now time.Time) (bool, error) {
	return utils.SlidingWindowAllow(ctx, r.rdb, r.prefix+key, r.max, r.window, now)
}
