// Package ratelimit implements a sliding-window request limiter with a
// Redis backend for multi-instance deployments and an in-memory fallback
// so local development needs no Redis.
package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result reports the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Duration
}

// Limiter rate-limits keys (e.g. "email:1.2.3.4") over a sliding window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// New returns a Redis-backed limiter when rdb is non-nil, otherwise the
// in-memory fallback.
func New(rdb *redis.Client, maxRequests int, window time.Duration) Limiter {
	if rdb != nil {
		return &redisLimiter{rdb: rdb, max: maxRequests, window: window}
	}
	return newMemoryLimiter(maxRequests, window)
}

// redisLimiter keeps one sorted set per key, scored by request timestamp.
type redisLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now()
	windowKey := "ratelimit:" + key
	cutoff := now.Add(-l.window)

	member := fmt.Sprintf("%d:%d", now.UnixMilli(), rand.Int63())

	pipe := l.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, windowKey, "0", strconv.FormatInt(cutoff.UnixMilli(), 10))
	pipe.ZAdd(ctx, windowKey, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	countCmd := pipe.ZCard(ctx, windowKey)
	oldestCmd := pipe.ZRange(ctx, windowKey, 0, 0)
	pipe.PExpire(ctx, windowKey, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("ratelimit pipeline: %w", err)
	}

	count := int(countCmd.Val())
	if count > l.max {
		// Over limit: remove the entry we just added and deny.
		if err := l.rdb.ZRem(ctx, windowKey, member).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit revert: %w", err)
		}

		reset := l.window
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			if ts, err := strconv.ParseInt(strings.SplitN(oldest[0], ":", 2)[0], 10, 64); err == nil {
				reset = time.UnixMilli(ts).Add(l.window).Sub(now)
			}
		}
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}

	return Result{Allowed: true, Remaining: l.max - count, Reset: l.window}, nil
}

// memoryLimiter is the single-process fallback.
type memoryLimiter struct {
	max    int
	window time.Duration

	mu          sync.Mutex
	entries     map[string][]time.Time
	lastCleanup time.Time
}

const cleanupInterval = time.Minute

func newMemoryLimiter(maxRequests int, window time.Duration) *memoryLimiter {
	return &memoryLimiter{
		max:         maxRequests,
		window:      window,
		entries:     make(map[string][]time.Time),
		lastCleanup: time.Now(),
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.cleanup(now)
	cutoff := now.Add(-l.window)

	kept := l.entries[key][:0]
	for _, ts := range l.entries[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.max {
		l.entries[key] = kept
		oldest := kept[0]
		return Result{
			Allowed:   false,
			Remaining: 0,
			Reset:     oldest.Add(l.window).Sub(now),
		}, nil
	}

	l.entries[key] = append(kept, now)
	return Result{
		Allowed:   true,
		Remaining: l.max - len(kept) - 1,
		Reset:     l.window,
	}, nil
}

// cleanup drops idle keys at most once per cleanupInterval. Caller holds mu.
func (l *memoryLimiter) cleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < cleanupInterval {
		return
	}
	l.lastCleanup = now
	cutoff := now.Add(-l.window)
	for key, stamps := range l.entries {
		kept := stamps[:0]
		for _, ts := range stamps {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(l.entries, key)
		} else {
			l.entries[key] = kept
		}
	}
}
