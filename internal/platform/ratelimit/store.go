// Package ratelimit throttles public form submissions per client key.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultIdleTTL      = 15 * time.Minute
	defaultCleanupEvery = 2 * time.Minute
)

// Store keeps one token bucket per key and forgets keys that stay idle.
type Store struct {
	mu           sync.Mutex
	entries      map[string]*storeEntry
	limit        rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type storeEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithIdleTTL sets how long an unused key keeps its bucket.
func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *Store) { s.idleTTL = d }
}

// WithCleanupEvery sets the janitor interval. Zero disables the janitor.
func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *Store) { s.cleanupEvery = d }
}

// WithClock overrides the store clock.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore builds a keyed limiter allowing perMinute events per key with the
// given burst.
func NewStore(perMinute float64, burst int, opts ...StoreOption) *Store {
	if burst <= 0 {
		burst = 1
	}
	s := &Store{
		entries:      make(map[string]*storeEntry),
		limit:        rate.Limit(perMinute / 60),
		burst:        burst,
		idleTTL:      defaultIdleTTL,
		cleanupEvery: defaultCleanupEvery,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow reports whether key may perform one more action now.
func (s *Store) Allow(key string) bool {
	if s == nil {
		return true
	}
	now := s.now()
	return s.limiter(key, now).AllowN(now, 1)
}

func (s *Store) limiter(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}
	limiter := rate.NewLimiter(s.limit, s.burst)
	s.entries[key] = &storeEntry{limiter: limiter, lastSeen: now}
	return limiter
}

// Len returns the number of tracked keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup drops keys idle for longer than the idle TTL.
func (s *Store) Cleanup() {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(s.entries, key)
		}
	}
}

// StartJanitor runs Cleanup periodically until ctx is done.
func (s *Store) StartJanitor(ctx context.Context) {
	if s == nil || s.cleanupEvery <= 0 {
		return
	}
	ticker := time.NewTicker(s.cleanupEvery)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}
