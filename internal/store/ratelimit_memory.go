package store

import (
	"context"
	"sync"
	"time"
)

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
// Keys whose entries have all expired are swept on a fixed interval so a
// stream of one-off clients does not grow the map forever.
type RateLimitMemoryStore struct {
	mu            sync.Mutex
	requests      map[string][]time.Time
	windows       map[string]time.Duration
	now           func() time.Time
	sweepInterval time.Duration
	lastSweep     time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		requests:      make(map[string][]time.Time),
		windows:       make(map[string]time.Duration),
		now:           time.Now,
		sweepInterval: time.Minute,
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	valid := prune(s.requests[key], now.Add(-window))
	valid = append(valid, now)
	s.requests[key] = valid
	s.windows[key] = window

	if now.Sub(s.lastSweep) >= s.sweepInterval {
		s.sweep(now)
	}

	return int64(len(valid)), nil
}

// Len returns the number of tracked keys.
func (s *RateLimitMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.requests)
}

func (s *RateLimitMemoryStore) sweep(now time.Time) {
	s.lastSweep = now

	for key, timestamps := range s.requests {
		if len(prune(timestamps, now.Add(-s.windows[key]))) == 0 {
			delete(s.requests, key)
			delete(s.windows, key)
		}
	}
}

func prune(timestamps []time.Time, cutoff time.Time) []time.Time {
	valid := make([]time.Time, 0, len(timestamps)+1)

	for _, ts := range timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}

	return valid
}
