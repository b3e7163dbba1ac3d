package bucket

import (
	"context"
	"sync"
	"time"

	"badgeledger/internal/ratelimit/models"
)

// InMemoryBucketStore is a per-process sliding window limiter. It serves
// single-instance deployments and stands in when Redis is unavailable.
type InMemoryBucketStore struct {
	mu      sync.Mutex
	buckets map[string]*slidingWindow
	now     func() time.Time
}

// slidingWindow tracks request timestamps for sliding window rate limiting.
type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

// New creates a new in-memory bucket store.
func New() *InMemoryBucketStore {
	return &InMemoryBucketStore{
		buckets: make(map[string]*slidingWindow),
		now:     time.Now,
	}
}

// Allow checks if a request is allowed and records it when it is.
func (s *InMemoryBucketStore) Allow(_ context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sw := s.bucket(key, window)
	sw.cleanup(now)

	if len(sw.timestamps) >= limit {
		var resetAt time.Time
		if len(sw.timestamps) > 0 {
			resetAt = sw.timestamps[0].Add(window)
		} else {
			resetAt = now.Add(window)
		}
		return models.Denied(limit, now, resetAt), nil
	}

	sw.timestamps = append(sw.timestamps, now)
	return &models.RateLimitResult{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(sw.timestamps),
		ResetAt:   sw.timestamps[0].Add(window),
	}, nil
}

// Reset clears the counter for a key.
func (s *InMemoryBucketStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

// cleanup removes timestamps that fell out of the window.
func (sw *slidingWindow) cleanup(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// bucket must be called while holding s.mu.
func (s *InMemoryBucketStore) bucket(key string, window time.Duration) *slidingWindow {
	if sw := s.buckets[key]; sw != nil {
		return sw
	}
	sw := &slidingWindow{window: window}
	s.buckets[key] = sw
	return sw
}
