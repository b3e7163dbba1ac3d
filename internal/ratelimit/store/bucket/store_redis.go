package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"badgeledger/internal/ratelimit/models"
)

// RedisBucketStore is a fixed window limiter shared by every instance.
// Each window is one counter key that expires shortly after the window ends.
type RedisBucketStore struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedis(client redis.Cmdable) *RedisBucketStore {
	return &RedisBucketStore{client: client, now: time.Now}
}

// Allow increments the current window's counter and compares it with limit.
func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := s.now()
	windowStart := now.Truncate(window)
	resetAt := windowStart.Add(window)
	windowKey := fmt.Sprintf("%s:%d", key, windowStart.Unix())

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, windowKey)
		pipe.PExpire(ctx, windowKey, window+time.Second)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit: %w", err)
	}

	count := int(incr.Val())
	if count > limit {
		return models.Denied(limit, now, resetAt), nil
	}
	return &models.RateLimitResult{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count,
		ResetAt:   resetAt,
	}, nil
}
