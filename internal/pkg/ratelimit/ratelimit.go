// internal/pkg/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter backed by Redis. It guards the
// unauthenticated public-intake endpoint against form spam.
type Limiter struct {
	client *redis.Client
	max    int64
	window time.Duration
}

func NewLimiter(client *redis.Client, max int64, window time.Duration) *Limiter {
	return &Limiter{client: client, max: max, window: window}
}

// Allow increments the counter for key and reports whether the caller is
// still inside the window's budget, along with the remaining allowance.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	redisKey := fmt.Sprintf("ratelimit:intake:%s", key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// Set expiration on first hit
	if count == 1 {
		l.client.Expire(ctx, redisKey, l.window)
	}

	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= l.max, remaining, nil
}

// Reset clears the counter for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, fmt.Sprintf("ratelimit:intake:%s", key)).Err()
}
