// internal/pkg/session/rate_limiter.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow counts one hit for key inside a fixed window and reports whether it
// is within max, along with the hits remaining.
func (r *RateLimiter) Allow(ctx context.Context, scope, key string, max int64, window time.Duration) (bool, int64, error) {
	k := fmt.Sprintf("ratelimit:%s:%s", scope, key)

	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	// Set expiration on first hit
	if count == 1 {
		r.client.Expire(ctx, k, window)
	}

	remaining := max - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= max, remaining, nil
}

// Reset clears the counter for key.
func (r *RateLimiter) Reset(ctx context.Context, scope, key string) error {
	return r.client.Del(ctx, fmt.Sprintf("ratelimit:%s:%s", scope, key)).Err()
}
