package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
)

// InvalidateIP removes all rate limit state for one IP address, across both
// the general and analyze budgets. Used for manual limit resets.
func (rl *RateLimiter) InvalidateIP(ctx context.Context, ip string) error {
	if !rl.redisClient.IsEnabled() {
		rl.fallbackMutex.Lock()
		defer rl.fallbackMutex.Unlock()

		delete(rl.fallbackLimiters, fmt.Sprintf("ratelimit:ip:%s", ip))
		delete(rl.fallbackLimiters, fmt.Sprintf("ratelimit:analyze:%s", ip))

		slog.Info("Invalidated IP rate limits (in-memory)", "ip", ip)
		return nil
	}

	return rl.deleteByPattern(ctx, fmt.Sprintf("ratelimit:*:%s", ip))
}

// deleteByPattern scans and deletes Redis keys matching the pattern.
func (rl *RateLimiter) deleteByPattern(ctx context.Context, pattern string) error {
	client := rl.redisClient.GetClient()

	var deleted int
	iter := client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete rate limit key %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan rate limit keys: %w", err)
	}

	slog.Info("Invalidated rate limit keys", "pattern", pattern, "deleted", deleted)
	return nil
}
