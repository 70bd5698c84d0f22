package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a cache pattern, logging instead of
// returning errors: cache trouble must never fail the write path.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes cache keys with logging.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateResultCache drops everything derived from one student's results:
// their cached lists plus the dashboard aggregates that include them.
func InvalidateResultCache(ctx context.Context, cm *CacheManager, email string) {
	SafeInvalidatePattern(ctx, cm.Result, fmt.Sprintf("email:%s:*", email))
	SafeInvalidatePattern(ctx, cm.Result, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, "*")
	SafeDelete(ctx, cm.Exists, fmt.Sprintf("attempts:%s", email))
}
