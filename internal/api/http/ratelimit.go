package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/civifix-service/internal/auth"
	"github.com/spec-kit/civifix-service/internal/config"
	apperrors "github.com/spec-kit/civifix-service/pkg/util"
)

// IssueSubmitLimiter caps how many issues a single user may file per window.
// The counter lives in Redis: INCR on each attempt, EXPIRE set on the first
// hit so the window slides from the first submission.
func IssueSubmitLimiter(client *redis.Client, cfg config.RateLimitConfig) fiber.Handler {
	window := cfg.Window()
	return func(c *fiber.Ctx) error {
		principal, ok := auth.PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthenticated("user required")
		}

		key := fmt.Sprintf("ratelimit:issues:%s", principal.User.ID)
		ctx := c.UserContext()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			// Fail open: a Redis outage should not block submissions.
			return c.Next()
		}
		if count == 1 {
			client.Expire(ctx, key, window)
		}
		if count > int64(cfg.IssuesPerWindow) {
			retryAfter := window
			if ttl, err := client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				retryAfter = ttl
			}
			return apperrors.NewRateLimited("issue submission limit reached", map[string]any{
				"limit":               cfg.IssuesPerWindow,
				"retry_after_seconds": int64(retryAfter / time.Second),
			})
		}
		return c.Next()
	}
}
