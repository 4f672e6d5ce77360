package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig sizes the fixed window applied to bookmark saves.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	KeyPrefix   string
}

// DefaultRateLimitConfig allows 30 saves per minute.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 30,
		Window:      time.Minute,
		KeyPrefix:   "bookmarks:ratelimit",
	}
}

// RateLimit counts requests per signed-in user (per IP for anonymous ones) in
// fixed Redis windows. It is a no-op without a client and fails open on Redis errors.
func RateLimit(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) fiber.Handler {
	if redisClient == nil || config.MaxRequests <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		key := config.KeyPrefix + ":" + rateLimitSubject(c)

		pipe := redisClient.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pttl := pipe.PTTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Error("rate limit redis error", zap.Error(err))
			return c.Next()
		}

		count := incr.Val()
		ttl := pttl.Val()
		if ttl < 0 {
			// First hit of the window, or a key that lost its expiry.
			ttl = config.Window
			if err := redisClient.PExpire(ctx, key, ttl).Err(); err != nil {
				logger.Warn("rate limit expire failed", zap.String("key", key), zap.Error(err))
			}
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(config.MaxRequests)-count), 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if count > int64(config.MaxRequests) {
			logger.Warn("rate limit exceeded", requestFields(c)...)
			return fiber.NewError(fiber.StatusTooManyRequests, "You are saving bookmarks too quickly. Try again shortly.")
		}

		return c.Next()
	}
}

func rateLimitSubject(c *fiber.Ctx) string {
	if user := UserFrom(c); user != nil {
		return "user:" + strconv.FormatUint(uint64(user.ID), 10)
	}
	return "ip:" + c.IP()
}
