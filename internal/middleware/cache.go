package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Cache serves repeated GET requests from Redis. Lookups fail open: if Redis
// is unreachable or not configured the request falls through to the handler.
func Cache(rdb *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil || c.Method() != fiber.MethodGet {
			return c.Next()
		}

		key := "cache:" + c.OriginalURL()
		cached, err := rdb.Get(c.Context(), key).Bytes()
		if err == nil {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			c.Set("X-Cache", "HIT")
			return c.Send(cached)
		}

		if err := c.Next(); err != nil {
			return err
		}

		if c.Response().StatusCode() == fiber.StatusOK {
			body := make([]byte, len(c.Response().Body()))
			copy(body, c.Response().Body())
			rdb.Set(c.Context(), key, body, ttl)
		}
		c.Set("X-Cache", "MISS")
		return nil
	}
}

// CacheInvalidate drops cached entries under a URL prefix once the wrapped
// mutation succeeds. Without a Redis client it is a passthrough.
func CacheInvalidate(rdb *redis.Client, prefix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		if rdb != nil && c.Response().StatusCode() < fiber.StatusMultipleChoices {
			InvalidateCache(c.Context(), rdb, prefix)
		}
		return nil
	}
}

// InvalidateCache drops every cached entry under a URL prefix.
func InvalidateCache(ctx context.Context, rdb *redis.Client, prefix string) {
	iter := rdb.Scan(ctx, 0, "cache:"+prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		rdb.Del(ctx, iter.Val())
	}
}
