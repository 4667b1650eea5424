package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on
// endpoint, unless the handler already set one.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := string(c.Response().Header.Peek(fiber.HeaderCacheControl)); existing != "" {
			return err
		}
		if c.Response().StatusCode() >= 400 {
			c.Set(fiber.HeaderCacheControl, "no-store")
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/api/v1/health" || path == "/api/v1/ready":
			ttl = "no-cache"

		case path == "/metrics" || path == "/ws":
			ttl = "no-cache"

		case path == "/api/v1/stats":
			ttl = "public, max-age=60"

		case strings.HasPrefix(path, "/api/v1/"):
			ttl = "public, max-age=300" // catalog changes only on ingest

		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=3600"

		case path == "/":
			ttl = "public, max-age=60"

		default:
			ttl = "public, max-age=300" // object pages
		}

		c.Set(fiber.HeaderCacheControl, ttl)
		return err
	}
}
