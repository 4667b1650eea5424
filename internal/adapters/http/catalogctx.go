package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/astro-otter/otterweb/internal/core/usecases"
)

const catalogLocalsKey = "otterweb.catalog"

// CatalogFromCtx returns the catalog handle of the current request, opening
// it on first use. Every call within one request returns the same handle.
func CatalogFromCtx(c *fiber.Ctx, deps *Dependencies) *usecases.CatalogHandle {
	if h, ok := c.Locals(catalogLocalsKey).(*usecases.CatalogHandle); ok {
		return h
	}
	h := deps.Catalog.Open(LoggerFromCtx(c))
	c.Locals(catalogLocalsKey, h)
	return h
}

// CatalogTeardownMiddleware closes the request's catalog handle, if one was
// opened, once the rest of the chain has returned.
func CatalogTeardownMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if h, ok := c.Locals(catalogLocalsKey).(*usecases.CatalogHandle); ok {
				if err := h.Close(); err != nil {
					LoggerFromCtx(c).Warn("close catalog handle", "error", err)
				}
			}
		}()
		return c.Next()
	}
}
