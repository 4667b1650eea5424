package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/astro-otter/otterweb/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers the catalog pages and the JSON, GraphQL and
// WebSocket routes. The object page route is a catch-all and goes last.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(CatalogTeardownMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/api/v1/health", HealthHandler(deps))
	app.Get("/api/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/api/v1")
	v1.Get("/tdes", timeout.NewWithContext(ListTDEsHandler(deps), requestTimeout))
	v1.Get("/tdes/:name", timeout.NewWithContext(GetTDEHandler(deps), requestTimeout))
	v1.Get("/summary", timeout.NewWithContext(SummaryHandler(deps), requestTimeout))
	v1.Get("/stats", timeout.NewWithContext(StatsHandler(deps), requestTimeout))
	v1.Use(func(c *fiber.Ctx) error {
		return errNotFound(c, "no such endpoint: "+c.Path())
	})

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))

	// Catalog pages
	app.Get("/", timeout.NewWithContext(HomeHandler(deps), requestTimeout))
	app.Post("/", timeout.NewWithContext(SearchHandler(deps), requestTimeout))
	app.Get("/:tdename", timeout.NewWithContext(TDEPageHandler(deps), requestTimeout))
}
