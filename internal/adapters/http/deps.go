package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/astro-otter/otterweb/internal/core/usecases"
)

// Pinger is a backend checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Catalog *usecases.CatalogService
	Summary *usecases.SummaryService
	NATS    *nats.Conn
	DB      Pinger
	Cache   Pinger

	DefaultRadiusArcsec float64
	PageSize            int
	Version             string
}
