package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/pkg/metrics"
)

// ErrHandleClosed is returned by a CatalogHandle used after Close.
var ErrHandleClosed = errors.New("catalog handle closed")

// CatalogHandle is the catalog as seen by a single request. It counts the
// lookups made through it and is closed once the request ends. A handle is
// not safe for concurrent use.
type CatalogHandle struct {
	svc     *CatalogService
	log     *slog.Logger
	opened  time.Time
	queries int
	closed  bool
}

// Open returns a new request-scoped handle. A nil logger uses slog.Default.
func (s *CatalogService) Open(log *slog.Logger) *CatalogHandle {
	if log == nil {
		log = slog.Default()
	}
	return &CatalogHandle{svc: s, log: log, opened: time.Now()}
}

func (h *CatalogHandle) begin() error {
	if h.closed {
		return ErrHandleClosed
	}
	h.queries++
	return nil
}

func (h *CatalogHandle) All(ctx context.Context) ([]domain.TDE, error) {
	if err := h.begin(); err != nil {
		return nil, err
	}
	return h.svc.All(ctx)
}

func (h *CatalogHandle) Query(ctx context.Context, q domain.Query) ([]domain.TDE, error) {
	if err := h.begin(); err != nil {
		return nil, err
	}
	return h.svc.Query(ctx, q)
}

func (h *CatalogHandle) GetByName(ctx context.Context, name string) (*domain.TDE, error) {
	if err := h.begin(); err != nil {
		return nil, err
	}
	return h.svc.GetByName(ctx, name)
}

func (h *CatalogHandle) Stats(ctx context.Context) (domain.CatalogStats, error) {
	if err := h.begin(); err != nil {
		return domain.CatalogStats{}, err
	}
	return h.svc.Stats(ctx)
}

// Generation exposes the cache generation for derived caches.
func (h *CatalogHandle) Generation(ctx context.Context) string {
	return h.svc.Generation(ctx)
}

// Queries returns the number of lookups made so far.
func (h *CatalogHandle) Queries() int { return h.queries }

// Closed reports whether Close has been called.
func (h *CatalogHandle) Closed() bool { return h.closed }

// Close releases the handle. Closing twice is a no-op.
func (h *CatalogHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	metrics.HandleQueries.Observe(float64(h.queries))
	h.log.Debug("catalog handle closed",
		"queries", h.queries,
		"held", time.Since(h.opened).String(),
	)
	return nil
}
