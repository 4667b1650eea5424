package usecases

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/core/ports"
	"github.com/astro-otter/otterweb/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/astro-otter/otterweb/internal/core/usecases")

// generationKey holds the current cache generation. Every cached catalog
// entry is keyed under it, so bumping it invalidates them all at once.
const generationKey = "catalog:generation"

// generationTTL keeps the generation key alive well past any entry TTL.
const generationTTL = 30 * 24 * 3600

// CatalogService handles catalog lookups with a read-through cache.
type CatalogService struct {
	repo     ports.CatalogRepository
	cache    ports.CacheService
	queryTTL int
}

// NewCatalogService creates a CatalogService. cache may be nil.
func NewCatalogService(repo ports.CatalogRepository, cache ports.CacheService, queryTTLSeconds int) *CatalogService {
	if queryTTLSeconds <= 0 {
		queryTTLSeconds = 300
	}
	return &CatalogService{repo: repo, cache: cache, queryTTL: queryTTLSeconds}
}

// Generation returns the current cache generation, "0" when none is set.
func (s *CatalogService) Generation(ctx context.Context) string {
	if s.cache == nil {
		return "0"
	}
	b, err := s.cache.Get(ctx, generationKey)
	if err != nil || len(b) == 0 {
		return "0"
	}
	return string(b)
}

// Invalidate starts a new cache generation.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Set(ctx, generationKey, []byte(uuid.NewString()), generationTTL); err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	return nil
}

// All returns every record.
func (s *CatalogService) All(ctx context.Context) ([]domain.TDE, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.All")
	defer span.End()

	tdes, err := cached(ctx, s, "all", "all", func(ctx context.Context) ([]domain.TDE, error) {
		return s.repo.All(ctx)
	})
	return s.observe(span, "all", tdes, err)
}

// Query returns the records matching q. A zero query is the full catalog.
func (s *CatalogService) Query(ctx context.Context, q domain.Query) ([]domain.TDE, error) {
	if q.IsZero() {
		return s.All(ctx)
	}

	ctx, span := tracer.Start(ctx, "CatalogService.Query",
		trace.WithAttributes(attribute.String("catalog.query", q.Key())))
	defer span.End()

	tdes, err := cached(ctx, s, "query", "q:"+q.Key(), func(ctx context.Context) ([]domain.TDE, error) {
		return s.repo.Query(ctx, q)
	})
	return s.observe(span, "query", tdes, err)
}

// GetByName resolves a default name or alias.
func (s *CatalogService) GetByName(ctx context.Context, name string) (*domain.TDE, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.GetByName",
		trace.WithAttributes(attribute.String("catalog.name", name)))
	defer span.End()

	metrics.CatalogQueries.WithLabelValues("name").Inc()

	key := domain.NormalizeName(name)
	if key == "" {
		return nil, domain.ErrNotFound
	}

	tdes, err := cached(ctx, s, "name", "tde:"+key, func(ctx context.Context) ([]domain.TDE, error) {
		t, err := s.repo.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		return []domain.TDE{*t}, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(tdes) == 0 {
		return nil, domain.ErrNotFound
	}
	return &tdes[0], nil
}

// Stats returns catalog counts.
func (s *CatalogService) Stats(ctx context.Context) (domain.CatalogStats, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.Stats")
	defer span.End()

	metrics.CatalogQueries.WithLabelValues("stats").Inc()
	st, err := s.repo.Stats(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.CatalogStats{}, fmt.Errorf("catalog stats: %w", err)
	}
	return st, nil
}

func (s *CatalogService) observe(span trace.Span, kind string, tdes []domain.TDE, err error) ([]domain.TDE, error) {
	if kind != "name" {
		metrics.CatalogQueries.WithLabelValues(kind).Inc()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("catalog %s: %w", kind, err)
	}
	span.SetAttributes(attribute.Int("catalog.results", len(tdes)))
	metrics.CatalogResultSize.WithLabelValues(kind).Observe(float64(len(tdes)))
	return tdes, nil
}

// cached runs load through the cache under the current generation.
func cached(ctx context.Context, s *CatalogService, op, key string, load func(context.Context) ([]domain.TDE, error)) ([]domain.TDE, error) {
	if s.cache == nil {
		return load(ctx)
	}

	fullKey := "catalog:" + s.Generation(ctx) + ":" + key
	if data, err := s.cache.Get(ctx, fullKey); err == nil {
		var tdes []domain.TDE
		if err := json.Unmarshal(data, &tdes); err == nil {
			metrics.CacheHits.WithLabelValues(op).Inc()
			return tdes, nil
		}
	}
	metrics.CacheMisses.WithLabelValues(op).Inc()

	tdes, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(tdes); err == nil {
		_ = s.cache.Set(ctx, fullKey, data, s.queryTTL)
	}
	return tdes, nil
}
