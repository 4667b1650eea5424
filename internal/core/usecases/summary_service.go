package usecases

import (
	"context"
	"html/template"
	"time"

	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/core/ports"
	"github.com/astro-otter/otterweb/internal/pkg/metrics"
	"github.com/astro-otter/otterweb/internal/plot"
)

// SummaryService renders the catalog summary figure and caches the markup.
type SummaryService struct {
	cache ports.CacheService
	ttl   int
	opts  plot.Options
}

// NewSummaryService creates a SummaryService. cache may be nil.
func NewSummaryService(cache ports.CacheService, ttlSeconds int, opts plot.Options) *SummaryService {
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}
	return &SummaryService{cache: cache, ttl: ttlSeconds, opts: opts}
}

// Render returns the summary figure for tdes. When key is non-empty the markup
// is cached under key within generation.
func (s *SummaryService) Render(ctx context.Context, tdes []domain.TDE, generation, key string) (template.HTML, error) {
	ctx, span := tracer.Start(ctx, "SummaryService.Render")
	defer span.End()

	fullKey := ""
	if s.cache != nil && key != "" {
		fullKey = "summary:" + generation + ":" + key
		if data, err := s.cache.Get(ctx, fullKey); err == nil && len(data) > 0 {
			metrics.CacheHits.WithLabelValues("summary").Inc()
			return template.HTML(data), nil
		}
		metrics.CacheMisses.WithLabelValues("summary").Inc()
	}

	start := time.Now()
	html, err := plot.CatalogSummary(tdes, s.opts)
	metrics.PlotRenderDuration.WithLabelValues("summary").Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	if fullKey != "" {
		_ = s.cache.Set(ctx, fullKey, []byte(html), s.ttl)
	}
	return html, nil
}

// Object renders the photometry and spectra figures of one record.
func (s *SummaryService) Object(ctx context.Context, t *domain.TDE) (phot, spec template.HTML, err error) {
	_, span := tracer.Start(ctx, "SummaryService.Object")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.PlotRenderDuration.WithLabelValues("object").Observe(time.Since(start).Seconds())
	}()

	opts := plot.Options{Width: s.opts.Width, Height: "400px"}
	if phot, err = plot.Photometry(t, opts); err != nil {
		return "", "", err
	}
	if spec, err = plot.Spectra(t, opts); err != nil {
		return "", "", err
	}
	return phot, spec, nil
}
