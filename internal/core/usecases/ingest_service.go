package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/core/ports"
	"github.com/astro-otter/otterweb/internal/pkg/metrics"
)

// upsertBatchSize bounds the records sent to the repository per call.
const upsertBatchSize = 500

// Rejection describes a record that failed validation.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// IngestResult summarises one ingest run.
type IngestResult struct {
	BatchID  string      `json:"batch_id"`
	Upserted int         `json:"upserted"`
	Rejected []Rejection `json:"rejected,omitempty"`
}

// IngestService validates and stores OTTER records and announces the change.
type IngestService struct {
	repo   ports.CatalogRepository
	events ports.EventPublisher
}

// NewIngestService creates an IngestService. events may be nil.
func NewIngestService(repo ports.CatalogRepository, events ports.EventPublisher) *IngestService {
	return &IngestService{repo: repo, events: events}
}

// Validate splits tdes into valid records and rejections.
func (s *IngestService) Validate(tdes []domain.TDE) ([]domain.TDE, []Rejection) {
	valid := make([]domain.TDE, 0, len(tdes))
	var rejected []Rejection
	for i := range tdes {
		if err := tdes[i].Validate(); err != nil {
			rejected = append(rejected, Rejection{Name: tdes[i].Name.DefaultName, Reason: err.Error()})
			metrics.RecordsIngested.WithLabelValues("rejected").Inc()
			continue
		}
		valid = append(valid, tdes[i])
	}
	return valid, rejected
}

// Upsert stores tdes in batches and returns their default names.
func (s *IngestService) Upsert(ctx context.Context, tdes []domain.TDE) ([]string, error) {
	names := make([]string, 0, len(tdes))
	for start := 0; start < len(tdes); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(tdes))
		if err := s.repo.UpsertBatch(ctx, tdes[start:end]); err != nil {
			metrics.RecordsIngested.WithLabelValues("failed").Add(float64(end - start))
			return names, fmt.Errorf("upsert records %d-%d: %w", start, end, err)
		}
		for i := start; i < end; i++ {
			names = append(names, tdes[i].Name.DefaultName)
		}
		metrics.RecordsIngested.WithLabelValues("upserted").Add(float64(end - start))
	}
	return names, nil
}

// Publish announces that names were upserted. It is a no-op without a publisher
// or when names is empty.
func (s *IngestService) Publish(ctx context.Context, batchID, source string, names []string) error {
	if s.events == nil || len(names) == 0 {
		return nil
	}
	event := &domain.CatalogEvent{
		ID:        batchID,
		Kind:      "upserted",
		Names:     names,
		Count:     len(names),
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.PublishCatalogEvent(ctx, event); err != nil {
		return fmt.Errorf("publish catalog event: %w", err)
	}
	metrics.CatalogEvents.WithLabelValues("published").Inc()
	return nil
}

// Ingest runs Validate, Upsert and Publish in turn.
func (s *IngestService) Ingest(ctx context.Context, tdes []domain.TDE, source string) (*IngestResult, error) {
	res := &IngestResult{BatchID: uuid.NewString()}

	valid, rejected := s.Validate(tdes)
	res.Rejected = rejected
	for _, r := range rejected {
		slog.Warn("record rejected", "batch", res.BatchID, "tde", r.Name, "reason", r.Reason)
	}

	names, err := s.Upsert(ctx, valid)
	res.Upserted = len(names)
	if err != nil {
		return res, err
	}

	if err := s.Publish(ctx, res.BatchID, source, names); err != nil {
		// Records are stored; subscribers will catch up on the next event.
		slog.Warn("catalog event not published", "batch", res.BatchID, "error", err)
	}

	slog.Info("ingest complete", "batch", res.BatchID, "source", source,
		"upserted", res.Upserted, "rejected", len(res.Rejected))
	return res, nil
}
