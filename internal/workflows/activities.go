package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/astro-otter/otterweb/internal/adapters/memory"
	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/core/usecases"
)

// ReadResult is the outcome of reading one file.
type ReadResult struct {
	File     string               `json:"file"`
	Records  []domain.TDE         `json:"records"`
	Rejected []usecases.Rejection `json:"rejected,omitempty"`
}

// IngestActivities holds the activity implementations for IngestWorkflow.
type IngestActivities struct {
	Ingest *usecases.IngestService
}

// ListFiles expands the input paths into the JSON files to ingest.
func (a *IngestActivities) ListFiles(ctx context.Context, paths []string) ([]string, error) {
	files, err := memory.CollectFiles(paths...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// ReadRecords decodes one file and splits its records into valid ones and
// rejections.
func (a *IngestActivities) ReadRecords(ctx context.Context, file string) (*ReadResult, error) {
	tdes, err := memory.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	valid, rejected := a.Ingest.Validate(tdes)
	for _, r := range rejected {
		slog.Warn("record rejected", "file", file, "tde", r.Name, "reason", r.Reason)
	}
	return &ReadResult{File: file, Records: valid, Rejected: rejected}, nil
}

// UpsertRecords stores records and returns their default names.
func (a *IngestActivities) UpsertRecords(ctx context.Context, records []domain.TDE) ([]string, error) {
	return a.Ingest.Upsert(ctx, records)
}

// PublishUpdate announces the upserted names on the catalog stream.
func (a *IngestActivities) PublishUpdate(ctx context.Context, batchID, source string, names []string) error {
	return a.Ingest.Publish(ctx, batchID, source, names)
}
