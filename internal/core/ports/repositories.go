package ports

import (
	"context"

	"github.com/astro-otter/otterweb/internal/core/domain"
)

// CatalogRepository stores and queries TDE records.
type CatalogRepository interface {
	// All returns every record ordered by name.
	All(ctx context.Context) ([]domain.TDE, error)
	// Query returns the records matching q ordered by name.
	Query(ctx context.Context, q domain.Query) ([]domain.TDE, error)
	// GetByName resolves a default name or alias. Returns domain.ErrNotFound.
	GetByName(ctx context.Context, name string) (*domain.TDE, error)
	UpsertBatch(ctx context.Context, tdes []domain.TDE) error
	Stats(ctx context.Context) (domain.CatalogStats, error)
}
