// Package memory is a catalog repository held in process memory, loaded from
// a directory of OTTER JSON files. It backs development setups and tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/pkg/otterschema"
)

// Store implements ports.CatalogRepository over an in-memory map.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.TDE // keyed by NormalizeName(default name)
}

// New returns an empty store.
func New() *Store {
	return &Store{records: map[string]domain.TDE{}}
}

// LoadDir reads every *.json file under dir. Files may hold one record or an
// array. Records that fail validation are logged and skipped.
func LoadDir(ctx context.Context, dir string) (*Store, error) {
	s := New()
	if dir == "" {
		return s, nil
	}

	files, err := CollectFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, err)
	}

	var loaded []domain.TDE
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tdes, err := ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", dir, err)
		}
		for i := range tdes {
			if err := tdes[i].Validate(); err != nil {
				slog.Warn("skipping invalid record", "file", path, "error", err)
				continue
			}
			loaded = append(loaded, tdes[i])
		}
	}

	if err := s.UpsertBatch(ctx, loaded); err != nil {
		return nil, err
	}
	slog.Info("catalog loaded", "dir", dir, "records", len(s.records))
	return s, nil
}

// ReadFile checks one file against the OTTER schema and decodes its records.
// An empty file holds no records.
func ReadFile(path string) ([]domain.TDE, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if err := otterschema.Validate(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	tdes, err := domain.DecodeRecords(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tdes, nil
}

func (s *Store) sorted(keep func(t *domain.TDE) bool) []domain.TDE {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TDE, 0, len(s.records))
	for _, t := range s.records {
		if keep == nil || keep(&t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name.DefaultName < out[j].Name.DefaultName
	})
	return out
}

func (s *Store) All(ctx context.Context) ([]domain.TDE, error) {
	return s.sorted(nil), nil
}

func (s *Store) Query(ctx context.Context, q domain.Query) ([]domain.TDE, error) {
	return s.sorted(q.Matches), nil
}

// GetByName prefers a default-name match over an alias match.
func (s *Store) GetByName(ctx context.Context, name string) (*domain.TDE, error) {
	key := domain.NormalizeName(name)
	if key == "" {
		return nil, domain.ErrNotFound
	}

	s.mu.RLock()
	t, ok := s.records[key]
	s.mu.RUnlock()
	if ok {
		return &t, nil
	}

	matches := s.sorted(func(t *domain.TDE) bool { return t.HasName(name) })
	if len(matches) == 0 {
		return nil, domain.ErrNotFound
	}
	return &matches[0], nil
}

func (s *Store) UpsertBatch(ctx context.Context, tdes []domain.TDE) error {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range tdes {
		t := tdes[i]
		key := domain.NormalizeName(t.Name.DefaultName)
		if key == "" {
			return fmt.Errorf("%w: name.default_name is required", domain.ErrInvalidRecord)
		}
		t.UpdatedAt = &now
		s.records[key] = t
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (domain.CatalogStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st domain.CatalogStats
	for _, t := range s.records {
		st.Total++
		if _, ok := t.Redshift(); ok {
			st.WithRedshift++
		}
		if len(t.Photometry) > 0 {
			st.WithPhotometry++
		}
		if len(t.Spectra) > 0 {
			st.WithSpectra++
		}
		if t.UpdatedAt != nil && (st.LastUpdated == nil || t.UpdatedAt.After(*st.LastUpdated)) {
			u := *t.UpdatedAt
			st.LastUpdated = &u
		}
	}
	return st, nil
}
