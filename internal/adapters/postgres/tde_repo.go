package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/astro-otter/otterweb/internal/core/domain"
)

// TDERepo implements ports.CatalogRepository with pgx.
type TDERepo struct {
	db *DB
}

// NewTDERepo creates a new TDERepo.
func NewTDERepo(db *DB) *TDERepo {
	return &TDERepo{db: db}
}

const upsertTDE = `
	INSERT INTO tdes (name, aliases, name_keys, ra_deg, dec_deg, redshift,
	                  has_photometry, has_spectra, photometry_types, spectra_types, record, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
	ON CONFLICT (name) DO UPDATE
	SET aliases = EXCLUDED.aliases, name_keys = EXCLUDED.name_keys,
	    ra_deg = EXCLUDED.ra_deg, dec_deg = EXCLUDED.dec_deg, redshift = EXCLUDED.redshift,
	    has_photometry = EXCLUDED.has_photometry, has_spectra = EXCLUDED.has_spectra,
	    photometry_types = EXCLUDED.photometry_types, spectra_types = EXCLUDED.spectra_types,
	    record = EXCLUDED.record, updated_at = now()
`

// UpsertBatch inserts or replaces records using pgx.Batch. Derived columns
// come from domain.Summarize; the full record is stored as jsonb.
func (r *TDERepo) UpsertBatch(ctx context.Context, tdes []domain.TDE) error {
	if len(tdes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range tdes {
		t := &tdes[i]
		s, err := domain.Summarize(t)
		if err != nil {
			return fmt.Errorf("summarize %s: %w", t.Name.DefaultName, err)
		}
		rec := *t
		rec.UpdatedAt = nil
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", t.Name.DefaultName, err)
		}
		batch.Queue(upsertTDE,
			s.Name, s.Aliases, s.NameKeys, s.RA, s.Dec, s.Redshift,
			s.HasPhotometry, s.HasSpectra, s.PhotometryTypes, s.SpectraTypes, string(data))
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range tdes {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// All returns every record ordered by name.
func (r *TDERepo) All(ctx context.Context) ([]domain.TDE, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT record, updated_at FROM tdes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return scanTDEs(rows, nil)
}

// Query pushes the indexable predicates of q into SQL and applies
// q.Matches to the rows for the exact result.
func (r *TDERepo) Query(ctx context.Context, q domain.Query) ([]domain.TDE, error) {
	sql, args := buildQuery(q)
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanTDEs(rows, &q)
}

// buildQuery returns the prefilter SELECT for q.
func buildQuery(q domain.Query) (string, []any) {
	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(q.Names) > 0 {
		keys := make([]string, 0, len(q.Names))
		for _, n := range q.Names {
			if k := domain.NormalizeName(n); k != "" {
				keys = append(keys, k)
			}
		}
		where = append(where, "name_keys && "+arg(keys)+"::text[]")
	}
	if q.Coord != nil {
		lo, hi := q.Coord.DecBand(q.Radius())
		where = append(where, "dec_deg BETWEEN "+arg(lo)+" AND "+arg(hi))
	}
	if q.MinZ != nil {
		where = append(where, "redshift >= "+arg(*q.MinZ))
	}
	if q.MaxZ != nil {
		where = append(where, "redshift <= "+arg(*q.MaxZ))
	}
	if q.HasPhot || q.PhotType != "" {
		where = append(where, "has_photometry")
	}
	if q.PhotType != "" {
		where = append(where, arg(strings.ToLower(q.PhotType))+" = ANY(photometry_types)")
	}
	if q.HasSpec || q.SpecType != "" {
		where = append(where, "has_spectra")
	}
	if q.SpecType != "" {
		where = append(where, arg(strings.ToLower(q.SpecType))+" = ANY(spectra_types)")
	}

	sql := "SELECT record, updated_at FROM tdes"
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	return sql + " ORDER BY name", args
}

// GetByName resolves a default name or alias.
func (r *TDERepo) GetByName(ctx context.Context, name string) (*domain.TDE, error) {
	key := domain.NormalizeName(name)
	if key == "" {
		return nil, domain.ErrNotFound
	}

	var (
		data    []byte
		updated time.Time
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT record, updated_at FROM tdes
		WHERE $1 = ANY(name_keys)
		ORDER BY (name_keys[1] = $1) DESC, name
		LIMIT 1
	`, key).Scan(&data, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var t domain.TDE
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", name, err)
	}
	t.UpdatedAt = &updated
	return &t, nil
}

// Stats returns catalog counts.
func (r *TDERepo) Stats(ctx context.Context) (domain.CatalogStats, error) {
	var s domain.CatalogStats
	err := r.db.Pool.QueryRow(ctx, `
		SELECT count(*),
		       count(redshift),
		       count(*) FILTER (WHERE has_photometry),
		       count(*) FILTER (WHERE has_spectra),
		       max(updated_at)
		FROM tdes
	`).Scan(&s.Total, &s.WithRedshift, &s.WithPhotometry, &s.WithSpectra, &s.LastUpdated)
	if err != nil {
		return domain.CatalogStats{}, err
	}
	return s, nil
}

// scanTDEs decodes (record, updated_at) rows, keeping only those matching q
// when q is non-nil.
func scanTDEs(rows pgx.Rows, q *domain.Query) ([]domain.TDE, error) {
	defer rows.Close()

	var tdes []domain.TDE
	for rows.Next() {
		var (
			data    []byte
			updated time.Time
		)
		if err := rows.Scan(&data, &updated); err != nil {
			return nil, err
		}
		var t domain.TDE
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		if q != nil && !q.Matches(&t) {
			continue
		}
		t.UpdatedAt = &updated
		tdes = append(tdes, t)
	}
	return tdes, rows.Err()
}
