//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/astro-otter/otterweb/internal/adapters/postgres"
	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/pkg/astro"
	"github.com/astro-otter/otterweb/internal/pkg/config"
	"github.com/astro-otter/otterweb/migrations"
)

// setupTestDB connects to the test database, applies the schema and clears the table.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("otterweb-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if _, err := migrations.Up(ctx, db.Pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.Pool.Exec(ctx, "TRUNCATE tdes"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

func record(name, ra, dec, z string, alias ...string) domain.TDE {
	t := domain.TDE{
		Name: domain.Name{DefaultName: name},
		Coordinate: domain.Coordinates{Equatorial: []domain.EquatorialCoord{
			{RA: domain.Value(ra), Dec: domain.Value(dec), Default: true},
		}},
	}
	for _, a := range alias {
		t.Name.Alias = append(t.Name.Alias, domain.Alias{Value: a})
	}
	if z != "" {
		t.Distance = &domain.Distance{Redshift: []domain.Measurement{{Value: domain.Value(z)}}}
	}
	return t
}

func TestTDERepo_Integration(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewTDERepo(db)
	ctx := context.Background()

	err := repo.UpsertBatch(ctx, []domain.TDE{
		record("ASASSN-14li", "12:48:15.226", "+17:46:26.44", "0.0206", "PGC 043234"),
		record("AT2018hyz", "10:06:50.871", "+01:41:34.08", "0.0457"),
		record("noz", "01:00:00", "-30:00:00", ""),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	all, err := repo.All(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 records, got %d (%v)", len(all), err)
	}

	got, err := repo.GetByName(ctx, "pgc 043234")
	if err != nil {
		t.Fatalf("get by alias: %v", err)
	}
	if got.Name.DefaultName != "ASASSN-14li" || got.UpdatedAt == nil {
		t.Errorf("unexpected record: %+v", got.Name)
	}

	if _, err := repo.GetByName(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	pos, _ := got.Position()
	res, err := repo.Query(ctx, domain.Query{Coord: &astro.SkyCoord{RA: pos.RA + 2.0/3600, Dec: pos.Dec}})
	if err != nil || len(res) != 1 {
		t.Fatalf("cone search: expected 1, got %d (%v)", len(res), err)
	}

	minZ := 0.03
	res, err = repo.Query(ctx, domain.Query{MinZ: &minZ})
	if err != nil || len(res) != 1 || res[0].Name.DefaultName != "AT2018hyz" {
		t.Fatalf("redshift query: unexpected %v (%v)", res, err)
	}

	st, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 3 || st.WithRedshift != 2 || st.LastUpdated == nil {
		t.Errorf("unexpected stats: %+v", st)
	}
}
