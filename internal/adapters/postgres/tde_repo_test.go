package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/pkg/astro"
)

func TestBuildQuery_Empty(t *testing.T) {
	sql, args := buildQuery(domain.Query{})
	assert.Equal(t, "SELECT record, updated_at FROM tdes ORDER BY name", sql)
	assert.Empty(t, args)
}

func TestBuildQuery_AllPredicates(t *testing.T) {
	minZ, maxZ := 0.01, 0.1
	q := domain.Query{
		Names:        []string{"AT 2018hyz", "  "},
		Coord:        &astro.SkyCoord{RA: 10, Dec: 20},
		RadiusArcsec: 36,
		MinZ:         &minZ,
		MaxZ:         &maxZ,
		PhotType:     "Radio",
		HasSpec:      true,
	}
	sql, args := buildQuery(q)

	assert.Contains(t, sql, "name_keys && $1::text[]")
	assert.Contains(t, sql, "dec_deg BETWEEN $2 AND $3")
	assert.Contains(t, sql, "redshift >= $4")
	assert.Contains(t, sql, "redshift <= $5")
	assert.Contains(t, sql, "has_photometry AND $6 = ANY(photometry_types)")
	assert.Contains(t, sql, "has_spectra")
	assert.NotContains(t, sql, "spectra_types")

	assert.Equal(t, []string{"at2018hyz"}, args[0])
	assert.InDelta(t, 19.99, args[1].(float64), 1e-9)
	assert.InDelta(t, 20.01, args[2].(float64), 1e-9)
	assert.Equal(t, "radio", args[5])
}
