package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/astro-otter/otterweb/internal/pkg/astro"
)

// DefaultSearchRadiusArcsec is the cone radius used when a query gives a
// position but no radius.
const DefaultSearchRadiusArcsec = 5.0

// RedshiftTolerance is the half-width used when matching an exact redshift.
const RedshiftTolerance = 5e-4

// Query selects catalog records. The zero value matches everything.
type Query struct {
	Names        []string        `json:"names,omitempty"`
	Coord        *astro.SkyCoord `json:"coord,omitempty"`
	RadiusArcsec float64         `json:"radius_arcsec,omitempty"`
	MinZ         *float64        `json:"min_z,omitempty"`
	MaxZ         *float64        `json:"max_z,omitempty"`
	HasPhot      bool            `json:"has_phot,omitempty"`
	HasSpec      bool            `json:"has_spec,omitempty"`
	PhotType     string          `json:"phot_type,omitempty"`
	SpecType     string          `json:"spec_type,omitempty"`
}

// IsZero reports whether q has no predicates.
func (q Query) IsZero() bool {
	return len(q.Names) == 0 && q.Coord == nil && q.MinZ == nil && q.MaxZ == nil &&
		!q.HasPhot && !q.HasSpec && q.PhotType == "" && q.SpecType == ""
}

// Radius returns the effective cone radius in arcseconds.
func (q Query) Radius() float64 {
	if q.RadiusArcsec > 0 {
		return q.RadiusArcsec
	}
	return DefaultSearchRadiusArcsec
}

// Matches reports whether t satisfies every predicate of q.
func (q Query) Matches(t *TDE) bool {
	if len(q.Names) > 0 {
		found := false
		for _, n := range q.Names {
			if t.HasName(n) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if q.Coord != nil {
		pos, err := t.Position()
		if err != nil {
			return false
		}
		if q.Coord.SeparationArcsec(pos) > q.Radius() {
			return false
		}
	}

	if q.MinZ != nil || q.MaxZ != nil {
		z, ok := t.Redshift()
		if !ok {
			return false
		}
		if q.MinZ != nil && z < *q.MinZ {
			return false
		}
		if q.MaxZ != nil && z > *q.MaxZ {
			return false
		}
	}

	if (q.HasPhot || q.PhotType != "") && !t.HasPhotometry(q.PhotType) {
		return false
	}
	if (q.HasSpec || q.SpecType != "") && !t.HasSpectra(q.SpecType) {
		return false
	}
	return true
}

// Key returns a stable string for q, used for cache keys.
func (q Query) Key() string {
	var b strings.Builder
	names := make([]string, 0, len(q.Names))
	for _, n := range q.Names {
		names = append(names, NormalizeName(n))
	}
	sort.Strings(names)
	fmt.Fprintf(&b, "n=%s", strings.Join(names, ","))
	if q.Coord != nil {
		fmt.Fprintf(&b, ";c=%.6f,%.6f;r=%g", q.Coord.RA, q.Coord.Dec, q.Radius())
	}
	if q.MinZ != nil {
		fmt.Fprintf(&b, ";zmin=%g", *q.MinZ)
	}
	if q.MaxZ != nil {
		fmt.Fprintf(&b, ";zmax=%g", *q.MaxZ)
	}
	fmt.Fprintf(&b, ";p=%t,%s;s=%t,%s", q.HasPhot, strings.ToLower(q.PhotType), q.HasSpec, strings.ToLower(q.SpecType))
	return b.String()
}

// Summary holds the columns derived from a record for indexed storage.
type Summary struct {
	Name            string
	Aliases         []string
	NameKeys        []string // NormalizeName of every name
	RA              float64
	Dec             float64
	Redshift        *float64
	HasPhotometry   bool
	HasSpectra      bool
	PhotometryTypes []string
	SpectraTypes    []string
}

// Summarize derives the indexed columns of t. t must be valid.
func Summarize(t *TDE) (Summary, error) {
	pos, err := t.Position()
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		Name:            t.Name.DefaultName,
		Aliases:         t.Names()[1:],
		RA:              pos.RA,
		Dec:             pos.Dec,
		HasPhotometry:   len(t.Photometry) > 0,
		HasSpectra:      len(t.Spectra) > 0,
		PhotometryTypes: distinctLower(len(t.Photometry), func(i int) string { return t.Photometry[i].ObsType }),
		SpectraTypes:    distinctLower(len(t.Spectra), func(i int) string { return t.Spectra[i].ObsType }),
	}
	for _, n := range t.Names() {
		s.NameKeys = append(s.NameKeys, NormalizeName(n))
	}
	if z, ok := t.Redshift(); ok && !math.IsNaN(z) {
		s.Redshift = &z
	}
	return s, nil
}

func distinctLower(n int, at func(i int) string) []string {
	out := []string{}
	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		v := strings.ToLower(strings.TrimSpace(at(i)))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
