package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/pkg/astro"
)

const asassn14li = `{
  "name": {"default_name": "ASASSN-14li", "alias": [{"value": "ASASSN-14li"}, {"value": "PGC 043234"}]},
  "coordinate": {"equitorial": [
    {"ra": "12:00:00", "dec": "+10:00:00", "reference": "a"},
    {"ra": "12:48:15.226", "dec": "+17:46:26.44", "default": true}
  ]},
  "distance": {"redshift": [{"value": "0.0206"}]},
  "photometry": [{"raw": [16.1, 16.4], "date": [56990.1, 57000.2], "filter": "V", "obs_type": "uvoir", "raw_units": "mag"}],
  "spectra": [{"wavelength": [4000, 5000], "flux": [1e-15, 2e-15], "obs_type": "uvoir"}]
}`

func decodeOne(t *testing.T, s string) domain.TDE {
	t.Helper()
	tdes, err := domain.DecodeRecords(strings.NewReader(s))
	require.NoError(t, err)
	require.Len(t, tdes, 1)
	return tdes[0]
}

func TestDefaultEquatorial_PicksFlagged(t *testing.T) {
	tde := decodeOne(t, asassn14li)
	c, ok := tde.DefaultEquatorial()
	require.True(t, ok)
	assert.Equal(t, domain.Value("12:48:15.226"), c.RA)
}

func TestDefaultEquatorial_FallsBackToFirst(t *testing.T) {
	tde := domain.TDE{Coordinate: domain.Coordinates{Equatorial: []domain.EquatorialCoord{
		{RA: "01:00:00", Dec: "+01:00:00"},
		{RA: "02:00:00", Dec: "+02:00:00"},
	}}}
	c, ok := tde.DefaultEquatorial()
	require.True(t, ok)
	assert.Equal(t, domain.Value("01:00:00"), c.RA)

	pos, err := tde.Position()
	require.NoError(t, err)
	assert.InDelta(t, 15.0, pos.RA, 1e-9)
	assert.InDelta(t, 1.0, pos.Dec, 1e-9)
}

func TestPosition_NoCoordinates(t *testing.T) {
	tde := domain.TDE{Name: domain.Name{DefaultName: "empty"}}
	_, ok := tde.DefaultEquatorial()
	assert.False(t, ok)
	_, err := tde.Position()
	assert.True(t, errors.Is(err, domain.ErrNoCoordinates))
}

func TestRedshift(t *testing.T) {
	tde := decodeOne(t, asassn14li)
	z, ok := tde.Redshift()
	require.True(t, ok)
	assert.InDelta(t, 0.0206, z, 1e-12)

	numeric := decodeOne(t, `{"name":{"default_name":"x"},"coordinate":{"equitorial":[{"ra":1,"dec":2}]},"distance":{"redshift":[{"value":0.5}]}}`)
	z, ok = numeric.Redshift()
	require.True(t, ok)
	assert.Equal(t, 0.5, z)

	none := domain.TDE{}
	_, ok = none.Redshift()
	assert.False(t, ok)
}

func TestValue_RoundTrip(t *testing.T) {
	type wrapper struct {
		V domain.Value `json:"v"`
	}
	for in, want := range map[string]string{
		`{"v":"0.02"}`:        `{"v":0.02}`,
		`{"v":1.5}`:           `{"v":1.5}`,
		`{"v":"12:00:00"}`:    `{"v":"12:00:00"}`,
		`{"v":null}`:          `{"v":null}`,
		`{"v":"+17:46:26.4"}`: `{"v":"+17:46:26.4"}`,
	} {
		var w wrapper
		require.NoError(t, json.Unmarshal([]byte(in), &w), in)
		out, err := json.Marshal(w)
		require.NoError(t, err)
		assert.JSONEq(t, want, string(out), in)
	}
}

func TestNamesAndHasName(t *testing.T) {
	tde := decodeOne(t, asassn14li)
	assert.Equal(t, []string{"ASASSN-14li", "PGC 043234"}, tde.Names())
	assert.True(t, tde.HasName("asassn-14li"))
	assert.True(t, tde.HasName("PGC043234"))
	assert.False(t, tde.HasName("AT2018hyz"))
	assert.False(t, tde.HasName("  "))
}

func TestValidate(t *testing.T) {
	tde := decodeOne(t, asassn14li)
	assert.NoError(t, tde.Validate())

	bad := domain.TDE{Name: domain.Name{DefaultName: "x"}, Coordinate: domain.Coordinates{
		Equatorial: []domain.EquatorialCoord{{RA: "99:00:00", Dec: "0"}},
	}}
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidRecord)

	assert.ErrorIs(t, (&domain.TDE{}).Validate(), domain.ErrInvalidRecord)
}

func TestDecodeRecords_Array(t *testing.T) {
	tdes, err := domain.DecodeRecords(strings.NewReader("[" + asassn14li + "," + asassn14li + "]"))
	require.NoError(t, err)
	assert.Len(t, tdes, 2)

	tdes, err = domain.DecodeRecords(strings.NewReader("   "))
	require.NoError(t, err)
	assert.Empty(t, tdes)

	_, err = domain.DecodeRecords(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func ptr(f float64) *float64 { return &f }

func TestQueryMatches(t *testing.T) {
	tde := decodeOne(t, asassn14li)
	pos, err := tde.Position()
	require.NoError(t, err)

	tests := []struct {
		name string
		q    domain.Query
		want bool
	}{
		{"zero query", domain.Query{}, true},
		{"name match", domain.Query{Names: []string{"asassn-14li"}}, true},
		{"name punctuation differs", domain.Query{Names: []string{"ASASSN 14li"}}, false},
		{"alias match", domain.Query{Names: []string{"pgc 043234"}}, true},
		{"name miss", domain.Query{Names: []string{"AT2018hyz"}}, false},
		{"cone hit", domain.Query{Coord: &astro.SkyCoord{RA: pos.RA + 1.0/3600, Dec: pos.Dec}}, true},
		{"cone miss default radius", domain.Query{Coord: &astro.SkyCoord{RA: pos.RA, Dec: pos.Dec + 10.0/3600}}, false},
		{"cone hit wide radius", domain.Query{Coord: &astro.SkyCoord{RA: pos.RA, Dec: pos.Dec + 10.0/3600}, RadiusArcsec: 20}, true},
		{"z in range", domain.Query{MinZ: ptr(0.01), MaxZ: ptr(0.03)}, true},
		{"z below", domain.Query{MinZ: ptr(0.05)}, false},
		{"z above", domain.Query{MaxZ: ptr(0.01)}, false},
		{"has phot", domain.Query{HasPhot: true}, true},
		{"phot radio", domain.Query{PhotType: "radio"}, false},
		{"spec uvoir", domain.Query{SpecType: "UVOIR"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Matches(&tde))
		})
	}
}

func TestQueryMatches_RedshiftBoundExcludesMissing(t *testing.T) {
	tde := domain.TDE{Name: domain.Name{DefaultName: "noz"}, Coordinate: domain.Coordinates{
		Equatorial: []domain.EquatorialCoord{{RA: "1", Dec: "1"}},
	}}
	assert.True(t, domain.Query{}.Matches(&tde))
	assert.False(t, domain.Query{MinZ: ptr(0)}.Matches(&tde))
}

func TestQueryKey_Stable(t *testing.T) {
	a := domain.Query{Names: []string{"B", "a"}, MinZ: ptr(0.1)}
	b := domain.Query{Names: []string{"A", "b"}, MinZ: ptr(0.1)}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), domain.Query{}.Key())
}

func TestSummarize(t *testing.T) {
	tde := decodeOne(t, asassn14li)
	s, err := domain.Summarize(&tde)
	require.NoError(t, err)
	assert.Equal(t, "ASASSN-14li", s.Name)
	assert.Equal(t, []string{"PGC 043234"}, s.Aliases)
	require.NotNil(t, s.Redshift)
	assert.InDelta(t, 0.0206, *s.Redshift, 1e-12)
	assert.Equal(t, []string{"uvoir"}, s.PhotometryTypes)
	assert.True(t, s.HasSpectra)
}

func TestRedshift_NonFinite(t *testing.T) {
	for _, v := range []string{`"NaN"`, `"inf"`, `"-Infinity"`} {
		t.Run(v, func(t *testing.T) {
			tde := decodeOne(t, `{"name":{"default_name":"x"},"coordinate":{"equitorial":[{"ra":"01:00:00","dec":"+10:00:00"}]},"distance":{"redshift":[{"value":`+v+`}]}}`)

			_, ok := tde.Redshift()
			assert.False(t, ok)
			assert.ErrorIs(t, tde.Validate(), domain.ErrInvalidRecord)

			lo, hi := 0.4, 0.6
			assert.False(t, domain.Query{MinZ: &lo, MaxZ: &hi}.Matches(&tde))

			s, err := domain.Summarize(&tde)
			require.NoError(t, err)
			assert.Nil(t, s.Redshift)
		})
	}
}

func TestValue_FloatRejectsNonFinite(t *testing.T) {
	for _, v := range []domain.Value{"NaN", "Inf", "+Infinity", "-inf"} {
		_, err := v.Float()
		assert.Error(t, err, "value %q", v)
	}
	f, err := domain.Value(" 0.5 ").Float()
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)
}
