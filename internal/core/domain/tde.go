package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/astro-otter/otterweb/internal/pkg/astro"
)

// TDE is a single tidal disruption event record in the OTTER catalog schema.
type TDE struct {
	Name           Name             `json:"name"`
	Coordinate     Coordinates      `json:"coordinate"`
	Distance       *Distance        `json:"distance,omitempty"`
	Classification []Classification `json:"classification,omitempty"`
	Photometry     []Photometry     `json:"photometry,omitempty"`
	Spectra        []Spectrum       `json:"spectra,omitempty"`
	UpdatedAt      *time.Time       `json:"updated_at,omitempty"`
}

// Name holds the canonical name and known aliases.
type Name struct {
	DefaultName string  `json:"default_name"`
	Alias       []Alias `json:"alias,omitempty"`
}

type Alias struct {
	Value     string `json:"value"`
	Reference any    `json:"reference,omitempty"`
}

// Coordinates groups the position measurements of a record.
// "equitorial" is the key used by the catalog format.
type Coordinates struct {
	Equatorial []EquatorialCoord `json:"equitorial"`
}

// EquatorialCoord is one RA/Dec measurement. RA is in hour angle, Dec in degrees.
type EquatorialCoord struct {
	RA        Value `json:"ra"`
	Dec       Value `json:"dec"`
	Default   bool  `json:"default,omitempty"`
	Computed  bool  `json:"computed,omitempty"`
	Reference any   `json:"reference,omitempty"`
}

// SkyCoord converts the measurement to decimal degrees.
func (e EquatorialCoord) SkyCoord() (astro.SkyCoord, error) {
	return astro.NewSkyCoord(e.RA.String(), e.Dec.String())
}

type Distance struct {
	Redshift []Measurement `json:"redshift,omitempty"`
}

// Measurement is a referenced scalar value.
type Measurement struct {
	Value     Value `json:"value"`
	Reference any   `json:"reference,omitempty"`
}

type Classification struct {
	ObjectClass string  `json:"object_class"`
	Confidence  float64 `json:"confidence,omitempty"`
	Default     bool    `json:"default,omitempty"`
}

// Photometry is one photometric series in a single filter.
type Photometry struct {
	Raw        []float64 `json:"raw"`
	RawUnits   string    `json:"raw_units,omitempty"`
	Date       []float64 `json:"date"`
	DateFormat string    `json:"date_format,omitempty"`
	Filter     string    `json:"filter,omitempty"`
	ObsType    string    `json:"obs_type,omitempty"`
	Telescope  string    `json:"telescope,omitempty"`
	UpperLimit []bool    `json:"upperlimit,omitempty"`
}

// Spectrum is one flux-vs-wavelength observation.
type Spectrum struct {
	Wavelength []float64 `json:"wavelength"`
	Flux       []float64 `json:"flux"`
	Date       string    `json:"date,omitempty"`
	ObsType    string    `json:"obs_type,omitempty"`
	Telescope  string    `json:"telescope,omitempty"`
}

// DefaultEquatorial returns the coordinate flagged as default, or the first
// one when none is flagged. ok is false when the record has no coordinates.
func (t *TDE) DefaultEquatorial() (c EquatorialCoord, ok bool) {
	coords := t.Coordinate.Equatorial
	if len(coords) == 0 {
		return EquatorialCoord{}, false
	}
	for _, e := range coords {
		if e.Default {
			return e, true
		}
	}
	return coords[0], true
}

// Position returns the default coordinate in decimal degrees.
func (t *TDE) Position() (astro.SkyCoord, error) {
	c, ok := t.DefaultEquatorial()
	if !ok {
		return astro.SkyCoord{}, fmt.Errorf("%s: %w", t.Name.DefaultName, ErrNoCoordinates)
	}
	sc, err := c.SkyCoord()
	if err != nil {
		return astro.SkyCoord{}, fmt.Errorf("%s: %w", t.Name.DefaultName, err)
	}
	return sc, nil
}

// Redshift returns the first listed redshift. ok is false when the record has
// none or it is not a finite number.
func (t *TDE) Redshift() (z float64, ok bool) {
	if t.Distance == nil || len(t.Distance.Redshift) == 0 {
		return 0, false
	}
	z, err := t.Distance.Redshift[0].Value.Float()
	if err != nil || math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, false
	}
	return z, true
}

// Names returns the default name followed by every distinct alias.
func (t *TDE) Names() []string {
	names := []string{t.Name.DefaultName}
	seen := map[string]bool{NormalizeName(t.Name.DefaultName): true}
	for _, a := range t.Name.Alias {
		key := NormalizeName(a.Value)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, a.Value)
	}
	return names
}

// HasName reports whether name refers to this record.
func (t *TDE) HasName(name string) bool {
	key := NormalizeName(name)
	if key == "" {
		return false
	}
	for _, n := range t.Names() {
		if NormalizeName(n) == key {
			return true
		}
	}
	return false
}

// HasPhotometry reports whether the record has photometry, optionally of a given obs_type.
func (t *TDE) HasPhotometry(obsType string) bool {
	for _, p := range t.Photometry {
		if obsType == "" || strings.EqualFold(p.ObsType, obsType) {
			return true
		}
	}
	return false
}

// HasSpectra reports whether the record has spectra, optionally of a given obs_type.
func (t *TDE) HasSpectra(obsType string) bool {
	for _, s := range t.Spectra {
		if obsType == "" || strings.EqualFold(s.ObsType, obsType) {
			return true
		}
	}
	return false
}

// Class returns the default classification, or the first one.
func (t *TDE) Class() string {
	for _, c := range t.Classification {
		if c.Default {
			return c.ObjectClass
		}
	}
	if len(t.Classification) > 0 {
		return t.Classification[0].ObjectClass
	}
	return ""
}

// Validate checks the fields the catalog relies on.
func (t *TDE) Validate() error {
	if strings.TrimSpace(t.Name.DefaultName) == "" {
		return fmt.Errorf("%w: name.default_name is required", ErrInvalidRecord)
	}
	if _, err := t.Position(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if t.Distance != nil && len(t.Distance.Redshift) > 0 {
		if _, err := t.Distance.Redshift[0].Value.Float(); err != nil {
			return fmt.Errorf("%w: %s: redshift %q is not a finite number", ErrInvalidRecord, t.Name.DefaultName, t.Distance.Redshift[0].Value)
		}
	}
	return nil
}

// NormalizeName folds case and drops whitespace so "AT 2018hyz" and "at2018HYZ" compare equal.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}
