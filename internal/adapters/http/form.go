package http

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/pkg/astro"
	"github.com/astro-otter/otterweb/internal/pkg/validation"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindFloat
	kindCheckbox
)

// fieldKinds is the declared type of every search form key.
var fieldKinds = map[string]fieldKind{
	"tdename":      kindString,
	"ra":           kindString,
	"dec":          kindString,
	"minZ":         kindFloat,
	"maxZ":         kindFloat,
	"z":            kindFloat,
	"searchRadius": kindFloat,
	"photoType":    kindString,
	"spectraType":  kindString,
	"photometry":   kindCheckbox,
	"spectra":      kindCheckbox,
}

// ObsTypes lists the observation types offered by the photometry and
// spectra filters.
var ObsTypes = []string{"uvoir", "radio", "xray"}

var errUnknownField = errors.New("unknown form field")

// FormError reports a form value that cannot be used. It maps to a 400.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// coerceField converts one raw form value to its declared type. Blank values
// become nil. Checkboxes are true only for "on".
func coerceField(key, raw string) (any, error) {
	kind, ok := fieldKinds[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownField, key)
	}
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil, nil
	}
	switch kind {
	case kindFloat:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &FormError{Field: key, Message: fmt.Sprintf("%q is not a number", v)}
		}
		return f, nil
	case kindCheckbox:
		return v == "on", nil
	default:
		return v, nil
	}
}

// SearchForm is the coerced search form. Nil pointers are fields left blank.
type SearchForm struct {
	TDEName      *string  `form:"tdename"`
	RA           *string  `form:"ra"`
	Dec          *string  `form:"dec"`
	MinZ         *float64 `form:"minZ" validate:"omitempty,gte=0"`
	MaxZ         *float64 `form:"maxZ" validate:"omitempty,gte=0"`
	Z            *float64 `form:"z" validate:"omitempty,gte=0"`
	SearchRadius *float64 `form:"searchRadius" validate:"omitempty,gt=0,lte=3600"`
	PhotoType    *string  `form:"photoType" validate:"omitempty,oneof=uvoir radio xray"`
	SpectraType  *string  `form:"spectraType" validate:"omitempty,oneof=uvoir radio xray"`
	Photometry   bool     `form:"photometry"`
	Spectra      bool     `form:"spectra"`
}

// ParseSearchForm coerces values into a SearchForm. Keys are processed in
// sorted order so the first reported error is stable.
func ParseSearchForm(values map[string]string) (SearchForm, error) {
	var f SearchForm

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v, err := coerceField(key, values[key])
		if err != nil {
			return SearchForm{}, err
		}
		if v == nil {
			continue
		}
		switch key {
		case "tdename":
			f.TDEName = strPtr(v)
		case "ra":
			f.RA = strPtr(v)
		case "dec":
			f.Dec = strPtr(v)
		case "minZ":
			f.MinZ = floatPtr(v)
		case "maxZ":
			f.MaxZ = floatPtr(v)
		case "z":
			f.Z = floatPtr(v)
		case "searchRadius":
			f.SearchRadius = floatPtr(v)
		case "photoType":
			f.PhotoType = strPtr(v)
		case "spectraType":
			f.SpectraType = strPtr(v)
		case "photometry":
			f.Photometry = v.(bool)
		case "spectra":
			f.Spectra = v.(bool)
		}
	}

	if err := validation.ValidateStruct(f); err != nil {
		return SearchForm{}, err
	}
	return f, nil
}

// Query builds the catalog query for f. A position is used only when both
// ra and dec are given. An exact z wins over minZ and maxZ.
func (f SearchForm) Query(defaultRadiusArcsec float64) (domain.Query, error) {
	var q domain.Query

	if f.TDEName != nil {
		q.Names = []string{*f.TDEName}
	}

	if f.RA != nil && f.Dec != nil {
		c, err := astro.NewSkyCoord(*f.RA, *f.Dec)
		if err != nil {
			return domain.Query{}, &FormError{Field: "ra/dec", Message: err.Error()}
		}
		q.Coord = &c
		q.RadiusArcsec = defaultRadiusArcsec
		if f.SearchRadius != nil {
			q.RadiusArcsec = *f.SearchRadius
		}
	}

	switch {
	case f.Z != nil:
		lo := *f.Z - domain.RedshiftTolerance
		hi := *f.Z + domain.RedshiftTolerance
		q.MinZ, q.MaxZ = &lo, &hi
	default:
		q.MinZ, q.MaxZ = f.MinZ, f.MaxZ
		if q.MinZ != nil && q.MaxZ != nil && *q.MinZ > *q.MaxZ {
			return domain.Query{}, &FormError{Field: "minZ", Message: "must not exceed maxZ"}
		}
	}

	q.HasPhot = f.Photometry
	q.HasSpec = f.Spectra
	if f.PhotoType != nil {
		q.PhotType = *f.PhotoType
	}
	if f.SpectraType != nil {
		q.SpecType = *f.SpectraType
	}
	return q, nil
}

func strPtr(v any) *string {
	s := v.(string)
	return &s
}

func floatPtr(v any) *float64 {
	f := v.(float64)
	return &f
}

// isClientError reports whether err came from bad user input.
func isClientError(err error) bool {
	var fe *FormError
	var ve validation.Errors
	return errors.As(err, &fe) || errors.As(err, &ve) || errors.Is(err, errUnknownField) ||
		errors.Is(err, astro.ErrInvalidAngle)
}
