package astro

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidAngle is returned when an angle string cannot be parsed.
var ErrInvalidAngle = errors.New("invalid angle")

// ParseHourAngle parses a right ascension given in hours and returns degrees.
// Accepted forms: "12:48:15.2", "12 48 15.2", "12h48m15.2s" and decimal hours ("12.8").
func ParseHourAngle(s string) (float64, error) {
	hours, err := parseSexagesimal(s, "hms")
	if err != nil {
		return 0, fmt.Errorf("ra %q: %w", s, err)
	}
	if hours < 0 || hours > 24 {
		return 0, fmt.Errorf("ra %q: %w: hours out of range [0, 24]", s, ErrInvalidAngle)
	}
	return hours * 15, nil
}

// ParseDegrees parses a declination in degrees.
// Accepted forms: "+17:46:26.4", "-00 30 00", "17d46m26.4s", "17°46'26.4\"" and decimal degrees.
func ParseDegrees(s string) (float64, error) {
	deg, err := parseSexagesimal(s, "dms")
	if err != nil {
		return 0, fmt.Errorf("dec %q: %w", s, err)
	}
	if deg < -90 || deg > 90 {
		return 0, fmt.Errorf("dec %q: %w: degrees out of range [-90, 90]", s, ErrInvalidAngle)
	}
	return deg, nil
}

// parseSexagesimal splits s into up to three components and folds them into a
// single value in the unit of the first component. The sign applies to the
// whole value, so "-00:30:00" is -0.5.
func parseSexagesimal(s string, units string) (float64, error) {
	// Unit letters are accepted in either case.
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAngle)
	}

	sign := 1.0
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ':', ' ', '\t', '°', '\'', '"', '′', '″':
			return true
		}
		return strings.ContainsRune(units, r)
	})
	if len(fields) == 0 || len(fields) > 3 {
		return 0, fmt.Errorf("%w: expected 1 to 3 components", ErrInvalidAngle)
	}

	var parts [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: component %q", ErrInvalidAngle, f)
		}
		if v < 0 {
			return 0, fmt.Errorf("%w: sign only allowed on leading component", ErrInvalidAngle)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("%w: component %q must be below 60", ErrInvalidAngle, f)
		}
		parts[i] = v
	}

	return sign * (parts[0] + parts[1]/60 + parts[2]/3600), nil
}

// FormatHMS renders degrees of right ascension as "HH:MM:SS.ss".
func FormatHMS(deg float64) string {
	h := math.Mod(deg, 360) / 15
	if h < 0 {
		h += 24
	}
	return formatSexagesimal(h, "", 2)
}

// FormatDMS renders degrees of declination as "+DD:MM:SS.s".
func FormatDMS(deg float64) string {
	sign := "+"
	if deg < 0 {
		sign = "-"
	}
	return formatSexagesimal(math.Abs(deg), sign, 1)
}

func formatSexagesimal(v float64, sign string, prec int) string {
	scale := math.Pow(10, float64(prec))
	total := math.Round(v*3600*scale) / scale
	whole := math.Floor(total / 3600)
	minutes := math.Floor((total - whole*3600) / 60)
	seconds := total - whole*3600 - minutes*60
	width := 3 + prec
	return fmt.Sprintf("%s%02.0f:%02.0f:%0*.*f", sign, whole, minutes, width, prec, seconds)
}
