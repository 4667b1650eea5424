package astro

import "math"

// SkyCoord is an ICRS equatorial position in decimal degrees.
type SkyCoord struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

// NewSkyCoord parses an hour-angle RA and a degree Dec.
func NewSkyCoord(ra, dec string) (SkyCoord, error) {
	raDeg, err := ParseHourAngle(ra)
	if err != nil {
		return SkyCoord{}, err
	}
	decDeg, err := ParseDegrees(dec)
	if err != nil {
		return SkyCoord{}, err
	}
	return SkyCoord{RA: raDeg, Dec: decDeg}, nil
}

// Separation returns the great-circle distance to o in degrees.
func (c SkyCoord) Separation(o SkyCoord) float64 {
	dDec := toRad(o.Dec - c.Dec)
	dRA := toRad(o.RA - c.RA)

	a := math.Sin(dDec/2)*math.Sin(dDec/2) +
		math.Cos(toRad(c.Dec))*math.Cos(toRad(o.Dec))*
			math.Sin(dRA/2)*math.Sin(dRA/2)

	return toDeg(2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a)))
}

// SeparationArcsec returns the great-circle distance to o in arcseconds.
func (c SkyCoord) SeparationArcsec(o SkyCoord) float64 {
	return c.Separation(o) * 3600
}

// DecBand returns the declination band that contains every point within
// radiusArcsec of c, clamped to the poles.
func (c SkyCoord) DecBand(radiusArcsec float64) (minDec, maxDec float64) {
	r := radiusArcsec / 3600
	return math.Max(c.Dec-r, -90), math.Min(c.Dec+r, 90)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
