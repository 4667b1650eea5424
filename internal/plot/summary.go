package plot

import (
	"fmt"
	"html/template"
	"log/slog"
	"math"

	"github.com/astro-otter/otterweb/internal/core/domain"
)

// SkyInfo holds the parallel arrays plotted on the sky map.
// Z carries 0 as a placeholder where HasZ is false.
type SkyInfo struct {
	RA    []float64 `json:"ra_deg"`
	Dec   []float64 `json:"dec_deg"`
	Names []string  `json:"tde_name"`
	Z     []float64 `json:"z"`
	HasZ  []bool    `json:"has_z"`
	// Skipped lists records left off the map because their position is unusable.
	Skipped []string `json:"skipped,omitempty"`
}

// ExtractSky pulls the default position and redshift out of every record.
func ExtractSky(tdes []domain.TDE) SkyInfo {
	info := SkyInfo{
		RA:    make([]float64, 0, len(tdes)),
		Dec:   make([]float64, 0, len(tdes)),
		Names: make([]string, 0, len(tdes)),
		Z:     make([]float64, 0, len(tdes)),
		HasZ:  make([]bool, 0, len(tdes)),
	}

	for i := range tdes {
		t := &tdes[i]
		pos, err := t.Position()
		if err != nil {
			slog.Warn("skipping record on sky map", "tde", t.Name.DefaultName, "error", err)
			info.Skipped = append(info.Skipped, t.Name.DefaultName)
			continue
		}
		z, ok := t.Redshift()
		if !ok {
			z = 0
		}

		info.RA = append(info.RA, pos.RA)
		info.Dec = append(info.Dec, pos.Dec)
		info.Names = append(info.Names, t.Name.DefaultName)
		info.Z = append(info.Z, z)
		info.HasZ = append(info.HasZ, ok)
	}
	return info
}

// LogZ returns log10(z) per point, nil where z is a placeholder or not positive.
func (s SkyInfo) LogZ() []*float64 {
	out := make([]*float64, len(s.Z))
	for i, z := range s.Z {
		if !s.HasZ[i] || z <= 0 {
			continue
		}
		v := math.Log10(z)
		out[i] = &v
	}
	return out
}

// MeasuredRedshifts returns the redshifts of records that have one.
func MeasuredRedshifts(tdes []domain.TDE) []float64 {
	z := make([]float64, 0, len(tdes))
	for i := range tdes {
		if v, ok := tdes[i].Redshift(); ok {
			z = append(z, v)
		}
	}
	return z
}

// SkyMap adds a Mollweide sky map of info to fig on the given geo subplot.
func SkyMap(fig *Figure, info SkyInfo, geo string, domainX []float64) {
	fig.Layout.Geo = &Geo{
		Domain:         &Domain{X: domainX, Y: []float64{0, 1}},
		Projection:     GeoProjection{Type: "mollweide"},
		ShowLand:       false,
		ShowCoastlines: false,
		ShowFrame:      true,
		LonAxis:        GeoAxis{ShowGrid: true, DTick: 30},
		LatAxis:        GeoAxis{ShowGrid: true, DTick: 30},
	}

	grid := &Line{Width: 1, Dash: "dot", Color: "grey"}
	for lon := 0; lon < 360; lon += 30 {
		l := float64(lon)
		fig.Data = append(fig.Data, Trace{
			Type:         "scattergeo",
			Lon:          []float64{l, l, l},
			Lat:          []float64{90, 0, -90},
			Mode:         "lines+text",
			Text:         []string{"", fmt.Sprint(lon), ""},
			TextPosition: "bottom center",
			ShowLegend:   boolPtr(false),
			Line:         grid,
			Geo:          geo,
		})
	}
	for _, lat := range []int{-90, -60, -30, 30, 60, 90} {
		l := float64(lat)
		fig.Data = append(fig.Data, Trace{
			Type:         "scattergeo",
			Lon:          []float64{0, 180, 360},
			Lat:          []float64{l, l, l},
			Mode:         "lines+text",
			Text:         []string{fmt.Sprint(lat)},
			TextPosition: "middle right",
			ShowLegend:   boolPtr(false),
			Line:         grid,
			Geo:          geo,
		})
	}

	fig.Data = append(fig.Data, Trace{
		Type:      "scattergeo",
		Name:      "TDEs",
		Lon:       info.RA,
		Lat:       info.Dec,
		Mode:      "markers",
		HoverText: info.Names,
		HoverTemplate: "<b>Name</b>: %{hovertext}<br>" +
			"<b>RA</b>: %{lon}<br>" +
			"<b>Dec</b>: %{lat}" +
			"<extra></extra>",
		ShowLegend: boolPtr(false),
		Marker: &Marker{
			Color:      info.LogZ(),
			ColorScale: ThermalScale(),
			ColorBar:   &ColorBar{Thickness: 20, Title: &Title{Text: "log(z)"}},
		},
		Geo: geo,
	})
}

// Redshifts adds a histogram of measured redshifts to fig.
func Redshifts(fig *Figure, z []float64, xaxis, yaxis string) {
	fig.Data = append(fig.Data, Trace{
		Type:       "histogram",
		Name:       "Redshifts",
		X:          z,
		ShowLegend: boolPtr(false),
		Marker:     &Marker{Color: "grey"},
		XAxis:      xaxis,
		YAxis:      yaxis,
	})
}

// SummaryFigure builds the two-panel catalog summary: redshift histogram on
// the left, sky map on the right.
func SummaryFigure(tdes []domain.TDE) (*Figure, SkyInfo) {
	fig := &Figure{
		Layout: Layout{
			XAxis: &Axis{Domain: []float64{0, 0.45}, Anchor: "y", Title: &Title{Text: "Redshift"}},
			YAxis: &Axis{Domain: []float64{0, 1}, Anchor: "x", Title: &Title{Text: "Number of TDEs"}},
			Margin: &Margin{L: 60, R: 20, T: 30, B: 50},
		},
	}
	info := ExtractSky(tdes)
	SkyMap(fig, info, "geo", []float64{0.55, 1})
	Redshifts(fig, MeasuredRedshifts(tdes), "x", "y")
	return fig, info
}

// CatalogSummary renders the summary figure for tdes as embeddable HTML.
func CatalogSummary(tdes []domain.TDE, opts Options) (template.HTML, error) {
	fig, _ := SummaryFigure(tdes)
	return fig.HTML(opts)
}
