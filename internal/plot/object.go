package plot

import (
	"html/template"
	"sort"
	"strconv"
	"strings"

	"github.com/astro-otter/otterweb/internal/core/domain"
)

// magnitude units plot with a reversed y axis.
func isMagnitude(units string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(units)), "mag")
}

// PhotometryFigure plots raw values against date, one trace per filter.
// Upper limits are drawn as down-pointing triangles. It returns nil when the
// record has no photometry.
func PhotometryFigure(t *domain.TDE) *Figure {
	if len(t.Photometry) == 0 {
		return nil
	}

	type series struct {
		x, y   []float64
		symbol []string
	}
	byFilter := map[string]*series{}
	magUnits := false

	for _, p := range t.Photometry {
		filter := p.Filter
		if filter == "" {
			filter = "unknown"
		}
		s, ok := byFilter[filter]
		if !ok {
			s = &series{}
			byFilter[filter] = s
		}
		if isMagnitude(p.RawUnits) {
			magUnits = true
		}
		n := min(len(p.Raw), len(p.Date))
		for i := 0; i < n; i++ {
			s.x = append(s.x, p.Date[i])
			s.y = append(s.y, p.Raw[i])
			sym := "circle"
			if i < len(p.UpperLimit) && p.UpperLimit[i] {
				sym = "triangle-down"
			}
			s.symbol = append(s.symbol, sym)
		}
	}

	filters := make([]string, 0, len(byFilter))
	for f := range byFilter {
		filters = append(filters, f)
	}
	sort.Strings(filters)

	fig := &Figure{Layout: Layout{
		XAxis:  &Axis{Title: &Title{Text: "Date"}},
		YAxis:  &Axis{Title: &Title{Text: "Raw value"}},
		Title:  &Title{Text: t.Name.DefaultName + " photometry"},
		Margin: &Margin{L: 60, R: 20, T: 40, B: 50},
	}}
	if magUnits {
		fig.Layout.YAxis.Title.Text = "Magnitude"
		fig.Layout.YAxis.AutoRange = "reversed"
	}

	for _, f := range filters {
		s := byFilter[f]
		fig.Data = append(fig.Data, Trace{
			Type:   "scatter",
			Name:   f,
			X:      s.x,
			Y:      s.y,
			Mode:   "markers",
			Marker: &Marker{Symbol: s.symbol, Size: 8},
		})
	}
	return fig
}

// SpectraFigure plots flux against wavelength, one trace per spectrum.
// It returns nil when the record has no spectra.
func SpectraFigure(t *domain.TDE) *Figure {
	if len(t.Spectra) == 0 {
		return nil
	}

	fig := &Figure{Layout: Layout{
		XAxis:  &Axis{Title: &Title{Text: "Wavelength"}},
		YAxis:  &Axis{Title: &Title{Text: "Flux"}},
		Title:  &Title{Text: t.Name.DefaultName + " spectra"},
		Margin: &Margin{L: 60, R: 20, T: 40, B: 50},
	}}
	for i, s := range t.Spectra {
		n := min(len(s.Wavelength), len(s.Flux))
		name := s.Date
		if name == "" {
			name = "spectrum " + strconv.Itoa(i+1)
		}
		fig.Data = append(fig.Data, Trace{
			Type: "scatter",
			Name: name,
			X:    s.Wavelength[:n],
			Y:    s.Flux[:n],
			Mode: "lines",
			Line: &Line{Width: 1},
		})
	}
	return fig
}

// Photometry renders the light curve of t. Empty markup means no photometry.
func Photometry(t *domain.TDE, opts Options) (template.HTML, error) {
	fig := PhotometryFigure(t)
	if fig == nil {
		return "", nil
	}
	return fig.HTML(opts)
}

// Spectra renders the spectra of t. Empty markup means no spectra.
func Spectra(t *domain.TDE, opts Options) (template.HTML, error) {
	fig := SpectraFigure(t)
	if fig == nil {
		return "", nil
	}
	return fig.HTML(opts)
}
