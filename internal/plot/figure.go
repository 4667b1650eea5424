// Package plot builds Plotly figures for the catalog and renders them as
// embeddable HTML fragments. The page layout loads plotly.js once; fragments
// only carry a div and a newPlot call.
package plot

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Figure is a Plotly figure: traces plus layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace covers the attributes of the scattergeo, histogram and scatter traces we emit.
type Trace struct {
	Type          string    `json:"type"`
	Name          string    `json:"name,omitempty"`
	X             []float64 `json:"x,omitempty"`
	Y             []float64 `json:"y,omitempty"`
	Lon           []float64 `json:"lon,omitempty"`
	Lat           []float64 `json:"lat,omitempty"`
	Mode          string    `json:"mode,omitempty"`
	Text          []string  `json:"text,omitempty"`
	TextPosition  string    `json:"textposition,omitempty"`
	HoverText     []string  `json:"hovertext,omitempty"`
	HoverTemplate string    `json:"hovertemplate,omitempty"`
	ShowLegend    *bool     `json:"showlegend,omitempty"`
	Line          *Line     `json:"line,omitempty"`
	Marker        *Marker   `json:"marker,omitempty"`
	Geo           string    `json:"geo,omitempty"`
	XAxis         string    `json:"xaxis,omitempty"`
	YAxis         string    `json:"yaxis,omitempty"`
}

type Line struct {
	Width float64 `json:"width,omitempty"`
	Dash  string  `json:"dash,omitempty"`
	Color string  `json:"color,omitempty"`
}

// Marker colour is either a single CSS colour or one value per point.
type Marker struct {
	Color      any       `json:"color,omitempty"`
	ColorScale [][2]any  `json:"colorscale,omitempty"`
	ColorBar   *ColorBar `json:"colorbar,omitempty"`
	Symbol     any       `json:"symbol,omitempty"`
	Size       float64   `json:"size,omitempty"`
	Line       *Line     `json:"line,omitempty"`
	ShowScale  *bool     `json:"showscale,omitempty"`
}

type ColorBar struct {
	Thickness float64 `json:"thickness,omitempty"`
	Title     *Title  `json:"title,omitempty"`
}

type Title struct {
	Text string `json:"text"`
}

type Layout struct {
	XAxis      *Axis   `json:"xaxis,omitempty"`
	YAxis      *Axis   `json:"yaxis,omitempty"`
	Geo        *Geo    `json:"geo,omitempty"`
	Title      *Title  `json:"title,omitempty"`
	ShowLegend *bool   `json:"showlegend,omitempty"`
	Margin     *Margin `json:"margin,omitempty"`
	BarGap     float64 `json:"bargap,omitempty"`
}

type Axis struct {
	Domain    []float64 `json:"domain,omitempty"`
	Anchor    string    `json:"anchor,omitempty"`
	Title     *Title    `json:"title,omitempty"`
	AutoRange any       `json:"autorange,omitempty"`
	Type      string    `json:"type,omitempty"`
}

// Geo configures a geographic subplot. Booleans are always emitted.
type Geo struct {
	Domain         *Domain       `json:"domain,omitempty"`
	Projection     GeoProjection `json:"projection"`
	ShowLand       bool          `json:"showland"`
	ShowCoastlines bool          `json:"showcoastlines"`
	ShowFrame      bool          `json:"showframe"`
	LonAxis        GeoAxis       `json:"lonaxis"`
	LatAxis        GeoAxis       `json:"lataxis"`
}

type GeoProjection struct {
	Type string `json:"type"`
}

type GeoAxis struct {
	ShowGrid bool    `json:"showgrid"`
	DTick    float64 `json:"dtick"`
}

type Domain struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

// Options controls the size of the rendered fragment.
type Options struct {
	Width  string
	Height string
}

// DefaultOptions matches the catalog summary: full width, 500px tall.
var DefaultOptions = Options{Width: "100%", Height: "500px"}

func (o Options) withDefaults() Options {
	if o.Width == "" {
		o.Width = DefaultOptions.Width
	}
	if o.Height == "" {
		o.Height = DefaultOptions.Height
	}
	return o
}

var fragmentTmpl = template.Must(template.New("plot").Parse(
	`<div id="{{.ID}}" class="plotly-graph-div" style="height:{{.Height}}; width:{{.Width}};"></div>` +
		`<script type="text/javascript">` +
		`window.PLOTLYENV=window.PLOTLYENV || {};` +
		`if (document.getElementById("{{.ID}}")) { Plotly.newPlot("{{.ID}}", {{.Data}}, {{.Layout}}, {"responsive": true}); }` +
		`</script>`))

// HTML renders f as a fragment that can be dropped into a page.
func (f *Figure) HTML(opts Options) (template.HTML, error) {
	opts = opts.withDefaults()

	data, err := json.Marshal(f.Data)
	if err != nil {
		return "", fmt.Errorf("marshal traces: %w", err)
	}
	layout, err := json.Marshal(f.Layout)
	if err != nil {
		return "", fmt.Errorf("marshal layout: %w", err)
	}

	var buf bytes.Buffer
	err = fragmentTmpl.Execute(&buf, struct {
		ID     string
		Width  string
		Height string
		Data   template.JS
		Layout template.JS
	}{
		ID:     uuid.NewString(),
		Width:  opts.Width,
		Height: opts.Height,
		Data:   template.JS(data),
		Layout: template.JS(layout),
	})
	if err != nil {
		return "", fmt.Errorf("render figure: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// thermal is the cmocean "thermal" sequential scale.
var thermal = []string{
	"rgb(3, 35, 51)", "rgb(13, 48, 100)", "rgb(53, 50, 155)", "rgb(93, 62, 153)",
	"rgb(126, 77, 143)", "rgb(158, 89, 135)", "rgb(193, 100, 121)", "rgb(225, 113, 97)",
	"rgb(246, 139, 69)", "rgb(251, 173, 60)", "rgb(246, 211, 70)", "rgb(231, 250, 90)",
}

// ThermalScale returns thermal as a Plotly colourscale.
func ThermalScale() [][2]any {
	scale := make([][2]any, len(thermal))
	for i, c := range thermal {
		scale[i] = [2]any{float64(i) / float64(len(thermal)-1), c}
	}
	return scale
}

func boolPtr(b bool) *bool { return &b }
