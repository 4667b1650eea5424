package http

import (
	"html/template"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/pkg/astro"
)

// TDERow is one catalog record flattened for listings.
type TDERow struct {
	Name          string   `json:"name"`
	Aliases       []string `json:"aliases,omitempty"`
	RA            float64  `json:"ra_deg"`
	Dec           float64  `json:"dec_deg"`
	RAHMS         string   `json:"ra"`
	DecDMS        string   `json:"dec"`
	Redshift      *float64 `json:"redshift,omitempty"`
	Class         string   `json:"class,omitempty"`
	HasPhotometry bool     `json:"has_photometry"`
	HasSpectra    bool     `json:"has_spectra"`
	URL           string   `json:"url"`
}

func newRow(t *domain.TDE) TDERow {
	r := TDERow{
		Name:          t.Name.DefaultName,
		Aliases:       t.Names()[1:],
		Class:         t.Class(),
		HasPhotometry: len(t.Photometry) > 0,
		HasSpectra:    len(t.Spectra) > 0,
		URL:           "/" + url.PathEscape(t.Name.DefaultName),
	}
	if pos, err := t.Position(); err == nil {
		r.RA, r.Dec = pos.RA, pos.Dec
		r.RAHMS, r.DecDMS = astro.FormatHMS(pos.RA), astro.FormatDMS(pos.Dec)
	}
	if z, ok := t.Redshift(); ok {
		r.Redshift = &z
	}
	return r
}

func newRows(tdes []domain.TDE) []TDERow {
	rows := make([]TDERow, len(tdes))
	for i := range tdes {
		rows[i] = newRow(&tdes[i])
	}
	return rows
}

func renderIndex(c *fiber.Ctx, deps *Dependencies, tdes []domain.TDE, plotHTML template.HTML, form map[string]string, msg string) error {
	return c.Render("index", fiber.Map{
		"Rows":          newRows(tdes),
		"Plot":          plotHTML,
		"Form":          form,
		"Error":         msg,
		"ObsTypes":      ObsTypes,
		"DefaultRadius": deps.DefaultRadiusArcsec,
	}, "layouts/main")
}

// HomeHandler lists the whole catalog with the summary figure.
func HomeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		cat := CatalogFromCtx(c, deps)

		tdes, err := cat.All(ctx)
		if err != nil {
			return pageErrFrom(c, err)
		}
		plotHTML, err := deps.Summary.Render(ctx, tdes, cat.Generation(ctx), "all")
		if err != nil {
			return pageErrFrom(c, err)
		}
		return renderIndex(c, deps, tdes, plotHTML, map[string]string{}, "")
	}
}

// SearchHandler filters the catalog with the submitted search form. Bad input
// re-renders the form with a 400 and the reason.
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		values := map[string]string{}
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			values[string(k)] = string(v)
		})

		form, err := ParseSearchForm(values)
		if err != nil {
			return badSearch(c, deps, values, err)
		}
		q, err := form.Query(deps.DefaultRadiusArcsec)
		if err != nil {
			return badSearch(c, deps, values, err)
		}

		ctx := c.UserContext()
		cat := CatalogFromCtx(c, deps)
		tdes, err := cat.Query(ctx, q)
		if err != nil {
			return pageErrFrom(c, err)
		}
		plotHTML, err := deps.Summary.Render(ctx, tdes, cat.Generation(ctx), "query:"+q.Key())
		if err != nil {
			return pageErrFrom(c, err)
		}
		return renderIndex(c, deps, tdes, plotHTML, values, "")
	}
}

func badSearch(c *fiber.Ctx, deps *Dependencies, values map[string]string, err error) error {
	if !isClientError(err) {
		return pageErrFrom(c, err)
	}
	LoggerFromCtx(c).Info("rejected search", "error", err)
	c.Status(fiber.StatusBadRequest)
	return renderIndex(c, deps, nil, "", values, err.Error())
}

type coordRow struct {
	RA, Dec string
	Default bool
}

// TDEPageHandler renders one object with its light curve and spectra.
func TDEPageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		name := c.Params("tdename")

		t, err := CatalogFromCtx(c, deps).GetByName(ctx, name)
		if err != nil {
			return pageErrFrom(c, err)
		}

		phot, spec, err := deps.Summary.Object(ctx, t)
		if err != nil {
			return pageErrFrom(c, err)
		}

		coords := make([]coordRow, 0, len(t.Coordinate.Equatorial))
		for _, e := range t.Coordinate.Equatorial {
			coords = append(coords, coordRow{RA: e.RA.String(), Dec: e.Dec.String(), Default: e.Default})
		}
		updated := ""
		if t.UpdatedAt != nil {
			updated = t.UpdatedAt.UTC().Format(time.RFC3339)
		}

		row := newRow(t)
		return c.Render("tde", fiber.Map{
			"Title":       row.Name,
			"Row":         row,
			"Coordinates": coords,
			"Updated":     updated,
			"Photometry":  phot,
			"Spectra":     spec,
		}, "layouts/main")
	}
}
