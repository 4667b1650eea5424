package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/astro-otter/otterweb/internal/pkg/validation"
	"github.com/astro-otter/otterweb/internal/plot"
)

// queryForm collects the search form keys of the query string. Paging keys
// are left out.
func queryForm(c *fiber.Ctx) map[string]string {
	values := map[string]string{}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		key := string(k)
		if key != "offset" && key != "limit" {
			values[key] = string(v)
		}
	})
	return values
}

// ListTDEsHandler returns catalog rows matching the search form keys given as
// query parameters, paginated with offset and limit.
func ListTDEsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pp := pageParams{Offset: c.QueryInt("offset", 0), Limit: c.QueryInt("limit", deps.PageSize)}
		if err := validation.ValidateStruct(pp); err != nil {
			return errBadRequest(c, err.Error())
		}

		form, err := ParseSearchForm(queryForm(c))
		if err != nil {
			return errFrom(c, err)
		}
		q, err := form.Query(deps.DefaultRadiusArcsec)
		if err != nil {
			return errFrom(c, err)
		}

		tdes, err := CatalogFromCtx(c, deps).Query(c.UserContext(), q)
		if err != nil {
			return errFrom(c, err)
		}

		pg := Pagination{Offset: pp.Offset, Limit: pp.Limit, Total: len(tdes)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: newRows(paginate(tdes, pg)), Pagination: pg})
	}
}

// GetTDEHandler returns the full record for a name or alias.
func GetTDEHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := strings.TrimSpace(c.Params("name"))
		if name == "" {
			return errBadRequest(c, "name is required")
		}
		t, err := CatalogFromCtx(c, deps).GetByName(c.UserContext(), name)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(t)
	}
}

// SummaryHandler returns the sky positions and redshifts behind the summary
// figure as parallel arrays.
func SummaryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tdes, err := CatalogFromCtx(c, deps).All(c.UserContext())
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(plot.ExtractSky(tdes))
	}
}

// StatsHandler returns catalog counts.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := CatalogFromCtx(c, deps).Stats(c.UserContext())
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(stats)
	}
}
