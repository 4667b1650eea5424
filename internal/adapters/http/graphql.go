package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/core/usecases"
	"github.com/astro-otter/otterweb/internal/pkg/validation"
)

type gqlCatalogKey struct{}

func gqlCatalog(ctx context.Context) (*usecases.CatalogHandle, error) {
	h, ok := ctx.Value(gqlCatalogKey{}).(*usecases.CatalogHandle)
	if !ok {
		return nil, errors.New("catalog unavailable")
	}
	return h, nil
}

// searchFormFromArgs maps GraphQL arguments onto the search form.
func searchFormFromArgs(args map[string]any) SearchForm {
	var f SearchForm
	str := func(key string) *string {
		if v, ok := args[key].(string); ok && v != "" {
			return &v
		}
		return nil
	}
	num := func(key string) *float64 {
		if v, ok := args[key].(float64); ok {
			return &v
		}
		return nil
	}
	f.TDEName = str("tdename")
	f.RA = str("ra")
	f.Dec = str("dec")
	f.PhotoType = str("photoType")
	f.SpectraType = str("spectraType")
	f.MinZ = num("minZ")
	f.MaxZ = num("maxZ")
	f.Z = num("z")
	f.SearchRadius = num("searchRadius")
	f.Photometry, _ = args["photometry"].(bool)
	f.Spectra, _ = args["spectra"].(bool)
	return f
}

// buildSchema creates the GraphQL schema over the catalog.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	tdeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TDE",
		Fields: graphql.Fields{
			"name":           &graphql.Field{Type: graphql.String},
			"aliases":        &graphql.Field{Type: graphql.NewList(graphql.String)},
			"ra_deg":         &graphql.Field{Type: graphql.Float},
			"dec_deg":        &graphql.Field{Type: graphql.Float},
			"ra":             &graphql.Field{Type: graphql.String},
			"dec":            &graphql.Field{Type: graphql.String},
			"redshift":       &graphql.Field{Type: graphql.Float},
			"class":          &graphql.Field{Type: graphql.String},
			"has_photometry": &graphql.Field{Type: graphql.Boolean},
			"has_spectra":    &graphql.Field{Type: graphql.Boolean},
			"url":            &graphql.Field{Type: graphql.String},
		},
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CatalogStats",
		Fields: graphql.Fields{
			"total":           &graphql.Field{Type: graphql.Int},
			"with_redshift":   &graphql.Field{Type: graphql.Int},
			"with_photometry": &graphql.Field{Type: graphql.Int},
			"with_spectra":    &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"tdes": &graphql.Field{
				Type:        graphql.NewList(tdeType),
				Description: "TDEs matching the search filters",
				Args: graphql.FieldConfigArgument{
					"tdename":      &graphql.ArgumentConfig{Type: graphql.String},
					"ra":           &graphql.ArgumentConfig{Type: graphql.String},
					"dec":          &graphql.ArgumentConfig{Type: graphql.String},
					"searchRadius": &graphql.ArgumentConfig{Type: graphql.Float},
					"minZ":         &graphql.ArgumentConfig{Type: graphql.Float},
					"maxZ":         &graphql.ArgumentConfig{Type: graphql.Float},
					"z":            &graphql.ArgumentConfig{Type: graphql.Float},
					"photometry":   &graphql.ArgumentConfig{Type: graphql.Boolean},
					"spectra":      &graphql.ArgumentConfig{Type: graphql.Boolean},
					"photoType":    &graphql.ArgumentConfig{Type: graphql.String},
					"spectraType":  &graphql.ArgumentConfig{Type: graphql.String},
					"limit":        &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: deps.PageSize},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					cat, err := gqlCatalog(p.Context)
					if err != nil {
						return nil, err
					}
					form := searchFormFromArgs(p.Args)
					if err := validation.ValidateStruct(form); err != nil {
						return nil, err
					}
					q, err := form.Query(deps.DefaultRadiusArcsec)
					if err != nil {
						return nil, err
					}
					tdes, err := cat.Query(p.Context, q)
					if err != nil {
						return nil, err
					}
					limit, _ := p.Args["limit"].(int)
					if limit > 0 && len(tdes) > limit {
						tdes = tdes[:limit]
					}
					return newRows(tdes), nil
				},
			},
			"tde": &graphql.Field{
				Type:        tdeType,
				Description: "A TDE by default name or alias",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					cat, err := gqlCatalog(p.Context)
					if err != nil {
						return nil, err
					}
					t, err := cat.GetByName(p.Context, p.Args["name"].(string))
					if errors.Is(err, domain.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return newRow(t), nil
				},
			},
			"stats": &graphql.Field{
				Type:        statsType,
				Description: "Catalog counts",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					cat, err := gqlCatalog(p.Context)
					if err != nil {
						return nil, err
					}
					return cat.Stats(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string         `json:"query"`
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid request body")
		}

		ctx := context.WithValue(c.UserContext(), gqlCatalogKey{}, CatalogFromCtx(c, deps))
		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})

		return c.JSON(result)
	}
}
