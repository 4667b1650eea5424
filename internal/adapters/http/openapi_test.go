package http_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"

	"github.com/astro-otter/otterweb/api"
)

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(api.OpenAPI)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}
	return spec
}

// TestOpenAPISpec validates the OpenAPI document and checks it covers the
// JSON routes.
func TestOpenAPISpec(t *testing.T) {
	spec := loadSpec(t)

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	expectedPaths := []string{
		"/api/v1/health",
		"/api/v1/ready",
		"/api/v1/tdes",
		"/api/v1/tdes/{name}",
		"/api/v1/summary",
		"/api/v1/stats",
		"/graphql",
	}
	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in spec", path)
		}
	}

	expectedSchemas := []string{"TDE", "TDERow", "SkyInfo", "CatalogStats", "APIError", "Pagination"}
	for _, schema := range expectedSchemas {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	// Every search form key is a documented list filter.
	list := spec.Paths.Find("/api/v1/tdes").Get
	for _, key := range []string{"tdename", "ra", "dec", "minZ", "maxZ", "z", "searchRadius",
		"photoType", "spectraType", "photometry", "spectra", "offset", "limit"} {
		if list.Parameters.GetByInAndName("query", key) == nil {
			t.Errorf("expected query parameter %s on /api/v1/tdes", key)
		}
	}
}

func TestOpenAPIInfo(t *testing.T) {
	spec := loadSpec(t)

	if spec.Info.Title != "OTTER TDE Catalog API" {
		t.Errorf("unexpected title %q", spec.Info.Title)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}
	if len(spec.Servers) == 0 {
		t.Error("expected at least one server")
	}
}

func TestDocsServeSpec(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/docs/openapi.yaml", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || string(body) != string(api.OpenAPI) {
		t.Errorf("expected embedded spec, got %d (%d bytes)", resp.StatusCode, len(body))
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/docs", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200 for /docs, got %d", resp.StatusCode)
	}
}
