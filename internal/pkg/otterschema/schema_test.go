package otterschema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astro-otter/otterweb/internal/pkg/otterschema"
)

func TestValidate_Accepts(t *testing.T) {
	docs := map[string]string{
		"single record": `{"name": {"default_name": "ASASSN-14li"},
			"coordinate": {"equitorial": [{"ra": "12:48:15.226", "dec": "+17:46:26.44", "default": true}]}}`,
		"array":          `[{"name": {"default_name": "a"}}, {"name": {"default_name": "b"}}]`,
		"numeric values": `{"name": {"default_name": "x"}, "coordinate": {"equitorial": [{"ra": 1, "dec": 2}]}, "distance": {"redshift": [{"value": 0.5}]}}`,
		"unknown fields": `{"name": {"default_name": "x"}, "host": [{"name": "NGC 1"}]}`,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, otterschema.Validate([]byte(doc)))
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	docs := map[string]string{
		"missing name":         `{"coordinate": {}}`,
		"name not an object":   `{"name": "ASASSN-14li"}`,
		"ra as object":         `{"name": {"default_name": "x"}, "coordinate": {"equitorial": [{"ra": {}, "dec": "0"}]}}`,
		"scalar document":      `42`,
		"photometry not array": `{"name": {"default_name": "x"}, "photometry": {}}`,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			err := otterschema.Validate([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, otterschema.ErrInvalidDocument))
		})
	}
}

func TestValidate_ReportsProblems(t *testing.T) {
	err := otterschema.Validate([]byte(`{"name": {}}`))
	var de *otterschema.DocumentError
	require.ErrorAs(t, err, &de)
	assert.NotEmpty(t, de.Problems)
}
