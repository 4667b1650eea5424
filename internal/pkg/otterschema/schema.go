// Package otterschema checks the shape of OTTER JSON files before they are
// decoded, so a malformed file is reported with the offending paths.
package otterschema

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed record.schema.json
var schemaJSON []byte

// ErrInvalidDocument is wrapped by every *DocumentError.
var ErrInvalidDocument = errors.New("invalid OTTER document")

// DocumentError lists the schema violations of one document.
type DocumentError struct {
	Problems []string
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidDocument, strings.Join(e.Problems, "; "))
}

func (e *DocumentError) Unwrap() error { return ErrInvalidDocument }

var (
	schema     *gojsonschema.Schema
	schemaErr  error
	schemaOnce sync.Once
)

func compiled() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// Validate checks that data is a single OTTER record or an array of them.
func Validate(data []byte) error {
	s, err := compiled()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if res.Valid() {
		return nil
	}
	problems := make([]string, len(res.Errors()))
	for i, desc := range res.Errors() {
		problems[i] = desc.String()
	}
	return &DocumentError{Problems: problems}
}
