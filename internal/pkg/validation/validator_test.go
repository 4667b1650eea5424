package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astro-otter/otterweb/internal/pkg/validation"
)

type listParams struct {
	Offset int    `query:"offset" validate:"gte=0"`
	Limit  int    `query:"limit" validate:"min=1,max=500"`
	Store  string `json:"store" validate:"oneof=postgres memory"`
}

func TestValidateStruct_OK(t *testing.T) {
	assert.NoError(t, validation.ValidateStruct(&listParams{Limit: 50, Store: "memory"}))
}

func TestValidateStruct_Messages(t *testing.T) {
	err := validation.ValidateStruct(&listParams{Offset: -1, Limit: 1000, Store: "sqlite"})
	require.Error(t, err)

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 3)

	assert.Equal(t, "offset", verrs[0].Field)
	assert.Equal(t, "offset must be greater than or equal to 0", verrs[0].Message)
	assert.Equal(t, "limit must be at most 500", verrs[1].Message)
	assert.Equal(t, "store must be one of: postgres memory", verrs[2].Message)
	assert.Contains(t, err.Error(), "; ")
}
