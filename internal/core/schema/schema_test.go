package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptimizeRequestSchemaDeclaresNullableInput(t *testing.T) {
	t.Parallel()

	schemaMap, err := OptimizeRequestSchema()
	require.NoError(t, err)

	properties, ok := schemaMap["properties"].(map[string]any)
	require.True(t, ok, "expected schema properties to be present")
	input, ok := properties["input"].(map[string]any)
	require.True(t, ok, "expected input property to be defined")
	require.Equal(t, []any{"string", "null"}, input["type"])
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateRequest([]byte(`{"input":"code"}`)))
	require.NoError(t, ValidateRequest([]byte(`{}`)))
	require.NoError(t, ValidateRequest([]byte(`{"input":null}`)))

	err := ValidateRequest([]byte(`{"input":42}`))
	var vErr ValidationError
	require.True(t, errors.As(err, &vErr))
	require.NotEmpty(t, vErr.Issues)

	require.Error(t, ValidateRequest([]byte(`not json`)))
}

func TestValidateResponse(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateResponse([]byte(`{"output":"const x = 1;"}`)))
	require.NoError(t, ValidateResponse([]byte(`{}`)))
	require.NoError(t, ValidateResponse([]byte(`{"output":null}`)))
	require.NoError(t, ValidateResponse([]byte(`{"error":"upstream down"}`)))

	err := ValidateResponse([]byte(`{"output":["a"]}`))
	var vErr ValidationError
	require.True(t, errors.As(err, &vErr))

	require.Error(t, ValidateResponse([]byte(`[1,2]`)))
}
