package yaml_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/foldex/pkg/yaml"
)

type schemaRule struct {
	Any []string `json:"any,omitempty" jsonschema:"title=Any"`
}

type schemaType struct {
	Detect *schemaRule `json:"detect,omitempty"`
	ID     string      `json:"id"               jsonschema:"minLength=1"`
}

type schemaRoot struct {
	Types []*schemaType `json:"types" jsonschema:"minItems=1"`
}

func TestSchemaGenerator_Generate(t *testing.T) {
	t.Parallel()

	b, err := yaml.NewSchemaGenerator(&schemaRoot{}).Generate()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))

	assert.Equal(t, "object", got["type"])
	assert.Contains(t, got["properties"], "types")
	assert.Equal(t, []any{"types"}, got["required"])

	// The generated schema can be used for validation.
	v, err := yaml.NewValidator("generated.json", b)
	require.NoError(t, err)

	require.NoError(t, v.Validate(map[string]any{
		"types": []any{map[string]any{"id": "next", "detect": map[string]any{"any": []any{".next"}}}},
	}))
	require.Error(t, v.Validate(map[string]any{
		"types": []any{map[string]any{"id": ""}},
	}))
}

func TestSchemaGenerator_UnknownPackage(t *testing.T) {
	t.Parallel()

	_, err := yaml.NewSchemaGenerator(&schemaRoot{}, "example.com/other/pkg").Generate()
	require.ErrorContains(t, err, "not in module")
}
