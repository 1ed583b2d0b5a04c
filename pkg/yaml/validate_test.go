package yaml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/autolabeler/pkg/yaml"
)

const testSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"count": {"type": "integer", "minimum": 1}
	},
	"required": ["name"],
	"additionalProperties": false
}`

func TestValidator(t *testing.T) {
	t.Parallel()

	v, err := yaml.NewValidator("/test.json", []byte(testSchema))
	require.NoError(t, err)

	tcs := map[string]struct {
		data    map[string]any
		wantErr bool
	}{
		"valid document": {
			data: map[string]any{"name": "bug", "count": float64(2)},
		},
		"missing required property": {
			data:    map[string]any{"count": float64(2)},
			wantErr: true,
		},
		"unknown property": {
			data:    map[string]any{"name": "bug", "colour": "red"},
			wantErr: true,
		},
		"violated minimum": {
			data:    map[string]any{"name": "bug", "count": float64(0)},
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := v.Validate(tc.data)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidatorErrorCarriesPath(t *testing.T) {
	t.Parallel()

	v, err := yaml.NewValidator("/test.json", []byte(testSchema))
	require.NoError(t, err)

	err = v.Validate(map[string]any{"name": "bug", "count": "two"})
	require.Error(t, err)

	var yamlErr *yaml.Error
	require.ErrorAs(t, err, &yamlErr)
	require.NotNil(t, yamlErr.Path)
	assert.Equal(t, "$.count", yamlErr.Path.String())
}

func TestNewValidatorRejectsBadSchema(t *testing.T) {
	t.Parallel()

	_, err := yaml.NewValidator("/test.json", []byte("{not json"))
	require.Error(t, err)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	in := yaml.MapSlice{
		{Key: "name", Value: "bug"},
		{Key: "count", Value: uint64(2)},
		{Key: "nested", Value: yaml.MapSlice{{Key: "a", Value: []any{uint64(1)}}}},
	}

	got := yaml.Normalize(in)

	want := map[string]any{
		"name":   "bug",
		"count":  int64(2),
		"nested": map[string]any{"a": []any{int64(1)}},
	}
	assert.Equal(t, want, got)
}
