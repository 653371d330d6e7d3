package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema_SimpleStruct(t *testing.T) {
	type SimpleConfig struct {
		Host string `json:"host"`
		Port int    `json:"port,omitempty"`
	}

	schema, err := GenerateSchema(SimpleConfig{})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(schema, &decoded))

	props, ok := decoded["properties"].(map[string]any)
	require.True(t, ok, "top-level struct should be expanded inline")
	assert.Contains(t, props, "host")
	assert.Contains(t, props, "port")
	assert.Equal(t, []any{"host"}, decoded["required"])
}

func TestConfigSchema(t *testing.T) {
	schema, err := ConfigSchema()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(schema, &decoded))

	props, ok := decoded["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "module")
	assert.Contains(t, props, "log")
	assert.Contains(t, props, "metrics")

	text := string(schema)
	assert.Contains(t, text, "memory_limit_pages")
	assert.Contains(t, text, "rustwasm/wasm-bindgen")
	assert.Contains(t, text, `"json"`)
	assert.Equal(t, ConfigSchemaID, decoded["$id"])
	assert.Equal(t, "bootstrap configuration", decoded["title"])
}
