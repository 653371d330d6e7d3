// Package schema renders JSON Schema documents for the bootstrap config file.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/reglet-dev/wasm-bootstrap/config"
)

// ConfigSchemaID identifies the config file schema.
const ConfigSchemaID = "https://github.com/reglet-dev/wasm-bootstrap/config.schema.json"

// GenerateSchema reflects v with its top-level struct inlined.
func GenerateSchema(v any) ([]byte, error) {
	return marshal(reflector().Reflect(v))
}

// ConfigSchema returns the schema of the bootstrap config file.
func ConfigSchema() ([]byte, error) {
	s := reflector().Reflect(&config.Config{})
	s.ID = ConfigSchemaID
	s.Title = "bootstrap configuration"
	return marshal(s)
}

func reflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{ExpandedStruct: true}
}

func marshal(s *jsonschema.Schema) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}
