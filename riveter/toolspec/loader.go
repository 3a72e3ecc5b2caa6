package toolspec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a custom ToolSpec from a YAML descriptor, for tools not
// in the built-in catalog.
func LoadFile(path string) (*ToolSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tool spec %s: %w", path, err)
	}
	return Load(data)
}

// Load parses a YAML descriptor and validates it.
func Load(data []byte) (*ToolSpec, error) {
	var spec ToolSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing tool spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}
