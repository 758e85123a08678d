package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Mapping is an index mapping descriptor: the create-index payload plus the
// declared document property names.
type Mapping struct {
	body       json.RawMessage
	properties []string
}

// NoMapping is the zero descriptor for indexes managed outside syncdex.
var NoMapping = Mapping{}

// NewMapping parses a mapping body of the form
// {"mappings": {"properties": {...}}, "settings": {...}} and extracts the
// property names.
func NewMapping(body []byte) (Mapping, error) {
	var parsed struct {
		Mappings struct {
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Mapping{}, fmt.Errorf("parse mapping: %w", err)
	}
	if len(parsed.Mappings.Properties) == 0 {
		return Mapping{}, fmt.Errorf("parse mapping: no mappings.properties declared")
	}
	props := make([]string, 0, len(parsed.Mappings.Properties))
	for name := range parsed.Mappings.Properties {
		props = append(props, name)
	}
	sort.Strings(props)
	return Mapping{body: append(json.RawMessage(nil), body...), properties: props}, nil
}

// MappingFromFile reads a mapping descriptor from a JSON file, conventionally
// {mappings_dir}/{index}.json.
func MappingFromFile(path string) (Mapping, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Mapping{}, fmt.Errorf("read mapping %s: %w", path, err)
	}
	m, err := NewMapping(data)
	if err != nil {
		return Mapping{}, fmt.Errorf("mapping %s: %w", path, err)
	}
	return m, nil
}

// Empty reports whether the descriptor carries no mapping.
func (m Mapping) Empty() bool { return len(m.body) == 0 }

// Body returns the raw create-index payload.
func (m Mapping) Body() []byte { return m.body }

// PropertyNames returns the declared property names, sorted.
func (m Mapping) PropertyNames() []string { return m.properties }
