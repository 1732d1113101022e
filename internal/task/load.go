package task

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FromYAML decodes a YAML (or JSON, which is a YAML subset) task document.
func FromYAML(data []byte) (*Task, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing task document: %w", err)
	}
	return FromMap(doc)
}

// LoadFile reads and decodes a task document from disk.
func LoadFile(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading task file: %w", err)
	}
	t, err := FromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return t, nil
}
