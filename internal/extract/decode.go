package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// document is the wrapped form of a seed file: {"products": [...]}.
type document struct {
	Products []record `json:"products" yaml:"products"`
}

// decodeJSON accepts a bare array of records or a document.
func decodeJSON(content []byte) ([]record, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var records []record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
		return records, nil
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	return doc.Products, nil
}

// decodeYAML accepts a sequence of records or a document.
func decodeYAML(content []byte) ([]record, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return nil, fmt.Errorf("decode YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	node := root.Content[0]
	if node.Kind == yaml.SequenceNode {
		var records []record
		if err := node.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
		return records, nil
	}
	var doc document
	if err := node.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode YAML: %w", err)
	}
	return doc.Products, nil
}
