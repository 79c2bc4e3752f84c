package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
	FormatTOML OutputFormat = "toml"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatTOML:
		return formatTOML(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatYAML(resp interface{}) (string, error) {
	tree, err := normalize(resp)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// formatTOML nests the response under a "result" key since a TOML document must be a
// table.
func formatTOML(resp interface{}) (string, error) {
	tree, err := normalize(resp)
	if err != nil {
		return "", err
	}
	data, err := toml.Marshal(map[string]interface{}{"result": tree})
	if err != nil {
		return "", fmt.Errorf("failed to marshal TOML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// normalize converts resp to plain maps, slices and scalars keyed by its JSON field
// names, so every format shows the same keys. Null members are dropped.
func normalize(resp interface{}) (interface{}, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree interface{}
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return prune(tree), nil
}

func prune(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, member := range t {
			if member == nil {
				delete(t, k)
				continue
			}
			t[k] = prune(member)
		}
		return t
	case []interface{}:
		for i, member := range t {
			t[i] = prune(member)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}
