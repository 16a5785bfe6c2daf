// Package config loads pipeline-definition files and turns them into
// runnable chains.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// PipelineSpec is the on-disk description of a pipeline: a name and an
// ordered list of bricks to instantiate and pipe together.
type PipelineSpec struct {
	Name   string      `json:"name" yaml:"name" toml:"name"`
	Bricks []BrickSpec `json:"bricks" yaml:"bricks" toml:"bricks"`
}

// BrickSpec declares one brick: its type (model, generation, tokenization,
// config) and type-specific parameters.
type BrickSpec struct {
	Type   string         `json:"type" yaml:"type" toml:"type"`
	Params map[string]any `json:"params" yaml:"params" toml:"params"`
}

// Load reads a pipeline definition based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (PipelineSpec, error) {
	var spec PipelineSpec
	if path == "" {
		return spec, fmt.Errorf("empty pipeline definition path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return spec, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &spec); err != nil {
			return spec, err
		}
	case ".json":
		if err := json.Unmarshal(b, &spec); err != nil {
			return spec, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &spec); err != nil {
			return spec, err
		}
	default:
		return spec, fmt.Errorf("unsupported pipeline definition extension: %s", ext)
	}
	if spec.Name == "" {
		spec.Name = "Pipeline"
	}
	return spec, nil
}
