package dsl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile renders the file as a template and loads the result.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return LoadTemplate(path, raw)
}

// LoadFS loads a config template from fsys, e.g. the embedded examples.
func LoadFS(fsys fs.FS, name string) (*Config, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read embedded config: %w", err)
	}
	return LoadTemplate(name, raw)
}

// LoadTemplate renders raw with env helpers and loads the result.
func LoadTemplate(name string, raw []byte) (*Config, error) {
	rendered, err := Render(name, raw)
	if err != nil {
		return nil, err
	}
	return Load(rendered)
}

// Load parses YAML bytes into Config and validates it. Unknown fields are errors.
func Load(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
