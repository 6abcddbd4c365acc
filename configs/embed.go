// Package configs embeds the reference scheduler configurations.
package configs

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
)

// Example is the reference configuration shipped with the binary.
const Example = "example.yaml"

//go:embed *.yaml
var files embed.FS

// FS exposes the embedded configurations for dsl.LoadFS.
func FS() fs.FS {
	return files
}

// Names lists the embedded configuration names in sorted order.
func Names() []string {
	names, err := fs.Glob(files, "*.yaml")
	if err != nil {
		return nil
	}
	slices.Sort(names)
	return names
}

// Load returns the raw, unrendered template of an embedded configuration.
func Load(name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("embedded config name is empty")
	}
	if !slices.Contains(Names(), name) {
		return nil, fmt.Errorf("embedded config %q not found, have %v", name, Names())
	}
	return fs.ReadFile(files, name)
}
