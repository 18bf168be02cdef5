package rtplugin

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is a plugin manifest file (spec §6): a key/value text
// document describing a plugin library before it is loaded. Represented
// here as a restricted YAML scalar map — the same text-document shape
// the teacher's loader (_examples/goatkit-goatflow/internal/plugin/loader/loader.go,
// loadManifest) already parsed its plugin.yaml files with — so parsing
// gets gopkg.in/yaml.v3's battle-tested scalar/quoting rules rather than
// a hand-rolled key=value splitter.
type Manifest struct {
	Kind        string `yaml:"kind"`
	Name        string `yaml:"name"`
	Version     string `yaml:"version,omitempty"`
	Description string `yaml:"description,omitempty"`
	// Library is a path hint relative to the manifest's directory.
	Library string `yaml:"library,omitempty"`
}

// LoadManifest reads and parses a manifest file, validating the two
// required keys.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Kind == "" {
		return nil, fmt.Errorf("manifest %s: missing required key %q", path, "kind")
	}
	if m.Name == "" {
		return nil, fmt.Errorf("manifest %s: missing required key %q", path, "name")
	}
	return &m, nil
}

// ResolveLibraryPath resolves Library against the manifest's own
// directory when it is not already absolute.
func (m *Manifest) ResolveLibraryPath(manifestPath string) string {
	if m.Library == "" {
		return ""
	}
	if filepath.IsAbs(m.Library) {
		return m.Library
	}
	return filepath.Join(filepath.Dir(manifestPath), m.Library)
}
