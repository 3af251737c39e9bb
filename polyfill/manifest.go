// Package polyfill resolves a compatibility-shim repository to a local
// cache directory and exposes its manifest and export set.
package polyfill

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file every polyfill repository must carry at its
// root.
const ManifestName = "polyfill.toml"

// Manifest describes a polyfill repository: where its globals module
// lives, which names it force-unbinds, the default per-export
// configuration, and the dialect version it targets.
type Manifest struct {
	Globals       string          `toml:"globals"`
	Removes       []string        `toml:"removes"`
	Config        map[string]bool `toml:"config"`
	TargetVersion string          `toml:"target_version"`
}

// ReadManifest loads and validates dir/polyfill.toml.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading polyfill manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if m.Globals == "" {
		return nil, fmt.Errorf("%s: missing required field %q", path, "globals")
	}
	if m.Config == nil {
		m.Config = make(map[string]bool)
	}
	return &m, nil
}

// GlobalsPath returns the absolute path of the globals source file.
func (m *Manifest) GlobalsPath(dir string) string {
	return filepath.Join(dir, filepath.FromSlash(m.Globals))
}
