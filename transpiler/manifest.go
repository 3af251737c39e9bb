// Package transpiler drives a whole build: it reads the project
// manifest, resolves the rule pipeline and polyfill, and runs the
// per-file transform workers.
package transpiler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestName is the project manifest file name.
const ManifestName = "moonfall.toml"

// DefaultInjectionPath is the dotted require path of the compiled
// polyfill module when the manifest does not set one.
const DefaultInjectionPath = "__polyfill__"

// Manifest is the project configuration read from moonfall.toml.
type Manifest struct {
	// Input is the source file or directory, relative to the manifest.
	Input string `toml:"input"`
	// Output is the directory rewritten files are written to.
	Output string `toml:"output"`
	// FileExtension is the extension of written files, without the dot.
	FileExtension string `toml:"file_extension"`
	// TargetVersion names the dialect being lowered to. Informational.
	TargetVersion string `toml:"target_version"`
	// Minify enables the minification rule set and compact output.
	Minify bool `toml:"minify"`
	// Rules force-enables or force-disables individual rules by name.
	// A disabled default rule stays disabled (disable wins).
	Rules map[string]bool `toml:"rules"`
	// Aliases maps @prefix import forms to directories, resolved against
	// the project root when relative.
	Aliases map[string]string `toml:"aliases"`
	// SourceRoot is the directory module identifiers are made relative
	// to. Defaults to Input when it is a directory.
	SourceRoot string `toml:"source_root"`
	// Polyfill configures compatibility-shim injection; nil disables it.
	Polyfill *PolyfillSection `toml:"polyfill"`
}

// PolyfillSection is the optional [polyfill] manifest table.
type PolyfillSection struct {
	// Repository is the shim repository locator (git URL or local path).
	Repository string `toml:"repository"`
	// Globals force-disables (or re-enables, subject to disable-wins)
	// individual exports by name.
	Globals map[string]bool `toml:"globals"`
	// InjectionPath is the dotted require path consuming files use for
	// the compiled shim module.
	InjectionPath string `toml:"injection_path"`
}

// ReadManifest loads and validates a manifest file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.applyDefaults()
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.Input == "" {
		return fmt.Errorf("missing required field %q", "input")
	}
	if m.Output == "" {
		return fmt.Errorf("missing required field %q", "output")
	}
	if m.Polyfill != nil && m.Polyfill.Repository == "" {
		return fmt.Errorf("[polyfill] requires %q", "repository")
	}
	return nil
}

func (m *Manifest) applyDefaults() {
	if m.FileExtension == "" {
		m.FileExtension = "lua"
	}
	if m.TargetVersion == "" {
		m.TargetVersion = "5.3"
	}
	if m.Polyfill != nil && m.Polyfill.InjectionPath == "" {
		m.Polyfill.InjectionPath = DefaultInjectionPath
	}
}

// DefaultManifest is the manifest written by the init command.
const DefaultManifest = `input = "src"
output = "dist"
file_extension = "lua"
target_version = "5.3"
minify = false

# [rules]
# convert_bit32 = false

# [aliases]
# pkg = "libs"

# [polyfill]
# repository = "https://github.com/CavefulGames/dal-polyfill"
`

// WriteDefaultManifest creates moonfall.toml in dir, refusing to
// overwrite an existing one.
func WriteDefaultManifest(dir string) (string, error) {
	path := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	}
	if err := os.WriteFile(path, []byte(DefaultManifest), 0644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}
