package polyfill

import "fmt"

// Descriptor is the per-build view of a polyfill: the resolved cache
// directory, the manifest, and the export set declared by the globals
// file. Constructed once per build and shared read-only afterwards.
type Descriptor struct {
	Repository *Repository
	Manifest   *Manifest
	Exports    []string

	exportSet map[string]bool
}

// Load resolves a repository locator (cloning on first use), reads its
// manifest, and extracts the export set from the globals file.
func Load(locator string) (*Descriptor, error) {
	repo, err := Resolve(locator)
	if err != nil {
		return nil, err
	}
	return LoadDir(repo)
}

// LoadDir builds a descriptor from an already-resolved repository. Split
// out so local (non-git) polyfill directories and tests can skip the
// network path.
func LoadDir(repo *Repository) (*Descriptor, error) {
	manifest, err := ReadManifest(repo.Dir)
	if err != nil {
		return nil, err
	}
	exports, err := ExportsFromFile(manifest.GlobalsPath(repo.Dir))
	if err != nil {
		return nil, fmt.Errorf("polyfill globals: %w", err)
	}

	set := make(map[string]bool, len(exports))
	for _, name := range exports {
		set[name] = true
	}
	for _, name := range manifest.Removes {
		if !set[name] {
			return nil, fmt.Errorf("polyfill manifest removes unknown export %q", name)
		}
	}
	return &Descriptor{
		Repository: repo,
		Manifest:   manifest,
		Exports:    exports,
		exportSet:  set,
	}, nil
}

// HasExport reports whether name is in the declared export set.
func (d *Descriptor) HasExport(name string) bool {
	return d.exportSet[name]
}

// GlobalsPath returns the absolute path of the globals source file.
func (d *Descriptor) GlobalsPath() string {
	return d.Manifest.GlobalsPath(d.Repository.Dir)
}

// EnabledExports returns the export names left enabled after applying
// the manifest defaults and the user's overrides, in declaration order.
// Referencing a name absent from the export set is a configuration
// error: it means the project and the cached polyfill disagree.
func (d *Descriptor) EnabledExports(overrides map[string]bool) ([]string, error) {
	enabled := make(map[string]bool, len(d.Exports))
	for _, name := range d.Exports {
		enabled[name] = true
	}
	for name, on := range d.Manifest.Config {
		if !d.exportSet[name] {
			return nil, fmt.Errorf("polyfill manifest configures unknown export %q", name)
		}
		enabled[name] = on
	}
	for name, on := range overrides {
		if !d.exportSet[name] {
			return nil, fmt.Errorf("configuration references unknown polyfill export %q", name)
		}
		enabled[name] = enabled[name] && on
	}

	var out []string
	for _, name := range d.Exports {
		if enabled[name] {
			out = append(out, name)
		}
	}
	return out, nil
}
