// Package injector determines which polyfill exports a rewritten file
// references and prepends the bindings that supply them.
package injector

import "github.com/moonfall-dev/moonfall/ast"

// Collector scans rewritten trees for references to a fixed export set.
// The scan runs over the re-parsed output of the rule pipeline, since
// rules both introduce and remove identifier references.
type Collector struct {
	exports map[string]bool
}

// NewCollector builds a collector for the given export names.
func NewCollector(exports []string) *Collector {
	set := make(map[string]bool, len(exports))
	for _, name := range exports {
		set[name] = true
	}
	return &Collector{exports: set}
}

// Collect returns the export names the chunk references as bare
// identifiers, in order of first occurrence.
func (c *Collector) Collect(chunk *ast.Chunk) []string {
	var used []string
	seen := make(map[string]bool)
	ast.Inspect(chunk, func(n ast.Node) bool {
		if ident, ok := n.(*ast.IdentExpr); ok && c.exports[ident.Name] && !seen[ident.Name] {
			seen[ident.Name] = true
			used = append(used, ident.Name)
		}
		return true
	})
	return used
}
