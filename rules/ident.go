package rules

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/moonfall-dev/moonfall/ast"
)

// synthesizeIdent derives an identifier that does not collide with any
// name appearing in the block. The name is a function of the block's
// printed content, so repeated runs over unchanged input synthesize the
// same identifier and produce byte-identical output.
func synthesizeIdent(prefix string, block *ast.Block) string {
	printer := &ast.Printer{}
	sum := sha256.Sum256([]byte(printer.PrintBlock(block)))
	digest := hex.EncodeToString(sum[:])

	used := collectNames(block)
	for n := 8; n <= len(digest); n += 4 {
		name := "__" + prefix + "_" + digest[:n]
		if !used[name] {
			return name
		}
	}
	// Exhausting a 64-character digest requires an adversarial input;
	// extend with a suffix until free.
	name := "__" + prefix + "_" + digest
	for used[name] {
		name += "_"
	}
	return name
}

// collectNames gathers every identifier-like name in the block: variable
// references, declarations, parameters, fields, and labels.
func collectNames(block *ast.Block) map[string]bool {
	used := make(map[string]bool)
	ast.Inspect(block, func(n ast.Node) bool {
		switch t := n.(type) {
		case *ast.IdentExpr:
			used[t.Name] = true
		case *ast.LocalStmt:
			for _, name := range t.Names {
				used[name] = true
			}
		case *ast.NumericForStmt:
			used[t.Var] = true
		case *ast.GenericForStmt:
			for _, name := range t.Names {
				used[name] = true
			}
		case *ast.FunctionDeclStmt:
			for _, name := range t.Name {
				used[name] = true
			}
			if t.Method != "" {
				used[t.Method] = true
			}
		case *ast.FunctionExpr:
			for _, name := range t.Params {
				used[name] = true
			}
		case *ast.DotExpr:
			used[t.Field] = true
		case *ast.FieldEntry:
			used[t.Name] = true
		case *ast.LabelStmt:
			used[t.Name] = true
		case *ast.GotoStmt:
			used[t.Label] = true
		}
		return true
	})
	return used
}
