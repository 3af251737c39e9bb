package polyfill

import (
	"fmt"

	"github.com/moonfall-dev/moonfall/ast"
	"github.com/moonfall-dev/moonfall/parser"
)

// Exports extracts the export set from a globals chunk: the last
// statement must be a return of a single table constructor, and each
// name-keyed or quoted-string-keyed entry contributes one export.
// Computed keys and positional entries are ignored, not errors.
func Exports(chunk *ast.Chunk) ([]string, error) {
	stmts := chunk.Body.Stmts
	if len(stmts) == 0 {
		return nil, fmt.Errorf("globals file has no return statement")
	}
	ret, ok := stmts[len(stmts)-1].(*ast.ReturnStmt)
	if !ok {
		return nil, fmt.Errorf("globals file must end with a return statement")
	}
	if len(ret.Values) != 1 {
		return nil, fmt.Errorf("globals file must return exactly one value")
	}
	table, ok := ret.Values[0].(*ast.TableExpr)
	if !ok {
		return nil, fmt.Errorf("globals file must return a table constructor")
	}

	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, entry := range table.Entries {
		switch en := entry.(type) {
		case *ast.FieldEntry:
			add(en.Name)
		case *ast.IndexEntry:
			if key, ok := en.Key.(*ast.StringExpr); ok {
				add(key.Value)
			}
		}
	}
	return names, nil
}

// ExportsFromFile parses a globals source file and extracts its exports.
func ExportsFromFile(path string) ([]string, error) {
	chunk, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Exports(chunk)
}
