// Package rules implements the named AST rewrite rules that downgrade
// Luau-flavoured source to plain Lua, plus the catalog and pipeline
// configuration that compose them.
package rules

import (
	"github.com/moonfall-dev/moonfall/ast"
)

// Context carries the read-only per-file information rules may consult.
// Rules never mutate the context.
type Context struct {
	// FilePath is the absolute path of the file being rewritten.
	FilePath string
	// ProjectRoot is the absolute project root directory. Empty when the
	// engine runs without project information (single expressions, tests).
	ProjectRoot string
	// SourceRoot is the directory module identifiers are made relative
	// to. Falls back to ProjectRoot when a path lies outside it.
	SourceRoot string
	// Aliases maps @prefix import forms to target directories,
	// first-match-wins in order.
	Aliases []Alias
}

// Alias is one @prefix → directory mapping for import resolution.
type Alias struct {
	Prefix string
	Dir    string
}

// Rule is a named transformation unit. Concrete rules implement exactly
// one of TreeRule or VisitorRule.
type Rule interface {
	RuleName() string
}

// TreeRule rewrites a whole program block at once. Implementations must
// be stateless; any derived state lives on the stack of Apply.
type TreeRule interface {
	Rule
	Apply(block *ast.Block, ctx *Context) error
}

// VisitorRule rewrites matched node kinds through a Mutator traversal.
// NewMutator is called once per file so mutators may carry traversal
// state (the bit32 rule's alias map) without making the rule stateful.
type VisitorRule interface {
	Rule
	NewMutator(ctx *Context) ast.Mutator
}
