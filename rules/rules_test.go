package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moonfall-dev/moonfall/ast"
	"github.com/moonfall-dev/moonfall/parser"
)

func parseChunk(t *testing.T, src string) *ast.Chunk {
	t.Helper()
	chunk, err := parser.Parse("test.luau", src)
	require.NoError(t, err)
	return chunk
}

// applyTree runs one tree rule over src and returns the printed result.
func applyTree(t *testing.T, rule TreeRule, src string) string {
	t.Helper()
	chunk := parseChunk(t, src)
	require.NoError(t, rule.Apply(chunk.Body, &Context{FilePath: "test.luau"}))
	return ast.Print(chunk)
}

// applyVisitor runs one visitor rule over src and returns the printed
// result.
func applyVisitor(t *testing.T, rule VisitorRule, src string) string {
	t.Helper()
	chunk := parseChunk(t, src)
	ast.MutateBlock(chunk.Body, rule.NewMutator(&Context{FilePath: "test.luau"}))
	return ast.Print(chunk)
}
