package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfall-dev/moonfall/ast"
)

func TestTableKeysNoDuplicatesUntouched(t *testing.T) {
	srcs := []string{
		"local t = {1, 2, a = 3}",
		"local t = {[2] = 1, [5] = 2}",
		`local t = {["a"] = 1, b = 2}`,
		"local t = {f(), g(), h()}",
	}
	for _, src := range srcs {
		got := applyTree(t, RemoveRedeclaredKeys{}, src)
		assert.Equal(t, src+"\n", got, "src: %s", src)
	}
}

func TestTableKeysLastWins(t *testing.T) {
	got := applyTree(t, RemoveRedeclaredKeys{}, "local t = {a = 1, a = 2}")
	assert.Equal(t, "local t = {a = 2}\n", got)
}

func TestTableKeysPositionalCollision(t *testing.T) {
	// The positional entry occupies index 1 and supersedes both bracket
	// forms.
	got := applyTree(t, RemoveRedeclaredKeys{}, "local t = {[1] = 1, [1] = 2, 5}")
	assert.Equal(t, "local t = {5}\n", got)
}

func TestTableKeysBracketAndFieldShareKeySpace(t *testing.T) {
	got := applyTree(t, RemoveRedeclaredKeys{}, `local t = {["a"] = 1, a = 2}`)
	assert.Equal(t, "local t = {a = 2}\n", got)
}

func TestTableKeysHoistAfterSideEffect(t *testing.T) {
	src := "local t = {[1] = 1, [1] = 2, foo = bar(), [1] = 3}"
	got := applyTree(t, RemoveRedeclaredKeys{}, src)

	// The literal keeps the deduplicated prefix; the final redeclaration
	// becomes an assignment after the side-effecting entry ran.
	assert.Contains(t, got, "(function()")
	assert.Contains(t, got, "{2, foo = bar()}")
	assert.Contains(t, got, "[1] = 3")
	assert.Contains(t, got, "end)()")
}

func TestTableKeysUnknownKeyHoistsTail(t *testing.T) {
	got := applyTree(t, RemoveRedeclaredKeys{}, "local t = {[k] = 1, a = 2}")
	assert.Contains(t, got, "(function()")
	assert.Contains(t, got, "[k] = 1")
	assert.Contains(t, got, ".a = 2")
}

func TestTableKeysImpureEarlierOccurrenceHoists(t *testing.T) {
	// Dropping f() would lose its side effect, so the later value is
	// hoisted instead.
	got := applyTree(t, RemoveRedeclaredKeys{}, "local t = {a = f(), a = 2}")
	assert.Contains(t, got, "(function()")
	assert.Contains(t, got, "{a = f()}")
	assert.Contains(t, got, ".a = 2")
}

func TestTableKeysIdempotent(t *testing.T) {
	srcs := []string{
		"local t = {a = 1, a = 2}",
		"local t = {[1] = 1, [1] = 2, foo = bar(), [1] = 3}",
		"local t = {[k] = 1, a = 2}",
	}
	for _, src := range srcs {
		once := applyTree(t, RemoveRedeclaredKeys{}, src)
		twice := applyTree(t, RemoveRedeclaredKeys{}, once)
		assert.Equal(t, once, twice, "src: %s", src)
	}
}

func TestTableKeysDeterministicIdent(t *testing.T) {
	src := "local t = {[k] = 1, a = 2}"
	first := applyTree(t, RemoveRedeclaredKeys{}, src)
	second := applyTree(t, RemoveRedeclaredKeys{}, src)
	assert.Equal(t, first, second)
}

func TestTableKeysSynthesizedIdentAvoidsCollisions(t *testing.T) {
	chunk := parseChunk(t, "local t = {[k] = 1, a = 2}")
	name := synthesizeIdent("tbl", chunk.Body)
	require.NotEmpty(t, name)

	used := collectNames(chunk.Body)
	assert.False(t, used[name])
}

func TestTableKeysNestedTables(t *testing.T) {
	got := applyTree(t, RemoveRedeclaredKeys{}, "local t = {inner = {a = 1, a = 2}}")
	assert.Equal(t, "local t = {inner = {a = 2}}\n", got)
}

func TestIsPureExpr(t *testing.T) {
	chunk := parseChunk(t, "local x = f()\nlocal y = 1\nlocal z = function() end")
	call := chunk.Body.Stmts[0].(*ast.LocalStmt).Values[0]
	num := chunk.Body.Stmts[1].(*ast.LocalStmt).Values[0]
	fn := chunk.Body.Stmts[2].(*ast.LocalStmt).Values[0]

	assert.False(t, isPureExpr(call))
	assert.True(t, isPureExpr(num))
	assert.True(t, isPureExpr(fn))
}
