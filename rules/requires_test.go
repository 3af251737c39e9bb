package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfall-dev/moonfall/ast"
)

func writeTestFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("return {}\n"), 0644))
}

// requireProject lays out a small project tree and returns its root.
func requireProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range []string{
		"src/main.luau",
		"src/util.luau",
		"src/a/x.y/mod.luau",
		"src/pkgd/init.luau",
		"src/pkgd/child.luau",
		"lib/extra.luau",
		"sibling.luau",
		"s1/s2/deep.luau",
		"s1/shallow.luau",
	} {
		writeTestFile(t, filepath.Join(root, p))
	}
	return root
}

func requireCtx(root, file string) *Context {
	return &Context{
		FilePath:    filepath.Join(root, file),
		ProjectRoot: root,
		SourceRoot:  filepath.Join(root, "src"),
		Aliases:     []Alias{{Prefix: "pkg", Dir: "lib"}},
	}
}

// resolveRequires applies the rule to src in the given context.
func resolveRequires(t *testing.T, ctx *Context, src string) (string, error) {
	t.Helper()
	chunk := parseChunk(t, src)
	err := ResolveRequirePaths{}.Apply(chunk.Body, ctx)
	return ast.Print(chunk), err
}

func TestRequireRelative(t *testing.T) {
	root := requireProject(t)
	got, err := resolveRequires(t, requireCtx(root, "src/main.luau"), `local u = require("./util")`)
	require.NoError(t, err)
	assert.Equal(t, "local u = require(\"util\")\n", got)
}

func TestRequireAlias(t *testing.T) {
	root := requireProject(t)
	got, err := resolveRequires(t, requireCtx(root, "src/main.luau"), `local e = require("@pkg/extra")`)
	require.NoError(t, err)
	// lib/ is outside the source root, so the identifier falls back to
	// the project root.
	assert.Equal(t, "local e = require(\"lib.extra\")\n", got)
}

func TestRequireDotEscapeIntermediateSegments(t *testing.T) {
	root := requireProject(t)
	got, err := resolveRequires(t, requireCtx(root, "src/main.luau"), `local m = require("./a/x.y/mod")`)
	require.NoError(t, err)
	assert.Equal(t, "local m = require(\"a.x__y.mod\")\n", got)
}

func TestRequireSelfWithMarker(t *testing.T) {
	root := requireProject(t)
	ctx := requireCtx(root, "src/pkgd/child.luau")

	got, err := resolveRequires(t, ctx, `local c = require("@self/child")`)
	require.NoError(t, err)
	assert.Equal(t, "local c = require(\"pkgd.child\")\n", got)

	got, err = resolveRequires(t, ctx, `local i = require("@self")`)
	require.NoError(t, err)
	assert.Equal(t, "local i = require(\"pkgd.init\")\n", got)
}

func TestRequireSelfFallsBackToProjectRoot(t *testing.T) {
	root := requireProject(t)

	// No init marker anywhere beneath the project root on this branch:
	// @self two levels down and ../ one level down must agree.
	deep, err := resolveRequires(t, requireCtx(root, "s1/s2/deep.luau"), `local s = require("@self/sibling")`)
	require.NoError(t, err)
	shallow, err := resolveRequires(t, requireCtx(root, "s1/shallow.luau"), `local s = require("../sibling")`)
	require.NoError(t, err)

	assert.Equal(t, "local s = require(\"sibling\")\n", deep)
	assert.Equal(t, deep, shallow)
}

func TestRequireUnknownAlias(t *testing.T) {
	root := requireProject(t)
	_, err := resolveRequires(t, requireCtx(root, "src/main.luau"), `local x = require("@nope/mod")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown alias")
}

func TestRequireMissingTarget(t *testing.T) {
	root := requireProject(t)
	_, err := resolveRequires(t, requireCtx(root, "src/main.luau"), `local x = require("./missing")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no module found")
}

func TestRequireUntouchedForms(t *testing.T) {
	root := requireProject(t)
	ctx := requireCtx(root, "src/main.luau")
	srcs := []string{
		`local x = require(path)`,
		`local x = require("./util", 2)`,
		`local x = require("foo.bar")`,
		`local x = notrequire("./util")`,
	}
	for _, src := range srcs {
		got, err := resolveRequires(t, ctx, src)
		require.NoError(t, err, "src: %s", src)
		assert.Equal(t, src+"\n", got, "src: %s", src)
	}
}

func TestRequireDeterministic(t *testing.T) {
	root := requireProject(t)
	ctx := requireCtx(root, "src/main.luau")
	src := `local u = require("./util")`
	first, err := resolveRequires(t, ctx, src)
	require.NoError(t, err)
	second, err := resolveRequires(t, ctx, src)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
