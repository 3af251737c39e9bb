package injector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfall-dev/moonfall/parser"
)

func TestCollectFirstOccurrenceOrder(t *testing.T) {
	chunk, err := parser.Parse("f.lua", "print(utf8.char(65))\nlocal s = setfenv\nprint(utf8, unpack)")
	require.NoError(t, err)

	c := NewCollector([]string{"unpack", "utf8", "setfenv"})
	assert.Equal(t, []string{"utf8", "setfenv", "unpack"}, c.Collect(chunk))
}

func TestCollectIgnoresNonExports(t *testing.T) {
	chunk, err := parser.Parse("f.lua", "local x = utf8\nprint(other)")
	require.NoError(t, err)

	c := NewCollector([]string{"utf8"})
	assert.Equal(t, []string{"utf8"}, c.Collect(chunk))
}

func TestCollectSkipsFieldAccess(t *testing.T) {
	// t.utf8 references the field, not the global; only the bare
	// identifier counts.
	chunk, err := parser.Parse("f.lua", "print(t.utf8)")
	require.NoError(t, err)

	c := NewCollector([]string{"utf8"})
	assert.Empty(t, c.Collect(chunk))
}

func TestPrologueFormat(t *testing.T) {
	inj := &Injector{ModulePath: "__polyfill__", Removes: []string{"bar"}}
	got := inj.Prologue([]string{"foo"})
	assert.Equal(t, "local foo=require'__polyfill__'.foo local bar=nil ", got)
}

func TestPrologueEmptyWhenNothingToBind(t *testing.T) {
	inj := &Injector{ModulePath: "__polyfill__"}
	assert.Equal(t, "", inj.Prologue(nil))
}

func TestInjectPreservesLineNumbers(t *testing.T) {
	inj := &Injector{ModulePath: "shims.globals"}
	src := "local a = utf8.char(65)\nprint(a)\n"
	out := inj.Inject(src, []string{"utf8"})

	// Binding text is spliced into line one, never added as a new line.
	assert.Equal(t, strings.Count(src, "\n"), strings.Count(out, "\n"))
	assert.True(t, strings.HasPrefix(out, "local utf8=require'shims.globals'.utf8 local a"))

	// The result still parses.
	_, err := parser.Parse("f.lua", out)
	assert.NoError(t, err)
}

func TestInjectRemovalsAlwaysEmitted(t *testing.T) {
	// A removal binds even when the file never mentions the name, so the
	// engine-level gating decides usage, not the injector.
	inj := &Injector{ModulePath: "__polyfill__", Removes: []string{"setfenv"}}
	out := inj.Inject("return 1\n", nil)
	assert.Equal(t, "local setfenv=nil return 1\n", out)
}

func TestInjectDisabledExportNotBound(t *testing.T) {
	// Collector built over the enabled set only: a disabled export is
	// invisible even when referenced.
	chunk, err := parser.Parse("f.lua", "print(utf8, unpack)")
	require.NoError(t, err)

	c := NewCollector([]string{"unpack"}) // utf8 disabled upstream
	used := c.Collect(chunk)
	assert.Equal(t, []string{"unpack"}, used)

	inj := &Injector{ModulePath: "__polyfill__"}
	out := inj.Inject("print(utf8, unpack)\n", used)
	assert.NotContains(t, out, "local utf8")
	assert.Contains(t, out, "local unpack=require'__polyfill__'.unpack")
}
