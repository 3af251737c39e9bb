package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBit32BinaryMethods(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"local x = bit32.band(5, 3)", "local x = ((5 & 3) & 0xFFFFFFFF)"},
		{"local x = bit32.bor(a, b)", "local x = ((a | b) & 0xFFFFFFFF)"},
		{"local x = bit32.bxor(a, b)", "local x = ((a ~ b) & 0xFFFFFFFF)"},
		{"local x = bit32.lshift(a, 2)", "local x = ((a << 2) & 0xFFFFFFFF)"},
		{"local x = bit32.rshift(a, 2)", "local x = ((a >> 2) & 0xFFFFFFFF)"},
	}
	for _, tt := range tests {
		got := applyVisitor(t, ConvertBit32{}, tt.src)
		assert.Equal(t, tt.want+"\n", got, "src: %s", tt.src)
	}
}

func TestBit32Not(t *testing.T) {
	got := applyVisitor(t, ConvertBit32{}, "local x = bit32.bnot(a)")
	assert.Equal(t, "local x = ((~(a & 0xFFFFFFFF)) & 0xFFFFFFFF)\n", got)
}

func TestBit32Test(t *testing.T) {
	got := applyVisitor(t, ConvertBit32{}, "local x = bit32.btest(a, b)")
	assert.Equal(t, "local x = (((a & b) & 0xFFFFFFFF) ~= 0)\n", got)
}

func TestBit32MethodAlias(t *testing.T) {
	src := "local f = bit32.band\nlocal x = f(a, b)"
	got := applyVisitor(t, ConvertBit32{}, src)
	// The alias binding is elided and the aliased call converted.
	assert.Contains(t, got, "local x = ((a & b) & 0xFFFFFFFF)")
	assert.NotContains(t, got, "bit32")
}

func TestBit32LibraryRebind(t *testing.T) {
	src := "local bit = bit32\nlocal x = bit.band(a, b)"
	got := applyVisitor(t, ConvertBit32{}, src)
	assert.Contains(t, got, "local x = ((a & b) & 0xFFFFFFFF)")
	assert.NotContains(t, got, "bit32")
}

func TestBit32BracketStringAccess(t *testing.T) {
	got := applyVisitor(t, ConvertBit32{}, `local x = bit32["band"](a, b)`)
	assert.Equal(t, "local x = ((a & b) & 0xFFFFFFFF)\n", got)
}

func TestBit32ComputedAccessUntouched(t *testing.T) {
	src := "local x = bit32[m](a, b)"
	got := applyVisitor(t, ConvertBit32{}, src)
	assert.Equal(t, "local x = bit32[m](a, b)\n", got)
}

func TestBit32ArityMismatchUntouched(t *testing.T) {
	src := "local x = bit32.band(a)"
	got := applyVisitor(t, ConvertBit32{}, src)
	assert.Equal(t, "local x = bit32.band(a)\n", got)
}

func TestBit32StatementPositionBecomesEmptyDo(t *testing.T) {
	got := applyVisitor(t, ConvertBit32{}, "bit32.band(a, b)")
	assert.Equal(t, "do\nend\n", got)
}

func TestBit32OtherMethodsUntouched(t *testing.T) {
	src := "local x = bit32.extract(a, 1, 2)"
	got := applyVisitor(t, ConvertBit32{}, src)
	assert.Contains(t, got, "bit32.extract")
}

func TestBit32FreshStatePerFile(t *testing.T) {
	rule := ConvertBit32{}
	// First file rebinds the library; the second must still match the
	// default name.
	first := applyVisitor(t, rule, "local bit = bit32\nlocal x = bit.band(a, b)")
	assert.NotContains(t, first, "bit32")

	second := applyVisitor(t, rule, "local x = bit32.band(a, b)")
	assert.True(t, strings.Contains(second, "((a & b) & 0xFFFFFFFF)"))
}
