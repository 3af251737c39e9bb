package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfall-dev/moonfall/ast"
)

func TestCompoundAssignment(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x += 1", "x = x + (1)"},
		{"x -= y", "x = x - (y)"},
		{"x *= a + b", "x = x * (a + b)"},
		{"x /= 2", "x = x / (2)"},
		{"x //= 2", "x = x // (2)"},
		{"x %= 2", "x = x % (2)"},
		{"x ^= 2", "x = x ^ (2)"},
		{`s ..= "tail"`, `s = s .. ("tail")`},
		{"t.n += 1", "t.n = t.n + (1)"},
		{"t[i] += 1", "t[i] = t[i] + (1)"},
	}
	for _, tt := range tests {
		got := applyTree(t, RemoveCompoundAssignment{}, tt.src)
		assert.Equal(t, tt.want+"\n", got, "src: %s", tt.src)
	}
}

func TestRemoveContinueSimpleLoop(t *testing.T) {
	src := "for i = 1, 10 do\n\tif skip(i) then\n\t\tcontinue\n\tend\n\twork(i)\nend"
	got := applyTree(t, RemoveContinue{}, src)

	assert.NotContains(t, got, "continue\n")
	assert.Contains(t, got, "goto __continue_")
	assert.Contains(t, got, "::__continue_")
	// The label lands at the end of the loop body.
	gotoPos := strings.Index(got, "goto")
	labelPos := strings.Index(got, "::")
	assert.Less(t, gotoPos, labelPos)
}

func TestRemoveContinueNestedLoopsGetOwnLabels(t *testing.T) {
	src := "while a do\n\tfor i = 1, 2 do\n\t\tcontinue\n\tend\n\tcontinue\nend"
	got := applyTree(t, RemoveContinue{}, src)

	assert.NotContains(t, got, "continue\n")
	assert.Equal(t, 2, strings.Count(got, "goto "))
	assert.Equal(t, 2, strings.Count(got, "::"+"__")) // two distinct labels
}

func TestRemoveContinueInsideNestedFunctionStaysLocal(t *testing.T) {
	src := "for i = 1, 2 do\n\tlocal f = function()\n\t\tfor j = 1, 2 do\n\t\t\tcontinue\n\t\tend\n\tend\nend"
	got := applyTree(t, RemoveContinue{}, src)
	assert.NotContains(t, got, "continue\n")
	assert.Contains(t, got, "goto")
}

func TestRemoveContinueInsideLoopHeaderFunctions(t *testing.T) {
	// Function literals in loop conditions, numeric-for bounds, generic-for
	// iterators, and if conditions open their own continue scopes too.
	srcs := []string{
		"while (function()\n\tfor i = 1, 2 do\n\t\tcontinue\n\tend\n\treturn false\nend)() do\n\twork()\nend",
		"repeat\n\twork()\nuntil (function()\n\tfor i = 1, 2 do\n\t\tcontinue\n\tend\n\treturn true\nend)()",
		"for i = 1, (function()\n\tfor j = 1, 2 do\n\t\tcontinue\n\tend\n\treturn 3\nend)() do\n\twork(i)\nend",
		"for k, v in (function()\n\tfor j = 1, 2 do\n\t\tcontinue\n\tend\n\treturn pairs(t)\nend)() do\n\twork(k)\nend",
		"if (function()\n\tfor j = 1, 2 do\n\t\tcontinue\n\tend\n\treturn true\nend)() then\n\twork()\nend",
	}
	for _, src := range srcs {
		got := applyTree(t, RemoveContinue{}, src)
		assert.NotContains(t, got, "continue\n", "src: %s", src)
		assert.Contains(t, got, "goto", "src: %s", src)
	}
}

func TestRemoveContinueWithTrailingReturn(t *testing.T) {
	src := "for i = 1, 2 do\n\tif skip(i) then\n\t\tcontinue\n\tend\n\treturn i\nend"
	got := applyTree(t, RemoveContinue{}, src)

	// The return is wrapped so the label can legally follow it.
	assert.Contains(t, got, "do")
	assert.Contains(t, got, "return i")
	retPos := strings.Index(got, "return i")
	labelPos := strings.LastIndex(got, "::__continue_")
	assert.Less(t, retPos, labelPos)
}

func TestRemoveIfExpression(t *testing.T) {
	got := applyTree(t, RemoveIfExpression{}, "local x = if c then a else b")

	assert.Contains(t, got, "(function()")
	assert.Contains(t, got, "if c then")
	assert.Contains(t, got, "return a")
	assert.Contains(t, got, "return b")
	assert.Contains(t, got, "end)()")
}

func TestRemoveIfExpressionElseif(t *testing.T) {
	got := applyTree(t, RemoveIfExpression{}, "local x = if a then 1 elseif b then 2 else 3")
	assert.Contains(t, got, "elseif b then")
	assert.Contains(t, got, "return 2")
}

func TestRemoveIfExpressionFalsyBranch(t *testing.T) {
	// The whole point of the IIFE form: a false/nil branch value must
	// survive, which and/or chains would lose.
	got := applyTree(t, RemoveIfExpression{}, "local x = if c then false else nil")
	assert.Contains(t, got, "return false")
	assert.Contains(t, got, "return nil")
}

func TestNormalizeNumberLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"local x = 1_000_000", "local x = 1000000"},
		{"local x = 0b1010", "local x = 10"},
		{"local x = 0B11", "local x = 3"},
		{"local x = 0xFF", "local x = 0xFF"},
		{"local x = 0xDEAD_BEEF", "local x = 0xDEADBEEF"},
		{"local x = 1.5e3", "local x = 1.5e3"},
	}
	for _, tt := range tests {
		got := applyVisitor(t, NormalizeNumberLiterals{}, tt.src)
		assert.Equal(t, tt.want+"\n", got, "src: %s", tt.src)
	}
}

func TestEvalConstants(t *testing.T) {
	tests := []struct {
		src  string
		want Value
	}{
		{"1 + 2", Value{Kind: NumberValue, Num: 3}},
		{"2 ^ 10", Value{Kind: NumberValue, Num: 1024}},
		{"7 // 2", Value{Kind: NumberValue, Num: 3}},
		{"-7 % 3", Value{Kind: NumberValue, Num: 2}},
		{`"a" .. "b"`, Value{Kind: StringValue, Str: "ab"}},
		{`"n=" .. 4`, Value{Kind: StringValue, Str: "n=4"}},
		{"1 < 2", Value{Kind: BoolValue, Bool: true}},
		{"not nil", Value{Kind: BoolValue, Bool: true}},
		{"1 / 0", Value{Kind: Unknown}},
		{"x + 1", Value{Kind: Unknown}},
	}
	for _, tt := range tests {
		chunk := parseChunk(t, "return "+tt.src)
		ret, ok := chunk.Body.Stmts[0].(*ast.ReturnStmt)
		require.True(t, ok)
		got := Eval(ret.Values[0])
		assert.Equal(t, tt.want.Kind, got.Kind, "src: %s", tt.src)
		switch tt.want.Kind {
		case NumberValue:
			assert.Equal(t, tt.want.Num, got.Num, "src: %s", tt.src)
		case StringValue:
			assert.Equal(t, tt.want.Str, got.Str, "src: %s", tt.src)
		case BoolValue:
			assert.Equal(t, tt.want.Bool, got.Bool, "src: %s", tt.src)
		}
	}
}

func TestParseNumberForms(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"42", 42},
		{"1_000", 1000},
		{"0x10", 16},
		{"0b101", 5},
		{"1.5e2", 150},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.raw)
		require.True(t, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	_, ok := ParseNumber("junk")
	assert.False(t, ok)
}
