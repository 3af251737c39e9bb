package rules

import (
	"strconv"
	"strings"

	"github.com/moonfall-dev/moonfall/ast"
)

// NormalizeNumberLiteralsName identifies the number literal rule.
const NormalizeNumberLiteralsName = "normalize_number_literals"

// NormalizeNumberLiterals rewrites the Luau-only number spellings into
// forms every Lua lexer accepts: underscore separators are stripped and
// binary literals become decimal. Decimal and hexadecimal literals
// otherwise keep their source spelling.
type NormalizeNumberLiterals struct{}

func (NormalizeNumberLiterals) RuleName() string { return NormalizeNumberLiteralsName }

func (NormalizeNumberLiterals) NewMutator(ctx *Context) ast.Mutator {
	return numberMutator{}
}

type numberMutator struct {
	ast.NopMutator
}

func (numberMutator) MutateExpr(e ast.Expr) ast.Expr {
	num, ok := e.(*ast.NumberExpr)
	if !ok {
		return e
	}
	raw := strings.ReplaceAll(num.Raw, "_", "")
	if strings.HasPrefix(raw, "0b") || strings.HasPrefix(raw, "0B") {
		if u, err := strconv.ParseUint(raw[2:], 2, 64); err == nil {
			raw = strconv.FormatUint(u, 10)
		}
	}
	num.Raw = raw
	return num
}
