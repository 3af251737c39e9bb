package rules

import "github.com/moonfall-dev/moonfall/ast"

// FoldConstantsName identifies the constant folding rule.
const FoldConstantsName = "fold_constants"

// FoldConstants replaces constant unary and binary expressions with
// their computed value. Part of the minification set; division by zero
// and anything the static evaluator cannot decide are left alone.
type FoldConstants struct{}

func (FoldConstants) RuleName() string { return FoldConstantsName }

func (FoldConstants) Apply(block *ast.Block, ctx *Context) error {
	ast.MutateBlock(block, foldMutator{})
	return nil
}

type foldMutator struct {
	ast.NopMutator
}

func (m foldMutator) MutateExpr(e ast.Expr) ast.Expr {
	switch e.(type) {
	case *ast.BinaryExpr, *ast.UnaryExpr:
	default:
		return e
	}
	v := Eval(e)
	switch v.Kind {
	case NumberValue:
		if v.Num < 0 {
			// A negative result folds to a unary minus on the literal.
			return &ast.UnaryExpr{Op: "-", Operand: &ast.NumberExpr{Raw: FormatNumber(-v.Num)}}
		}
		return &ast.NumberExpr{Raw: FormatNumber(v.Num)}
	case StringValue:
		return &ast.StringExpr{Value: v.Str}
	case BoolValue:
		return &ast.BoolExpr{Value: v.Bool}
	case NilValue:
		return &ast.NilExpr{}
	}
	return e
}
