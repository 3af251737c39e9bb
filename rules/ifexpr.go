package rules

import "github.com/moonfall-dev/moonfall/ast"

// RemoveIfExpressionName identifies the if-expression removal rule.
const RemoveIfExpressionName = "remove_if_expression"

// RemoveIfExpression lowers the Luau if-then-else expression to an
// immediately invoked function whose body is the equivalent if
// statement returning each branch. An IIFE rather than and/or chains
// because the latter mis-select when a branch evaluates to false or nil.
type RemoveIfExpression struct{}

func (RemoveIfExpression) RuleName() string { return RemoveIfExpressionName }

func (RemoveIfExpression) Apply(block *ast.Block, ctx *Context) error {
	ast.MutateBlock(block, ifExprMutator{})
	return nil
}

type ifExprMutator struct {
	ast.NopMutator
}

func (ifExprMutator) MutateExpr(e ast.Expr) ast.Expr {
	ife, ok := e.(*ast.IfElseExpr)
	if !ok {
		return e
	}

	stmt := &ast.IfStmt{
		Cond: ife.Cond,
		Then: returnBlock(ife.Then),
		Else: returnBlock(ife.Else),
	}
	for _, c := range ife.ElseIfs {
		stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIfClause{
			Cond: c.Cond,
			Body: returnBlock(c.Then),
		})
	}
	return ast.IIFE([]ast.Stmt{stmt})
}

func returnBlock(value ast.Expr) *ast.Block {
	return &ast.Block{Stmts: []ast.Stmt{
		&ast.ReturnStmt{Values: []ast.Expr{value}},
	}}
}
