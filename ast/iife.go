package ast

// IIFE wraps a statement list into an immediately-invoked zero-argument
// function expression: (function() <stmts> end)(). This is the general
// device for putting statement-level work into expression position, used
// by the table-key deduplication and if-expression rewrites.
func IIFE(stmts []Stmt) Expr {
	return &CallExpr{
		Func: &ParenExpr{
			Inner: &FunctionExpr{Body: &Block{Stmts: stmts}},
		},
	}
}

// IIFEValue builds an IIFE whose body runs stmts and then returns result.
func IIFEValue(stmts []Stmt, result Expr) Expr {
	body := make([]Stmt, 0, len(stmts)+1)
	body = append(body, stmts...)
	body = append(body, &ReturnStmt{Values: []Expr{result}})
	return IIFE(body)
}
