package rules

import "github.com/moonfall-dev/moonfall/ast"

// RemoveEmptyDoName identifies the empty do removal rule.
const RemoveEmptyDoName = "remove_empty_do"

// RemoveEmptyDo deletes do blocks with no statements. The prune runs
// bottom-up so a do block left empty by deleting its children is
// deleted in the same pass.
type RemoveEmptyDo struct{}

func (RemoveEmptyDo) RuleName() string { return RemoveEmptyDoName }

func (RemoveEmptyDo) Apply(block *ast.Block, ctx *Context) error {
	pruneEmptyDo(block)
	return nil
}

func pruneEmptyDo(b *ast.Block) {
	if b == nil {
		return
	}
	out := b.Stmts[:0]
	for _, s := range b.Stmts {
		switch st := s.(type) {
		case *ast.DoStmt:
			pruneEmptyDo(st.Body)
			if st.Body == nil || len(st.Body.Stmts) == 0 {
				continue
			}
		case *ast.WhileStmt:
			pruneFunctionBodies(st.Cond)
			pruneEmptyDo(st.Body)
		case *ast.RepeatStmt:
			pruneEmptyDo(st.Body)
			pruneFunctionBodies(st.Cond)
		case *ast.NumericForStmt:
			pruneFunctionBodies(st.Start)
			pruneFunctionBodies(st.Limit)
			if st.Step != nil {
				pruneFunctionBodies(st.Step)
			}
			pruneEmptyDo(st.Body)
		case *ast.GenericForStmt:
			for _, e := range st.Exprs {
				pruneFunctionBodies(e)
			}
			pruneEmptyDo(st.Body)
		case *ast.IfStmt:
			pruneFunctionBodies(st.Cond)
			pruneEmptyDo(st.Then)
			for _, ei := range st.ElseIfs {
				pruneFunctionBodies(ei.Cond)
				pruneEmptyDo(ei.Body)
			}
			pruneEmptyDo(st.Else)
		case *ast.FunctionDeclStmt:
			pruneEmptyDo(st.Func.Body)
		default:
			pruneFunctionBodies(s)
		}
		out = append(out, s)
	}
	b.Stmts = out
}

// pruneFunctionBodies reaches function literals hanging off any node,
// statement or loop-header expression alike.
func pruneFunctionBodies(node ast.Node) {
	ast.Inspect(node, func(n ast.Node) bool {
		if fn, ok := n.(*ast.FunctionExpr); ok {
			pruneEmptyDo(fn.Body)
			return false
		}
		return true
	})
}
