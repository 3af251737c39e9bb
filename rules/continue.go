package rules

import (
	"strconv"

	"github.com/moonfall-dev/moonfall/ast"
)

// RemoveContinueName identifies the continue removal rule.
const RemoveContinueName = "remove_continue"

// RemoveContinue lowers the Luau continue statement to a goto targeting
// a label appended at the end of the enclosing loop body. Continues
// inside nested loops or nested functions belong to those scopes and
// are left for their own rewrite.
type RemoveContinue struct{}

func (RemoveContinue) RuleName() string { return RemoveContinueName }

func (RemoveContinue) Apply(block *ast.Block, ctx *Context) error {
	r := &continueRewriter{block: block}
	r.walkBlock(block)
	return nil
}

type continueRewriter struct {
	block   *ast.Block
	base    string
	counter int
}

// nextLabel derives a fresh label name. The base is synthesized once per
// file from the block contents, so the labels are collision free and
// stable across runs.
func (r *continueRewriter) nextLabel() string {
	if r.base == "" {
		r.base = synthesizeIdent("continue", r.block)
	}
	r.counter++
	return r.base + "_" + strconv.Itoa(r.counter)
}

func (r *continueRewriter) walkBlock(b *ast.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		switch st := s.(type) {
		case *ast.WhileStmt:
			r.walkNode(st.Cond)
			r.rewriteLoop(st.Body)
		case *ast.RepeatStmt:
			r.rewriteLoop(st.Body)
			r.walkNode(st.Cond)
		case *ast.NumericForStmt:
			r.walkNode(st.Start)
			r.walkNode(st.Limit)
			if st.Step != nil {
				r.walkNode(st.Step)
			}
			r.rewriteLoop(st.Body)
		case *ast.GenericForStmt:
			for _, e := range st.Exprs {
				r.walkNode(e)
			}
			r.rewriteLoop(st.Body)
		case *ast.DoStmt:
			r.walkBlock(st.Body)
		case *ast.IfStmt:
			r.walkNode(st.Cond)
			r.walkBlock(st.Then)
			for _, ei := range st.ElseIfs {
				r.walkNode(ei.Cond)
				r.walkBlock(ei.Body)
			}
			r.walkBlock(st.Else)
		case *ast.FunctionDeclStmt:
			r.walkBlock(st.Func.Body)
		default:
			r.walkExprs(s)
		}
	}
}

// rewriteLoop handles one loop body: descend first so inner loops claim
// their own continues, then replace the ones that remain at this level.
func (r *continueRewriter) rewriteLoop(body *ast.Block) {
	r.walkBlock(body)

	label := ""
	replaceContinues(body, func(c *ast.ContinueStmt) ast.Stmt {
		if label == "" {
			label = r.nextLabel()
		}
		return &ast.GotoStmt{BaseStmt: c.BaseStmt, Label: label}
	})
	if label != "" {
		// A label cannot follow a return, so tuck a trailing return into a
		// do block before appending.
		if n := len(body.Stmts); n > 0 {
			if ret, ok := body.Stmts[n-1].(*ast.ReturnStmt); ok {
				body.Stmts[n-1] = &ast.DoStmt{
					BaseStmt: ret.BaseStmt,
					Body:     &ast.Block{Stmts: []ast.Stmt{ret}},
				}
			}
		}
		body.Stmts = append(body.Stmts, &ast.LabelStmt{Name: label})
	}
}

// replaceContinues swaps every continue belonging to this loop level for
// the statement replace returns, without crossing into nested loops or
// function literals.
func replaceContinues(b *ast.Block, replace func(*ast.ContinueStmt) ast.Stmt) {
	if b == nil {
		return
	}
	for i, s := range b.Stmts {
		switch st := s.(type) {
		case *ast.ContinueStmt:
			b.Stmts[i] = replace(st)
		case *ast.DoStmt:
			replaceContinues(st.Body, replace)
		case *ast.IfStmt:
			replaceContinues(st.Then, replace)
			for _, ei := range st.ElseIfs {
				replaceContinues(ei.Body, replace)
			}
			replaceContinues(st.Else, replace)
		}
	}
}

// walkExprs visits function literals hanging off a non-loop statement so
// loops inside them are rewritten too.
func (r *continueRewriter) walkExprs(s ast.Stmt) {
	r.walkNode(s)
}

// walkNode descends into function literals under any node, including
// loop-header expressions, whose own bodies open fresh continue scopes.
func (r *continueRewriter) walkNode(n ast.Node) {
	ast.Inspect(n, func(n ast.Node) bool {
		if fn, ok := n.(*ast.FunctionExpr); ok {
			r.walkBlock(fn.Body)
			return false
		}
		return true
	})
}
