package ast

// Mutator rewrites nodes during a traversal. MutateStmt and MutateExpr
// receive each node before its children are visited and return the node
// that should take its place; returning the input unchanged is a no-op.
// MutateStmt may return nil to delete the statement from its block.
//
// Rules that need per-traversal state (the bit32 alias map, for example)
// construct a fresh Mutator per file, keeping rule instances stateless.
type Mutator interface {
	MutateStmt(Stmt) Stmt
	MutateExpr(Expr) Expr
}

// NopMutator implements Mutator with identity methods. Embed it to only
// override the hooks a rewrite cares about.
type NopMutator struct{}

func (NopMutator) MutateStmt(s Stmt) Stmt { return s }
func (NopMutator) MutateExpr(e Expr) Expr { return e }

// MutateBlock applies m to every statement and expression in the block,
// top-down: a node is passed to the mutator first, then the traversal
// descends into whatever the mutator returned. Statements removed by a
// nil return are dropped in place.
func MutateBlock(b *Block, m Mutator) {
	if b == nil {
		return
	}
	out := b.Stmts[:0]
	for _, s := range b.Stmts {
		ns := mutateStmt(s, m)
		if ns != nil {
			out = append(out, ns)
		}
	}
	b.Stmts = out
}

func mutateStmt(s Stmt, m Mutator) Stmt {
	s = m.MutateStmt(s)
	if s == nil {
		return nil
	}
	switch st := s.(type) {
	case *LocalStmt:
		mutateExprs(st.Values, m)
	case *AssignStmt:
		mutateExprs(st.Targets, m)
		mutateExprs(st.Values, m)
	case *CompoundAssignStmt:
		st.Target = mutateExpr(st.Target, m)
		st.Value = mutateExpr(st.Value, m)
	case *CallStmt:
		st.Call = mutateExpr(st.Call, m)
	case *DoStmt:
		MutateBlock(st.Body, m)
	case *WhileStmt:
		st.Cond = mutateExpr(st.Cond, m)
		MutateBlock(st.Body, m)
	case *RepeatStmt:
		MutateBlock(st.Body, m)
		st.Cond = mutateExpr(st.Cond, m)
	case *IfStmt:
		st.Cond = mutateExpr(st.Cond, m)
		MutateBlock(st.Then, m)
		for i := range st.ElseIfs {
			st.ElseIfs[i].Cond = mutateExpr(st.ElseIfs[i].Cond, m)
			MutateBlock(st.ElseIfs[i].Body, m)
		}
		MutateBlock(st.Else, m)
	case *NumericForStmt:
		st.Start = mutateExpr(st.Start, m)
		st.Limit = mutateExpr(st.Limit, m)
		if st.Step != nil {
			st.Step = mutateExpr(st.Step, m)
		}
		MutateBlock(st.Body, m)
	case *GenericForStmt:
		mutateExprs(st.Exprs, m)
		MutateBlock(st.Body, m)
	case *FunctionDeclStmt:
		MutateBlock(st.Func.Body, m)
	case *ReturnStmt:
		mutateExprs(st.Values, m)
	}
	return s
}

func mutateExprs(exprs []Expr, m Mutator) {
	for i, e := range exprs {
		exprs[i] = mutateExpr(e, m)
	}
}

func mutateExpr(e Expr, m Mutator) Expr {
	if e == nil {
		return nil
	}
	e = m.MutateExpr(e)
	switch ex := e.(type) {
	case *IndexExpr:
		ex.Object = mutateExpr(ex.Object, m)
		ex.Key = mutateExpr(ex.Key, m)
	case *DotExpr:
		ex.Object = mutateExpr(ex.Object, m)
	case *CallExpr:
		ex.Func = mutateExpr(ex.Func, m)
		mutateExprs(ex.Args, m)
	case *MethodCallExpr:
		ex.Object = mutateExpr(ex.Object, m)
		mutateExprs(ex.Args, m)
	case *FunctionExpr:
		MutateBlock(ex.Body, m)
	case *TableExpr:
		for _, entry := range ex.Entries {
			switch en := entry.(type) {
			case *ArrayEntry:
				en.Value = mutateExpr(en.Value, m)
			case *FieldEntry:
				en.Value = mutateExpr(en.Value, m)
			case *IndexEntry:
				en.Key = mutateExpr(en.Key, m)
				en.Value = mutateExpr(en.Value, m)
			}
		}
	case *BinaryExpr:
		ex.Left = mutateExpr(ex.Left, m)
		ex.Right = mutateExpr(ex.Right, m)
	case *UnaryExpr:
		ex.Operand = mutateExpr(ex.Operand, m)
	case *ParenExpr:
		ex.Inner = mutateExpr(ex.Inner, m)
	case *IfElseExpr:
		ex.Cond = mutateExpr(ex.Cond, m)
		ex.Then = mutateExpr(ex.Then, m)
		for i := range ex.ElseIfs {
			ex.ElseIfs[i].Cond = mutateExpr(ex.ElseIfs[i].Cond, m)
			ex.ElseIfs[i].Then = mutateExpr(ex.ElseIfs[i].Then, m)
		}
		if ex.Else != nil {
			ex.Else = mutateExpr(ex.Else, m)
		}
	}
	return e
}

// Inspect traverses the tree rooted at n in depth-first order, calling fn
// for every node. If fn returns false for a node, its children are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch t := n.(type) {
	case *Chunk:
		Inspect(t.Body, fn)
	case *Block:
		for _, s := range t.Stmts {
			Inspect(s, fn)
		}
	case *LocalStmt:
		inspectExprs(t.Values, fn)
	case *AssignStmt:
		inspectExprs(t.Targets, fn)
		inspectExprs(t.Values, fn)
	case *CompoundAssignStmt:
		Inspect(t.Target, fn)
		Inspect(t.Value, fn)
	case *CallStmt:
		Inspect(t.Call, fn)
	case *DoStmt:
		Inspect(t.Body, fn)
	case *WhileStmt:
		Inspect(t.Cond, fn)
		Inspect(t.Body, fn)
	case *RepeatStmt:
		Inspect(t.Body, fn)
		Inspect(t.Cond, fn)
	case *IfStmt:
		Inspect(t.Cond, fn)
		Inspect(t.Then, fn)
		for _, ei := range t.ElseIfs {
			Inspect(ei.Cond, fn)
			Inspect(ei.Body, fn)
		}
		if t.Else != nil {
			Inspect(t.Else, fn)
		}
	case *NumericForStmt:
		Inspect(t.Start, fn)
		Inspect(t.Limit, fn)
		if t.Step != nil {
			Inspect(t.Step, fn)
		}
		Inspect(t.Body, fn)
	case *GenericForStmt:
		inspectExprs(t.Exprs, fn)
		Inspect(t.Body, fn)
	case *FunctionDeclStmt:
		Inspect(t.Func, fn)
	case *ReturnStmt:
		inspectExprs(t.Values, fn)
	case *IndexExpr:
		Inspect(t.Object, fn)
		Inspect(t.Key, fn)
	case *DotExpr:
		Inspect(t.Object, fn)
	case *CallExpr:
		Inspect(t.Func, fn)
		inspectExprs(t.Args, fn)
	case *MethodCallExpr:
		Inspect(t.Object, fn)
		inspectExprs(t.Args, fn)
	case *FunctionExpr:
		Inspect(t.Body, fn)
	case *TableExpr:
		for _, entry := range t.Entries {
			Inspect(entry, fn)
		}
	case *ArrayEntry:
		Inspect(t.Value, fn)
	case *FieldEntry:
		Inspect(t.Value, fn)
	case *IndexEntry:
		Inspect(t.Key, fn)
		Inspect(t.Value, fn)
	case *BinaryExpr:
		Inspect(t.Left, fn)
		Inspect(t.Right, fn)
	case *UnaryExpr:
		Inspect(t.Operand, fn)
	case *ParenExpr:
		Inspect(t.Inner, fn)
	case *IfElseExpr:
		Inspect(t.Cond, fn)
		Inspect(t.Then, fn)
		for _, c := range t.ElseIfs {
			Inspect(c.Cond, fn)
			Inspect(c.Then, fn)
		}
		if t.Else != nil {
			Inspect(t.Else, fn)
		}
	}
}

func inspectExprs(exprs []Expr, fn func(Node) bool) {
	for _, e := range exprs {
		Inspect(e, fn)
	}
}
