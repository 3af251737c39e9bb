package ast

import (
	"fmt"
	"strings"
)

// Printer serializes an AST back to Lua source. Minify drops cosmetic
// whitespace and joins statements with semicolons.
//
// The printer is strictly structural: it never inserts precedence
// parentheses. The parser preserves source parentheses as ParenExpr nodes
// and rewrite rules construct explicit ParenExpr wrappers, so the tree is
// the single source of truth for grouping.
type Printer struct {
	Minify bool
}

// Print serializes a chunk.
func (p *Printer) Print(c *Chunk) string {
	w := &printWriter{minify: p.Minify}
	w.block(c.Body)
	out := w.sb.String()
	if !p.Minify && out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

// PrintBlock serializes a block; used for hashing in identifier synthesis.
func (p *Printer) PrintBlock(b *Block) string {
	w := &printWriter{minify: p.Minify}
	w.block(b)
	return w.sb.String()
}

// Print serializes a node with default settings. Convenience for tests
// and diagnostics.
func Print(c *Chunk) string {
	p := &Printer{}
	return p.Print(c)
}

type printWriter struct {
	sb     strings.Builder
	minify bool
	depth  int
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// tok writes a token, inserting a separating space when gluing it to the
// previous output would change tokenization (name-name, --, digit-dot).
func (w *printWriter) tok(s string) {
	if s == "" {
		return
	}
	out := w.sb.String()
	if out != "" {
		last := out[len(out)-1]
		first := s[0]
		switch {
		case isWordByte(last) && isWordByte(first):
			w.sb.WriteByte(' ')
		case last == '-' && first == '-':
			w.sb.WriteByte(' ')
		case (last >= '0' && last <= '9') && first == '.':
			w.sb.WriteByte(' ')
		case last == '.' && first == '.':
			w.sb.WriteByte(' ')
		}
	}
	w.sb.WriteString(s)
}

// sp writes a cosmetic space, skipped when minifying.
func (w *printWriter) sp() {
	if !w.minify {
		w.sb.WriteByte(' ')
	}
}

func (w *printWriter) newline() {
	if w.minify {
		w.tok(";")
		return
	}
	w.sb.WriteByte('\n')
	for i := 0; i < w.depth; i++ {
		w.sb.WriteByte('\t')
	}
}

func (w *printWriter) block(b *Block) {
	if b == nil {
		return
	}
	for i, s := range b.Stmts {
		if i > 0 {
			w.newline()
		}
		w.stmt(s)
	}
}

func (w *printWriter) indentedBlock(b *Block) {
	if b == nil || len(b.Stmts) == 0 {
		return
	}
	w.depth++
	for _, s := range b.Stmts {
		w.newline()
		w.stmt(s)
	}
	w.depth--
}

func (w *printWriter) stmt(s Stmt) {
	// A statement starting with '(' after a call statement is ambiguous in
	// Lua; an empty statement in front disambiguates.
	if startsWithParen(s) {
		w.tok(";")
	}
	switch st := s.(type) {
	case *LocalStmt:
		w.tok("local")
		w.names(st.Names)
		if len(st.Values) > 0 {
			w.sp()
			w.tok("=")
			w.sp()
			w.exprList(st.Values)
		}
	case *AssignStmt:
		w.exprList(st.Targets)
		w.sp()
		w.tok("=")
		w.sp()
		w.exprList(st.Values)
	case *CompoundAssignStmt:
		w.expr(st.Target)
		w.sp()
		w.tok(st.Op)
		w.sp()
		w.expr(st.Value)
	case *CallStmt:
		w.expr(st.Call)
	case *DoStmt:
		w.tok("do")
		w.indentedBlock(st.Body)
		w.newline()
		w.tok("end")
	case *WhileStmt:
		w.tok("while")
		w.sp()
		w.expr(st.Cond)
		w.sp()
		w.tok("do")
		w.indentedBlock(st.Body)
		w.newline()
		w.tok("end")
	case *RepeatStmt:
		w.tok("repeat")
		w.indentedBlock(st.Body)
		w.newline()
		w.tok("until")
		w.sp()
		w.expr(st.Cond)
	case *IfStmt:
		w.tok("if")
		w.sp()
		w.expr(st.Cond)
		w.sp()
		w.tok("then")
		w.indentedBlock(st.Then)
		for _, ei := range st.ElseIfs {
			w.newline()
			w.tok("elseif")
			w.sp()
			w.expr(ei.Cond)
			w.sp()
			w.tok("then")
			w.indentedBlock(ei.Body)
		}
		if st.Else != nil {
			w.newline()
			w.tok("else")
			w.indentedBlock(st.Else)
		}
		w.newline()
		w.tok("end")
	case *NumericForStmt:
		w.tok("for")
		w.tok(st.Var)
		w.sp()
		w.tok("=")
		w.sp()
		w.expr(st.Start)
		w.tok(",")
		w.sp()
		w.expr(st.Limit)
		if st.Step != nil {
			w.tok(",")
			w.sp()
			w.expr(st.Step)
		}
		w.sp()
		w.tok("do")
		w.indentedBlock(st.Body)
		w.newline()
		w.tok("end")
	case *GenericForStmt:
		w.tok("for")
		w.names(st.Names)
		w.sp()
		w.tok("in")
		w.sp()
		w.exprList(st.Exprs)
		w.sp()
		w.tok("do")
		w.indentedBlock(st.Body)
		w.newline()
		w.tok("end")
	case *FunctionDeclStmt:
		if st.IsLocal {
			w.tok("local")
		}
		w.tok("function")
		w.tok(strings.Join(st.Name, "."))
		if st.Method != "" {
			w.tok(":")
			w.tok(st.Method)
		}
		w.funcSignature(st.Func)
	case *ReturnStmt:
		w.tok("return")
		if len(st.Values) > 0 {
			w.sp()
			w.exprList(st.Values)
		}
	case *BreakStmt:
		w.tok("break")
	case *ContinueStmt:
		w.tok("continue")
	case *GotoStmt:
		w.tok("goto")
		w.tok(st.Label)
	case *LabelStmt:
		w.tok("::")
		w.tok(st.Name)
		w.tok("::")
	default:
		panic(fmt.Sprintf("printer: unknown statement %T", s))
	}
}

func (w *printWriter) names(names []string) {
	for i, n := range names {
		if i > 0 {
			w.tok(",")
			w.sp()
		}
		w.tok(n)
	}
}

func (w *printWriter) exprList(exprs []Expr) {
	for i, e := range exprs {
		if i > 0 {
			w.tok(",")
			w.sp()
		}
		w.expr(e)
	}
}

func (w *printWriter) funcSignature(f *FunctionExpr) {
	w.tok("(")
	w.names(f.Params)
	if f.IsVararg {
		if len(f.Params) > 0 {
			w.tok(",")
			w.sp()
		}
		w.tok("...")
	}
	w.tok(")")
	w.indentedBlock(f.Body)
	w.newline()
	w.tok("end")
}

func (w *printWriter) expr(e Expr) {
	switch ex := e.(type) {
	case *NilExpr:
		w.tok("nil")
	case *BoolExpr:
		if ex.Value {
			w.tok("true")
		} else {
			w.tok("false")
		}
	case *VarargExpr:
		w.tok("...")
	case *NumberExpr:
		w.tok(ex.Raw)
	case *StringExpr:
		w.tok(quoteString(ex.Value))
	case *IdentExpr:
		w.tok(ex.Name)
	case *IndexExpr:
		w.expr(ex.Object)
		w.tok("[")
		w.expr(ex.Key)
		w.tok("]")
	case *DotExpr:
		w.expr(ex.Object)
		w.tok(".")
		w.tok(ex.Field)
	case *CallExpr:
		w.expr(ex.Func)
		w.tok("(")
		w.exprList(ex.Args)
		w.tok(")")
	case *MethodCallExpr:
		w.expr(ex.Object)
		w.tok(":")
		w.tok(ex.Method)
		w.tok("(")
		w.exprList(ex.Args)
		w.tok(")")
	case *FunctionExpr:
		w.tok("function")
		w.funcSignature(ex)
	case *TableExpr:
		w.tok("{")
		for i, entry := range ex.Entries {
			if i > 0 {
				w.tok(",")
				w.sp()
			}
			switch en := entry.(type) {
			case *ArrayEntry:
				w.expr(en.Value)
			case *FieldEntry:
				w.tok(en.Name)
				w.sp()
				w.tok("=")
				w.sp()
				w.expr(en.Value)
			case *IndexEntry:
				w.tok("[")
				w.expr(en.Key)
				w.tok("]")
				w.sp()
				w.tok("=")
				w.sp()
				w.expr(en.Value)
			}
		}
		w.tok("}")
	case *BinaryExpr:
		w.expr(ex.Left)
		w.sp()
		w.tok(ex.Op)
		w.sp()
		w.expr(ex.Right)
	case *UnaryExpr:
		w.tok(ex.Op)
		w.expr(ex.Operand)
	case *ParenExpr:
		w.tok("(")
		w.expr(ex.Inner)
		w.tok(")")
	case *IfElseExpr:
		w.tok("if")
		w.sp()
		w.expr(ex.Cond)
		w.sp()
		w.tok("then")
		w.sp()
		w.expr(ex.Then)
		for _, c := range ex.ElseIfs {
			w.sp()
			w.tok("elseif")
			w.sp()
			w.expr(c.Cond)
			w.sp()
			w.tok("then")
			w.sp()
			w.expr(c.Then)
		}
		w.sp()
		w.tok("else")
		w.sp()
		w.expr(ex.Else)
	default:
		panic(fmt.Sprintf("printer: unknown expression %T", e))
	}
}

// startsWithParen reports whether the first token the statement emits is
// an opening parenthesis.
func startsWithParen(s Stmt) bool {
	var lead Expr
	switch st := s.(type) {
	case *CallStmt:
		lead = st.Call
	case *AssignStmt:
		if len(st.Targets) > 0 {
			lead = st.Targets[0]
		}
	case *CompoundAssignStmt:
		lead = st.Target
	default:
		return false
	}
	for lead != nil {
		switch ex := lead.(type) {
		case *ParenExpr:
			return true
		case *IndexExpr:
			lead = ex.Object
		case *DotExpr:
			lead = ex.Object
		case *CallExpr:
			lead = ex.Func
		case *MethodCallExpr:
			lead = ex.Object
		default:
			return false
		}
	}
	return false
}

// quoteString renders a Lua double-quoted string literal.
func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if ch < 32 || ch == 127 {
				fmt.Fprintf(&sb, "\\%d", ch)
			} else {
				sb.WriteByte(ch)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
