package parser

import (
	"fmt"
	"os"

	"github.com/moonfall-dev/moonfall/ast"
)

// Parse parses source text into a chunk. The file name is used for error
// positions only. On failure it returns an ErrorList.
func Parse(file, src string) (*ast.Chunk, error) {
	p := &parser{lex: newLexer(file, src)}
	if err := p.advance(); err != nil {
		return nil, ErrorList{err}
	}
	if err := p.advance(); err != nil {
		return nil, ErrorList{err}
	}
	block, perr := p.block()
	if perr != nil {
		return nil, ErrorList{perr}
	}
	if p.cur.Kind != TokenEOF {
		return nil, ErrorList{p.errorf("unexpected %s", p.cur)}
	}
	return &ast.Chunk{Body: block, SourceFile: file}, nil
}

// ParseFile reads and parses a source file.
func ParseFile(path string) (*ast.Chunk, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, string(src))
}

type parser struct {
	lex  *lexer
	cur  Token
	next Token
}

// advance shifts the lookahead window by one token.
func (p *parser) advance() *Error {
	p.cur = p.next
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.next = tok
	return nil
}

func (p *parser) errorf(format string, args ...any) *Error {
	return &Error{File: p.lex.file, Line: p.cur.Line, Col: p.cur.Col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) is(kind TokenKind, text string) bool {
	return p.cur.Kind == kind && p.cur.Text == text
}

func (p *parser) isKeyword(kw string) bool { return p.is(TokenKeyword, kw) }
func (p *parser) isSymbol(sym string) bool { return p.is(TokenSymbol, sym) }

// accept consumes the current token if it matches.
func (p *parser) accept(kind TokenKind, text string) (bool, *Error) {
	if !p.is(kind, text) {
		return false, nil
	}
	return true, p.advance()
}

func (p *parser) expect(kind TokenKind, text string) *Error {
	if !p.is(kind, text) {
		return p.errorf("expected %q, got %s", text, p.cur)
	}
	return p.advance()
}

func (p *parser) expectName() (string, *Error) {
	if p.cur.Kind != TokenName {
		return "", p.errorf("expected name, got %s", p.cur)
	}
	name := p.cur.Text
	return name, p.advance()
}

// blockEnd reports whether the current token terminates a block.
func (p *parser) blockEnd() bool {
	if p.cur.Kind == TokenEOF {
		return true
	}
	if p.cur.Kind != TokenKeyword {
		return false
	}
	switch p.cur.Text {
	case "end", "else", "elseif", "until":
		return true
	}
	return false
}

func (p *parser) block() (*ast.Block, *Error) {
	b := &ast.Block{}
	for !p.blockEnd() {
		if p.isSymbol(";") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
		if isTerminator(s) {
			// Allow a trailing semicolon after a terminating statement.
			if p.isSymbol(";") {
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
			if !p.blockEnd() {
				return nil, p.errorf("unexpected %s after block terminator", p.cur)
			}
			break
		}
	}
	return b, nil
}

func isTerminator(s ast.Stmt) bool {
	_, ok := s.(*ast.ReturnStmt)
	return ok
}

func (p *parser) statement() (ast.Stmt, *Error) {
	line := p.cur.Line
	base := ast.BaseStmt{SourceLine: line}

	if p.cur.Kind == TokenKeyword {
		switch p.cur.Text {
		case "local":
			return p.localStatement(base)
		case "if":
			return p.ifStatement(base)
		case "while":
			return p.whileStatement(base)
		case "repeat":
			return p.repeatStatement(base)
		case "for":
			return p.forStatement(base)
		case "do":
			if err := p.advance(); err != nil {
				return nil, err
			}
			body, err := p.block()
			if err != nil {
				return nil, err
			}
			if err := p.expect(TokenKeyword, "end"); err != nil {
				return nil, err
			}
			return &ast.DoStmt{BaseStmt: base, Body: body}, nil
		case "function":
			return p.functionStatement(base, false)
		case "return":
			if err := p.advance(); err != nil {
				return nil, err
			}
			var values []ast.Expr
			if !p.blockEnd() && !p.isSymbol(";") {
				var err *Error
				values, err = p.exprList()
				if err != nil {
					return nil, err
				}
			}
			return &ast.ReturnStmt{BaseStmt: base, Values: values}, nil
		case "break":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &ast.BreakStmt{BaseStmt: base}, nil
		case "goto":
			if err := p.advance(); err != nil {
				return nil, err
			}
			label, err := p.expectName()
			if err != nil {
				return nil, err
			}
			return &ast.GotoStmt{BaseStmt: base, Label: label}, nil
		}
	}

	if p.isSymbol("::") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenSymbol, "::"); err != nil {
			return nil, err
		}
		return &ast.LabelStmt{BaseStmt: base, Name: name}, nil
	}

	// Luau's contextual continue: a statement when the following token
	// cannot extend it into an expression or assignment.
	if p.cur.Kind == TokenName && p.cur.Text == "continue" && !continuesExpr(p.next) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.ContinueStmt{BaseStmt: base}, nil
	}

	return p.exprStatement(base)
}

// continuesExpr reports whether tok can extend a preceding name into a
// longer expression, assignment, or call.
func continuesExpr(tok Token) bool {
	switch tok.Kind {
	case TokenString:
		return true
	case TokenSymbol:
		switch tok.Text {
		case "=", ".", "[", "(", "{", ":", ",",
			"+=", "-=", "*=", "/=", "//=", "%=", "^=", "..=":
			return true
		}
	}
	return false
}

var compoundOps = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true,
	"//=": true, "%=": true, "^=": true, "..=": true,
}

func (p *parser) exprStatement(base ast.BaseStmt) (ast.Stmt, *Error) {
	first, err := p.suffixedExpr()
	if err != nil {
		return nil, err
	}

	if p.cur.Kind == TokenSymbol && compoundOps[p.cur.Text] {
		op := p.cur.Text
		if !assignable(first) {
			return nil, p.errorf("cannot assign to this expression")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &ast.CompoundAssignStmt{BaseStmt: base, Target: first, Op: op, Value: value}, nil
	}

	if p.isSymbol("=") || p.isSymbol(",") {
		targets := []ast.Expr{first}
		for p.isSymbol(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			t, err := p.suffixedExpr()
			if err != nil {
				return nil, err
			}
			targets = append(targets, t)
		}
		for _, t := range targets {
			if !assignable(t) {
				return nil, p.errorf("cannot assign to this expression")
			}
		}
		if err := p.expect(TokenSymbol, "="); err != nil {
			return nil, err
		}
		values, err := p.exprList()
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{BaseStmt: base, Targets: targets, Values: values}, nil
	}

	switch first.(type) {
	case *ast.CallExpr, *ast.MethodCallExpr:
		return &ast.CallStmt{BaseStmt: base, Call: first}, nil
	}
	return nil, p.errorf("unexpected expression in statement position")
}

func assignable(e ast.Expr) bool {
	switch e.(type) {
	case *ast.IdentExpr, *ast.IndexExpr, *ast.DotExpr:
		return true
	}
	return false
}

func (p *parser) localStatement(base ast.BaseStmt) (ast.Stmt, *Error) {
	if err := p.advance(); err != nil { // local
		return nil, err
	}
	if p.isKeyword("function") {
		return p.functionStatement(base, true)
	}
	var names []string
	for {
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if !p.isSymbol(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	var values []ast.Expr
	if ok, err := p.accept(TokenSymbol, "="); err != nil {
		return nil, err
	} else if ok {
		values, err = p.exprList()
		if err != nil {
			return nil, err
		}
	}
	return &ast.LocalStmt{BaseStmt: base, Names: names, Values: values}, nil
}

func (p *parser) functionStatement(base ast.BaseStmt, isLocal bool) (ast.Stmt, *Error) {
	if err := p.advance(); err != nil { // function
		return nil, err
	}
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	names := []string{name}
	method := ""
	if !isLocal {
		for p.isSymbol(".") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			n, err := p.expectName()
			if err != nil {
				return nil, err
			}
			names = append(names, n)
		}
		if p.isSymbol(":") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			method, err = p.expectName()
			if err != nil {
				return nil, err
			}
		}
	}
	fn, perr := p.functionBody()
	if perr != nil {
		return nil, perr
	}
	return &ast.FunctionDeclStmt{BaseStmt: base, IsLocal: isLocal, Name: names, Method: method, Func: fn}, nil
}

func (p *parser) functionBody() (*ast.FunctionExpr, *Error) {
	if err := p.expect(TokenSymbol, "("); err != nil {
		return nil, err
	}
	fn := &ast.FunctionExpr{}
	for !p.isSymbol(")") {
		if p.isSymbol("...") {
			fn.IsVararg = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			break
		}
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, name)
		if !p.isSymbol(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(TokenSymbol, ")"); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, p.expect(TokenKeyword, "end")
}

func (p *parser) ifStatement(base ast.BaseStmt) (ast.Stmt, *Error) {
	if err := p.advance(); err != nil { // if
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if perr := p.expect(TokenKeyword, "then"); perr != nil {
		return nil, perr
	}
	then, perr := p.block()
	if perr != nil {
		return nil, perr
	}
	stmt := &ast.IfStmt{BaseStmt: base, Cond: cond, Then: then}
	for p.isKeyword("elseif") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		c, err := p.expr()
		if err != nil {
			return nil, err
		}
		if perr := p.expect(TokenKeyword, "then"); perr != nil {
			return nil, perr
		}
		body, perr := p.block()
		if perr != nil {
			return nil, perr
		}
		stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIfClause{Cond: c, Body: body})
	}
	if p.isKeyword("else") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		stmt.Else, perr = p.block()
		if perr != nil {
			return nil, perr
		}
	}
	return stmt, p.expect(TokenKeyword, "end")
}

func (p *parser) whileStatement(base ast.BaseStmt) (ast.Stmt, *Error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if perr := p.expect(TokenKeyword, "do"); perr != nil {
		return nil, perr
	}
	body, perr := p.block()
	if perr != nil {
		return nil, perr
	}
	return &ast.WhileStmt{BaseStmt: base, Cond: cond, Body: body}, p.expect(TokenKeyword, "end")
}

func (p *parser) repeatStatement(base ast.BaseStmt) (ast.Stmt, *Error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	body, perr := p.block()
	if perr != nil {
		return nil, perr
	}
	if err := p.expect(TokenKeyword, "until"); err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &ast.RepeatStmt{BaseStmt: base, Body: body, Cond: cond}, nil
}

func (p *parser) forStatement(base ast.BaseStmt) (ast.Stmt, *Error) {
	if err := p.advance(); err != nil { // for
		return nil, err
	}
	first, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if p.isSymbol("=") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		start, perr := p.expr()
		if perr != nil {
			return nil, perr
		}
		if err := p.expect(TokenSymbol, ","); err != nil {
			return nil, err
		}
		limit, perr := p.expr()
		if perr != nil {
			return nil, perr
		}
		var step ast.Expr
		if ok, err := p.accept(TokenSymbol, ","); err != nil {
			return nil, err
		} else if ok {
			step, perr = p.expr()
			if perr != nil {
				return nil, perr
			}
		}
		if err := p.expect(TokenKeyword, "do"); err != nil {
			return nil, err
		}
		body, perr := p.block()
		if perr != nil {
			return nil, perr
		}
		stmt := &ast.NumericForStmt{BaseStmt: base, Var: first, Start: start, Limit: limit, Step: step, Body: body}
		return stmt, p.expect(TokenKeyword, "end")
	}

	names := []string{first}
	for p.isSymbol(",") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.expectName()
		if err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	if err := p.expect(TokenKeyword, "in"); err != nil {
		return nil, err
	}
	exprs, perr := p.exprList()
	if perr != nil {
		return nil, perr
	}
	if err := p.expect(TokenKeyword, "do"); err != nil {
		return nil, err
	}
	body, perr := p.block()
	if perr != nil {
		return nil, perr
	}
	stmt := &ast.GenericForStmt{BaseStmt: base, Names: names, Exprs: exprs, Body: body}
	return stmt, p.expect(TokenKeyword, "end")
}

func (p *parser) exprList() ([]ast.Expr, *Error) {
	var exprs []ast.Expr
	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if !p.isSymbol(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return exprs, nil
}

// Operator precedence, after Lua 5.3 §3.4.8 with Luau extensions.
type opPrio struct{ left, right int }

var binaryPrio = map[string]opPrio{
	"or":  {1, 1},
	"and": {2, 2},
	"<":   {3, 3}, ">": {3, 3}, "<=": {3, 3}, ">=": {3, 3}, "~=": {3, 3}, "==": {3, 3},
	"|":  {4, 4},
	"~":  {5, 5},
	"&":  {6, 6},
	"<<": {7, 7}, ">>": {7, 7},
	"..": {9, 8}, // right associative
	"+": {10, 10}, "-": {10, 10},
	"*": {11, 11}, "/": {11, 11}, "//": {11, 11}, "%": {11, 11},
	"^": {14, 13}, // right associative
}

const unaryPrio = 12

func (p *parser) expr() (ast.Expr, *Error) {
	return p.subExpr(0)
}

func (p *parser) subExpr(limit int) (ast.Expr, *Error) {
	var left ast.Expr
	var err *Error

	if op, ok := p.unaryOp(); ok {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, perr := p.subExpr(unaryPrio)
		if perr != nil {
			return nil, perr
		}
		left = &ast.UnaryExpr{Op: op, Operand: operand}
	} else {
		left, err = p.simpleExpr()
		if err != nil {
			return nil, err
		}
	}

	for {
		op := p.binaryOp()
		if op == "" {
			break
		}
		prio := binaryPrio[op]
		if prio.left <= limit {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, perr := p.subExpr(prio.right)
		if perr != nil {
			return nil, perr
		}
		left = &ast.BinaryExpr{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *parser) unaryOp() (string, bool) {
	if p.isKeyword("not") {
		return "not", true
	}
	if p.cur.Kind == TokenSymbol {
		switch p.cur.Text {
		case "-", "#", "~":
			return p.cur.Text, true
		}
	}
	return "", false
}

func (p *parser) binaryOp() string {
	if p.isKeyword("and") || p.isKeyword("or") {
		return p.cur.Text
	}
	if p.cur.Kind == TokenSymbol {
		if _, ok := binaryPrio[p.cur.Text]; ok {
			return p.cur.Text
		}
	}
	return ""
}

func (p *parser) simpleExpr() (ast.Expr, *Error) {
	switch {
	case p.cur.Kind == TokenNumber:
		e := &ast.NumberExpr{Raw: p.cur.Text}
		return e, p.advance()
	case p.cur.Kind == TokenString:
		e := &ast.StringExpr{Value: p.cur.Text}
		return e, p.advance()
	case p.isKeyword("nil"):
		return &ast.NilExpr{}, p.advance()
	case p.isKeyword("true"):
		return &ast.BoolExpr{Value: true}, p.advance()
	case p.isKeyword("false"):
		return &ast.BoolExpr{Value: false}, p.advance()
	case p.isSymbol("..."):
		return &ast.VarargExpr{}, p.advance()
	case p.isKeyword("function"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.functionBody()
	case p.isSymbol("{"):
		return p.tableExpr()
	case p.isKeyword("if"):
		return p.ifExpr()
	default:
		return p.suffixedExpr()
	}
}

// ifExpr parses the Luau if-then-else expression. The else branch is
// mandatory in expression position.
func (p *parser) ifExpr() (ast.Expr, *Error) {
	if err := p.advance(); err != nil { // if
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if perr := p.expect(TokenKeyword, "then"); perr != nil {
		return nil, perr
	}
	then, err := p.expr()
	if err != nil {
		return nil, err
	}
	e := &ast.IfElseExpr{Cond: cond, Then: then}
	for p.isKeyword("elseif") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		c, err := p.expr()
		if err != nil {
			return nil, err
		}
		if perr := p.expect(TokenKeyword, "then"); perr != nil {
			return nil, perr
		}
		t, err := p.expr()
		if err != nil {
			return nil, err
		}
		e.ElseIfs = append(e.ElseIfs, ast.IfElseClause{Cond: c, Then: t})
	}
	if perr := p.expect(TokenKeyword, "else"); perr != nil {
		return nil, perr
	}
	e.Else, err = p.expr()
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) primaryExpr() (ast.Expr, *Error) {
	if p.cur.Kind == TokenName {
		e := &ast.IdentExpr{Name: p.cur.Text}
		return e, p.advance()
	}
	if p.isSymbol("(") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if perr := p.expect(TokenSymbol, ")"); perr != nil {
			return nil, perr
		}
		return &ast.ParenExpr{Inner: inner}, nil
	}
	return nil, p.errorf("unexpected %s", p.cur)
}

func (p *parser) suffixedExpr() (ast.Expr, *Error) {
	e, err := p.primaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isSymbol("."):
			if err := p.advance(); err != nil {
				return nil, err
			}
			name, perr := p.expectName()
			if perr != nil {
				return nil, perr
			}
			e = &ast.DotExpr{Object: e, Field: name}
		case p.isSymbol("["):
			if err := p.advance(); err != nil {
				return nil, err
			}
			key, perr := p.expr()
			if perr != nil {
				return nil, perr
			}
			if err := p.expect(TokenSymbol, "]"); err != nil {
				return nil, err
			}
			e = &ast.IndexExpr{Object: e, Key: key}
		case p.isSymbol(":"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			name, perr := p.expectName()
			if perr != nil {
				return nil, perr
			}
			args, perr := p.callArgs()
			if perr != nil {
				return nil, perr
			}
			e = &ast.MethodCallExpr{Object: e, Method: name, Args: args}
		case p.isSymbol("(") || p.isSymbol("{") || p.cur.Kind == TokenString:
			args, perr := p.callArgs()
			if perr != nil {
				return nil, perr
			}
			e = &ast.CallExpr{Func: e, Args: args}
		default:
			return e, nil
		}
	}
}

// callArgs parses (a, b), a string argument, or a table argument.
func (p *parser) callArgs() ([]ast.Expr, *Error) {
	switch {
	case p.cur.Kind == TokenString:
		arg := &ast.StringExpr{Value: p.cur.Text}
		return []ast.Expr{arg}, p.advance()
	case p.isSymbol("{"):
		t, err := p.tableExpr()
		if err != nil {
			return nil, err
		}
		return []ast.Expr{t}, nil
	case p.isSymbol("("):
		if err := p.advance(); err != nil {
			return nil, err
		}
		var args []ast.Expr
		if !p.isSymbol(")") {
			var err *Error
			args, err = p.exprList()
			if err != nil {
				return nil, err
			}
		}
		return args, p.expect(TokenSymbol, ")")
	default:
		return nil, p.errorf("expected call arguments, got %s", p.cur)
	}
}

func (p *parser) tableExpr() (ast.Expr, *Error) {
	if err := p.expect(TokenSymbol, "{"); err != nil {
		return nil, err
	}
	t := &ast.TableExpr{}
	for !p.isSymbol("}") {
		switch {
		case p.isSymbol("["):
			if err := p.advance(); err != nil {
				return nil, err
			}
			key, perr := p.expr()
			if perr != nil {
				return nil, perr
			}
			if err := p.expect(TokenSymbol, "]"); err != nil {
				return nil, err
			}
			if err := p.expect(TokenSymbol, "="); err != nil {
				return nil, err
			}
			value, perr := p.expr()
			if perr != nil {
				return nil, perr
			}
			t.Entries = append(t.Entries, &ast.IndexEntry{Key: key, Value: value})
		case p.cur.Kind == TokenName && p.next.Kind == TokenSymbol && p.next.Text == "=":
			name := p.cur.Text
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.advance(); err != nil { // =
				return nil, err
			}
			value, perr := p.expr()
			if perr != nil {
				return nil, perr
			}
			t.Entries = append(t.Entries, &ast.FieldEntry{Name: name, Value: value})
		default:
			value, perr := p.expr()
			if perr != nil {
				return nil, perr
			}
			t.Entries = append(t.Entries, &ast.ArrayEntry{Value: value})
		}
		if p.isSymbol(",") || p.isSymbol(";") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return t, p.expect(TokenSymbol, "}")
}
