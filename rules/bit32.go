package rules

import (
	"github.com/moonfall-dev/moonfall/ast"
)

// ConvertBit32Name identifies the bit32 conversion rule.
const ConvertBit32Name = "convert_bit32"

const (
	defaultBit32Ident = "bit32"
	mask32Literal     = "0xFFFFFFFF"
)

// ConvertBit32 rewrites bit32 library calls into native bitwise operators.
// Native Lua 5.3 operators work on 64-bit integers, so every rewritten
// expression is masked back to 32 bits to preserve the library's
// wrap-around semantics.
//
// Three call shapes are recognized: direct calls (bit32.band(a, b)),
// calls through a local alias of a method (local f = bit32.band; f(a, b)),
// and calls through a rebinding of the library itself
// (local bit = bit32; bit.band(a, b)). Calls through computed member
// access are never rewritten.
type ConvertBit32 struct{}

func (ConvertBit32) RuleName() string { return ConvertBit32Name }

func (ConvertBit32) NewMutator(ctx *Context) ast.Mutator {
	return &bit32Mutator{
		libIdent: defaultBit32Ident,
		aliases:  make(map[string]string),
	}
}

// bit32Mutator holds per-file traversal state: the current library
// identifier (which a rebinding statement may change) and the alias map
// from local names to method names.
type bit32Mutator struct {
	ast.NopMutator
	libIdent string
	aliases  map[string]string
}

var bit32Binary = map[string]string{
	"rshift": ">>",
	"lshift": "<<",
	"band":   "&",
	"bor":    "|",
	"bxor":   "~",
}

func isBit32Method(name string) bool {
	if _, ok := bit32Binary[name]; ok {
		return true
	}
	return name == "bnot" || name == "btest"
}

func (m *bit32Mutator) MutateStmt(s ast.Stmt) ast.Stmt {
	switch st := s.(type) {
	case *ast.CallStmt:
		// A converted call in statement position is a bare parenthesized
		// expression, which is not a valid statement. Replace it with an
		// empty do block: the original call had no observable effect.
		if m.convert(st.Call) != nil {
			return emptyDo(st.BaseStmt)
		}
	case *ast.LocalStmt:
		if len(st.Names) == 1 && len(st.Values) == 1 && m.trackBinding(st.Names[0], st.Values[0]) {
			return emptyDo(st.BaseStmt)
		}
	case *ast.AssignStmt:
		if len(st.Targets) == 1 && len(st.Values) == 1 {
			if target, ok := st.Targets[0].(*ast.IdentExpr); ok && m.trackBinding(target.Name, st.Values[0]) {
				return emptyDo(st.BaseStmt)
			}
		}
	}
	return s
}

func (m *bit32Mutator) MutateExpr(e ast.Expr) ast.Expr {
	if converted := m.convert(e); converted != nil {
		return converted
	}
	return e
}

// trackBinding inspects a single-variable binding and records it when the
// right-hand side aliases the library or one of its methods. Returns true
// when the statement should be elided.
func (m *bit32Mutator) trackBinding(name string, value ast.Expr) bool {
	switch v := value.(type) {
	case *ast.IdentExpr:
		// local bit = bit32 — rebind the library identifier.
		if v.Name == m.libIdent {
			m.libIdent = name
			return true
		}
	case *ast.DotExpr:
		if ident, ok := v.Object.(*ast.IdentExpr); ok && ident.Name == m.libIdent && isBit32Method(v.Field) {
			m.aliases[name] = v.Field
			return true
		}
	case *ast.IndexExpr:
		if ident, ok := v.Object.(*ast.IdentExpr); ok && ident.Name == m.libIdent {
			if key, ok := v.Key.(*ast.StringExpr); ok && isBit32Method(key.Value) {
				m.aliases[name] = key.Value
				return true
			}
		}
	}
	return false
}

// convert rewrites a recognized bit32 call into a masked native-operator
// expression, or returns nil when the expression is not such a call (or
// is malformed, in which case it passes through for the target runtime
// to reject).
func (m *bit32Mutator) convert(e ast.Expr) ast.Expr {
	call, ok := e.(*ast.CallExpr)
	if !ok {
		return nil
	}

	method := ""
	switch fn := call.Func.(type) {
	case *ast.DotExpr:
		if ident, ok := fn.Object.(*ast.IdentExpr); ok && ident.Name == m.libIdent {
			method = fn.Field
		}
	case *ast.IndexExpr:
		if ident, ok := fn.Object.(*ast.IdentExpr); ok && ident.Name == m.libIdent {
			if key, ok := fn.Key.(*ast.StringExpr); ok {
				method = key.Value
			}
		}
	case *ast.IdentExpr:
		method = m.aliases[fn.Name]
	}
	if !isBit32Method(method) {
		return nil
	}

	switch method {
	case "bnot":
		if len(call.Args) < 1 {
			return nil
		}
		// ((~(a & MASK)) & MASK): mask before negating so high bits of the
		// wider native integer cannot leak into the complement, then mask
		// the result back down.
		inner := mask32(call.Args[0])
		notted := &ast.ParenExpr{Inner: &ast.UnaryExpr{Op: "~", Operand: inner}}
		return mask32Expr(notted)
	case "btest":
		if len(call.Args) < 2 {
			return nil
		}
		// (((a & b) & MASK) ~= 0): a boolean result, not a bitwise one.
		anded := &ast.ParenExpr{Inner: &ast.BinaryExpr{Left: call.Args[0], Op: "&", Right: call.Args[1]}}
		masked := mask32Expr(anded)
		return &ast.ParenExpr{Inner: &ast.BinaryExpr{Left: masked, Op: "~=", Right: &ast.NumberExpr{Raw: "0"}}}
	default:
		if len(call.Args) < 2 {
			return nil
		}
		op := bit32Binary[method]
		inner := &ast.ParenExpr{Inner: &ast.BinaryExpr{Left: call.Args[0], Op: op, Right: call.Args[1]}}
		return mask32Expr(inner)
	}
}

// mask32 builds (e & MASK).
func mask32(e ast.Expr) ast.Expr {
	return &ast.ParenExpr{Inner: &ast.BinaryExpr{
		Left:  e,
		Op:    "&",
		Right: &ast.NumberExpr{Raw: mask32Literal},
	}}
}

// mask32Expr builds (e & MASK) where e is already parenthesized.
func mask32Expr(e ast.Expr) ast.Expr {
	return &ast.ParenExpr{Inner: &ast.BinaryExpr{
		Left:  e,
		Op:    "&",
		Right: &ast.NumberExpr{Raw: mask32Literal},
	}}
}

func emptyDo(base ast.BaseStmt) ast.Stmt {
	return &ast.DoStmt{BaseStmt: base, Body: &ast.Block{}}
}
