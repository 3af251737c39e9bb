package rules

import (
	"math"
	"strconv"
	"strings"

	"github.com/moonfall-dev/moonfall/ast"
)

// ValueKind classifies a statically evaluated expression.
type ValueKind int

const (
	// Unknown marks expressions whose value cannot be determined without
	// running the program.
	Unknown ValueKind = iota
	NilValue
	BoolValue
	NumberValue
	StringValue
)

// Value is the result of static evaluation.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
}

func unknown() Value { return Value{Kind: Unknown} }
func number(n float64) Value { return Value{Kind: NumberValue, Num: n} }
func str(s string) Value { return Value{Kind: StringValue, Str: s} }
func boolean(b bool) Value { return Value{Kind: BoolValue, Bool: b} }

// Eval statically evaluates an expression, returning Unknown whenever the
// result depends on runtime state. It understands literals, parentheses,
// unary minus/not, and binary arithmetic, comparison, and concatenation
// over constants.
func Eval(e ast.Expr) Value {
	switch ex := e.(type) {
	case *ast.NilExpr:
		return Value{Kind: NilValue}
	case *ast.BoolExpr:
		return boolean(ex.Value)
	case *ast.NumberExpr:
		if n, ok := ParseNumber(ex.Raw); ok {
			return number(n)
		}
		return unknown()
	case *ast.StringExpr:
		return str(ex.Value)
	case *ast.ParenExpr:
		return Eval(ex.Inner)
	case *ast.UnaryExpr:
		return evalUnary(ex)
	case *ast.BinaryExpr:
		return evalBinary(ex)
	default:
		return unknown()
	}
}

func evalUnary(e *ast.UnaryExpr) Value {
	v := Eval(e.Operand)
	switch e.Op {
	case "-":
		if v.Kind == NumberValue {
			return number(-v.Num)
		}
	case "not":
		switch v.Kind {
		case NilValue:
			return boolean(true)
		case BoolValue:
			return boolean(!v.Bool)
		case NumberValue, StringValue:
			return boolean(false)
		}
	}
	return unknown()
}

func evalBinary(e *ast.BinaryExpr) Value {
	left := Eval(e.Left)
	right := Eval(e.Right)
	if left.Kind == Unknown || right.Kind == Unknown {
		return unknown()
	}

	if e.Op == ".." {
		ls, lok := concatOperand(left)
		rs, rok := concatOperand(right)
		if lok && rok {
			return str(ls + rs)
		}
		return unknown()
	}

	if left.Kind != NumberValue || right.Kind != NumberValue {
		return unknown()
	}
	a, b := left.Num, right.Num
	switch e.Op {
	case "+":
		return number(a + b)
	case "-":
		return number(a - b)
	case "*":
		return number(a * b)
	case "/":
		if b == 0 {
			return unknown()
		}
		return number(a / b)
	case "//":
		if b == 0 {
			return unknown()
		}
		return number(math.Floor(a / b))
	case "%":
		if b == 0 {
			return unknown()
		}
		// Lua modulo: the result has the sign of the divisor.
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return number(m)
	case "^":
		return number(math.Pow(a, b))
	case "==":
		return boolean(a == b)
	case "~=":
		return boolean(a != b)
	case "<":
		return boolean(a < b)
	case "<=":
		return boolean(a <= b)
	case ">":
		return boolean(a > b)
	case ">=":
		return boolean(a >= b)
	}
	return unknown()
}

func concatOperand(v Value) (string, bool) {
	switch v.Kind {
	case StringValue:
		return v.Str, true
	case NumberValue:
		return FormatNumber(v.Num), true
	}
	return "", false
}

// ParseNumber parses a Lua/Luau number literal, including hexadecimal,
// Luau binary (0b) forms, and underscore digit separators.
func ParseNumber(raw string) (float64, bool) {
	s := strings.ReplaceAll(raw, "_", "")
	if len(s) == 0 {
		return 0, false
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "0x"):
		if strings.ContainsAny(lower[2:], ".p") {
			// Hex floats are rare; punt to Go's parser which shares Lua's
			// syntax for them.
			n, err := strconv.ParseFloat(lower, 64)
			return n, err == nil
		}
		u, err := strconv.ParseUint(lower[2:], 16, 64)
		return float64(u), err == nil
	case strings.HasPrefix(lower, "0b"):
		u, err := strconv.ParseUint(lower[2:], 2, 64)
		return float64(u), err == nil
	default:
		n, err := strconv.ParseFloat(s, 64)
		return n, err == nil
	}
}

// FormatNumber renders a float the way Lua prints integral and
// fractional constants.
func FormatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// IsInteger reports whether v is a number with an integral, positive
// value, returning it as an int.
func (v Value) IsInteger() (int, bool) {
	if v.Kind != NumberValue {
		return 0, false
	}
	if v.Num != math.Trunc(v.Num) || v.Num <= 0 || v.Num > math.MaxInt32 {
		return 0, false
	}
	return int(v.Num), true
}
