// Package parser implements a hand-written lexer and recursive-descent
// parser for the Luau-flavoured Lua dialect moonfall consumes. The parser
// accepts superset syntax (compound assignment, continue, if-expressions,
// binary number literals, digit separators) that the downgrade rules later
// rewrite into plain Lua.
package parser

import "fmt"

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenName
	TokenNumber
	TokenString
	TokenKeyword
	TokenSymbol
)

// Token is a single lexical token with its source position.
type Token struct {
	Kind TokenKind
	// Text is the token spelling. For TokenString it is the decoded string
	// value; for TokenNumber it is the raw literal text.
	Text string
	Line int
	Col  int
}

func (t Token) String() string {
	switch t.Kind {
	case TokenEOF:
		return "<eof>"
	case TokenString:
		return fmt.Sprintf("string %q", t.Text)
	default:
		return fmt.Sprintf("%q", t.Text)
	}
}

// Error is a syntax error with a source position.
type Error struct {
	File string
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Msg)
}

// ErrorList accumulates syntax errors from a single parse.
type ErrorList []*Error

func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	if len(el) == 1 {
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}

var keywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "goto": true,
	"if": true, "in": true, "local": true, "nil": true, "not": true,
	"or": true, "repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true,
}
