package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// lexer turns source text into a token stream. It tracks line/column
// positions and strips comments.
type lexer struct {
	file string
	src  string
	pos  int
	line int
	col  int
}

func newLexer(file, src string) *lexer {
	return &lexer{file: file, src: src, line: 1, col: 1}
}

func (l *lexer) errorf(line, col int, format string, args ...any) *Error {
	return &Error{File: l.file, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) advance() byte {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
func isNameStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
func isNameChar(ch byte) bool { return isNameStart(ch) || isDigit(ch) }

// next returns the next token, skipping whitespace and comments.
func (l *lexer) next() (Token, *Error) {
	for l.pos < len(l.src) {
		ch := l.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '-' && l.peekAt(1) == '-':
			if err := l.skipComment(); err != nil {
				return Token{}, err
			}
		default:
			return l.scanToken()
		}
	}
	return Token{Kind: TokenEOF, Line: l.line, Col: l.col}, nil
}

func (l *lexer) skipComment() *Error {
	l.advance() // -
	l.advance() // -
	if l.peek() == '[' {
		if level, ok := l.longBracketLevel(); ok {
			_, err := l.scanLongString(level, l.line, l.col)
			return err
		}
	}
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
	return nil
}

// longBracketLevel checks for a long-bracket opener [=*[ at the current
// position without consuming anything, returning the level on match.
func (l *lexer) longBracketLevel() (int, bool) {
	if l.peek() != '[' {
		return 0, false
	}
	level := 0
	for l.peekAt(1+level) == '=' {
		level++
	}
	if l.peekAt(1+level) == '[' {
		return level, true
	}
	return 0, false
}

func (l *lexer) scanToken() (Token, *Error) {
	line, col := l.line, l.col
	ch := l.peek()

	switch {
	case isNameStart(ch):
		start := l.pos
		for l.pos < len(l.src) && isNameChar(l.peek()) {
			l.advance()
		}
		text := l.src[start:l.pos]
		kind := TokenName
		if keywords[text] {
			kind = TokenKeyword
		}
		return Token{Kind: kind, Text: text, Line: line, Col: col}, nil

	case isDigit(ch) || (ch == '.' && isDigit(l.peekAt(1))):
		return l.scanNumber(line, col)

	case ch == '"' || ch == '\'':
		return l.scanShortString(line, col)

	case ch == '[':
		if level, ok := l.longBracketLevel(); ok {
			for i := 0; i < level+2; i++ {
				l.advance()
			}
			return l.scanLongString(level, line, col)
		}
		l.advance()
		return Token{Kind: TokenSymbol, Text: "[", Line: line, Col: col}, nil

	case ch == '`':
		return Token{}, l.errorf(line, col, "interpolated strings are not supported")

	default:
		return l.scanSymbol(line, col)
	}
}

func (l *lexer) scanNumber(line, col int) (Token, *Error) {
	start := l.pos
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.advance()
		l.advance()
		for l.pos < len(l.src) && (isHexDigit(l.peek()) || l.peek() == '_' || l.peek() == '.') {
			l.advance()
		}
	} else if l.peek() == '0' && (l.peekAt(1) == 'b' || l.peekAt(1) == 'B') {
		l.advance()
		l.advance()
		for l.pos < len(l.src) && (l.peek() == '0' || l.peek() == '1' || l.peek() == '_') {
			l.advance()
		}
	} else {
		for l.pos < len(l.src) && (isDigit(l.peek()) || l.peek() == '.' || l.peek() == '_') {
			l.advance()
		}
		if l.peek() == 'e' || l.peek() == 'E' {
			l.advance()
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			for l.pos < len(l.src) && isDigit(l.peek()) {
				l.advance()
			}
		}
	}
	text := l.src[start:l.pos]
	if !validNumber(text) {
		return Token{}, l.errorf(line, col, "malformed number near '%s'", text)
	}
	return Token{Kind: TokenNumber, Text: text, Line: line, Col: col}, nil
}

// validNumber rejects scanned literals Lua itself would refuse, such as
// a second decimal point or a dangling exponent.
func validNumber(text string) bool {
	s := strings.ToLower(strings.ReplaceAll(text, "_", ""))
	switch {
	case strings.HasPrefix(s, "0x"):
		digits := s[2:]
		if strings.Count(digits, ".") > 1 {
			return false
		}
		digits = strings.ReplaceAll(digits, ".", "")
		if digits == "" {
			return false
		}
		for i := 0; i < len(digits); i++ {
			if !isHexDigit(digits[i]) {
				return false
			}
		}
		return true
	case strings.HasPrefix(s, "0b"):
		return len(s) > 2
	default:
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	}
}

func (l *lexer) scanShortString(line, col int) (Token, *Error) {
	quote := l.advance()
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, l.errorf(line, col, "unterminated string")
		}
		ch := l.advance()
		if ch == quote {
			break
		}
		if ch == '\n' {
			return Token{}, l.errorf(line, col, "unterminated string")
		}
		if ch != '\\' {
			sb.WriteByte(ch)
			continue
		}
		if l.pos >= len(l.src) {
			return Token{}, l.errorf(line, col, "unterminated string")
		}
		esc := l.advance()
		switch esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'a':
			sb.WriteByte(7)
		case 'b':
			sb.WriteByte(8)
		case 'f':
			sb.WriteByte(12)
		case 'v':
			sb.WriteByte(11)
		case '\\', '"', '\'':
			sb.WriteByte(esc)
		case '\n':
			sb.WriteByte('\n')
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			n := int(esc - '0')
			for i := 0; i < 2 && isDigit(l.peek()); i++ {
				n = n*10 + int(l.advance()-'0')
			}
			if n > 255 {
				return Token{}, l.errorf(line, col, "decimal escape too large")
			}
			sb.WriteByte(byte(n))
		default:
			return Token{}, l.errorf(line, col, "invalid escape sequence '\\%c'", esc)
		}
	}
	return Token{Kind: TokenString, Text: sb.String(), Line: line, Col: col}, nil
}

// scanLongString consumes a long-bracket string body after the opener has
// been consumed. Also used for long comments (result discarded).
func (l *lexer) scanLongString(level, line, col int) (Token, *Error) {
	// A newline immediately after the opener is skipped, per Lua.
	if l.peek() == '\r' {
		l.advance()
	}
	if l.peek() == '\n' {
		l.advance()
	}
	start := l.pos
	closer := "]" + strings.Repeat("=", level) + "]"
	idx := strings.Index(l.src[l.pos:], closer)
	if idx < 0 {
		return Token{}, l.errorf(line, col, "unterminated long string")
	}
	for l.pos < start+idx {
		l.advance()
	}
	text := l.src[start : start+idx]
	for i := 0; i < len(closer); i++ {
		l.advance()
	}
	return Token{Kind: TokenString, Text: text, Line: line, Col: col}, nil
}

// symbols holds multi-character operators, longest first per leading byte.
var symbols = []string{
	"...", "..=", "//=", "<<", ">>", "==", "~=", "<=", ">=", "..", "::",
	"+=", "-=", "*=", "/=", "%=", "^=", "//",
	"+", "-", "*", "/", "%", "^", "#", "&", "~", "|", "<", ">", "=",
	"(", ")", "{", "}", "]", ";", ":", ",", ".",
}

func (l *lexer) scanSymbol(line, col int) (Token, *Error) {
	rest := l.src[l.pos:]
	for _, sym := range symbols {
		if strings.HasPrefix(rest, sym) {
			for range sym {
				l.advance()
			}
			return Token{Kind: TokenSymbol, Text: sym, Line: line, Col: col}, nil
		}
	}
	return Token{}, l.errorf(line, col, "unexpected character %q", string(l.peek()))
}
