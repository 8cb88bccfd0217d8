package lexer

import (
	"math"
	"strconv"
	"strings"

	"cinder/interpreter-go/pkg/token"
)

var twoCharOperators = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "^=": true, "%=": true,
	"++": true, "--": true, "//": true, "..": true, "==": true, "!=": true,
	">=": true, "<=": true, "=>": true, "??": true, "::": true, "&&": true,
	"||": true,
}

// Lexer scans Cinder source into tokens. It never fails: malformed input
// still produces tokens and the parser reports the problem.
type Lexer struct {
	src    []rune
	file   string
	pos    int
	line   int
	column int
	tokens []token.Token
}

func New(source, file string) *Lexer {
	return NewAt(source, file, 1, 1)
}

// NewAt scans source as if it started at line and column of file.
func NewAt(source, file string, line, column int) *Lexer {
	estimated := len(source) / 4
	if estimated < 16 {
		estimated = 16
	}
	return &Lexer{
		src:    []rune(source),
		file:   file,
		line:   line,
		column: column,
		tokens: make([]token.Token, 0, estimated),
	}
}

// Tokenize scans the full source. The result always ends with an EOF token.
func Tokenize(source, file string) []token.Token {
	return New(source, file).ScanTokens()
}

func (l *Lexer) ScanTokens() []token.Token {
	for !l.atEnd() {
		l.scanToken()
	}
	l.emit(token.EOF, "", l.line, l.column)
	return l.tokens
}

func (l *Lexer) scanToken() {
	ch := l.peek()
	line, col := l.line, l.column
	switch {
	case ch == ' ' || ch == '\t' || ch == '\r':
		l.advance()
	case ch == '\n':
		l.advance()
		l.emit(token.Newline, "\n", line, col)
	case ch == '#':
		for !l.atEnd() && l.peek() != '\n' {
			l.advance()
		}
	case ch == '"' || ch == '\'' || ch == '`':
		l.scanString(ch, line, col)
	case isDigit(ch):
		l.scanNumber(line, col)
	case isIdentStart(ch):
		start := l.pos
		for !l.atEnd() && isIdentPart(l.peek()) {
			l.advance()
		}
		l.emit(token.Ident, string(l.src[start:l.pos]), line, col)
	default:
		l.advance()
		if !l.atEnd() {
			pair := string([]rune{ch, l.peek()})
			if twoCharOperators[pair] {
				l.advance()
				l.emit(token.Punct, pair, line, col)
				return
			}
		}
		// Characters outside the operator set still become punctuation
		// tokens; the parser rejects the ones it has no use for.
		l.emit(token.Punct, string(ch), line, col)
	}
}

func (l *Lexer) scanString(quote rune, line, col int) {
	l.advance()
	start := l.pos
	var b strings.Builder
	for !l.atEnd() {
		ch := l.advance()
		if ch == quote {
			l.emitString(b.String(), string(l.src[start:l.pos-1]), line, col)
			return
		}
		if ch != '\\' {
			b.WriteRune(ch)
			continue
		}
		if l.atEnd() {
			b.WriteRune('\\')
			break
		}
		b.WriteRune(unescape(l.advance()))
	}
	// Unterminated: the token still covers everything up to end of input.
	l.emitString(b.String(), string(l.src[start:l.pos]), line, col)
}

func unescape(ch rune) rune {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		// \\ \" \' \` \# and unknown escapes keep the escaped character.
		return ch
	}
}

func (l *Lexer) scanNumber(line, col int) {
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') && isHexDigit(l.peekAt(2)) {
		l.advance()
		l.advance()
		l.emit(token.Number, l.scanHex(), line, col)
		return
	}

	var b strings.Builder
	l.digits(&b, isDigit)
	// A dot belongs to the number only when digits sit on both sides; `1..2`
	// and `x.1.y` keep their dots as punctuation.
	if l.peek() == '.' && isDigit(l.peekAt(1)) && l.pos > 0 && isDigit(l.src[l.pos-1]) {
		b.WriteRune(l.advance())
		l.digits(&b, isDigit)
	}
	if e := l.peek(); e == 'e' || e == 'E' {
		next := l.peekAt(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekAt(2))) {
			b.WriteRune(l.advance())
			if next == '+' || next == '-' {
				b.WriteRune(l.advance())
			}
			l.digits(&b, isDigit)
		}
	}
	l.emit(token.Number, b.String(), line, col)
}

// scanHex consumes the body of a hex literal after the 0x prefix and returns
// its value as decimal text.
func (l *Lexer) scanHex() string {
	var mantissa float64
	for !l.atEnd() && (isHexDigit(l.peek()) || l.peek() == '_') {
		ch := l.advance()
		if ch == '_' {
			continue
		}
		mantissa = mantissa*16 + float64(hexValue(ch))
	}
	if l.peek() == '.' && isHexDigit(l.peekAt(1)) {
		l.advance()
		scale := 1.0 / 16
		for !l.atEnd() && (isHexDigit(l.peek()) || l.peek() == '_') {
			ch := l.advance()
			if ch == '_' {
				continue
			}
			mantissa += float64(hexValue(ch)) * scale
			scale /= 16
		}
	}
	if p := l.peek(); p == 'p' || p == 'P' {
		next := l.peekAt(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekAt(2))) {
			l.advance()
			negative := false
			if next == '+' || next == '-' {
				negative = l.advance() == '-'
			}
			exp := 0
			for !l.atEnd() && isDigit(l.peek()) {
				exp = exp*10 + int(l.advance()-'0')
			}
			if negative {
				exp = -exp
			}
			mantissa = math.Ldexp(mantissa, exp)
		}
	}
	return strconv.FormatFloat(mantissa, 'g', -1, 64)
}

func (l *Lexer) digits(b *strings.Builder, accept func(rune) bool) {
	for !l.atEnd() {
		ch := l.peek()
		if ch == '_' {
			l.advance()
			continue
		}
		if !accept(ch) {
			return
		}
		b.WriteRune(l.advance())
	}
}

func (l *Lexer) emit(kind token.Kind, lexeme string, line, col int) {
	l.tokens = append(l.tokens, token.Token{Kind: kind, Lexeme: lexeme, Line: line, Column: col, File: l.file})
}

func (l *Lexer) emitString(lexeme, raw string, line, col int) {
	l.tokens = append(l.tokens, token.Token{Kind: token.String, Lexeme: lexeme, Raw: raw, Line: line, Column: col, File: l.file})
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) advance() rune {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func hexValue(ch rune) int {
	switch {
	case isDigit(ch):
		return int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10
	default:
		return int(ch-'A') + 10
	}
}

func isIdentStart(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch)
}
