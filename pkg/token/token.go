package token

import "fmt"

type Kind int

const (
	EOF Kind = iota
	Ident
	Number
	String
	Punct
	Newline
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "eof"
	case Ident:
		return "identifier"
	case Number:
		return "number"
	case String:
		return "string"
	case Punct:
		return "punctuation"
	case Newline:
		return "newline"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Token is an immutable lexeme with the position of its first character.
// Number lexemes hold normalized decimal text; string lexemes hold the
// escape-resolved contents and Raw the source text between the quotes.
type Token struct {
	Kind   Kind   `json:"kind"`
	Lexeme string `json:"lexeme"`
	Raw    string `json:"raw,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	File   string `json:"file"`
}

func (t Token) Is(kind Kind, lexeme string) bool {
	return t.Kind == kind && t.Lexeme == lexeme
}

// IsPunct reports whether the token is the given punctuation.
func (t Token) IsPunct(lexeme string) bool {
	return t.Kind == Punct && t.Lexeme == lexeme
}

// IsKeyword reports whether the token is an identifier spelled as the keyword.
func (t Token) IsKeyword(word string) bool {
	return t.Kind == Ident && t.Lexeme == word
}

// Width is the number of source columns the caret under this token spans.
func (t Token) Width() int {
	switch t.Kind {
	case EOF, Newline:
		return 1
	case String:
		n := len([]rune(t.Raw))
		if n == 0 {
			n = len([]rune(t.Lexeme))
		}
		return n + 2
	}
	if n := len([]rune(t.Lexeme)); n > 0 {
		return n
	}
	return 1
}

func (t Token) Position() string {
	if t.File == "" {
		return fmt.Sprintf("%d:%d", t.Line, t.Column)
	}
	return fmt.Sprintf("%s:%d:%d", t.File, t.Line, t.Column)
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case Newline:
		return "newline"
	case String:
		return fmt.Sprintf("%q", t.Lexeme)
	default:
		return fmt.Sprintf("'%s'", t.Lexeme)
	}
}

// Keywords are identifiers the parser treats as reserved.
var Keywords = map[string]bool{
	"let": true, "const": true, "if": true, "elif": true, "else": true,
	"while": true, "for": true, "in": true, "switch": true, "case": true,
	"default": true, "func": true, "class": true, "return": true, "break": true,
	"continue": true, "out": true, "using": true, "namespace": true, "include": true,
	"true": true, "false": true, "null": true,
}
