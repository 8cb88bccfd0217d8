package lexer

import (
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cinder/interpreter-go/pkg/token"
)

type lexeme struct {
	Kind   token.Kind
	Lexeme string
}

func lexemes(tokens []token.Token) []lexeme {
	out := make([]lexeme, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, lexeme{Kind: tok.Kind, Lexeme: tok.Lexeme})
	}
	return out
}

func TestTokenizeStatement(t *testing.T) {
	got := lexemes(Tokenize("let x = a.b(1, \"hi\") # trailing\nx += 2", "main.cin"))
	want := []lexeme{
		{token.Ident, "let"},
		{token.Ident, "x"},
		{token.Punct, "="},
		{token.Ident, "a"},
		{token.Punct, "."},
		{token.Ident, "b"},
		{token.Punct, "("},
		{token.Number, "1"},
		{token.Punct, ","},
		{token.String, "hi"},
		{token.Punct, ")"},
		{token.Newline, "\n"},
		{token.Ident, "x"},
		{token.Punct, "+="},
		{token.Number, "2"},
		{token.EOF, ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeTwoCharacterOperators(t *testing.T) {
	ops := []string{"+=", "-=", "*=", "/=", "^=", "%=", "++", "--", "//", "..", "==", "!=", ">=", "<=", "=>", "??", "::", "&&", "||"}
	tokens := Tokenize(strings.Join(ops, " "), "")
	if len(tokens) != len(ops)+1 {
		t.Fatalf("expected %d tokens, got %d", len(ops)+1, len(tokens))
	}
	for i, op := range ops {
		if !tokens[i].IsPunct(op) {
			t.Fatalf("token %d: expected %q, got %v", i, op, tokens[i])
		}
	}
}

func TestTokenizeAdjacentOperatorsPreferPairs(t *testing.T) {
	got := lexemes(Tokenize("a<=b..=c", ""))
	want := []lexeme{
		{token.Ident, "a"},
		{token.Punct, "<="},
		{token.Ident, "b"},
		{token.Punct, ".."},
		{token.Punct, "="},
		{token.Ident, "c"},
		{token.EOF, ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestNumericLiterals(t *testing.T) {
	cases := []struct {
		source string
		want   float64
	}{
		{"1_000", 1000},
		{"3.25", 3.25},
		{"1e3", 1000},
		{"2.5E-2", 0.025},
		{"0xff", 255},
		{"0XFF_FF", 65535},
		{"0x1.8p1", 3},
		{"0x1p-2", 0.25},
	}
	for _, tc := range cases {
		tokens := Tokenize(tc.source, "")
		if tokens[0].Kind != token.Number {
			t.Fatalf("%s: expected number token, got %v", tc.source, tokens[0])
		}
		got, err := strconv.ParseFloat(tokens[0].Lexeme, 64)
		if err != nil {
			t.Fatalf("%s: lexeme %q does not parse: %v", tc.source, tokens[0].Lexeme, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.source, tc.want, got)
		}
	}
}

func TestDecimalPointNeedsDigitsOnBothSides(t *testing.T) {
	got := lexemes(Tokenize("1..3 x.1", ""))
	want := []lexeme{
		{token.Number, "1"},
		{token.Punct, ".."},
		{token.Number, "3"},
		{token.Ident, "x"},
		{token.Punct, "."},
		{token.Number, "1"},
		{token.EOF, ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestExponentNeedsDigits(t *testing.T) {
	got := lexemes(Tokenize("2e", ""))
	want := []lexeme{
		{token.Number, "2"},
		{token.Ident, "e"},
		{token.EOF, ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
}

func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\0`)
		case '#':
			b.WriteString(`\#`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func TestStringEscapeRoundTrip(t *testing.T) {
	samples := []string{
		"",
		"plain",
		"tab\there",
		"line\nbreak\r\n",
		`back\slash`,
		`"quoted"`,
		"nul\x00byte",
		"# not a comment",
		"mixed 'single' and `tick`",
		"unicode é ✓",
	}
	for _, s := range samples {
		tokens := Tokenize(`"`+escape(s)+`"`, "")
		if len(tokens) != 2 || tokens[0].Kind != token.String {
			t.Fatalf("%q: expected a single string token, got %v", s, tokens)
		}
		if tokens[0].Lexeme != s {
			t.Fatalf("round trip mismatch: want %q, got %q", s, tokens[0].Lexeme)
		}
	}
}

func TestStringQuotesAndUnknownEscapes(t *testing.T) {
	got := lexemes(Tokenize("'a\"b' `c\\qd`", ""))
	want := []lexeme{
		{token.String, `a"b`},
		{token.String, "cqd"},
		{token.EOF, ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestUnterminatedStringRunsToEnd(t *testing.T) {
	tokens := Tokenize("x = \"open\nstill", "")
	last := tokens[len(tokens)-2]
	if last.Kind != token.String || last.Lexeme != "open\nstill" {
		t.Fatalf("expected unterminated string token, got %v", last)
	}
	if tokens[len(tokens)-1].Kind != token.EOF {
		t.Fatalf("expected trailing EOF")
	}
}

func TestTokenPositions(t *testing.T) {
	tokens := Tokenize("a\n  bc = 'x'", "pos.cin")
	positions := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		positions = append(positions, tok.Position())
	}
	want := []string{"pos.cin:1:1", "pos.cin:1:2", "pos.cin:2:3", "pos.cin:2:6", "pos.cin:2:8", "pos.cin:2:11"}
	if diff := cmp.Diff(want, positions); diff != "" {
		t.Fatalf("position mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownCharactersBecomePunctuation(t *testing.T) {
	tokens := Tokenize("@", "")
	if !tokens[0].IsPunct("@") {
		t.Fatalf("expected '@' punctuation, got %v", tokens[0])
	}
}

func TestStringRawText(t *testing.T) {
	tokens := Tokenize(`x = "a\tb" + 'c'`, "")
	str := tokens[2]
	if str.Lexeme != "a\tb" || str.Raw != `a\tb` || str.Width() != 6 {
		t.Fatalf("unexpected string token %+v (width %d)", str, str.Width())
	}
	if tokens[4].Raw != "c" || tokens[4].Width() != 3 {
		t.Fatalf("unexpected string token %+v", tokens[4])
	}
}

func TestNewAtOffsetsPositions(t *testing.T) {
	tokens := NewAt("a +\nb", "m.cin", 3, 10).ScanTokens()
	positions := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		positions = append(positions, tok.Position())
	}
	want := []string{"m.cin:3:10", "m.cin:3:12", "m.cin:3:13", "m.cin:4:1", "m.cin:4:2"}
	if diff := cmp.Diff(want, positions); diff != "" {
		t.Fatalf("position mismatch (-want +got):\n%s", diff)
	}
}
