package parser

import (
	"fmt"

	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/lexer"
	"cinder/interpreter-go/pkg/token"
)

// ParseError reports structurally invalid input. Index is the position of
// Token in the token stream handed to the parser.
type ParseError struct {
	Message string
	Index   int
	Token   token.Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parser: %s: %s", e.Token.Position(), e.Message)
}

// Incomplete reports whether parsing failed only because input ended early.
// The REPL uses it to keep reading continuation lines.
func (e *ParseError) Incomplete() bool {
	return e.Token.Kind == token.EOF
}

// Parser is a recursive-descent parser over a token slice. It is not safe for
// concurrent use; create one per parse.
type Parser struct {
	tokens []token.Token
	pos    int
	depth  int
}

func New(tokens []token.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != token.EOF {
		tokens = append(tokens, token.Token{Kind: token.EOF})
	}
	return &Parser{tokens: tokens}
}

// Parse turns a token stream into top-level statements.
func Parse(tokens []token.Token) ([]ast.Statement, error) {
	return New(tokens).ParseStatements()
}

// ParseProgram parses tokens belonging to file into a Program node.
func ParseProgram(tokens []token.Token, file string) (*ast.Program, error) {
	body, err := Parse(tokens)
	if err != nil {
		return nil, err
	}
	return ast.NewProgram(file, body), nil
}

// ParseSource tokenizes and parses one source file.
func ParseSource(source, file string) (*ast.Program, error) {
	return ParseProgram(lexer.Tokenize(source, file), file)
}

// ParseExpression parses source that must contain exactly one expression,
// optionally surrounded by blank lines.
func ParseExpression(source, file string) (ast.Expression, error) {
	return ParseExpressionAt(source, file, 1, 1)
}

// ParseExpressionAt is ParseExpression for source embedded at line and
// column of file, so node positions point into the enclosing file.
func ParseExpressionAt(source, file string, line, column int) (ast.Expression, error) {
	p := New(lexer.NewAt(source, file, line, column).ScanTokens())
	p.skipNewlines()
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if !p.isAtEnd() {
		return nil, p.errorAtCurrent("unexpected %s after expression", p.peek())
	}
	return expr, nil
}

func (p *Parser) ParseStatements() ([]ast.Statement, error) {
	return p.parseStatementList(func() bool { return p.isAtEnd() })
}

// Token cursor

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) previous() token.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() token.Token {
	tok := p.tokens[p.pos]
	if !p.isAtEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) checkPunct(lexeme string) bool {
	return p.peek().IsPunct(lexeme)
}

func (p *Parser) checkKeyword(word string) bool {
	return p.peek().IsKeyword(word)
}

func (p *Parser) matchPunct(lexemes ...string) bool {
	for _, lexeme := range lexemes {
		if p.checkPunct(lexeme) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) matchKeyword(word string) bool {
	if p.checkKeyword(word) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectPunct(lexeme, context string) (token.Token, error) {
	if p.checkPunct(lexeme) {
		return p.advance(), nil
	}
	return token.Token{}, p.errorAtCurrent("expected '%s' %s, found %s", lexeme, context, p.peek())
}

func (p *Parser) expectKeyword(word, context string) (token.Token, error) {
	if p.checkKeyword(word) {
		return p.advance(), nil
	}
	return token.Token{}, p.errorAtCurrent("expected '%s' %s, found %s", word, context, p.peek())
}

// expectName consumes a non-reserved identifier.
func (p *Parser) expectName(context string) (token.Token, error) {
	tok := p.peek()
	if tok.Kind == token.Ident && !token.Keywords[tok.Lexeme] {
		return p.advance(), nil
	}
	return token.Token{}, p.errorAtCurrent("expected identifier %s, found %s", context, tok)
}

// expectMember consumes any identifier, keywords included, for use after
// '.' and '::'.
func (p *Parser) expectMember() (token.Token, error) {
	if p.peek().Kind == token.Ident {
		return p.advance(), nil
	}
	return token.Token{}, p.errorAtCurrent("expected member name, found %s", p.peek())
}

func (p *Parser) skipNewlines() {
	for p.peek().Kind == token.Newline {
		p.advance()
	}
}

func (p *Parser) skipSeparators() {
	for p.peek().Kind == token.Newline || p.checkPunct(";") {
		p.advance()
	}
}

// peekPastNewlines reports whether the first token after any newlines
// satisfies match, without consuming anything.
func (p *Parser) peekPastNewlines(match func(token.Token) bool) bool {
	i := p.pos
	for i < len(p.tokens) && p.tokens[i].Kind == token.Newline {
		i++
	}
	return i < len(p.tokens) && match(p.tokens[i])
}

func (p *Parser) atStatementEnd() bool {
	tok := p.peek()
	return tok.Kind == token.Newline || tok.Kind == token.EOF || tok.IsPunct(";") || tok.IsPunct("}")
}

func (p *Parser) errorAtCurrent(format string, args ...any) *ParseError {
	return p.errorAt(p.pos, format, args...)
}

func (p *Parser) errorAt(index int, format string, args ...any) *ParseError {
	if index >= len(p.tokens) {
		index = len(p.tokens) - 1
	}
	return &ParseError{Message: fmt.Sprintf(format, args...), Index: index, Token: p.tokens[index]}
}
