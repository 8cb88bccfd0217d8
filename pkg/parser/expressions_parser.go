package parser

import (
	"strconv"

	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/token"
)

var (
	comparisonOperators     = []string{"==", "!=", "<=", ">=", "<", ">"}
	additiveOperators       = []string{"+", "-"}
	multiplicativeOperators = []string{"*", "/", "%", "//"}
)

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseNullish()
}

// parseLogical builds one left-associative level of short-circuit operators.
func (p *Parser) parseLogical(operator string, next func() (ast.Expression, error)) (ast.Expression, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.checkPunct(operator) {
		op := p.advance()
		p.skipNewlines()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = ast.NewLogicalOp(op, operator, left, right)
	}
	return left, nil
}

func (p *Parser) parseNullish() (ast.Expression, error) {
	return p.parseLogical("??", p.parseOr)
}

func (p *Parser) parseOr() (ast.Expression, error) {
	return p.parseLogical("||", p.parseAnd)
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	return p.parseLogical("&&", p.parseComparison)
}

func (p *Parser) parseBinaryLevel(operators []string, next func() (ast.Expression, error)) (ast.Expression, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOperator(operators)
		if !ok {
			return left, nil
		}
		p.skipNewlines()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(op, op.Lexeme, left, right)
	}
}

func (p *Parser) matchOperator(operators []string) (token.Token, bool) {
	tok := p.peek()
	if tok.Kind != token.Punct {
		return tok, false
	}
	for _, op := range operators {
		if tok.Lexeme == op {
			p.advance()
			return tok, true
		}
	}
	return tok, false
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	return p.parseBinaryLevel(comparisonOperators, p.parseRange)
}

func (p *Parser) parseRange() (ast.Expression, error) {
	start, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if !p.checkPunct("..") {
		return start, nil
	}
	dots := p.advance()
	inclusive := p.matchPunct("=")
	end, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	var step ast.Expression
	if p.matchKeyword("step") {
		if step, err = p.parseAdditive(); err != nil {
			return nil, err
		}
	}
	return ast.NewRangeLiteral(dots, start, end, step, inclusive), nil
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	return p.parseBinaryLevel(additiveOperators, p.parseTerm)
}

func (p *Parser) parseTerm() (ast.Expression, error) {
	return p.parseBinaryLevel(multiplicativeOperators, p.parseUnary)
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	tok := p.peek()
	if tok.Kind == token.Punct {
		var op ast.UnaryOperator
		switch tok.Lexeme {
		case "-":
			op = ast.UnaryNegate
		case "+":
			op = ast.UnaryPlus
		case "!":
			op = ast.UnaryNot
		case "$":
			op = ast.UnaryInterpolate
		}
		if op != "" {
			p.advance()
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return ast.NewUnaryOp(tok, op, operand), nil
		}
	}
	return p.parsePower()
}

// parsePower handles '^', which is right associative and binds tighter than
// a unary prefix on its left: -2^2 is -(2^2).
func (p *Parser) parsePower() (ast.Expression, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if !p.checkPunct("^") {
		return base, nil
	}
	op := p.advance()
	p.skipNewlines()
	exponent, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return ast.NewBinaryOp(op, "^", base, exponent), nil
}

// parsePostfix parses member, index and call chains left to right.
func (p *Parser) parsePostfix() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch {
		case tok.IsPunct(".") || tok.IsPunct("::"):
			p.advance()
			member, err := p.expectMember()
			if err != nil {
				return nil, err
			}
			expr = ast.NewMemberAccess(member, expr, member.Lexeme)
		case tok.IsPunct("["):
			p.advance()
			p.skipNewlines()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			p.skipNewlines()
			if _, err := p.expectPunct("]", "after index"); err != nil {
				return nil, err
			}
			expr = ast.NewIndexAccess(tok, expr, index)
		case tok.IsPunct("("):
			p.advance()
			args, err := p.parseExpressionList(")", "argument list")
			if err != nil {
				return nil, err
			}
			expr = ast.NewFunctionCall(tok, expr, args)
		default:
			return expr, nil
		}
	}
}

// parseExpressionList reads comma separated expressions up to and including
// the closing delimiter. Newlines and a trailing comma are allowed.
func (p *Parser) parseExpressionList(closing, what string) ([]ast.Expression, error) {
	items := make([]ast.Expression, 0)
	for {
		p.skipNewlines()
		if p.matchPunct(closing) {
			return items, nil
		}
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		p.skipNewlines()
		if !p.matchPunct(",") && !p.checkPunct(closing) {
			return nil, p.errorAtCurrent("expected ',' or '%s' in %s, found %s", closing, what, p.peek())
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.peek()
	switch tok.Kind {
	case token.Number:
		p.advance()
		value, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, p.errorAt(p.pos-1, "invalid number literal '%s'", tok.Lexeme)
		}
		return ast.NewNumberLiteral(tok, value), nil
	case token.String:
		p.advance()
		return ast.NewStringLiteral(tok, tok.Lexeme), nil
	case token.Ident:
		return p.parseIdentifierExpression()
	case token.Punct:
		switch tok.Lexeme {
		case "(":
			return p.parseGroupOrTuple()
		case "[":
			p.advance()
			elements, err := p.parseExpressionList("]", "list literal")
			if err != nil {
				return nil, err
			}
			return ast.NewListLiteral(tok, elements), nil
		case "{":
			return p.parseDictLiteral()
		}
	}
	if tok.Kind == token.EOF {
		return nil, p.errorAtCurrent("unexpected end of input, expected expression")
	}
	return nil, p.errorAtCurrent("unexpected %s, expected expression", tok)
}

func (p *Parser) parseIdentifierExpression() (ast.Expression, error) {
	tok := p.peek()
	switch tok.Lexeme {
	case "true", "false":
		p.advance()
		return ast.NewBoolLiteral(tok, tok.Lexeme == "true"), nil
	case "null":
		p.advance()
		return ast.NewNullLiteral(tok), nil
	case "func":
		return p.parseAnonymousFunction()
	case "if":
		return p.parseIf()
	case "while":
		return p.parseWhile()
	case "for":
		return p.parseFor()
	case "switch":
		return p.parseSwitch()
	}
	if token.Keywords[tok.Lexeme] {
		return nil, p.errorAtCurrent("unexpected keyword '%s'", tok.Lexeme)
	}
	p.advance()
	return ast.NewVariable(tok, tok.Lexeme), nil
}

// parseGroupOrTuple distinguishes `(expr)` from tuples: `()`, `(a,)` and
// `(a, b, ...)`.
func (p *Parser) parseGroupOrTuple() (ast.Expression, error) {
	open := p.advance()
	p.skipNewlines()
	if p.matchPunct(")") {
		return ast.NewTupleLiteral(open, nil), nil
	}
	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if p.matchPunct(")") {
		return first, nil
	}
	if !p.matchPunct(",") {
		return nil, p.errorAtCurrent("expected ',' or ')' after expression, found %s", p.peek())
	}
	rest, err := p.parseExpressionList(")", "tuple")
	if err != nil {
		return nil, err
	}
	return ast.NewTupleLiteral(open, append([]ast.Expression{first}, rest...)), nil
}

// parseDictLiteral parses `{key: value, ...}`. A bare identifier key is taken
// as a string; any other key is an expression.
func (p *Parser) parseDictLiteral() (ast.Expression, error) {
	open := p.advance()
	entries := make([]*ast.DictEntry, 0)
	for {
		p.skipNewlines()
		if p.matchPunct("}") {
			return ast.NewDictLiteral(open, entries), nil
		}
		var key ast.Expression
		if tok := p.peek(); tok.Kind == token.Ident && p.peekAt(1).IsPunct(":") && !token.Keywords[tok.Lexeme] {
			p.advance()
			key = ast.NewStringLiteral(tok, tok.Lexeme)
		} else {
			var err error
			if key, err = p.parseExpression(); err != nil {
				return nil, err
			}
		}
		if _, err := p.expectPunct(":", "after dictionary key"); err != nil {
			return nil, err
		}
		p.skipNewlines()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		entries = append(entries, &ast.DictEntry{Key: key, Value: value})
		p.skipNewlines()
		if !p.matchPunct(",") && !p.checkPunct("}") {
			return nil, p.errorAtCurrent("expected ',' or '}' in dictionary literal, found %s", p.peek())
		}
	}
}
