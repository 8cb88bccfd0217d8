package parser

import (
	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/token"
)

var shorthandOperators = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "^=": true, "%=": true,
}

// parseStatementList reads statements separated by newlines or ';' until done
// reports true. The terminating token is left unconsumed.
func (p *Parser) parseStatementList(done func() bool) ([]ast.Statement, error) {
	body := make([]ast.Statement, 0)
	for {
		p.skipSeparators()
		if done() || p.isAtEnd() {
			return body, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
		if !p.atStatementEnd() {
			return nil, p.errorAtCurrent("expected newline or ';' after statement, found %s", p.peek())
		}
	}
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	tok := p.peek()
	if tok.Kind == token.Ident {
		switch tok.Lexeme {
		case "let":
			return p.parseLetDeclaration()
		case "func":
			if p.peekAt(1).Kind == token.Ident {
				return p.parseFunctionDefinition()
			}
		case "class":
			return p.parseClassDefinition()
		case "return":
			p.advance()
			value, err := p.parseOptionalValue()
			if err != nil {
				return nil, err
			}
			return ast.NewReturn(tok, value), nil
		case "break":
			p.advance()
			value, err := p.parseOptionalValue()
			if err != nil {
				return nil, err
			}
			return ast.NewBreak(tok, value), nil
		case "continue":
			p.advance()
			return ast.NewContinue(tok), nil
		case "out":
			p.advance()
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return ast.NewOut(tok, value), nil
		case "using":
			return p.parseUsingDirective()
		case "namespace":
			return p.parseNamespaceDirective()
		case "include":
			return p.parseIncludeDirective()
		}
	}
	if tok.IsPunct("{") {
		return p.parseBlock()
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseOptionalValue() (ast.Expression, error) {
	if p.atStatementEnd() {
		return nil, nil
	}
	return p.parseExpression()
}

// parseExpressionStatement parses an expression and any assignment suffix
// that turns it into an Assignment, MemberAssignment or ShorthandAssignment.
func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	start := p.pos
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return p.parseAssignmentSuffix(expr, start)
}

func (p *Parser) parseAssignmentSuffix(target ast.Expression, start int) (ast.Expression, error) {
	op := p.peek()
	switch {
	case op.IsPunct("="):
		p.advance()
		p.skipNewlines()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		switch t := target.(type) {
		case *ast.Variable:
			return ast.NewAssignment(t.Origin(), t.Name, value), nil
		case *ast.MemberAccess, *ast.IndexAccess:
			return ast.NewMemberAssignment(op, target, value), nil
		default:
			return nil, p.errorAt(start, "invalid assignment target")
		}
	case op.Kind == token.Punct && shorthandOperators[op.Lexeme]:
		if !assignable(target) {
			return nil, p.errorAt(start, "invalid target for '%s'", op.Lexeme)
		}
		p.advance()
		p.skipNewlines()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return ast.NewShorthandAssignment(op, target, op.Lexeme, value), nil
	case op.IsPunct("++") || op.IsPunct("--"):
		if !assignable(target) {
			return nil, p.errorAt(start, "invalid target for '%s'", op.Lexeme)
		}
		p.advance()
		return ast.NewShorthandAssignment(op, target, op.Lexeme, nil), nil
	}
	return target, nil
}

func assignable(expr ast.Expression) bool {
	switch expr.(type) {
	case *ast.Variable, *ast.MemberAccess, *ast.IndexAccess:
		return true
	default:
		return false
	}
}

func (p *Parser) parseLetDeclaration() (ast.Statement, error) {
	letTok := p.advance()
	constant := p.matchKeyword("const")
	name, err := p.expectName("after 'let'")
	if err != nil {
		return nil, err
	}
	var value ast.Expression
	if p.matchPunct("=") {
		p.skipNewlines()
		if value, err = p.parseExpression(); err != nil {
			return nil, err
		}
	} else if constant {
		return nil, p.errorAtCurrent("constant '%s' needs an initializer", name.Lexeme)
	}
	return ast.NewLetDeclaration(letTok, name.Lexeme, value, constant), nil
}

// parseBlock parses `{ statements }`. Blocks nest, so anything parsed inside
// one is no longer at the top level.
func (p *Parser) parseBlock() (*ast.Block, error) {
	open, err := p.expectPunct("{", "to open block")
	if err != nil {
		return nil, err
	}
	p.depth++
	defer func() { p.depth-- }()
	body, err := p.parseStatementList(func() bool { return p.checkPunct("}") })
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("}", "to close block"); err != nil {
		return nil, err
	}
	return ast.NewBlock(open, body), nil
}

func (p *Parser) parseIf() (ast.Expression, error) {
	ifTok := p.advance()
	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elifs []*ast.ElifClause
	for p.peekPastNewlines(func(t token.Token) bool { return t.IsKeyword("elif") }) {
		p.skipNewlines()
		p.advance()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		elifs = append(elifs, &ast.ElifClause{Condition: cond, Body: body})
	}
	var elseBlock *ast.Block
	if p.peekPastNewlines(func(t token.Token) bool { return t.IsKeyword("else") }) {
		p.skipNewlines()
		p.advance()
		if p.checkKeyword("if") {
			nested, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			elseBlock = ast.NewBlock(nested.Origin(), []ast.Statement{nested})
		} else if elseBlock, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	return ast.NewIf(ifTok, condition, then, elifs, elseBlock), nil
}

func (p *Parser) parseWhile() (ast.Expression, error) {
	whileTok := p.advance()
	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewWhile(whileTok, condition, body), nil
}

func (p *Parser) parseFor() (ast.Expression, error) {
	forTok := p.advance()
	name, err := p.expectName("after 'for'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("in", "after loop variable"); err != nil {
		return nil, err
	}
	iterable, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewFor(forTok, name.Lexeme, iterable, body), nil
}

func (p *Parser) parseSwitch() (ast.Expression, error) {
	switchTok := p.advance()
	subject, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{", "to open switch"); err != nil {
		return nil, err
	}
	var (
		cases        []*ast.SwitchCase
		defaultBlock *ast.Block
	)
	for {
		p.skipSeparators()
		if p.checkPunct("}") {
			p.advance()
			break
		}
		switch {
		case p.matchKeyword("case"):
			values := make([]ast.Expression, 0, 1)
			for {
				value, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				values = append(values, value)
				if !p.matchPunct(",") {
					break
				}
				p.skipNewlines()
			}
			body, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			cases = append(cases, &ast.SwitchCase{Values: values, Body: body})
		case p.checkKeyword("default"):
			if defaultBlock != nil {
				return nil, p.errorAtCurrent("switch has more than one default")
			}
			p.advance()
			if defaultBlock, err = p.parseBlock(); err != nil {
				return nil, err
			}
		default:
			return nil, p.errorAtCurrent("expected 'case', 'default' or '}' in switch, found %s", p.peek())
		}
	}
	return ast.NewSwitch(switchTok, subject, cases, defaultBlock), nil
}
