package parser

import (
	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/token"
)

func (p *Parser) parseFunctionDefinition() (ast.Statement, error) {
	funcTok := p.advance()
	name, err := p.expectName("after 'func'")
	if err != nil {
		return nil, err
	}
	params, err := p.parseParameterList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewFunctionDef(funcTok, name.Lexeme, params, body), nil
}

// parseAnonymousFunction parses `func(params) { ... }` and
// `func(params) => statement`.
func (p *Parser) parseAnonymousFunction() (ast.Expression, error) {
	funcTok := p.advance()
	params, err := p.parseParameterList()
	if err != nil {
		return nil, err
	}
	if arrow := p.peek(); arrow.IsPunct("=>") {
		p.advance()
		p.skipNewlines()
		stmt, err := p.parseExpressionStatement()
		if err != nil {
			return nil, err
		}
		return ast.NewFunctionDef(funcTok, "", params, ast.NewBlock(arrow, []ast.Statement{stmt})), nil
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewFunctionDef(funcTok, "", params, body), nil
}

func (p *Parser) parseParameterList() ([]string, error) {
	if _, err := p.expectPunct("(", "to open parameter list"); err != nil {
		return nil, err
	}
	params := make([]string, 0)
	seen := make(map[string]bool)
	for {
		p.skipNewlines()
		if p.matchPunct(")") {
			return params, nil
		}
		name, err := p.expectName("in parameter list")
		if err != nil {
			return nil, err
		}
		if seen[name.Lexeme] {
			return nil, p.errorAt(p.pos-1, "duplicate parameter '%s'", name.Lexeme)
		}
		seen[name.Lexeme] = true
		params = append(params, name.Lexeme)
		p.skipNewlines()
		if !p.matchPunct(",") && !p.checkPunct(")") {
			return nil, p.errorAtCurrent("expected ',' or ')' in parameter list, found %s", p.peek())
		}
	}
}

// parseClassDefinition parses
//
//	class Name {
//	    let field = value
//	    init(self, args) { ... }
//	    func method(self) { ... }
//	}
func (p *Parser) parseClassDefinition() (ast.Statement, error) {
	classTok := p.advance()
	name, err := p.expectName("after 'class'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{", "to open class body"); err != nil {
		return nil, err
	}
	p.depth++
	defer func() { p.depth-- }()

	var (
		fields      []*ast.FieldDef
		constructor *ast.FunctionDef
		methods     []*ast.FunctionDef
		members     = make(map[string]bool)
	)
	declare := func(tok token.Token) error {
		if members[tok.Lexeme] {
			return p.errorAt(p.pos-1, "class %s declares '%s' more than once", name.Lexeme, tok.Lexeme)
		}
		members[tok.Lexeme] = true
		return nil
	}

	for {
		p.skipSeparators()
		tok := p.peek()
		switch {
		case tok.IsPunct("}"):
			p.advance()
			return ast.NewClassDef(classTok, name.Lexeme, fields, constructor, methods), nil
		case tok.IsKeyword("let"):
			p.advance()
			fieldTok, err := p.expectName("for field")
			if err != nil {
				return nil, err
			}
			if err := declare(fieldTok); err != nil {
				return nil, err
			}
			field := &ast.FieldDef{Tok: fieldTok, Name: fieldTok.Lexeme}
			if p.matchPunct("=") {
				p.skipNewlines()
				if field.Value, err = p.parseExpression(); err != nil {
					return nil, err
				}
			}
			fields = append(fields, field)
		case tok.IsKeyword("init"):
			if constructor != nil {
				return nil, p.errorAtCurrent("class %s declares more than one constructor", name.Lexeme)
			}
			p.advance()
			params, err := p.parseParameterList()
			if err != nil {
				return nil, err
			}
			body, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			constructor = ast.NewFunctionDef(tok, "init", params, body)
		case tok.IsKeyword("func"):
			p.advance()
			methodTok, err := p.expectName("for method")
			if err != nil {
				return nil, err
			}
			if err := declare(methodTok); err != nil {
				return nil, err
			}
			params, err := p.parseParameterList()
			if err != nil {
				return nil, err
			}
			body, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			methods = append(methods, ast.NewFunctionDef(tok, methodTok.Lexeme, params, body))
		default:
			return nil, p.errorAtCurrent("expected 'let', 'init', 'func' or '}' in class body, found %s", tok)
		}
		if !p.atStatementEnd() {
			return nil, p.errorAtCurrent("expected newline or ';' after class member, found %s", p.peek())
		}
	}
}

func (p *Parser) parsePath(context string) ([]string, error) {
	first, err := p.expectName(context)
	if err != nil {
		return nil, err
	}
	path := []string{first.Lexeme}
	for p.checkPunct(".") && p.peekAt(1).Kind == token.Ident {
		p.advance()
		path = append(path, p.advance().Lexeme)
	}
	return path, nil
}

func (p *Parser) parseUsingDirective() (ast.Statement, error) {
	usingTok := p.advance()
	path, err := p.parsePath("after 'using'")
	if err != nil {
		return nil, err
	}
	if p.matchPunct(".") {
		switch {
		case p.matchPunct("*"):
			return ast.NewUsingDirective(usingTok, path, "", true, nil), nil
		case p.matchPunct("{"):
			selectors := make([]string, 0)
			for {
				p.skipNewlines()
				if p.matchPunct("}") {
					break
				}
				sel, err := p.expectName("in using selector list")
				if err != nil {
					return nil, err
				}
				selectors = append(selectors, sel.Lexeme)
				p.skipNewlines()
				if !p.matchPunct(",") && !p.checkPunct("}") {
					return nil, p.errorAtCurrent("expected ',' or '}' in using selector list, found %s", p.peek())
				}
			}
			if len(selectors) == 0 {
				return nil, p.errorAt(p.pos-1, "using selector list is empty")
			}
			return ast.NewUsingDirective(usingTok, path, "", false, selectors), nil
		default:
			return nil, p.errorAtCurrent("expected name, '*' or '{' after '.', found %s", p.peek())
		}
	}
	alias := ""
	if p.matchKeyword("as") {
		aliasTok, err := p.expectName("after 'as'")
		if err != nil {
			return nil, err
		}
		alias = aliasTok.Lexeme
	}
	return ast.NewUsingDirective(usingTok, path, alias, false, nil), nil
}

func (p *Parser) parseNamespaceDirective() (ast.Statement, error) {
	nsTok := p.advance()
	mutable := false
	if p.checkKeyword("mut") && p.peekAt(1).Kind == token.Ident {
		p.advance()
		mutable = true
	}
	path, err := p.parsePath("after 'namespace'")
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewNamespaceDirective(nsTok, path, mutable, body), nil
}

func (p *Parser) parseIncludeDirective() (ast.Statement, error) {
	includeTok := p.advance()
	if p.depth > 0 {
		return nil, p.errorAt(p.pos-1, "include is only allowed at the top level of a file")
	}
	if tok := p.peek(); tok.Kind == token.String {
		p.advance()
		return ast.NewIncludeDirective(includeTok, []string{tok.Lexeme}), nil
	}
	if _, err := p.expectPunct("[", "or file name after 'include'"); err != nil {
		return nil, err
	}
	paths := make([]string, 0)
	for {
		p.skipNewlines()
		if p.matchPunct("]") {
			break
		}
		tok := p.peek()
		if tok.Kind != token.String {
			return nil, p.errorAtCurrent("expected file name in include list, found %s", tok)
		}
		p.advance()
		paths = append(paths, tok.Lexeme)
		p.skipNewlines()
		if !p.matchPunct(",") && !p.checkPunct("]") {
			return nil, p.errorAtCurrent("expected ',' or ']' in include list, found %s", p.peek())
		}
	}
	if len(paths) == 0 {
		return nil, p.errorAt(p.pos-1, "include list is empty")
	}
	return ast.NewIncludeDirective(includeTok, paths), nil
}
