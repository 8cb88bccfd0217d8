package ast

import "cinder/interpreter-go/pkg/token"

// FunctionDef is a named declaration or, with an empty Name, an anonymous
// function expression.
type FunctionDef struct {
	nodeImpl
	expressionMarker
	statementMarker

	Name   string   `json:"name,omitempty"`
	Params []string `json:"params"`
	Body   *Block   `json:"body"`
}

func NewFunctionDef(tok token.Token, name string, params []string, body *Block) *FunctionDef {
	return &FunctionDef{nodeImpl: newNodeImpl(NodeFunctionDef, tok), Name: name, Params: params, Body: body}
}

type FieldDef struct {
	Tok   token.Token `json:"-"`
	Name  string      `json:"name"`
	Value Expression  `json:"value,omitempty"`
}

type ClassDef struct {
	nodeImpl
	statementMarker

	Name        string         `json:"name"`
	Fields      []*FieldDef    `json:"fields"`
	Constructor *FunctionDef   `json:"constructor,omitempty"`
	Methods     []*FunctionDef `json:"methods"`
}

func NewClassDef(tok token.Token, name string, fields []*FieldDef, constructor *FunctionDef, methods []*FunctionDef) *ClassDef {
	return &ClassDef{nodeImpl: newNodeImpl(NodeClassDef, tok), Name: name, Fields: fields, Constructor: constructor, Methods: methods}
}

// Hoisted reports whether a statement is evaluated before the rest of its
// file or namespace body.
func Hoisted(stmt Statement) bool {
	switch s := stmt.(type) {
	case *FunctionDef:
		return s.Name != ""
	case *ClassDef:
		return true
	default:
		return false
	}
}

// Control structures

type Block struct {
	nodeImpl
	expressionMarker
	statementMarker

	Body []Statement `json:"body"`
}

func NewBlock(tok token.Token, body []Statement) *Block {
	return &Block{nodeImpl: newNodeImpl(NodeBlock, tok), Body: body}
}

type ElifClause struct {
	Condition Expression `json:"condition"`
	Body      *Block     `json:"body"`
}

type If struct {
	nodeImpl
	expressionMarker
	statementMarker

	Condition Expression    `json:"condition"`
	Then      *Block        `json:"then"`
	Elifs     []*ElifClause `json:"elifs,omitempty"`
	Else      *Block        `json:"else,omitempty"`
}

func NewIf(tok token.Token, condition Expression, then *Block, elifs []*ElifClause, elseBlock *Block) *If {
	return &If{nodeImpl: newNodeImpl(NodeIf, tok), Condition: condition, Then: then, Elifs: elifs, Else: elseBlock}
}

type While struct {
	nodeImpl
	expressionMarker
	statementMarker

	Condition Expression `json:"condition"`
	Body      *Block     `json:"body"`
}

func NewWhile(tok token.Token, condition Expression, body *Block) *While {
	return &While{nodeImpl: newNodeImpl(NodeWhile, tok), Condition: condition, Body: body}
}

type For struct {
	nodeImpl
	expressionMarker
	statementMarker

	Variable string     `json:"variable"`
	Iterable Expression `json:"iterable"`
	Body     *Block     `json:"body"`
}

func NewFor(tok token.Token, variable string, iterable Expression, body *Block) *For {
	return &For{nodeImpl: newNodeImpl(NodeFor, tok), Variable: variable, Iterable: iterable, Body: body}
}

type SwitchCase struct {
	Values []Expression `json:"values"`
	Body   *Block       `json:"body"`
}

type Switch struct {
	nodeImpl
	expressionMarker
	statementMarker

	Subject Expression    `json:"subject"`
	Cases   []*SwitchCase `json:"cases"`
	Default *Block        `json:"default,omitempty"`
}

func NewSwitch(tok token.Token, subject Expression, cases []*SwitchCase, defaultBlock *Block) *Switch {
	return &Switch{nodeImpl: newNodeImpl(NodeSwitch, tok), Subject: subject, Cases: cases, Default: defaultBlock}
}

// Non-local exits. Value is nil when omitted.

type Return struct {
	nodeImpl
	statementMarker

	Value Expression `json:"value,omitempty"`
}

func NewReturn(tok token.Token, value Expression) *Return {
	return &Return{nodeImpl: newNodeImpl(NodeReturn, tok), Value: value}
}

type Break struct {
	nodeImpl
	statementMarker

	Value Expression `json:"value,omitempty"`
}

func NewBreak(tok token.Token, value Expression) *Break {
	return &Break{nodeImpl: newNodeImpl(NodeBreak, tok), Value: value}
}

type Continue struct {
	nodeImpl
	statementMarker
}

func NewContinue(tok token.Token) *Continue {
	return &Continue{nodeImpl: newNodeImpl(NodeContinue, tok)}
}

// Out ends the current loop iteration and contributes Value to the loop's
// collected result.
type Out struct {
	nodeImpl
	statementMarker

	Value Expression `json:"value"`
}

func NewOut(tok token.Token, value Expression) *Out {
	return &Out{nodeImpl: newNodeImpl(NodeOut, tok), Value: value}
}

// Directives

// UsingDirective binds namespaces into the current scope:
//
//	using a.b          -> binds b
//	using a.b as c     -> binds c
//	using a.*          -> copies every member of a
//	using a.{b, c}     -> binds b and c
type UsingDirective struct {
	nodeImpl
	statementMarker

	Path      []string `json:"path"`
	Alias     string   `json:"alias,omitempty"`
	Wildcard  bool     `json:"wildcard,omitempty"`
	Selectors []string `json:"selectors,omitempty"`
}

func NewUsingDirective(tok token.Token, path []string, alias string, wildcard bool, selectors []string) *UsingDirective {
	return &UsingDirective{nodeImpl: newNodeImpl(NodeUsingDirective, tok), Path: path, Alias: alias, Wildcard: wildcard, Selectors: selectors}
}

type NamespaceDirective struct {
	nodeImpl
	statementMarker

	Path    []string `json:"path"`
	Mutable bool     `json:"mutable,omitempty"`
	Body    *Block   `json:"body"`
}

func NewNamespaceDirective(tok token.Token, path []string, mutable bool, body *Block) *NamespaceDirective {
	return &NamespaceDirective{nodeImpl: newNodeImpl(NodeNamespaceDirective, tok), Path: path, Mutable: mutable, Body: body}
}

type IncludeDirective struct {
	nodeImpl
	statementMarker

	Paths []string `json:"paths"`
}

func NewIncludeDirective(tok token.Token, paths []string) *IncludeDirective {
	return &IncludeDirective{nodeImpl: newNodeImpl(NodeIncludeDirective, tok), Paths: paths}
}
