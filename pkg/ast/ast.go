package ast

import "cinder/interpreter-go/pkg/token"

type NodeType string

const (
	NodeProgram             NodeType = "Program"
	NodeNumberLiteral       NodeType = "NumberLiteral"
	NodeStringLiteral       NodeType = "StringLiteral"
	NodeBoolLiteral         NodeType = "BoolLiteral"
	NodeNullLiteral         NodeType = "NullLiteral"
	NodeListLiteral         NodeType = "ListLiteral"
	NodeTupleLiteral        NodeType = "TupleLiteral"
	NodeDictLiteral         NodeType = "DictLiteral"
	NodeRangeLiteral        NodeType = "RangeLiteral"
	NodeBinaryOp            NodeType = "BinaryOp"
	NodeLogicalOp           NodeType = "LogicalOp"
	NodeUnaryOp             NodeType = "UnaryOp"
	NodeVariable            NodeType = "Variable"
	NodeLetDeclaration      NodeType = "LetDeclaration"
	NodeAssignment          NodeType = "Assignment"
	NodeShorthandAssignment NodeType = "ShorthandAssignment"
	NodeMemberAccess        NodeType = "MemberAccess"
	NodeIndexAccess         NodeType = "IndexAccess"
	NodeMemberAssignment    NodeType = "MemberAssignment"
	NodeFunctionCall        NodeType = "FunctionCall"
	NodeFunctionDef         NodeType = "FunctionDef"
	NodeClassDef            NodeType = "ClassDef"
	NodeBlock               NodeType = "Block"
	NodeIf                  NodeType = "If"
	NodeWhile               NodeType = "While"
	NodeFor                 NodeType = "For"
	NodeSwitch              NodeType = "Switch"
	NodeReturn              NodeType = "Return"
	NodeBreak               NodeType = "Break"
	NodeContinue            NodeType = "Continue"
	NodeOut                 NodeType = "Out"
	NodeUsingDirective      NodeType = "UsingDirective"
	NodeNamespaceDirective  NodeType = "NamespaceDirective"
	NodeIncludeDirective    NodeType = "IncludeDirective"
)

// Node is implemented by every syntax tree variant. Origin is the token the
// node was parsed from and is used for diagnostics only.
type Node interface {
	NodeType() NodeType
	Origin() token.Token
	isNode()
}

type nodeImpl struct {
	Type NodeType    `json:"type"`
	Tok  token.Token `json:"-"`
}

func newNodeImpl(kind NodeType, tok token.Token) nodeImpl {
	return nodeImpl{Type: kind, Tok: tok}
}

func (n nodeImpl) NodeType() NodeType  { return n.Type }
func (n nodeImpl) Origin() token.Token { return n.Tok }
func (nodeImpl) isNode()               {}

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
	statementNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

// Program is the parsed contents of one source file.
type Program struct {
	nodeImpl

	File string      `json:"file"`
	Body []Statement `json:"body"`
}

func NewProgram(file string, body []Statement) *Program {
	return &Program{nodeImpl: newNodeImpl(NodeProgram, token.Token{File: file, Line: 1, Column: 1}), File: file, Body: body}
}

// Literals

type NumberLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Value float64 `json:"value"`
}

func NewNumberLiteral(tok token.Token, value float64) *NumberLiteral {
	return &NumberLiteral{nodeImpl: newNodeImpl(NodeNumberLiteral, tok), Value: value}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Value string `json:"value"`
}

func NewStringLiteral(tok token.Token, value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral, tok), Value: value}
}

type BoolLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Value bool `json:"value"`
}

func NewBoolLiteral(tok token.Token, value bool) *BoolLiteral {
	return &BoolLiteral{nodeImpl: newNodeImpl(NodeBoolLiteral, tok), Value: value}
}

type NullLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
}

func NewNullLiteral(tok token.Token) *NullLiteral {
	return &NullLiteral{nodeImpl: newNodeImpl(NodeNullLiteral, tok)}
}

type ListLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Elements []Expression `json:"elements"`
}

func NewListLiteral(tok token.Token, elements []Expression) *ListLiteral {
	return &ListLiteral{nodeImpl: newNodeImpl(NodeListLiteral, tok), Elements: elements}
}

type TupleLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Elements []Expression `json:"elements"`
}

func NewTupleLiteral(tok token.Token, elements []Expression) *TupleLiteral {
	return &TupleLiteral{nodeImpl: newNodeImpl(NodeTupleLiteral, tok), Elements: elements}
}

type DictEntry struct {
	Key   Expression `json:"key"`
	Value Expression `json:"value"`
}

type DictLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Entries []*DictEntry `json:"entries"`
}

func NewDictLiteral(tok token.Token, entries []*DictEntry) *DictLiteral {
	return &DictLiteral{nodeImpl: newNodeImpl(NodeDictLiteral, tok), Entries: entries}
}

// RangeLiteral describes `start..end`, `start..=end` and an optional `step`.
// Step is nil when omitted.
type RangeLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Start     Expression `json:"start"`
	End       Expression `json:"end"`
	Step      Expression `json:"step,omitempty"`
	Inclusive bool       `json:"inclusive"`
}

func NewRangeLiteral(tok token.Token, start, end, step Expression, inclusive bool) *RangeLiteral {
	return &RangeLiteral{nodeImpl: newNodeImpl(NodeRangeLiteral, tok), Start: start, End: end, Step: step, Inclusive: inclusive}
}

// Operators

type BinaryOp struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator string     `json:"operator"`
	Left     Expression `json:"left"`
	Right    Expression `json:"right"`
}

func NewBinaryOp(tok token.Token, operator string, left, right Expression) *BinaryOp {
	return &BinaryOp{nodeImpl: newNodeImpl(NodeBinaryOp, tok), Operator: operator, Left: left, Right: right}
}

// LogicalOp covers the short-circuiting operators `&&`, `||` and `??`.
type LogicalOp struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator string     `json:"operator"`
	Left     Expression `json:"left"`
	Right    Expression `json:"right"`
}

func NewLogicalOp(tok token.Token, operator string, left, right Expression) *LogicalOp {
	return &LogicalOp{nodeImpl: newNodeImpl(NodeLogicalOp, tok), Operator: operator, Left: left, Right: right}
}

type UnaryOperator string

const (
	UnaryNegate      UnaryOperator = "-"
	UnaryPlus        UnaryOperator = "+"
	UnaryNot         UnaryOperator = "!"
	UnaryInterpolate UnaryOperator = "$"
)

type UnaryOp struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator UnaryOperator `json:"operator"`
	Operand  Expression    `json:"operand"`
}

func NewUnaryOp(tok token.Token, operator UnaryOperator, operand Expression) *UnaryOp {
	return &UnaryOp{nodeImpl: newNodeImpl(NodeUnaryOp, tok), Operator: operator, Operand: operand}
}

// Names and assignment

type Variable struct {
	nodeImpl
	expressionMarker
	statementMarker

	Name string `json:"name"`
}

func NewVariable(tok token.Token, name string) *Variable {
	return &Variable{nodeImpl: newNodeImpl(NodeVariable, tok), Name: name}
}

type LetDeclaration struct {
	nodeImpl
	expressionMarker
	statementMarker

	Name     string     `json:"name"`
	Value    Expression `json:"value,omitempty"`
	Constant bool       `json:"constant"`
}

func NewLetDeclaration(tok token.Token, name string, value Expression, constant bool) *LetDeclaration {
	return &LetDeclaration{nodeImpl: newNodeImpl(NodeLetDeclaration, tok), Name: name, Value: value, Constant: constant}
}

type Assignment struct {
	nodeImpl
	expressionMarker
	statementMarker

	Name  string     `json:"name"`
	Value Expression `json:"value"`
}

func NewAssignment(tok token.Token, name string, value Expression) *Assignment {
	return &Assignment{nodeImpl: newNodeImpl(NodeAssignment, tok), Name: name, Value: value}
}

// ShorthandAssignment is `target op= value`, `target++` or `target--`.
// Target is a Variable, MemberAccess or IndexAccess; Value is nil for ++/--.
type ShorthandAssignment struct {
	nodeImpl
	expressionMarker
	statementMarker

	Target   Expression `json:"target"`
	Operator string     `json:"operator"`
	Value    Expression `json:"value,omitempty"`
}

func NewShorthandAssignment(tok token.Token, target Expression, operator string, value Expression) *ShorthandAssignment {
	return &ShorthandAssignment{nodeImpl: newNodeImpl(NodeShorthandAssignment, tok), Target: target, Operator: operator, Value: value}
}

// BinaryOperator returns the arithmetic operator a shorthand form applies.
func (s *ShorthandAssignment) BinaryOperator() string {
	switch s.Operator {
	case "++":
		return "+"
	case "--":
		return "-"
	default:
		return s.Operator[:len(s.Operator)-1]
	}
}

type MemberAccess struct {
	nodeImpl
	expressionMarker
	statementMarker

	Object Expression `json:"object"`
	Member string     `json:"member"`
}

func NewMemberAccess(tok token.Token, object Expression, member string) *MemberAccess {
	return &MemberAccess{nodeImpl: newNodeImpl(NodeMemberAccess, tok), Object: object, Member: member}
}

type IndexAccess struct {
	nodeImpl
	expressionMarker
	statementMarker

	Object Expression `json:"object"`
	Index  Expression `json:"index"`
}

func NewIndexAccess(tok token.Token, object, index Expression) *IndexAccess {
	return &IndexAccess{nodeImpl: newNodeImpl(NodeIndexAccess, tok), Object: object, Index: index}
}

// MemberAssignment stores into a MemberAccess or IndexAccess target.
type MemberAssignment struct {
	nodeImpl
	expressionMarker
	statementMarker

	Target Expression `json:"target"`
	Value  Expression `json:"value"`
}

func NewMemberAssignment(tok token.Token, target, value Expression) *MemberAssignment {
	return &MemberAssignment{nodeImpl: newNodeImpl(NodeMemberAssignment, tok), Target: target, Value: value}
}

type FunctionCall struct {
	nodeImpl
	expressionMarker
	statementMarker

	Callee    Expression   `json:"callee"`
	Arguments []Expression `json:"arguments"`
}

func NewFunctionCall(tok token.Token, callee Expression, args []Expression) *FunctionCall {
	return &FunctionCall{nodeImpl: newNodeImpl(NodeFunctionCall, tok), Callee: callee, Arguments: args}
}
