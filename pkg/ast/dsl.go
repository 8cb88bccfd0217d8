package ast

import "cinder/interpreter-go/pkg/token"

// Builders for constructing trees by hand, mostly in tests. Nodes built this
// way carry a zero origin token.

var noTok token.Token

// Identifier and literal helpers.

func Num(value float64) *NumberLiteral {
	return NewNumberLiteral(noTok, value)
}

func Str(value string) *StringLiteral {
	return NewStringLiteral(noTok, value)
}

func Bool(value bool) *BoolLiteral {
	return NewBoolLiteral(noTok, value)
}

func Null() *NullLiteral {
	return NewNullLiteral(noTok)
}

func List(elements ...Expression) *ListLiteral {
	return NewListLiteral(noTok, elements)
}

func Tuple(elements ...Expression) *TupleLiteral {
	return NewTupleLiteral(noTok, elements)
}

func Dict(entries ...*DictEntry) *DictLiteral {
	return NewDictLiteral(noTok, entries)
}

func Entry(key, value Expression) *DictEntry {
	return &DictEntry{Key: key, Value: value}
}

func Range(start, end Expression, inclusive bool) *RangeLiteral {
	return NewRangeLiteral(noTok, start, end, nil, inclusive)
}

func RangeStep(start, end, step Expression, inclusive bool) *RangeLiteral {
	return NewRangeLiteral(noTok, start, end, step, inclusive)
}

func ID(name string) *Variable {
	return NewVariable(noTok, name)
}

// Operators.

func Bin(op string, left, right Expression) *BinaryOp {
	return NewBinaryOp(noTok, op, left, right)
}

func Logic(op string, left, right Expression) *LogicalOp {
	return NewLogicalOp(noTok, op, left, right)
}

func Un(op UnaryOperator, operand Expression) *UnaryOp {
	return NewUnaryOp(noTok, op, operand)
}

func Interp(template string) *UnaryOp {
	return NewUnaryOp(noTok, UnaryInterpolate, Str(template))
}

// Bindings and access.

func Let(name string, value Expression) *LetDeclaration {
	return NewLetDeclaration(noTok, name, value, false)
}

func Const(name string, value Expression) *LetDeclaration {
	return NewLetDeclaration(noTok, name, value, true)
}

func Assign(name string, value Expression) *Assignment {
	return NewAssignment(noTok, name, value)
}

func Shorthand(target Expression, op string, value Expression) *ShorthandAssignment {
	return NewShorthandAssignment(noTok, target, op, value)
}

func Member(object Expression, member string) *MemberAccess {
	return NewMemberAccess(noTok, object, member)
}

func Index(object, index Expression) *IndexAccess {
	return NewIndexAccess(noTok, object, index)
}

func SetMember(target, value Expression) *MemberAssignment {
	return NewMemberAssignment(noTok, target, value)
}

func Call(callee Expression, args ...Expression) *FunctionCall {
	return NewFunctionCall(noTok, callee, args)
}

func CallName(name string, args ...Expression) *FunctionCall {
	return NewFunctionCall(noTok, ID(name), args)
}

// Definitions and control flow.

func Body(stmts ...Statement) *Block {
	return NewBlock(noTok, stmts)
}

func Fn(name string, params []string, body ...Statement) *FunctionDef {
	return NewFunctionDef(noTok, name, params, Body(body...))
}

func Lambda(params []string, body ...Statement) *FunctionDef {
	return NewFunctionDef(noTok, "", params, Body(body...))
}

func Field(name string, value Expression) *FieldDef {
	return &FieldDef{Name: name, Value: value}
}

func Class(name string, fields []*FieldDef, constructor *FunctionDef, methods ...*FunctionDef) *ClassDef {
	return NewClassDef(noTok, name, fields, constructor, methods)
}

func IfElse(condition Expression, then *Block, elseBlock *Block) *If {
	return NewIf(noTok, condition, then, nil, elseBlock)
}

func Elif(condition Expression, body *Block) *ElifClause {
	return &ElifClause{Condition: condition, Body: body}
}

func WhileLoop(condition Expression, body ...Statement) *While {
	return NewWhile(noTok, condition, Body(body...))
}

func ForIn(variable string, iterable Expression, body ...Statement) *For {
	return NewFor(noTok, variable, iterable, Body(body...))
}

func Case(body *Block, values ...Expression) *SwitchCase {
	return &SwitchCase{Values: values, Body: body}
}

func SwitchOn(subject Expression, defaultBlock *Block, cases ...*SwitchCase) *Switch {
	return NewSwitch(noTok, subject, cases, defaultBlock)
}

func Ret(value Expression) *Return {
	return NewReturn(noTok, value)
}

func Brk(value Expression) *Break {
	return NewBreak(noTok, value)
}

func Cont() *Continue {
	return NewContinue(noTok)
}

func Emit(value Expression) *Out {
	return NewOut(noTok, value)
}

// Directives.

func Using(path ...string) *UsingDirective {
	return NewUsingDirective(noTok, path, "", false, nil)
}

func UsingAs(alias string, path ...string) *UsingDirective {
	return NewUsingDirective(noTok, path, alias, false, nil)
}

func UsingAll(path ...string) *UsingDirective {
	return NewUsingDirective(noTok, path, "", true, nil)
}

func Namespace(path []string, mutable bool, body ...Statement) *NamespaceDirective {
	return NewNamespaceDirective(noTok, path, mutable, Body(body...))
}

func Include(paths ...string) *IncludeDirective {
	return NewIncludeDirective(noTok, paths)
}

func Prog(body ...Statement) *Program {
	return NewProgram("", body)
}
