package runtime

import (
	"fmt"
	"io"
	"math"

	"cinder/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
	KindNull
	KindList
	KindTuple
	KindDict
	KindRange
	KindFunction
	KindNativeFunction
	KindBoundMethod
	KindNativeBoundMethod
	KindClass
	KindObject
	KindNamespace
	KindTask
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindDict:
		return "dict"
	case KindRange:
		return "range"
	case KindFunction:
		return "function"
	case KindNativeFunction:
		return "native_function"
	case KindBoundMethod:
		return "bound_method"
	case KindNativeBoundMethod:
		return "native_bound_method"
	case KindClass:
		return "class"
	case KindObject:
		return "object"
	case KindNamespace:
		return "namespace"
	case KindTask:
		return "task"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NumberValue struct {
	Val float64
}

func (v NumberValue) Kind() Kind { return KindNumber }

// IsInteger reports whether the number has no fractional part.
func (v NumberValue) IsInteger() bool {
	return !math.IsInf(v.Val, 0) && v.Val == math.Trunc(v.Val)
}

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

type NullValue struct{}

func (NullValue) Kind() Kind { return KindNull }

// Null is the single null value.
var Null Value = NullValue{}

func Number(v float64) NumberValue { return NumberValue{Val: v} }
func String(v string) StringValue  { return StringValue{Val: v} }
func Bool(v bool) BoolValue        { return BoolValue{Val: v} }

//-----------------------------------------------------------------------------
// Collections
//-----------------------------------------------------------------------------

// ListValue is mutable and compared by contents.
type ListValue struct {
	Elements []Value
}

func NewList(elements []Value) *ListValue {
	if elements == nil {
		elements = make([]Value, 0)
	}
	return &ListValue{Elements: elements}
}

func (v *ListValue) Kind() Kind { return KindList }

// TupleValue is a fixed-arity list that rejects mutation.
type TupleValue struct {
	Elements []Value
}

func NewTuple(elements []Value) TupleValue {
	return TupleValue{Elements: elements}
}

func (v TupleValue) Kind() Kind { return KindTuple }

// RangeValue is a lazily iterated numeric sequence.
type RangeValue struct {
	Start     float64
	End       float64
	Step      float64
	Inclusive bool
}

func (v RangeValue) Kind() Kind { return KindRange }

// DefaultStep is 1, or -1 when the range counts down.
func DefaultStep(start, end float64) float64 {
	if end < start {
		return -1
	}
	return 1
}

// Each calls fn with every element until fn returns false. Elements are
// computed as start + i*step so long ranges do not accumulate drift.
func (v RangeValue) Each(fn func(float64) bool) {
	if v.Step == 0 {
		return
	}
	for i := 0; ; i++ {
		cur := v.Start + float64(i)*v.Step
		if !v.admits(cur) || !fn(cur) {
			return
		}
	}
}

func (v RangeValue) admits(cur float64) bool {
	switch {
	case v.Step > 0 && v.Inclusive:
		return cur <= v.End
	case v.Step > 0:
		return cur < v.End
	case v.Inclusive:
		return cur >= v.End
	default:
		return cur > v.End
	}
}

// Len counts the elements without materializing them.
func (v RangeValue) Len() int {
	if v.Step == 0 {
		return 0
	}
	span := (v.End - v.Start) / v.Step
	if span < 0 {
		return 0
	}
	n := int(math.Floor(span))
	if v.Start+float64(n)*v.Step == v.End && !v.Inclusive {
		return n
	}
	return n + 1
}

func (v RangeValue) ToList() *ListValue {
	out := make([]Value, 0, v.Len())
	v.Each(func(f float64) bool {
		out = append(out, NumberValue{Val: f})
		return true
	})
	return NewList(out)
}

//-----------------------------------------------------------------------------
// Functions & closures
//-----------------------------------------------------------------------------

// FunctionValue is a user closure. Closure is shared by reference, so later
// writes to the defining scope are visible to the body.
type FunctionValue struct {
	Name    string
	Params  []string
	Body    *ast.Block
	Closure *Frame
}

func (v *FunctionValue) Kind() Kind { return KindFunction }

// Host is implemented by the interpreter and gives native functions access to
// evaluation services.
type Host interface {
	Call(env *Environment, callee Value, args []Value) (Value, error)
	Spawn(env *Environment, callee Value, args []Value) *TaskValue
	Format(env *Environment, v Value) string
	Stdout() io.Writer
	Stdin() io.Reader
}

// NativeCallContext is passed to every native function.
type NativeCallContext struct {
	Env  *Environment
	Host Host
}

type NativeFunc func(*NativeCallContext, []Value) (Value, error)

// NativeFunctionValue wraps a host function. Arity -1 accepts any number of
// arguments; otherwise missing arguments are passed as null and surplus
// arguments are rejected.
type NativeFunctionValue struct {
	Name  string
	Arity int
	Impl  NativeFunc
}

func (v NativeFunctionValue) Kind() Kind { return KindNativeFunction }

func NewNative(name string, arity int, impl NativeFunc) NativeFunctionValue {
	return NativeFunctionValue{Name: name, Arity: arity, Impl: impl}
}

// Bound methods capture the receiver, passed as the first argument.
type BoundMethodValue struct {
	Receiver Value
	Method   *FunctionValue
}

func (v BoundMethodValue) Kind() Kind { return KindBoundMethod }

type NativeBoundMethodValue struct {
	Receiver Value
	Method   NativeFunctionValue
}

func (v NativeBoundMethodValue) Kind() Kind { return KindNativeBoundMethod }

//-----------------------------------------------------------------------------
// Classes & objects
//-----------------------------------------------------------------------------

// ClassValue is built once per class definition and shared by every instance.
type ClassValue struct {
	Name        string
	Fields      []*ast.FieldDef
	Constructor *FunctionValue
	Methods     map[string]*FunctionValue
	Closure     *Frame
}

func (v *ClassValue) Kind() Kind { return KindClass }

// Method returns the named method, if declared.
func (v *ClassValue) Method(name string) (*FunctionValue, bool) {
	fn, ok := v.Methods[name]
	return fn, ok
}
