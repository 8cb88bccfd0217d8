package interpreter

import (
	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/runtime"
	"cinder/interpreter-go/pkg/token"
)

// Signal marks a non-local exit travelling up the evaluator.
type Signal int

const (
	SignalNone Signal = iota
	SignalReturn
	SignalBreak
	SignalContinue
	SignalOut
	SignalInclude
)

func (s Signal) String() string {
	switch s {
	case SignalReturn:
		return "return"
	case SignalBreak:
		return "break"
	case SignalContinue:
		return "continue"
	case SignalOut:
		return "out"
	case SignalInclude:
		return "include"
	default:
		return "none"
	}
}

// Result is what every node visit produces. Value is the node's value, or the
// payload of Signal when one is set. Token is the statement that raised the
// signal. Include is set with SignalInclude.
type Result struct {
	Value   runtime.Value
	Signal  Signal
	Token   token.Token
	Include *ast.IncludeDirective
}

func resultOf(v runtime.Value) Result {
	return Result{Value: v}
}

func signal(s Signal, v runtime.Value, tok token.Token) Result {
	if v == nil {
		v = runtime.Null
	}
	return Result{Value: v, Signal: s, Token: tok}
}

// escaping reports whether r must be returned to the caller unchanged.
func (r Result) escaping() bool {
	return r.Signal != SignalNone
}
