package interpreter

import (
	"errors"
	"fmt"

	"cinder/interpreter-go/pkg/runtime"
	"cinder/interpreter-go/pkg/token"
)

// ErrorKind classifies a RuntimeError.
type ErrorKind string

const (
	KindUndefinedVariable  ErrorKind = "UndefinedVariable"
	KindConstantAssignment ErrorKind = "ConstantAssignment"
	KindTypeError          ErrorKind = "TypeError"
	KindValueError         ErrorKind = "ValueError"
	KindIndexError         ErrorKind = "IndexError"
	KindKeyError           ErrorKind = "KeyError"
	KindArityError         ErrorKind = "ArityError"
	KindControlFlowError   ErrorKind = "ControlFlowError"
	KindIncludeError       ErrorKind = "IncludeError"
	KindImmutableError     ErrorKind = "ImmutableError"
	KindHostError          ErrorKind = "HostError"
)

// Sentinels matched by errors.Is against any RuntimeError of the same kind.
// The environment's own errors are reused so checks work whichever layer
// produced the failure.
var (
	ErrUndefinedVariable  = runtime.ErrUndefinedVariable
	ErrConstantAssignment = runtime.ErrConstantAssignment
	ErrImmutable          = runtime.ErrImmutable
	ErrTypeError          = errors.New("type error")
	ErrValueError         = errors.New("value error")
	ErrIndexError         = errors.New("index error")
	ErrKeyError           = errors.New("key error")
	ErrArityError         = errors.New("arity error")
	ErrControlFlow        = errors.New("control flow error")
	ErrInclude            = errors.New("include error")
	ErrHost               = errors.New("host error")
)

var sentinels = map[ErrorKind]error{
	KindUndefinedVariable:  ErrUndefinedVariable,
	KindConstantAssignment: ErrConstantAssignment,
	KindTypeError:          ErrTypeError,
	KindValueError:         ErrValueError,
	KindIndexError:         ErrIndexError,
	KindKeyError:           ErrKeyError,
	KindArityError:         ErrArityError,
	KindControlFlowError:   ErrControlFlow,
	KindIncludeError:       ErrInclude,
	KindImmutableError:     ErrImmutable,
	KindHostError:          ErrHost,
}

// RuntimeError aborts evaluation of the current file. Token locates the node
// that failed; Cause is the underlying error, if any.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Token   token.Token
	Cause   error
}

func (e *RuntimeError) Error() string {
	if e.Token.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Token.Position(), e.Kind, e.Message)
}

func (e *RuntimeError) Unwrap() []error {
	out := make([]error, 0, 2)
	if s, ok := sentinels[e.Kind]; ok {
		out = append(out, s)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// Errorf builds a RuntimeError without position. The evaluator fills in the
// token of the node that surfaced it.
func Errorf(kind ErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func errorAt(tok token.Token, kind ErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), Token: tok}
}

// locate converts err into a RuntimeError positioned at tok. Errors that
// already carry a position keep it.
func locate(err error, tok token.Token) error {
	if err == nil {
		return nil
	}
	var rerr *RuntimeError
	if errors.As(err, &rerr) {
		if rerr.Token.Line == 0 && tok.Line != 0 {
			rerr.Token = tok
		}
		return rerr
	}
	kind := KindHostError
	switch {
	case errors.Is(err, runtime.ErrUndefinedVariable):
		kind = KindUndefinedVariable
	case errors.Is(err, runtime.ErrConstantAssignment):
		kind = KindConstantAssignment
	case errors.Is(err, runtime.ErrImmutable):
		kind = KindImmutableError
	case errors.Is(err, runtime.ErrUnhashable):
		kind = KindTypeError
	}
	return &RuntimeError{Kind: kind, Message: err.Error(), Token: tok, Cause: err}
}
