package interpreter

import (
	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/runtime"
	"cinder/interpreter-go/pkg/token"
)

// callValue dispatches a call on the callee's kind. Missing trailing
// arguments are null; surplus arguments are an ArityError.
func (i *Interpreter) callValue(env *runtime.Environment, callee runtime.Value, args []runtime.Value, tok token.Token) (runtime.Value, error) {
	switch fn := callee.(type) {
	case *runtime.FunctionValue:
		return i.invoke(env, fn, args, tok)
	case runtime.BoundMethodValue:
		withSelf := append([]runtime.Value{fn.Receiver}, args...)
		return i.invoke(env, fn.Method, withSelf, tok)
	case runtime.NativeFunctionValue:
		return i.invokeNative(env, fn, nil, args, tok)
	case runtime.NativeBoundMethodValue:
		return i.invokeNative(env, fn.Method, fn.Receiver, args, tok)
	case *runtime.ClassValue:
		return i.instantiate(env, fn, args, tok)
	default:
		return nil, errorAt(tok, KindTypeError, "%s is not callable", describe(callee))
	}
}

func (i *Interpreter) invoke(env *runtime.Environment, fn *runtime.FunctionValue, args []runtime.Value, tok token.Token) (runtime.Value, error) {
	if len(args) > len(fn.Params) {
		return nil, errorAt(tok, KindArityError, "%s takes %d argument(s), got %d", functionName(fn), len(fn.Params), len(args))
	}
	frame := env.Push(fn.Closure)
	defer env.Pop()
	for idx, param := range fn.Params {
		var arg runtime.Value = runtime.Null
		if idx < len(args) {
			arg = args[idx]
		}
		frame.Define(param, arg)
	}
	res, err := i.runStatements(fn.Body.Body, env)
	if err != nil {
		return nil, err
	}
	switch res.Signal {
	case SignalNone, SignalReturn:
		return res.Value, nil
	default:
		return nil, escapeError(res)
	}
}

func (i *Interpreter) invokeNative(env *runtime.Environment, fn runtime.NativeFunctionValue, receiver runtime.Value, args []runtime.Value, tok token.Token) (runtime.Value, error) {
	if fn.Arity >= 0 {
		if len(args) > fn.Arity {
			return nil, errorAt(tok, KindArityError, "%s takes %d argument(s), got %d", fn.Name, fn.Arity, len(args))
		}
		for len(args) < fn.Arity {
			args = append(args, runtime.Null)
		}
	}
	if receiver != nil {
		args = append([]runtime.Value{receiver}, args...)
	}
	ctx := &runtime.NativeCallContext{Env: env, Host: i}
	result, err := fn.Impl(ctx, args)
	if err != nil {
		return nil, locate(err, tok)
	}
	if result == nil {
		result = runtime.Null
	}
	return result, nil
}

// instantiate runs field initializers in declaration order, each with self
// bound to the new object, then the constructor.
func (i *Interpreter) instantiate(env *runtime.Environment, class *runtime.ClassValue, args []runtime.Value, tok token.Token) (runtime.Value, error) {
	obj := runtime.NewObject(class)
	for _, field := range class.Fields {
		val, err := i.initializeField(env, class, obj, field.Value)
		if err != nil {
			return nil, err
		}
		obj.SetProperty(field.Name, val)
	}
	if class.Constructor == nil {
		if len(args) > 0 {
			return nil, errorAt(tok, KindArityError, "class %s has no constructor but got %d argument(s)", class.Name, len(args))
		}
		return obj, nil
	}
	withSelf := append([]runtime.Value{obj}, args...)
	if _, err := i.invoke(env, class.Constructor, withSelf, tok); err != nil {
		return nil, err
	}
	return obj, nil
}

func (i *Interpreter) initializeField(env *runtime.Environment, class *runtime.ClassValue, obj *runtime.ObjectValue, expr ast.Expression) (runtime.Value, error) {
	if expr == nil {
		return runtime.Null, nil
	}
	frame := env.Push(class.Closure)
	defer env.Pop()
	frame.Define("self", obj)
	res, err := i.evaluate(expr, env)
	if err != nil {
		return nil, err
	}
	if res.escaping() {
		return nil, escapeError(res)
	}
	return res.Value, nil
}

func functionName(fn *runtime.FunctionValue) string {
	if fn.Name == "" {
		return "anonymous function"
	}
	return "function " + fn.Name
}
