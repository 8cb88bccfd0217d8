package stdlib

import (
	"io"
	"strings"

	"cinder/interpreter-go/pkg/interpreter"
	"cinder/interpreter-go/pkg/runtime"
)

func registerCore(r *Registry) {
	r.Register(runtime.NewNative("print", -1, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		return runtime.Null, write(ctx, args, "")
	}))
	r.Register(runtime.NewNative("println", -1, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		return runtime.Null, write(ctx, args, "\n")
	}))
	r.Register(runtime.NewNative("len", 1, builtinLen))
	r.Register(runtime.NewNative("type", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		if obj, ok := args[0].(*runtime.ObjectValue); ok {
			return runtime.String(obj.Class.Name), nil
		}
		return runtime.String(args[0].Kind().String()), nil
	}))
	r.Register(runtime.NewNative("str", 1, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		return runtime.String(ctx.Host.Format(ctx.Env, args[0])), nil
	}))
	r.Register(runtime.NewNative("num", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		f, ok := interpreter.ToNumber(args[0])
		if !ok {
			return nil, interpreter.Errorf(interpreter.KindValueError, "cannot convert %s to a number", interpreter.Describe(args[0]))
		}
		return runtime.Number(f), nil
	}))
	r.Register(runtime.NewNative("list", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		elems, err := interpreter.Elements(args[0])
		if err != nil {
			return nil, err
		}
		return runtime.NewList(elems), nil
	}))
	r.Register(runtime.NewNative("tuple", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		elems, err := interpreter.Elements(args[0])
		if err != nil {
			return nil, err
		}
		return runtime.NewTuple(elems), nil
	}))
	r.Register(runtime.NewNative("keys", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		d, err := dictArg(args[0], "keys")
		if err != nil {
			return nil, err
		}
		return runtime.NewList(d.Keys()), nil
	}))
	r.Register(runtime.NewNative("values", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		d, err := dictArg(args[0], "values")
		if err != nil {
			return nil, err
		}
		return runtime.NewList(d.Values()), nil
	}))
	r.Register(runtime.NewNative("range", 3, builtinRange))
	r.Register(runtime.NewNative("assert", 2, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		if interpreter.Truthy(args[0]) {
			return runtime.Null, nil
		}
		if isNull(args[1]) {
			return nil, interpreter.Errorf(interpreter.KindValueError, "assertion failed")
		}
		return nil, interpreter.Errorf(interpreter.KindValueError, "assertion failed: %s", ctx.Host.Format(ctx.Env, args[1]))
	}))
	r.Register(runtime.NewNative("error", 1, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		return nil, interpreter.Errorf(interpreter.KindHostError, "%s", ctx.Host.Format(ctx.Env, args[0]))
	}))
}

// write prints the formatted arguments separated by spaces.
func write(ctx *runtime.NativeCallContext, args []runtime.Value, end string) error {
	parts := make([]string, len(args))
	for idx, arg := range args {
		parts[idx] = ctx.Host.Format(ctx.Env, arg)
	}
	_, err := io.WriteString(ctx.Host.Stdout(), strings.Join(parts, " ")+end)
	return err
}

func builtinLen(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	var n int
	switch v := args[0].(type) {
	case runtime.StringValue:
		n = len([]rune(v.Val))
	case *runtime.ListValue:
		n = len(v.Elements)
	case runtime.TupleValue:
		n = len(v.Elements)
	case *runtime.DictValue:
		n = v.Len()
	case runtime.RangeValue:
		n = v.Len()
	default:
		return nil, interpreter.Errorf(interpreter.KindTypeError, "len: %s has no length", interpreter.Describe(args[0]))
	}
	return runtime.Number(float64(n)), nil
}

// builtinRange is range(end), range(start, end) or range(start, end, step),
// always exclusive of end.
func builtinRange(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	nums := make([]float64, 0, 3)
	for _, arg := range args {
		if isNull(arg) {
			break
		}
		n, ok := arg.(runtime.NumberValue)
		if !ok {
			return nil, interpreter.Errorf(interpreter.KindTypeError, "range: expected a number, got %s", interpreter.Describe(arg))
		}
		nums = append(nums, n.Val)
	}
	var r runtime.RangeValue
	switch len(nums) {
	case 0:
		return nil, interpreter.Errorf(interpreter.KindArityError, "range needs at least an end")
	case 1:
		r = runtime.RangeValue{End: nums[0]}
	default:
		r = runtime.RangeValue{Start: nums[0], End: nums[1]}
	}
	r.Step = runtime.DefaultStep(r.Start, r.End)
	if len(nums) == 3 {
		if nums[2] == 0 {
			return nil, interpreter.Errorf(interpreter.KindValueError, "range step cannot be zero")
		}
		r.Step = nums[2]
	}
	return r, nil
}

func dictArg(v runtime.Value, fn string) (*runtime.DictValue, error) {
	d, ok := v.(*runtime.DictValue)
	if !ok {
		return nil, interpreter.Errorf(interpreter.KindTypeError, "%s: expected a dict, got %s", fn, interpreter.Describe(v))
	}
	return d, nil
}

func numberArg(args []runtime.Value, idx int, fn string) (float64, error) {
	n, ok := args[idx].(runtime.NumberValue)
	if !ok {
		return 0, interpreter.Errorf(interpreter.KindTypeError, "%s: argument %d must be a number, got %s", fn, idx+1, interpreter.Describe(args[idx]))
	}
	return n.Val, nil
}

func stringArg(args []runtime.Value, idx int, fn string) (string, error) {
	s, ok := args[idx].(runtime.StringValue)
	if !ok {
		return "", interpreter.Errorf(interpreter.KindTypeError, "%s: argument %d must be a string, got %s", fn, idx+1, interpreter.Describe(args[idx]))
	}
	return s.Val, nil
}

func listArg(args []runtime.Value, idx int, fn string) (*runtime.ListValue, error) {
	l, ok := args[idx].(*runtime.ListValue)
	if !ok {
		return nil, interpreter.Errorf(interpreter.KindTypeError, "%s: argument %d must be a list, got %s", fn, idx+1, interpreter.Describe(args[idx]))
	}
	return l, nil
}

func isNull(v runtime.Value) bool {
	_, ok := v.(runtime.NullValue)
	return ok
}
