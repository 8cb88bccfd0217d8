package stdlib

import (
	"math"

	"cinder/interpreter-go/pkg/interpreter"
	"cinder/interpreter-go/pkg/runtime"
)

func mathNamespace() *runtime.NamespaceValue {
	fns := []runtime.NativeFunctionValue{
		unary("sqrt", math.Sqrt),
		unary("abs", math.Abs),
		unary("floor", math.Floor),
		unary("ceil", math.Ceil),
		unary("round", math.Round),
		unary("trunc", math.Trunc),
		unary("sin", math.Sin),
		unary("cos", math.Cos),
		unary("tan", math.Tan),
		unary("log", math.Log),
		unary("exp", math.Exp),
		runtime.NewNative("pow", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			base, err := numberArg(args, 0, "pow")
			if err != nil {
				return nil, err
			}
			exp, err := numberArg(args, 1, "pow")
			if err != nil {
				return nil, err
			}
			return runtime.Number(math.Pow(base, exp)), nil
		}),
		extremum("min", func(a, b float64) bool { return a < b }),
		extremum("max", func(a, b float64) bool { return a > b }),
	}
	return namespace("math", fns, map[string]runtime.Value{
		"pi":  runtime.Number(math.Pi),
		"e":   runtime.Number(math.E),
		"inf": runtime.Number(math.Inf(1)),
		"nan": runtime.Number(math.NaN()),
	})
}

func unary(name string, fn func(float64) float64) runtime.NativeFunctionValue {
	return runtime.NewNative(name, 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		x, err := numberArg(args, 0, name)
		if err != nil {
			return nil, err
		}
		return runtime.Number(fn(x)), nil
	})
}

// extremum accepts either numbers as arguments or a single list of numbers.
func extremum(name string, better func(a, b float64) bool) runtime.NativeFunctionValue {
	return runtime.NewNative(name, -1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		candidates := args
		if len(args) == 1 {
			if l, ok := args[0].(*runtime.ListValue); ok {
				candidates = l.Elements
			}
		}
		if len(candidates) == 0 {
			return nil, interpreter.Errorf(interpreter.KindArityError, "%s needs at least one value", name)
		}
		best, err := numberArg(candidates, 0, name)
		if err != nil {
			return nil, err
		}
		for idx := 1; idx < len(candidates); idx++ {
			n, err := numberArg(candidates, idx, name)
			if err != nil {
				return nil, err
			}
			if better(n, best) {
				best = n
			}
		}
		return runtime.Number(best), nil
	})
}
