package interpreter

import (
	"math"
	"strconv"
	"strings"

	"cinder/interpreter-go/pkg/runtime"
	"cinder/interpreter-go/pkg/token"
)

// equalityTolerance absorbs binary floating-point noise in ==.
const equalityTolerance = 1e-9

func truthy(v runtime.Value) bool {
	switch val := v.(type) {
	case nil, runtime.NullValue:
		return false
	case runtime.BoolValue:
		return val.Val
	case runtime.NumberValue:
		return val.Val != 0
	default:
		return true
	}
}

// toNumber applies arithmetic coercion: numbers as-is, booleans as 0/1 and
// strings that parse as numbers.
func toNumber(v runtime.Value) (float64, bool) {
	switch val := v.(type) {
	case runtime.NumberValue:
		return val.Val, true
	case runtime.BoolValue:
		if val.Val {
			return 1, true
		}
		return 0, true
	case runtime.StringValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(val.Val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toNumeric is toNumber without string parsing, used for ordering.
func toNumeric(v runtime.Value) (float64, bool) {
	if _, isString := v.(runtime.StringValue); isString {
		return 0, false
	}
	return toNumber(v)
}

func describe(v runtime.Value) string {
	switch val := v.(type) {
	case *runtime.FunctionValue:
		return functionName(val)
	case runtime.NativeFunctionValue:
		return "native function " + val.Name
	case *runtime.ClassValue:
		return "class " + val.Name
	case *runtime.ObjectValue:
		return val.Class.Name + " object"
	case nil:
		return "null"
	default:
		return v.Kind().String()
	}
}

func (i *Interpreter) binary(op string, left, right runtime.Value, tok token.Token) (runtime.Value, error) {
	switch op {
	case "+":
		return add(left, right, tok)
	case "*":
		return multiply(left, right, tok)
	case "-", "/", "%", "^", "//":
		return arithmetic(op, left, right, tok)
	case "==":
		return runtime.Bool(valuesEqual(left, right)), nil
	case "!=":
		return runtime.Bool(!valuesEqual(left, right)), nil
	case "<", ">", "<=", ">=":
		return compare(op, left, right, tok)
	default:
		return nil, errorAt(tok, KindTypeError, "unknown operator %s", op)
	}
}

func add(left, right runtime.Value, tok token.Token) (runtime.Value, error) {
	switch l := left.(type) {
	case runtime.NumberValue:
		if r, ok := right.(runtime.NumberValue); ok {
			return runtime.Number(l.Val + r.Val), nil
		}
	case runtime.StringValue:
		if r, ok := right.(runtime.StringValue); ok {
			return runtime.String(l.Val + r.Val), nil
		}
	case *runtime.ListValue:
		if r, ok := right.(*runtime.ListValue); ok {
			out := make([]runtime.Value, 0, len(l.Elements)+len(r.Elements))
			out = append(append(out, l.Elements...), r.Elements...)
			return runtime.NewList(out), nil
		}
	}
	return nil, errorAt(tok, KindTypeError, "cannot add %s and %s", describe(left), describe(right))
}

func multiply(left, right runtime.Value, tok token.Token) (runtime.Value, error) {
	switch l := left.(type) {
	case runtime.StringValue:
		if n, ok := right.(runtime.NumberValue); ok {
			return repeatString(l.Val, n.Val, tok)
		}
	case *runtime.ListValue:
		if n, ok := right.(runtime.NumberValue); ok {
			return repeatList(l, n.Val, tok)
		}
	case runtime.NumberValue:
		switch r := right.(type) {
		case runtime.StringValue:
			return repeatString(r.Val, l.Val, tok)
		case *runtime.ListValue:
			return repeatList(r, l.Val, tok)
		}
	}
	return arithmetic("*", left, right, tok)
}

// maxRepeatSize bounds the bytes or elements produced by a repeat.
const maxRepeatSize = 1 << 28

func repeatCount(n float64, unit int, tok token.Token) (int, error) {
	if n < 0 || math.IsInf(n, 0) || n != math.Trunc(n) {
		return 0, errorAt(tok, KindValueError, "repeat count must be a non-negative integer, got %s", formatNumber(n))
	}
	if n > maxRepeatSize || (unit > 0 && int(n) > maxRepeatSize/unit) {
		return 0, errorAt(tok, KindValueError, "repeat count %s is too large", formatNumber(n))
	}
	return int(n), nil
}

func repeatString(s string, n float64, tok token.Token) (runtime.Value, error) {
	count, err := repeatCount(n, len(s), tok)
	if err != nil {
		return nil, err
	}
	return runtime.String(strings.Repeat(s, count)), nil
}

func repeatList(l *runtime.ListValue, n float64, tok token.Token) (runtime.Value, error) {
	count, err := repeatCount(n, len(l.Elements), tok)
	if err != nil {
		return nil, err
	}
	out := make([]runtime.Value, 0, len(l.Elements)*count)
	for k := 0; k < count; k++ {
		out = append(out, l.Elements...)
	}
	return runtime.NewList(out), nil
}

func arithmetic(op string, left, right runtime.Value, tok token.Token) (runtime.Value, error) {
	a, ok := toNumber(left)
	if !ok {
		return nil, errorAt(tok, KindTypeError, "operator %s cannot use %s as a number", op, describe(left))
	}
	b, ok := toNumber(right)
	if !ok {
		return nil, errorAt(tok, KindTypeError, "operator %s cannot use %s as a number", op, describe(right))
	}
	switch op {
	case "-":
		return runtime.Number(a - b), nil
	case "*":
		return runtime.Number(a * b), nil
	case "^":
		return runtime.Number(math.Pow(a, b)), nil
	}
	if b == 0 {
		return nil, errorAt(tok, KindValueError, "division by zero")
	}
	switch op {
	case "/":
		return runtime.Number(a / b), nil
	case "//":
		return runtime.Number(math.Floor(a / b)), nil
	default:
		return runtime.Number(math.Mod(a, b)), nil
	}
}

func compare(op string, left, right runtime.Value, tok token.Token) (runtime.Value, error) {
	var cmp int
	ls, lok := left.(runtime.StringValue)
	rs, rok := right.(runtime.StringValue)
	switch {
	case lok && rok:
		cmp = strings.Compare(ls.Val, rs.Val)
	case !lok && !rok:
		a, aok := toNumeric(left)
		b, bok := toNumeric(right)
		if !aok || !bok {
			return nil, errorAt(tok, KindTypeError, "cannot order %s and %s", describe(left), describe(right))
		}
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	default:
		return nil, errorAt(tok, KindTypeError, "cannot order %s and %s", describe(left), describe(right))
	}
	switch op {
	case "<":
		return runtime.Bool(cmp < 0), nil
	case ">":
		return runtime.Bool(cmp > 0), nil
	case "<=":
		return runtime.Bool(cmp <= 0), nil
	default:
		return runtime.Bool(cmp >= 0), nil
	}
}

// valuesEqual is structural equality. Numbers match within
// equalityTolerance; objects, functions, classes, namespaces and tasks match
// by identity.
func valuesEqual(a, b runtime.Value) bool {
	return equalWith(a, b, make(map[[2]any]bool))
}

func equalWith(a, b runtime.Value, seen map[[2]any]bool) bool {
	switch x := a.(type) {
	case runtime.NumberValue:
		y, ok := b.(runtime.NumberValue)
		return ok && (x.Val == y.Val || math.Abs(x.Val-y.Val) < equalityTolerance)
	case runtime.StringValue, runtime.BoolValue, runtime.NullValue, runtime.RangeValue:
		return a == b
	case *runtime.ListValue:
		y, ok := b.(*runtime.ListValue)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		pair := [2]any{x, y}
		if seen[pair] {
			return true
		}
		seen[pair] = true
		return equalElements(x.Elements, y.Elements, seen)
	case runtime.TupleValue:
		y, ok := b.(runtime.TupleValue)
		return ok && equalElements(x.Elements, y.Elements, seen)
	case *runtime.DictValue:
		y, ok := b.(*runtime.DictValue)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		pair := [2]any{x, y}
		if seen[pair] {
			return true
		}
		seen[pair] = true
		if x.Len() != y.Len() {
			return false
		}
		equal := true
		x.Each(func(k, v runtime.Value) bool {
			other, found, err := y.Get(k)
			equal = err == nil && found && equalWith(v, other, seen)
			return equal
		})
		return equal
	case runtime.NativeFunctionValue:
		y, ok := b.(runtime.NativeFunctionValue)
		return ok && x.Name == y.Name
	case runtime.BoundMethodValue:
		y, ok := b.(runtime.BoundMethodValue)
		return ok && x.Method == y.Method && equalWith(x.Receiver, y.Receiver, seen)
	case runtime.NativeBoundMethodValue:
		y, ok := b.(runtime.NativeBoundMethodValue)
		return ok && x.Method.Name == y.Method.Name && equalWith(x.Receiver, y.Receiver, seen)
	case *runtime.FunctionValue, *runtime.ClassValue, *runtime.ObjectValue, *runtime.NamespaceValue, *runtime.TaskValue:
		return a == b
	default:
		return false
	}
}

func equalElements(xs, ys []runtime.Value, seen map[[2]any]bool) bool {
	if len(xs) != len(ys) {
		return false
	}
	for k := range xs {
		if !equalWith(xs[k], ys[k], seen) {
			return false
		}
	}
	return true
}
