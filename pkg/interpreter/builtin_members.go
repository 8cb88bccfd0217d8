package interpreter

import (
	"sort"
	"strings"

	"cinder/interpreter-go/pkg/runtime"
	"cinder/interpreter-go/pkg/token"
)

// Built-in members of lists, tuples, strings, dicts and ranges. Properties
// are computed values; methods are native functions bound to the receiver,
// which arrives as args[0]. Arity excludes the receiver.

type memberTable struct {
	properties map[string]func(runtime.Value) runtime.Value
	methods    map[string]runtime.NativeFunctionValue
}

var builtinTables map[runtime.Kind]memberTable

func init() {
	builtinTables = map[runtime.Kind]memberTable{
		runtime.KindList:   listMembers(),
		runtime.KindTuple:  tupleMembers(),
		runtime.KindString: stringMembers(),
		runtime.KindDict:   dictMembers(),
		runtime.KindRange:  rangeMembers(),
	}
}

func builtinMember(obj runtime.Value, name string) (runtime.Value, bool) {
	table, ok := builtinTables[obj.Kind()]
	if !ok {
		return nil, false
	}
	if prop, ok := table.properties[name]; ok {
		return prop(obj), true
	}
	if m, ok := table.methods[name]; ok {
		return runtime.NativeBoundMethodValue{Receiver: obj, Method: m}, true
	}
	return nil, false
}

func methods(fns ...runtime.NativeFunctionValue) map[string]runtime.NativeFunctionValue {
	out := make(map[string]runtime.NativeFunctionValue, len(fns))
	for _, fn := range fns {
		out[fn.Name] = fn
	}
	return out
}

func argString(args []runtime.Value, idx int, what string) (string, error) {
	s, ok := args[idx].(runtime.StringValue)
	if !ok {
		return "", Errorf(KindTypeError, "%s must be a string, got %s", what, describe(args[idx]))
	}
	return s.Val, nil
}

func argInt(args []runtime.Value, idx int, what string) (int, error) {
	n, ok := args[idx].(runtime.NumberValue)
	if !ok || !n.IsInteger() {
		return 0, Errorf(KindTypeError, "%s must be an integer, got %s", what, describe(args[idx]))
	}
	return int(n.Val), nil
}

// sliceBounds resolves optional start/end arguments the way slice does:
// null end means the length, negatives count from the end, and both clamp.
func sliceBounds(args []runtime.Value, length int) (int, int, error) {
	bound := func(idx, fallback int) (int, error) {
		if _, isNull := args[idx].(runtime.NullValue); isNull {
			return fallback, nil
		}
		n, err := argInt(args, idx, "slice bound")
		if err != nil {
			return 0, err
		}
		if n < 0 {
			n += length
		}
		return min(max(n, 0), length), nil
	}
	start, err := bound(1, 0)
	if err != nil {
		return 0, 0, err
	}
	end, err := bound(2, length)
	if err != nil {
		return 0, 0, err
	}
	return start, max(start, end), nil
}

func containsValue(elems []runtime.Value, needle runtime.Value) bool {
	for _, el := range elems {
		if valuesEqual(el, needle) {
			return true
		}
	}
	return false
}

func listMembers() memberTable {
	receiver := func(args []runtime.Value) *runtime.ListValue {
		return args[0].(*runtime.ListValue)
	}
	return memberTable{
		properties: map[string]func(runtime.Value) runtime.Value{
			"length": func(v runtime.Value) runtime.Value {
				return runtime.Number(float64(len(v.(*runtime.ListValue).Elements)))
			},
		},
		methods: methods(
			runtime.NewNative("push", -1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				l := receiver(args)
				l.Elements = append(l.Elements, args[1:]...)
				return l, nil
			}),
			runtime.NewNative("pop", 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				l := receiver(args)
				if len(l.Elements) == 0 {
					return nil, Errorf(KindIndexError, "pop from empty list")
				}
				last := l.Elements[len(l.Elements)-1]
				l.Elements = l.Elements[:len(l.Elements)-1]
				return last, nil
			}),
			runtime.NewNative("insert", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				l := receiver(args)
				at, err := argInt(args, 1, "insert position")
				if err != nil {
					return nil, err
				}
				if at < 0 {
					at += len(l.Elements)
				}
				if at < 0 || at > len(l.Elements) {
					return nil, Errorf(KindIndexError, "insert position %d out of range for length %d", at, len(l.Elements))
				}
				l.Elements = append(l.Elements, nil)
				copy(l.Elements[at+1:], l.Elements[at:])
				l.Elements[at] = args[2]
				return l, nil
			}),
			runtime.NewNative("remove", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				l := receiver(args)
				pos, err := position(args[1], len(l.Elements))
				if err != nil {
					return nil, err
				}
				removed := l.Elements[pos]
				l.Elements = append(l.Elements[:pos], l.Elements[pos+1:]...)
				return removed, nil
			}),
			runtime.NewNative("contains", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				return runtime.Bool(containsValue(receiver(args).Elements, args[1])), nil
			}),
			runtime.NewNative("index_of", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				for idx, el := range receiver(args).Elements {
					if valuesEqual(el, args[1]) {
						return runtime.Number(float64(idx)), nil
					}
				}
				return runtime.Number(-1), nil
			}),
			runtime.NewNative("join", 1, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				sep := ""
				if _, isNull := args[1].(runtime.NullValue); !isNull {
					s, err := argString(args, 1, "separator")
					if err != nil {
						return nil, err
					}
					sep = s
				}
				elems := receiver(args).Elements
				parts := make([]string, len(elems))
				for idx, el := range elems {
					parts[idx] = ctx.Host.Format(ctx.Env, el)
				}
				return runtime.String(strings.Join(parts, sep)), nil
			}),
			runtime.NewNative("slice", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				elems := receiver(args).Elements
				start, end, err := sliceBounds(args, len(elems))
				if err != nil {
					return nil, err
				}
				return runtime.NewList(append([]runtime.Value(nil), elems[start:end]...)), nil
			}),
			runtime.NewNative("reverse", 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				elems := receiver(args).Elements
				out := make([]runtime.Value, len(elems))
				for idx, el := range elems {
					out[len(elems)-1-idx] = el
				}
				return runtime.NewList(out), nil
			}),
			runtime.NewNative("sort", 1, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				out := append([]runtime.Value(nil), receiver(args).Elements...)
				if err := sortValues(ctx, out, args[1]); err != nil {
					return nil, err
				}
				return runtime.NewList(out), nil
			}),
			runtime.NewNative("map", 1, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				elems := receiver(args).Elements
				out := make([]runtime.Value, 0, len(elems))
				for _, el := range elems {
					v, err := ctx.Host.Call(ctx.Env, args[1], []runtime.Value{el})
					if err != nil {
						return nil, err
					}
					out = append(out, v)
				}
				return runtime.NewList(out), nil
			}),
			runtime.NewNative("filter", 1, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				out := make([]runtime.Value, 0)
				for _, el := range receiver(args).Elements {
					keep, err := ctx.Host.Call(ctx.Env, args[1], []runtime.Value{el})
					if err != nil {
						return nil, err
					}
					if truthy(keep) {
						out = append(out, el)
					}
				}
				return runtime.NewList(out), nil
			}),
		),
	}
}

// sortValues orders numbers or strings naturally, or by a comparator that
// returns a negative number when its first argument sorts first.
func sortValues(ctx *runtime.NativeCallContext, elems []runtime.Value, comparator runtime.Value) error {
	var failure error
	less := func(a, b runtime.Value) bool {
		if failure != nil {
			return false
		}
		if _, natural := comparator.(runtime.NullValue); natural {
			res, err := compare("<", a, b, token.Token{})
			if err != nil {
				failure = err
				return false
			}
			return res.(runtime.BoolValue).Val
		}
		res, err := ctx.Host.Call(ctx.Env, comparator, []runtime.Value{a, b})
		if err != nil {
			failure = err
			return false
		}
		n, ok := res.(runtime.NumberValue)
		if !ok {
			failure = Errorf(KindTypeError, "sort comparator must return a number, got %s", describe(res))
			return false
		}
		return n.Val < 0
	}
	sort.SliceStable(elems, func(x, y int) bool { return less(elems[x], elems[y]) })
	return failure
}

func tupleMembers() memberTable {
	return memberTable{
		properties: map[string]func(runtime.Value) runtime.Value{
			"length": func(v runtime.Value) runtime.Value {
				return runtime.Number(float64(len(v.(runtime.TupleValue).Elements)))
			},
		},
		methods: methods(
			runtime.NewNative("contains", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				return runtime.Bool(containsValue(args[0].(runtime.TupleValue).Elements, args[1])), nil
			}),
		),
	}
}

func stringMembers() memberTable {
	receiver := func(args []runtime.Value) string {
		return args[0].(runtime.StringValue).Val
	}
	transform := func(name string, fn func(string) string) runtime.NativeFunctionValue {
		return runtime.NewNative(name, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			return runtime.String(fn(receiver(args))), nil
		})
	}
	predicate := func(name string, fn func(string, string) bool) runtime.NativeFunctionValue {
		return runtime.NewNative(name, 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			other, err := argString(args, 1, name+" argument")
			if err != nil {
				return nil, err
			}
			return runtime.Bool(fn(receiver(args), other)), nil
		})
	}
	return memberTable{
		properties: map[string]func(runtime.Value) runtime.Value{
			"length": func(v runtime.Value) runtime.Value {
				return runtime.Number(float64(len([]rune(v.(runtime.StringValue).Val))))
			},
		},
		methods: methods(
			transform("upper", strings.ToUpper),
			transform("lower", strings.ToLower),
			transform("trim", strings.TrimSpace),
			predicate("contains", strings.Contains),
			predicate("starts_with", strings.HasPrefix),
			predicate("ends_with", strings.HasSuffix),
			runtime.NewNative("split", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				var parts []string
				if _, isNull := args[1].(runtime.NullValue); isNull {
					parts = strings.Fields(receiver(args))
				} else {
					sep, err := argString(args, 1, "separator")
					if err != nil {
						return nil, err
					}
					parts = strings.Split(receiver(args), sep)
				}
				out := make([]runtime.Value, len(parts))
				for idx, p := range parts {
					out[idx] = runtime.String(p)
				}
				return runtime.NewList(out), nil
			}),
			runtime.NewNative("replace", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				old, err := argString(args, 1, "pattern")
				if err != nil {
					return nil, err
				}
				repl, err := argString(args, 2, "replacement")
				if err != nil {
					return nil, err
				}
				return runtime.String(strings.ReplaceAll(receiver(args), old, repl)), nil
			}),
			runtime.NewNative("slice", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				runes := []rune(receiver(args))
				start, end, err := sliceBounds(args, len(runes))
				if err != nil {
					return nil, err
				}
				return runtime.String(string(runes[start:end])), nil
			}),
			runtime.NewNative("chars", 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				out := make([]runtime.Value, 0)
				for _, r := range receiver(args) {
					out = append(out, runtime.String(string(r)))
				}
				return runtime.NewList(out), nil
			}),
		),
	}
}

func dictMembers() memberTable {
	receiver := func(args []runtime.Value) *runtime.DictValue {
		return args[0].(*runtime.DictValue)
	}
	return memberTable{
		properties: map[string]func(runtime.Value) runtime.Value{
			"length": func(v runtime.Value) runtime.Value {
				return runtime.Number(float64(v.(*runtime.DictValue).Len()))
			},
		},
		methods: methods(
			runtime.NewNative("keys", 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				return runtime.NewList(receiver(args).Keys()), nil
			}),
			runtime.NewNative("values", 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				return runtime.NewList(receiver(args).Values()), nil
			}),
			runtime.NewNative("has", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				_, found, err := receiver(args).Get(args[1])
				if err != nil {
					return nil, err
				}
				return runtime.Bool(found), nil
			}),
			runtime.NewNative("get", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				v, found, err := receiver(args).Get(args[1])
				if err != nil {
					return nil, err
				}
				if !found {
					return args[2], nil
				}
				return v, nil
			}),
			runtime.NewNative("remove", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				d := receiver(args)
				v, found, err := d.Get(args[1])
				if err != nil || !found {
					return runtime.Null, err
				}
				if _, err := d.Delete(args[1]); err != nil {
					return nil, err
				}
				return v, nil
			}),
		),
	}
}

func rangeMembers() memberTable {
	field := func(pick func(runtime.RangeValue) float64) func(runtime.Value) runtime.Value {
		return func(v runtime.Value) runtime.Value {
			return runtime.Number(pick(v.(runtime.RangeValue)))
		}
	}
	return memberTable{
		properties: map[string]func(runtime.Value) runtime.Value{
			"start":  field(func(r runtime.RangeValue) float64 { return r.Start }),
			"end":    field(func(r runtime.RangeValue) float64 { return r.End }),
			"step":   field(func(r runtime.RangeValue) float64 { return r.Step }),
			"length": field(func(r runtime.RangeValue) float64 { return float64(r.Len()) }),
			"inclusive": func(v runtime.Value) runtime.Value {
				return runtime.Bool(v.(runtime.RangeValue).Inclusive)
			},
		},
		methods: methods(
			runtime.NewNative("to_list", 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				return args[0].(runtime.RangeValue).ToList(), nil
			}),
		),
	}
}
