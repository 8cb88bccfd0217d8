package stdlib

import (
	"strings"
	"unicode/utf8"

	"cinder/interpreter-go/pkg/interpreter"
	"cinder/interpreter-go/pkg/runtime"
)

func stringsNamespace() *runtime.NamespaceValue {
	return namespace("strings", []runtime.NativeFunctionValue{
		runtime.NewNative("join", 2, stringsJoin),
		runtime.NewNative("repeat", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			s, err := stringArg(args, 0, "repeat")
			if err != nil {
				return nil, err
			}
			n, err := countArg(args, 1, "repeat")
			if err != nil {
				return nil, err
			}
			return runtime.String(strings.Repeat(s, n)), nil
		}),
		pad("pad_left", true),
		pad("pad_right", false),
		runtime.NewNative("code", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			s, err := stringArg(args, 0, "code")
			if err != nil {
				return nil, err
			}
			if utf8.RuneCountInString(s) != 1 {
				return nil, interpreter.Errorf(interpreter.KindValueError, "code: expected a single character, got %q", s)
			}
			r, _ := utf8.DecodeRuneInString(s)
			return runtime.Number(float64(r)), nil
		}),
		runtime.NewNative("from_code", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			n, err := countArg(args, 0, "from_code")
			if err != nil {
				return nil, err
			}
			if n > utf8.MaxRune {
				return nil, interpreter.Errorf(interpreter.KindValueError, "from_code: %d is not a code point", n)
			}
			return runtime.String(string(rune(n))), nil
		}),
	}, nil)
}

// stringsJoin formats every element of an iterable and joins them.
func stringsJoin(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	elems, err := interpreter.Elements(args[0])
	if err != nil {
		return nil, err
	}
	sep := ""
	if !isNull(args[1]) {
		if sep, err = stringArg(args, 1, "join"); err != nil {
			return nil, err
		}
	}
	parts := make([]string, len(elems))
	for idx, el := range elems {
		parts[idx] = ctx.Host.Format(ctx.Env, el)
	}
	return runtime.String(strings.Join(parts, sep)), nil
}

// pad fills to a width in runes, with a space unless a fill string is given.
func pad(name string, left bool) runtime.NativeFunctionValue {
	return runtime.NewNative(name, 3, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		s, err := stringArg(args, 0, name)
		if err != nil {
			return nil, err
		}
		width, err := countArg(args, 1, name)
		if err != nil {
			return nil, err
		}
		fill := " "
		if !isNull(args[2]) {
			if fill, err = stringArg(args, 2, name); err != nil {
				return nil, err
			}
			if fill == "" {
				return nil, interpreter.Errorf(interpreter.KindValueError, "%s: fill cannot be empty", name)
			}
		}
		missing := width - utf8.RuneCountInString(s)
		if missing <= 0 {
			return runtime.String(s), nil
		}
		padding := []rune(strings.Repeat(fill, missing))[:missing]
		if left {
			return runtime.String(string(padding) + s), nil
		}
		return runtime.String(s + string(padding)), nil
	})
}

// countArg reads a non-negative integer argument.
func countArg(args []runtime.Value, idx int, fn string) (int, error) {
	f, err := numberArg(args, idx, fn)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(int(f)) {
		return 0, interpreter.Errorf(interpreter.KindValueError, "%s: argument %d must be a non-negative integer, got %s", fn, idx+1, interpreter.FormatNumber(f))
	}
	return int(f), nil
}
