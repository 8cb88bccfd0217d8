package stdlib

import (
	"bytes"
	"math"
	"sort"
	"strings"

	"github.com/segmentio/encoding/json"

	"cinder/interpreter-go/pkg/interpreter"
	"cinder/interpreter-go/pkg/runtime"
)

func jsonNamespace() *runtime.NamespaceValue {
	return namespace("json", []runtime.NativeFunctionValue{
		runtime.NewNative("parse", 1, jsonParse),
		runtime.NewNative("stringify", 2, jsonStringify),
		runtime.NewNative("valid", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			text, err := stringArg(args, 0, "valid")
			if err != nil {
				return nil, err
			}
			return runtime.Bool(json.Valid([]byte(text))), nil
		}),
	}, nil)
}

func jsonParse(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	text, err := stringArg(args, 0, "parse")
	if err != nil {
		return nil, err
	}
	var x any
	if err := json.Unmarshal([]byte(text), &x); err != nil {
		return nil, interpreter.Errorf(interpreter.KindValueError, "json.parse: %v", err)
	}
	return fromJSON(x), nil
}

// fromJSON converts decoded JSON. Objects become dicts with sorted keys since
// the decoder does not keep source order.
func fromJSON(x any) runtime.Value {
	switch t := x.(type) {
	case nil:
		return runtime.Null
	case bool:
		return runtime.Bool(t)
	case float64:
		return runtime.Number(t)
	case string:
		return runtime.String(t)
	case []any:
		elems := make([]runtime.Value, len(t))
		for idx, el := range t {
			elems[idx] = fromJSON(el)
		}
		return runtime.NewList(elems)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := runtime.NewDict()
		for _, k := range keys {
			// string keys are always hashable
			_ = d.Set(runtime.String(k), fromJSON(t[k]))
		}
		return d
	default:
		return runtime.Null
	}
}

// jsonStringify writes dicts in insertion order. An optional indent gives the
// number of spaces per level.
func jsonStringify(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	var buf bytes.Buffer
	w := jsonWriter{buf: &buf, active: make(map[any]bool)}
	if err := w.write(args[0]); err != nil {
		return nil, err
	}
	if isNull(args[1]) {
		return runtime.String(buf.String()), nil
	}
	width, err := countArg(args, 1, "stringify")
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", strings.Repeat(" ", width)); err != nil {
		return nil, interpreter.Errorf(interpreter.KindHostError, "json.stringify: %v", err)
	}
	return runtime.String(out.String()), nil
}

type jsonWriter struct {
	buf    *bytes.Buffer
	active map[any]bool
}

func (w jsonWriter) write(v runtime.Value) error {
	switch t := v.(type) {
	case runtime.NullValue:
		w.buf.WriteString("null")
	case runtime.BoolValue:
		if t.Val {
			w.buf.WriteString("true")
		} else {
			w.buf.WriteString("false")
		}
	case runtime.NumberValue:
		if math.IsNaN(t.Val) || math.IsInf(t.Val, 0) {
			return interpreter.Errorf(interpreter.KindValueError, "json.stringify: %s has no JSON form", interpreter.FormatNumber(t.Val))
		}
		w.buf.WriteString(interpreter.FormatNumber(t.Val))
	case runtime.StringValue:
		return w.writeString(t.Val)
	case *runtime.ListValue:
		if w.active[t] {
			return interpreter.Errorf(interpreter.KindValueError, "json.stringify: cyclic list")
		}
		w.active[t] = true
		defer delete(w.active, t)
		return w.writeArray(t.Elements)
	case runtime.TupleValue:
		return w.writeArray(t.Elements)
	case *runtime.DictValue:
		if w.active[t] {
			return interpreter.Errorf(interpreter.KindValueError, "json.stringify: cyclic dict")
		}
		w.active[t] = true
		defer delete(w.active, t)
		return w.writeObject(t)
	default:
		return interpreter.Errorf(interpreter.KindTypeError, "json.stringify: %s has no JSON form", interpreter.Describe(v))
	}
	return nil
}

func (w jsonWriter) writeString(s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return interpreter.Errorf(interpreter.KindHostError, "json.stringify: %v", err)
	}
	w.buf.Write(b)
	return nil
}

func (w jsonWriter) writeArray(elems []runtime.Value) error {
	w.buf.WriteByte('[')
	for idx, el := range elems {
		if idx > 0 {
			w.buf.WriteByte(',')
		}
		if err := w.write(el); err != nil {
			return err
		}
	}
	w.buf.WriteByte(']')
	return nil
}

// writeObject accepts string and number keys; numbers become their text.
func (w jsonWriter) writeObject(d *runtime.DictValue) error {
	var err error
	first := true
	w.buf.WriteByte('{')
	d.Each(func(k, v runtime.Value) bool {
		var key string
		switch kt := k.(type) {
		case runtime.StringValue:
			key = kt.Val
		case runtime.NumberValue:
			key = interpreter.FormatNumber(kt.Val)
		default:
			err = interpreter.Errorf(interpreter.KindTypeError, "json.stringify: %s cannot be an object key", interpreter.Describe(k))
			return false
		}
		if !first {
			w.buf.WriteByte(',')
		}
		first = false
		if err = w.writeString(key); err != nil {
			return false
		}
		w.buf.WriteByte(':')
		err = w.write(v)
		return err == nil
	})
	if err != nil {
		return err
	}
	w.buf.WriteByte('}')
	return nil
}
