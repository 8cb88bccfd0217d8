package interpreter

import (
	"math"
	"strconv"

	"cinder/interpreter-go/pkg/runtime"
	"cinder/interpreter-go/pkg/token"
)

// getMember resolves `obj.name`. Object properties win over methods; dict
// built-ins win over string keys.
func (i *Interpreter) getMember(obj runtime.Value, name string, tok token.Token) (runtime.Value, error) {
	switch o := obj.(type) {
	case *runtime.ObjectValue:
		if v, ok := o.Property(name); ok {
			return v, nil
		}
		if m, ok := o.Class.Method(name); ok {
			return runtime.BoundMethodValue{Receiver: o, Method: m}, nil
		}
		return nil, errorAt(tok, KindKeyError, "%s has no member '%s'", describe(o), name)
	case *runtime.ClassValue:
		if name == "name" {
			return runtime.String(o.Name), nil
		}
		if m, ok := o.Method(name); ok {
			return m, nil
		}
		return nil, errorAt(tok, KindKeyError, "class %s has no member '%s'", o.Name, name)
	case *runtime.NamespaceValue:
		if v, ok := o.Member(name); ok {
			return v, nil
		}
		return nil, errorAt(tok, KindUndefinedVariable, "namespace %s has no member '%s'", o.QualifiedName(), name)
	case *runtime.DictValue:
		if v, ok := builtinMember(o, name); ok {
			return v, nil
		}
		v, found, err := o.Get(runtime.String(name))
		if err != nil {
			return nil, locate(err, tok)
		}
		if !found {
			return nil, errorAt(tok, KindKeyError, "dict has no key '%s'", name)
		}
		return v, nil
	case *runtime.TaskValue:
		if name == "status" {
			return runtime.String(o.Status().String()), nil
		}
	default:
		if v, ok := builtinMember(obj, name); ok {
			return v, nil
		}
	}
	return nil, errorAt(tok, KindKeyError, "%s has no member '%s'", describe(obj), name)
}

// setMember writes `obj.name = v`; the caller positions the error.
func setMember(obj runtime.Value, name string, v runtime.Value) error {
	switch o := obj.(type) {
	case *runtime.ObjectValue:
		o.SetProperty(name, v)
		return nil
	case *runtime.NamespaceValue:
		return o.SetMember(name, v)
	case *runtime.DictValue:
		return o.Set(runtime.String(name), v)
	case runtime.TupleValue, runtime.StringValue:
		return Errorf(KindImmutableError, "cannot set member '%s' on %s", name, describe(obj))
	default:
		return Errorf(KindTypeError, "cannot set member '%s' on %s", name, describe(obj))
	}
}

// position converts an index value into a slice offset. Negative indices
// count from the end.
func position(idx runtime.Value, length int) (int, error) {
	n, ok := idx.(runtime.NumberValue)
	if !ok || !n.IsInteger() {
		return 0, Errorf(KindTypeError, "index must be an integer, got %s", describe(idx))
	}
	if math.Abs(n.Val) > float64(length) {
		return 0, Errorf(KindIndexError, "index %s out of range for length %d", formatNumber(n.Val), length)
	}
	pos := int(n.Val)
	if pos < 0 {
		pos += length
	}
	if pos < 0 || pos >= length {
		return 0, Errorf(KindIndexError, "index %s out of range for length %d", formatNumber(n.Val), length)
	}
	return pos, nil
}

func getIndex(obj, idx runtime.Value, tok token.Token) (runtime.Value, error) {
	switch o := obj.(type) {
	case *runtime.ListValue:
		pos, err := position(idx, len(o.Elements))
		if err != nil {
			return nil, locate(err, tok)
		}
		return o.Elements[pos], nil
	case runtime.TupleValue:
		pos, err := position(idx, len(o.Elements))
		if err != nil {
			return nil, locate(err, tok)
		}
		return o.Elements[pos], nil
	case runtime.StringValue:
		runes := []rune(o.Val)
		pos, err := position(idx, len(runes))
		if err != nil {
			return nil, locate(err, tok)
		}
		return runtime.String(string(runes[pos])), nil
	case *runtime.DictValue:
		v, found, err := o.Get(idx)
		if err != nil {
			return nil, locate(err, tok)
		}
		if !found {
			return nil, errorAt(tok, KindKeyError, "key %s not found", keyText(idx))
		}
		return v, nil
	default:
		return nil, errorAt(tok, KindTypeError, "%s is not indexable", describe(obj))
	}
}

func keyText(key runtime.Value) string {
	switch k := key.(type) {
	case runtime.StringValue:
		return strconv.Quote(k.Val)
	case runtime.NumberValue:
		return formatNumber(k.Val)
	case runtime.BoolValue:
		return strconv.FormatBool(k.Val)
	default:
		return describe(key)
	}
}

func setIndex(obj, idx, v runtime.Value) error {
	switch o := obj.(type) {
	case *runtime.ListValue:
		pos, err := position(idx, len(o.Elements))
		if err != nil {
			return err
		}
		o.Elements[pos] = v
		return nil
	case *runtime.DictValue:
		return o.Set(idx, v)
	case runtime.TupleValue, runtime.StringValue:
		return Errorf(KindImmutableError, "%s does not support item assignment", describe(obj))
	default:
		return Errorf(KindTypeError, "%s does not support item assignment", describe(obj))
	}
}
