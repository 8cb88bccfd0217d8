package interpreter

import (
	"math"
	"strconv"
	"strings"

	"cinder/interpreter-go/pkg/runtime"
)

// format renders a value the way print and interpolation show it. Strings are
// raw at the top level and quoted inside collections; a collection reached
// again while it is being rendered prints as a placeholder.
func (i *Interpreter) format(env *runtime.Environment, v runtime.Value) string {
	var b strings.Builder
	i.writeValue(&b, env, v, false, make(map[any]bool))
	return b.String()
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f+0, 'f', 0, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

func (i *Interpreter) writeValue(b *strings.Builder, env *runtime.Environment, v runtime.Value, nested bool, active map[any]bool) {
	switch val := v.(type) {
	case nil, runtime.NullValue:
		b.WriteString("null")
	case runtime.NumberValue:
		b.WriteString(formatNumber(val.Val))
	case runtime.StringValue:
		if nested {
			b.WriteString(strconv.Quote(val.Val))
		} else {
			b.WriteString(val.Val)
		}
	case runtime.BoolValue:
		b.WriteString(strconv.FormatBool(val.Val))
	case *runtime.ListValue:
		if active[val] {
			b.WriteString("[...]")
			return
		}
		active[val] = true
		defer delete(active, val)
		b.WriteByte('[')
		i.writeElements(b, env, val.Elements, active)
		b.WriteByte(']')
	case runtime.TupleValue:
		b.WriteByte('(')
		i.writeElements(b, env, val.Elements, active)
		if len(val.Elements) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case *runtime.DictValue:
		if active[val] {
			b.WriteString("{...}")
			return
		}
		active[val] = true
		defer delete(active, val)
		b.WriteByte('{')
		first := true
		val.Each(func(k, item runtime.Value) bool {
			if !first {
				b.WriteString(", ")
			}
			first = false
			i.writeValue(b, env, k, true, active)
			b.WriteString(": ")
			i.writeValue(b, env, item, true, active)
			return true
		})
		b.WriteByte('}')
	case runtime.RangeValue:
		b.WriteString(formatNumber(val.Start))
		if val.Inclusive {
			b.WriteString("..=")
		} else {
			b.WriteString("..")
		}
		b.WriteString(formatNumber(val.End))
		if val.Step != runtime.DefaultStep(val.Start, val.End) {
			b.WriteString(" step ")
			b.WriteString(formatNumber(val.Step))
		}
	case *runtime.ObjectValue:
		i.writeObject(b, env, val, active)
	case *runtime.FunctionValue:
		b.WriteString("<" + functionName(val) + ">")
	case runtime.NativeFunctionValue:
		b.WriteString("<native function " + val.Name + ">")
	case runtime.BoundMethodValue:
		b.WriteString("<bound " + functionName(val.Method) + ">")
	case runtime.NativeBoundMethodValue:
		b.WriteString("<bound native " + val.Method.Name + ">")
	case *runtime.ClassValue:
		b.WriteString("<class " + val.Name + ">")
	case *runtime.NamespaceValue:
		b.WriteString("<namespace " + val.QualifiedName() + ">")
	case *runtime.TaskValue:
		b.WriteString("<task " + val.Status().String() + ">")
	default:
		b.WriteString("<" + v.Kind().String() + ">")
	}
}

func (i *Interpreter) writeElements(b *strings.Builder, env *runtime.Environment, elems []runtime.Value, active map[any]bool) {
	for idx, el := range elems {
		if idx > 0 {
			b.WriteString(", ")
		}
		i.writeValue(b, env, el, true, active)
	}
}

// writeObject prefers a to_string method returning a string; otherwise it
// lists the properties in assignment order.
func (i *Interpreter) writeObject(b *strings.Builder, env *runtime.Environment, obj *runtime.ObjectValue, active map[any]bool) {
	name := obj.Class.Name
	if active[obj] {
		b.WriteString(name + "{...}")
		return
	}
	active[obj] = true
	defer delete(active, obj)
	if method, ok := obj.Class.Method("to_string"); ok && env != nil {
		out, err := i.invoke(env, method, []runtime.Value{obj}, method.Body.Origin())
		if s, isString := out.(runtime.StringValue); err == nil && isString {
			b.WriteString(s.Val)
			return
		}
	}
	b.WriteString(name)
	b.WriteByte('{')
	for idx, prop := range obj.PropertyNames() {
		if idx > 0 {
			b.WriteString(", ")
		}
		val, _ := obj.Property(prop)
		b.WriteString(prop + ": ")
		i.writeValue(b, env, val, true, active)
	}
	b.WriteByte('}')
}
