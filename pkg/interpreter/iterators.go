package interpreter

import (
	"cinder/interpreter-go/pkg/runtime"
	"cinder/interpreter-go/pkg/token"
)

// iterate calls fn with each element of an iterable until fn returns false or
// an error. Lists are read by index on every step, so a body may append to the
// list it is walking.
func iterate(iterable runtime.Value, tok token.Token, fn func(runtime.Value) (bool, error)) error {
	var err error
	switch it := iterable.(type) {
	case runtime.RangeValue:
		if it.Step == 0 {
			return errorAt(tok, KindValueError, "range step cannot be zero")
		}
		it.Each(func(f float64) bool {
			var more bool
			more, err = fn(runtime.Number(f))
			return more && err == nil
		})
		return err
	case *runtime.ListValue:
		for idx := 0; idx < len(it.Elements); idx++ {
			more, err := fn(it.Elements[idx])
			if err != nil || !more {
				return err
			}
		}
		return nil
	case runtime.TupleValue:
		return eachValue(it.Elements, fn)
	case runtime.StringValue:
		for _, r := range it.Val {
			more, err := fn(runtime.String(string(r)))
			if err != nil || !more {
				return err
			}
		}
		return nil
	case *runtime.DictValue:
		return eachValue(it.Keys(), fn)
	default:
		return errorAt(tok, KindTypeError, "%s is not iterable", describe(iterable))
	}
}

func eachValue(values []runtime.Value, fn func(runtime.Value) (bool, error)) error {
	for _, v := range values {
		more, err := fn(v)
		if err != nil || !more {
			return err
		}
	}
	return nil
}
