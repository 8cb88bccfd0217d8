package interpreter

import (
	"cinder/interpreter-go/pkg/runtime"
	"cinder/interpreter-go/pkg/token"
)

// Helpers shared with native libraries, so builtins follow the same value
// rules as the evaluator.

// Truthy reports whether v counts as true in a condition.
func Truthy(v runtime.Value) bool {
	return truthy(v)
}

// Equal is the == operator.
func Equal(a, b runtime.Value) bool {
	return valuesEqual(a, b)
}

// ToNumber applies arithmetic coercion.
func ToNumber(v runtime.Value) (float64, bool) {
	return toNumber(v)
}

// FormatNumber renders a number without a trailing .0 when integral.
func FormatNumber(f float64) string {
	return formatNumber(f)
}

// Describe names a value's kind for error messages.
func Describe(v runtime.Value) string {
	return describe(v)
}

// Elements collects what a for loop over v would visit.
func Elements(v runtime.Value) ([]runtime.Value, error) {
	var out []runtime.Value
	err := iterate(v, token.Token{}, func(item runtime.Value) (bool, error) {
		out = append(out, item)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
