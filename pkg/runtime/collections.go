package runtime

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// ErrUnhashable is returned when a value cannot be used as a dictionary key.
var ErrUnhashable = errors.New("unhashable key")

type dictEntry struct {
	key   Value
	value Value
}

// DictValue maps hashable keys (numbers, strings, booleans, null and tuples
// of those) to values, preserving insertion order.
type DictValue struct {
	mu      sync.RWMutex
	entries *linkedhashmap.Map
}

func NewDict() *DictValue {
	return &DictValue{entries: linkedhashmap.New()}
}

func (v *DictValue) Kind() Kind { return KindDict }

// HashKey returns the comparable identity of a key. All NaN numbers share
// one key.
func HashKey(key Value) (any, error) {
	switch k := key.(type) {
	case NumberValue:
		if k.Val == 0 {
			return NumberValue{}, nil
		}
		if math.IsNaN(k.Val) {
			return nanKey{}, nil
		}
		return k, nil
	case StringValue, BoolValue, NullValue:
		return k, nil
	case TupleValue:
		var b strings.Builder
		if err := writeTupleKey(&b, k); err != nil {
			return nil, err
		}
		return tupleKey(b.String()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnhashable, key.Kind())
	}
}

type tupleKey string

type nanKey struct{}

func writeTupleKey(b *strings.Builder, t TupleValue) error {
	b.WriteByte('(')
	for i, el := range t.Elements {
		if i > 0 {
			b.WriteByte(',')
		}
		switch e := el.(type) {
		case NumberValue:
			if math.IsNaN(e.Val) {
				b.WriteString("nNaN")
				continue
			}
			b.WriteString("n" + strconv.FormatFloat(e.Val+0, 'g', -1, 64))
		case StringValue:
			b.WriteString("s" + strconv.Quote(e.Val))
		case BoolValue:
			b.WriteString("b" + strconv.FormatBool(e.Val))
		case NullValue:
			b.WriteString("null")
		case TupleValue:
			if err := writeTupleKey(b, e); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: tuple containing %s", ErrUnhashable, el.Kind())
		}
	}
	b.WriteByte(')')
	return nil
}

func (v *DictValue) Get(key Value) (Value, bool, error) {
	h, err := HashKey(key)
	if err != nil {
		return nil, false, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	raw, ok := v.entries.Get(h)
	if !ok {
		return nil, false, nil
	}
	return raw.(dictEntry).value, true, nil
}

func (v *DictValue) Set(key, value Value) error {
	h, err := HashKey(key)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if raw, ok := v.entries.Get(h); ok {
		key = raw.(dictEntry).key
	}
	v.entries.Put(h, dictEntry{key: key, value: value})
	return nil
}

func (v *DictValue) Delete(key Value) (bool, error) {
	h, err := HashKey(key)
	if err != nil {
		return false, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.entries.Get(h); !ok {
		return false, nil
	}
	v.entries.Remove(h)
	return true, nil
}

func (v *DictValue) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.entries.Size()
}

// Each visits entries in insertion order until fn returns false. The entries
// are copied first, so fn may modify the dictionary.
func (v *DictValue) Each(fn func(key, value Value) bool) {
	for _, e := range v.snapshot() {
		if !fn(e.key, e.value) {
			return
		}
	}
}

func (v *DictValue) Keys() []Value {
	entries := v.snapshot()
	out := make([]Value, len(entries))
	for i, e := range entries {
		out[i] = e.key
	}
	return out
}

func (v *DictValue) Values() []Value {
	entries := v.snapshot()
	out := make([]Value, len(entries))
	for i, e := range entries {
		out[i] = e.value
	}
	return out
}

func (v *DictValue) snapshot() []dictEntry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]dictEntry, 0, v.entries.Size())
	it := v.entries.Iterator()
	for it.Next() {
		out = append(out, it.Value().(dictEntry))
	}
	return out
}

// ObjectValue is an instance of a class with an insertion-ordered property
// table.
type ObjectValue struct {
	Class *ClassValue
	mu    sync.RWMutex
	props *linkedhashmap.Map
}

func NewObject(class *ClassValue) *ObjectValue {
	return &ObjectValue{Class: class, props: linkedhashmap.New()}
}

func (v *ObjectValue) Kind() Kind { return KindObject }

func (v *ObjectValue) Property(name string) (Value, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	raw, ok := v.props.Get(name)
	if !ok {
		return nil, false
	}
	return raw.(Value), true
}

func (v *ObjectValue) SetProperty(name string, value Value) {
	v.mu.Lock()
	v.props.Put(name, value)
	v.mu.Unlock()
}

// PropertyNames lists properties in the order they were first assigned.
func (v *ObjectValue) PropertyNames() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := v.props.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.(string)
	}
	return out
}
