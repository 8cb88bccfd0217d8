package runtime

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrImmutable is returned when writing to a read-only namespace or tuple.
var ErrImmutable = errors.New("immutable value")

// NamespaceValue is a named scope exposed through `using` and member access.
// Path is the full dotted path from the top-level namespace. Scope is entered
// directly while a namespace body runs, so functions declared there close
// over it.
type NamespaceValue struct {
	Name     string
	Path     []string
	Scope    *Frame
	Mutable  bool
	Standard bool

	mu       sync.RWMutex
	children map[string]*NamespaceValue
}

func NewNamespace(path []string, mutable bool, parent *Frame) *NamespaceValue {
	return &NamespaceValue{
		Name:     path[len(path)-1],
		Path:     append([]string(nil), path...),
		Scope:    NewFrame(parent),
		Mutable:  mutable,
		children: make(map[string]*NamespaceValue),
	}
}

// NewStandardNamespace builds a read-only namespace from native members.
func NewStandardNamespace(name string, members map[string]Value) *NamespaceValue {
	ns := NewNamespace([]string{name}, false, nil)
	ns.Standard = true
	for k, v := range members {
		ns.Scope.DefineConstant(k, v)
	}
	return ns
}

func (v *NamespaceValue) Kind() Kind { return KindNamespace }

func (v *NamespaceValue) QualifiedName() string {
	return strings.Join(v.Path, ".")
}

func (v *NamespaceValue) Child(name string) (*NamespaceValue, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	child, ok := v.children[name]
	return child, ok
}

// EnsureChild returns the named child, creating it when absent. A new
// child's scope is nested in this namespace's scope.
func (v *NamespaceValue) EnsureChild(name string, mutable bool) *NamespaceValue {
	v.mu.Lock()
	defer v.mu.Unlock()
	if child, ok := v.children[name]; ok {
		if mutable {
			child.Mutable = true
		}
		return child
	}
	path := append(append([]string(nil), v.Path...), name)
	child := NewNamespace(path, mutable, v.Scope)
	v.children[name] = child
	return child
}

// Children returns the child namespaces sorted by name.
func (v *NamespaceValue) Children() []*NamespaceValue {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*NamespaceValue, 0, len(v.children))
	for _, child := range v.children {
		out = append(out, child)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Member resolves a variable, constant or child namespace by name.
func (v *NamespaceValue) Member(name string) (Value, bool) {
	if val, ok := v.Scope.Variable(name); ok {
		return val, true
	}
	if val, ok := v.Scope.Constant(name); ok {
		return val, true
	}
	if child, ok := v.Child(name); ok {
		return child, true
	}
	return nil, false
}

// SetMember writes a member of a mutable namespace. Constants and child
// namespaces cannot be replaced.
func (v *NamespaceValue) SetMember(name string, value Value) error {
	if !v.Mutable {
		return fmt.Errorf("%w: namespace %s is read-only", ErrImmutable, v.QualifiedName())
	}
	if _, ok := v.Scope.Constant(name); ok {
		return fmt.Errorf("%w: cannot assign to constant '%s.%s'", ErrConstantAssignment, v.QualifiedName(), name)
	}
	if _, ok := v.Child(name); ok {
		return fmt.Errorf("%w: cannot replace namespace '%s.%s'", ErrImmutable, v.QualifiedName(), name)
	}
	v.Scope.Define(name, value)
	return nil
}

// MemberNames lists every member name, sorted.
func (v *NamespaceValue) MemberNames() []string {
	vars, consts := v.Scope.Names()
	names := append(vars, consts...)
	for _, child := range v.Children() {
		names = append(names, child.Name)
	}
	sort.Strings(names)
	return names
}
