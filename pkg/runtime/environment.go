package runtime

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrUndefinedVariable  = errors.New("undefined variable")
	ErrConstantAssignment = errors.New("constant assignment")
)

// Frame is one lexical scope: a variable table, a constant table and a parent
// link. Frames are shared by pointer between the environment stack and every
// closure created inside them, so all access goes through the lock.
type Frame struct {
	mu     sync.RWMutex
	vars   map[string]Value
	consts map[string]Value
	parent *Frame
}

func NewFrame(parent *Frame) *Frame {
	return &Frame{
		vars:   make(map[string]Value),
		consts: make(map[string]Value),
		parent: parent,
	}
}

// Parent exposes the lexical parent (nil when global).
func (f *Frame) Parent() *Frame {
	return f.parent
}

// Define inserts or shadows a variable in this frame.
func (f *Frame) Define(name string, value Value) {
	f.mu.Lock()
	delete(f.consts, name)
	f.vars[name] = value
	f.mu.Unlock()
}

// DefineConstant inserts or shadows a constant in this frame.
func (f *Frame) DefineConstant(name string, value Value) {
	f.mu.Lock()
	delete(f.vars, name)
	f.consts[name] = value
	f.mu.Unlock()
}

// Variable looks name up in this frame's variable table only.
func (f *Frame) Variable(name string) (Value, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.vars[name]
	return v, ok
}

// Constant looks name up in this frame's constant table only.
func (f *Frame) Constant(name string) (Value, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.consts[name]
	return v, ok
}

func (f *Frame) assign(name string, value Value) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vars[name]; !ok {
		return false
	}
	f.vars[name] = value
	return true
}

// Lookup resolves name through this frame and its parents: variables
// outward first, then constants outward.
func (f *Frame) Lookup(name string) (Value, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		if v, ok := cur.Variable(name); ok {
			return v, true
		}
	}
	for cur := f; cur != nil; cur = cur.parent {
		if v, ok := cur.Constant(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Assign rebinds the nearest variable called name.
func (f *Frame) Assign(name string, value Value) error {
	for cur := f; cur != nil; cur = cur.parent {
		if cur.assign(name, value) {
			return nil
		}
	}
	for cur := f; cur != nil; cur = cur.parent {
		if _, ok := cur.Constant(name); ok {
			return fmt.Errorf("%w: cannot assign to constant '%s'", ErrConstantAssignment, name)
		}
	}
	return fmt.Errorf("%w '%s'", ErrUndefinedVariable, name)
}

// Names returns the variables and constants of this frame in sorted order.
func (f *Frame) Names() (vars, consts []string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	vars = make([]string, 0, len(f.vars))
	for k := range f.vars {
		vars = append(vars, k)
	}
	consts = make([]string, 0, len(f.consts))
	for k := range f.consts {
		consts = append(consts, k)
	}
	sort.Strings(vars)
	sort.Strings(consts)
	return vars, consts
}

// Snapshot returns a copy of the frame's variables and constants.
func (f *Frame) Snapshot() map[string]Value {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]Value, len(f.vars)+len(f.consts))
	for k, v := range f.consts {
		out[k] = v
	}
	for k, v := range f.vars {
		out[k] = v
	}
	return out
}

// namespaceTable is shared by an environment and all of its forks.
type namespaceTable struct {
	mu       sync.RWMutex
	entries  map[string]*NamespaceValue
	standard map[string]*NamespaceValue
}

// Environment is the scope stack of one running program. Nested execution
// pushes and pops frames on the same instance; concurrent tasks use Fork.
type Environment struct {
	mu         sync.Mutex
	stack      []*Frame
	global     *Frame
	namespaces *namespaceTable
}

func NewEnvironment() *Environment {
	global := NewFrame(nil)
	return &Environment{
		stack:  []*Frame{global},
		global: global,
		namespaces: &namespaceTable{
			entries:  make(map[string]*NamespaceValue),
			standard: make(map[string]*NamespaceValue),
		},
	}
}

// Fork returns an environment for a concurrent task. It shares the global
// frame and namespace table but has its own stack, rooted at seed.
func (e *Environment) Fork(seed *Frame) *Environment {
	if seed == nil {
		seed = e.global
	}
	return &Environment{
		stack:      []*Frame{seed},
		global:     e.global,
		namespaces: e.namespaces,
	}
}

func (e *Environment) Global() *Frame {
	return e.global
}

// Current returns the innermost frame.
func (e *Environment) Current() *Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stack[len(e.stack)-1]
}

// Depth is the number of frames on the stack.
func (e *Environment) Depth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.stack)
}

// Push opens a frame whose parent is seed, or the current frame when seed is
// nil. Every Push must be paired with a Pop.
func (e *Environment) Push(seed *Frame) *Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seed == nil {
		seed = e.stack[len(e.stack)-1]
	}
	frame := NewFrame(seed)
	e.stack = append(e.stack, frame)
	return frame
}

// Enter pushes an existing frame, such as a namespace scope. It is paired
// with Pop like Push.
func (e *Environment) Enter(frame *Frame) {
	e.mu.Lock()
	e.stack = append(e.stack, frame)
	e.mu.Unlock()
}

// Pop closes the innermost frame. The root frame is never removed.
func (e *Environment) Pop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.stack) > 1 {
		e.stack[len(e.stack)-1] = nil
		e.stack = e.stack[:len(e.stack)-1]
	}
}

func (e *Environment) Define(name string, value Value) {
	e.Current().Define(name, value)
}

func (e *Environment) DefineConstant(name string, value Value) {
	e.Current().DefineConstant(name, value)
}

// Get resolves name: registered namespaces first, then variables outward,
// then constants outward.
func (e *Environment) Get(name string) (Value, error) {
	if ns, ok := e.LookupNamespace(name); ok {
		return ns, nil
	}
	if v, ok := e.Current().Lookup(name); ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w '%s'", ErrUndefinedVariable, name)
}

// Set rebinds the nearest variable called name.
func (e *Environment) Set(name string, value Value) error {
	return e.Current().Assign(name, value)
}

// DefineNamespace registers a top-level namespace.
func (e *Environment) DefineNamespace(ns *NamespaceValue) {
	e.namespaces.mu.Lock()
	e.namespaces.entries[ns.Name] = ns
	e.namespaces.mu.Unlock()
}

func (e *Environment) LookupNamespace(name string) (*NamespaceValue, bool) {
	e.namespaces.mu.RLock()
	defer e.namespaces.mu.RUnlock()
	ns, ok := e.namespaces.entries[name]
	return ns, ok
}

// StandardNamespace returns the standard namespace called name, building it
// with factory the first time it is requested in this environment.
func (e *Environment) StandardNamespace(name string, factory func() *NamespaceValue) (*NamespaceValue, bool) {
	e.namespaces.mu.Lock()
	defer e.namespaces.mu.Unlock()
	if ns, ok := e.namespaces.standard[name]; ok {
		return ns, false
	}
	ns := factory()
	e.namespaces.standard[name] = ns
	return ns, true
}

// DefineWildcardNamespace copies every member of ns into the current frame.
// Constants stay constant; child namespaces become variables.
func (e *Environment) DefineWildcardNamespace(ns *NamespaceValue) {
	target := e.Current()
	vars, consts := ns.Scope.Names()
	for _, name := range vars {
		if v, ok := ns.Scope.Variable(name); ok {
			target.Define(name, v)
		}
	}
	for _, name := range consts {
		if v, ok := ns.Scope.Constant(name); ok {
			target.DefineConstant(name, v)
		}
	}
	for _, child := range ns.Children() {
		target.Define(child.Name, child)
	}
}
