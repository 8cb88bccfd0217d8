// Package stdlib provides Cinder's builtin functions and standard
// namespaces.
package stdlib

import (
	"sort"

	"cinder/interpreter-go/pkg/interpreter"
	"cinder/interpreter-go/pkg/runtime"
)

// Registry maps names to host functions and standard namespace factories.
// It is populated before a program runs and installed into an interpreter.
type Registry struct {
	builtins   map[string]runtime.NativeFunctionValue
	namespaces map[string]interpreter.NamespaceFactory
}

func NewRegistry() *Registry {
	return &Registry{
		builtins:   make(map[string]runtime.NativeFunctionValue),
		namespaces: make(map[string]interpreter.NamespaceFactory),
	}
}

// Default returns a registry with every builtin and standard namespace.
func Default() *Registry {
	r := NewRegistry()
	registerCore(r)
	r.RegisterNamespace("math", mathNamespace)
	r.RegisterNamespace("strings", stringsNamespace)
	r.RegisterNamespace("io", ioNamespace)
	r.RegisterNamespace("json", jsonNamespace)
	r.RegisterNamespace("random", randomNamespace)
	r.RegisterNamespace("task", taskNamespace)
	return r
}

// Install registers the default library with interp.
func Install(interp *interpreter.Interpreter) {
	Default().Install(interp)
}

func (r *Registry) Register(fn runtime.NativeFunctionValue) {
	r.builtins[fn.Name] = fn
}

func (r *Registry) RegisterNamespace(name string, factory interpreter.NamespaceFactory) {
	r.namespaces[name] = factory
}

func (r *Registry) Lookup(name string) (runtime.NativeFunctionValue, bool) {
	fn, ok := r.builtins[name]
	return fn, ok
}

// Names lists the registered builtins, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builtins))
	for name := range r.builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Install defines every builtin as a global constant and makes the
// namespaces available to `using`.
func (r *Registry) Install(interp *interpreter.Interpreter) {
	for _, fn := range r.builtins {
		interp.DefineNative(fn)
	}
	for name, factory := range r.namespaces {
		interp.RegisterNamespace(name, factory)
	}
}

// namespace builds a standard namespace from native functions and constants.
func namespace(name string, fns []runtime.NativeFunctionValue, constants map[string]runtime.Value) *runtime.NamespaceValue {
	members := make(map[string]runtime.Value, len(fns)+len(constants))
	for _, fn := range fns {
		members[fn.Name] = fn
	}
	for k, v := range constants {
		members[k] = v
	}
	return runtime.NewStandardNamespace(name, members)
}
