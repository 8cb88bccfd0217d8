package interpreter

import (
	"strings"

	"go.uber.org/zap"

	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/runtime"
	"cinder/interpreter-go/pkg/token"
)

// rootNamespace finds a top-level namespace: one declared by the program,
// otherwise a registered standard namespace, built on first use.
func (i *Interpreter) rootNamespace(name string, env *runtime.Environment, tok token.Token) (*runtime.NamespaceValue, error) {
	if ns, ok := env.LookupNamespace(name); ok {
		return ns, nil
	}
	factory, ok := i.standard[name]
	if !ok {
		return nil, errorAt(tok, KindUndefinedVariable, "unknown namespace '%s'", name)
	}
	ns, created := env.StandardNamespace(name, factory)
	if created {
		i.logger.Debug("instantiate standard namespace", zap.String("namespace", name))
	}
	return ns, nil
}

// resolvePath walks a dotted path from a root namespace. The last segment may
// name any member; earlier segments must be namespaces.
func (i *Interpreter) resolvePath(path []string, env *runtime.Environment, tok token.Token) (runtime.Value, error) {
	ns, err := i.rootNamespace(path[0], env, tok)
	if err != nil {
		return nil, err
	}
	var current runtime.Value = ns
	for idx, name := range path[1:] {
		parent, ok := current.(*runtime.NamespaceValue)
		if !ok {
			return nil, errorAt(tok, KindTypeError, "%s is not a namespace", strings.Join(path[:idx+1], "."))
		}
		member, ok := parent.Member(name)
		if !ok {
			return nil, errorAt(tok, KindUndefinedVariable, "namespace %s has no member '%s'", parent.QualifiedName(), name)
		}
		current = member
	}
	return current, nil
}

func (i *Interpreter) evaluateUsing(n *ast.UsingDirective, env *runtime.Environment) (Result, error) {
	target, err := i.resolvePath(n.Path, env, n.Origin())
	if err != nil {
		return Result{}, err
	}
	switch {
	case n.Wildcard || len(n.Selectors) > 0:
		ns, ok := target.(*runtime.NamespaceValue)
		if !ok {
			return Result{}, errorAt(n.Origin(), KindTypeError, "%s is not a namespace", strings.Join(n.Path, "."))
		}
		if n.Wildcard {
			env.DefineWildcardNamespace(ns)
			return resultOf(ns), nil
		}
		for _, name := range n.Selectors {
			member, ok := ns.Member(name)
			if !ok {
				return Result{}, errorAt(n.Origin(), KindUndefinedVariable, "namespace %s has no member '%s'", ns.QualifiedName(), name)
			}
			env.Define(name, member)
		}
		return resultOf(ns), nil
	default:
		name := n.Alias
		if name == "" {
			name = n.Path[len(n.Path)-1]
		}
		env.Define(name, target)
		return resultOf(target), nil
	}
}

// evaluateNamespace creates or reopens the namespaces along the path and runs
// the body directly in the innermost namespace's scope.
func (i *Interpreter) evaluateNamespace(n *ast.NamespaceDirective, env *runtime.Environment) (Result, error) {
	last := len(n.Path) - 1
	root, ok := env.LookupNamespace(n.Path[0])
	if !ok {
		root = runtime.NewNamespace(n.Path[:1], last == 0 && n.Mutable, env.Global())
		env.DefineNamespace(root)
	} else if last == 0 && n.Mutable {
		root.Mutable = true
	}
	ns := root
	for idx, name := range n.Path[1:] {
		ns = ns.EnsureChild(name, idx+1 == last && n.Mutable)
	}
	i.logger.Debug("enter namespace", zap.String("namespace", ns.QualifiedName()))

	env.Enter(ns.Scope)
	defer env.Pop()
	err := i.evaluateHoisted(n.Body.Body, env, func(res Result) error {
		if res.escaping() {
			return escapeError(res)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return resultOf(ns), nil
}
