package interpreter

import (
	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/runtime"
)

// evaluate visits any statement, including expression statements.
func (i *Interpreter) evaluate(node ast.Statement, env *runtime.Environment) (Result, error) {
	switch n := node.(type) {
	case *ast.Block:
		return i.runBlock(n, env)
	case *ast.LetDeclaration:
		return i.evaluateLet(n, env)
	case *ast.FunctionDef:
		return resultOf(i.defineFunction(n, env)), nil
	case *ast.ClassDef:
		return resultOf(i.defineClass(n, env)), nil
	case *ast.If:
		return i.evaluateIf(n, env)
	case *ast.While:
		return i.evaluateWhile(n, env)
	case *ast.For:
		return i.evaluateFor(n, env)
	case *ast.Switch:
		return i.evaluateSwitch(n, env)
	case *ast.Return:
		return i.evaluateSignal(SignalReturn, n.Value, n, env)
	case *ast.Break:
		return i.evaluateSignal(SignalBreak, n.Value, n, env)
	case *ast.Continue:
		return signal(SignalContinue, nil, n.Origin()), nil
	case *ast.Out:
		return i.evaluateSignal(SignalOut, n.Value, n, env)
	case *ast.UsingDirective:
		return i.evaluateUsing(n, env)
	case *ast.NamespaceDirective:
		return i.evaluateNamespace(n, env)
	case *ast.IncludeDirective:
		return Result{Value: runtime.Null, Signal: SignalInclude, Token: n.Origin(), Include: n}, nil
	case ast.Expression:
		return i.evaluateExpression(n, env)
	default:
		return Result{}, errorAt(node.Origin(), KindTypeError, "unsupported statement %s", node.NodeType())
	}
}

// evaluateHoisted runs a file or namespace body: function and class
// definitions first, then everything else in order. each sees the result of
// every non-hoisted statement.
func (i *Interpreter) evaluateHoisted(body []ast.Statement, env *runtime.Environment, each func(Result) error) error {
	for _, stmt := range body {
		if !ast.Hoisted(stmt) {
			continue
		}
		if _, err := i.evaluate(stmt, env); err != nil {
			return err
		}
	}
	for _, stmt := range body {
		if ast.Hoisted(stmt) {
			continue
		}
		res, err := i.evaluate(stmt, env)
		if err != nil {
			return err
		}
		if err := each(res); err != nil {
			return err
		}
	}
	return nil
}

// runStatements evaluates statements in the current frame. The value is that
// of the last statement; a signal stops the sequence.
func (i *Interpreter) runStatements(body []ast.Statement, env *runtime.Environment) (Result, error) {
	last := resultOf(runtime.Null)
	for _, stmt := range body {
		res, err := i.evaluate(stmt, env)
		if err != nil || res.escaping() {
			return res, err
		}
		last = res
	}
	return last, nil
}

// runBlock evaluates a block in a fresh frame.
func (i *Interpreter) runBlock(block *ast.Block, env *runtime.Environment) (Result, error) {
	env.Push(nil)
	defer env.Pop()
	return i.runStatements(block.Body, env)
}

func (i *Interpreter) evaluateLet(n *ast.LetDeclaration, env *runtime.Environment) (Result, error) {
	var val runtime.Value = runtime.Null
	if n.Value != nil {
		res, err := i.evaluate(n.Value, env)
		if err != nil || res.escaping() {
			return res, err
		}
		val = res.Value
	}
	if n.Constant {
		env.DefineConstant(n.Name, val)
	} else {
		env.Define(n.Name, val)
	}
	return resultOf(val), nil
}

func (i *Interpreter) evaluateSignal(sig Signal, expr ast.Expression, node ast.Statement, env *runtime.Environment) (Result, error) {
	if expr == nil {
		return signal(sig, nil, node.Origin()), nil
	}
	res, err := i.evaluate(expr, env)
	if err != nil || res.escaping() {
		return res, err
	}
	return signal(sig, res.Value, node.Origin()), nil
}

func (i *Interpreter) defineFunction(n *ast.FunctionDef, env *runtime.Environment) *runtime.FunctionValue {
	fn := &runtime.FunctionValue{
		Name:    n.Name,
		Params:  n.Params,
		Body:    n.Body,
		Closure: env.Current(),
	}
	if n.Name != "" {
		env.Define(n.Name, fn)
	}
	return fn
}

// defineClass builds the shared method table once per definition.
func (i *Interpreter) defineClass(n *ast.ClassDef, env *runtime.Environment) *runtime.ClassValue {
	closure := env.Current()
	class := &runtime.ClassValue{
		Name:    n.Name,
		Fields:  n.Fields,
		Methods: make(map[string]*runtime.FunctionValue, len(n.Methods)),
		Closure: closure,
	}
	if n.Constructor != nil {
		class.Constructor = &runtime.FunctionValue{
			Name:    n.Name + ".init",
			Params:  n.Constructor.Params,
			Body:    n.Constructor.Body,
			Closure: closure,
		}
	}
	for _, m := range n.Methods {
		class.Methods[m.Name] = &runtime.FunctionValue{
			Name:    n.Name + "." + m.Name,
			Params:  m.Params,
			Body:    m.Body,
			Closure: closure,
		}
	}
	env.Define(n.Name, class)
	return class
}

func (i *Interpreter) evaluateIf(n *ast.If, env *runtime.Environment) (Result, error) {
	cond, err := i.evaluate(n.Condition, env)
	if err != nil || cond.escaping() {
		return cond, err
	}
	if truthy(cond.Value) {
		return i.runBlock(n.Then, env)
	}
	for _, clause := range n.Elifs {
		cond, err := i.evaluate(clause.Condition, env)
		if err != nil || cond.escaping() {
			return cond, err
		}
		if truthy(cond.Value) {
			return i.runBlock(clause.Body, env)
		}
	}
	if n.Else != nil {
		return i.runBlock(n.Else, env)
	}
	return resultOf(runtime.Null), nil
}

func (i *Interpreter) evaluateSwitch(n *ast.Switch, env *runtime.Environment) (Result, error) {
	subject, err := i.evaluate(n.Subject, env)
	if err != nil || subject.escaping() {
		return subject, err
	}
	for _, c := range n.Cases {
		for _, expr := range c.Values {
			candidate, err := i.evaluate(expr, env)
			if err != nil || candidate.escaping() {
				return candidate, err
			}
			if valuesEqual(subject.Value, candidate.Value) {
				return i.runBlock(c.Body, env)
			}
		}
	}
	if n.Default != nil {
		return i.runBlock(n.Default, env)
	}
	return resultOf(runtime.Null), nil
}

// loopState collects out values for one loop.
type loopState struct {
	outs    []runtime.Value
	emitted bool
}

// absorb folds one iteration's result into the loop. When stop is true the
// returned Result is what the loop evaluates to, or a signal for an outer
// construct.
func (l *loopState) absorb(res Result) (stop bool, out Result) {
	switch res.Signal {
	case SignalBreak:
		return true, resultOf(res.Value)
	case SignalOut:
		l.outs = append(l.outs, res.Value)
		l.emitted = true
		return false, Result{}
	case SignalNone, SignalContinue:
		return false, Result{}
	default:
		return true, res
	}
}

func (l *loopState) result() Result {
	if !l.emitted {
		return resultOf(runtime.Null)
	}
	return resultOf(runtime.NewList(l.outs))
}

// runIteration evaluates one loop body in its own frame; bind seeds the
// frame with the loop variable.
func (i *Interpreter) runIteration(body *ast.Block, env *runtime.Environment, bind func(*runtime.Frame)) (Result, error) {
	frame := env.Push(nil)
	defer env.Pop()
	if bind != nil {
		bind(frame)
	}
	return i.runStatements(body.Body, env)
}

func (i *Interpreter) evaluateWhile(n *ast.While, env *runtime.Environment) (Result, error) {
	var loop loopState
	for {
		cond, err := i.evaluate(n.Condition, env)
		if err != nil || cond.escaping() {
			return cond, err
		}
		if !truthy(cond.Value) {
			return loop.result(), nil
		}
		res, err := i.runIteration(n.Body, env, nil)
		if err != nil {
			return Result{}, err
		}
		if stop, out := loop.absorb(res); stop {
			return out, nil
		}
	}
}

func (i *Interpreter) evaluateFor(n *ast.For, env *runtime.Environment) (Result, error) {
	iterable, err := i.evaluate(n.Iterable, env)
	if err != nil || iterable.escaping() {
		return iterable, err
	}
	var (
		loop    loopState
		stopped bool
		final   Result
	)
	err = iterate(iterable.Value, n.Iterable.Origin(), func(item runtime.Value) (bool, error) {
		res, err := i.runIteration(n.Body, env, func(f *runtime.Frame) {
			f.Define(n.Variable, item)
		})
		if err != nil {
			return false, err
		}
		if stop, out := loop.absorb(res); stop {
			stopped, final = true, out
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return Result{}, err
	}
	if stopped {
		return final, nil
	}
	return loop.result(), nil
}
