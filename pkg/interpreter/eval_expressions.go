package interpreter

import (
	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateExpression(node ast.Expression, env *runtime.Environment) (Result, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return resultOf(runtime.Number(n.Value)), nil
	case *ast.StringLiteral:
		return resultOf(runtime.String(n.Value)), nil
	case *ast.BoolLiteral:
		return resultOf(runtime.Bool(n.Value)), nil
	case *ast.NullLiteral:
		return resultOf(runtime.Null), nil
	case *ast.ListLiteral:
		elems, res, err := i.evaluateAll(n.Elements, env)
		if err != nil || res.escaping() {
			return res, err
		}
		return resultOf(runtime.NewList(elems)), nil
	case *ast.TupleLiteral:
		elems, res, err := i.evaluateAll(n.Elements, env)
		if err != nil || res.escaping() {
			return res, err
		}
		return resultOf(runtime.NewTuple(elems)), nil
	case *ast.DictLiteral:
		return i.evaluateDict(n, env)
	case *ast.RangeLiteral:
		return i.evaluateRange(n, env)
	case *ast.Variable:
		v, err := env.Get(n.Name)
		if err != nil {
			return Result{}, locate(err, n.Origin())
		}
		return resultOf(v), nil
	case *ast.BinaryOp:
		left, err := i.evaluate(n.Left, env)
		if err != nil || left.escaping() {
			return left, err
		}
		right, err := i.evaluate(n.Right, env)
		if err != nil || right.escaping() {
			return right, err
		}
		v, err := i.binary(n.Operator, left.Value, right.Value, n.Origin())
		return resultOf(v), err
	case *ast.LogicalOp:
		return i.evaluateLogical(n, env)
	case *ast.UnaryOp:
		return i.evaluateUnary(n, env)
	case *ast.Assignment:
		res, err := i.evaluate(n.Value, env)
		if err != nil || res.escaping() {
			return res, err
		}
		if err := env.Set(n.Name, res.Value); err != nil {
			return Result{}, locate(err, n.Origin())
		}
		return res, nil
	case *ast.ShorthandAssignment:
		return i.evaluateShorthand(n, env)
	case *ast.MemberAccess:
		obj, err := i.evaluate(n.Object, env)
		if err != nil || obj.escaping() {
			return obj, err
		}
		v, err := i.getMember(obj.Value, n.Member, n.Origin())
		return resultOf(v), err
	case *ast.IndexAccess:
		obj, err := i.evaluate(n.Object, env)
		if err != nil || obj.escaping() {
			return obj, err
		}
		idx, err := i.evaluate(n.Index, env)
		if err != nil || idx.escaping() {
			return idx, err
		}
		v, err := getIndex(obj.Value, idx.Value, n.Origin())
		return resultOf(v), err
	case *ast.MemberAssignment:
		return i.evaluateMemberAssignment(n, env)
	case *ast.FunctionCall:
		return i.evaluateCall(n, env)
	default:
		return Result{}, errorAt(node.Origin(), KindTypeError, "unsupported expression %s", node.NodeType())
	}
}

// evaluateAll evaluates expressions left to right, stopping at the first
// error or signal.
func (i *Interpreter) evaluateAll(exprs []ast.Expression, env *runtime.Environment) ([]runtime.Value, Result, error) {
	out := make([]runtime.Value, 0, len(exprs))
	for _, expr := range exprs {
		res, err := i.evaluate(expr, env)
		if err != nil || res.escaping() {
			return nil, res, err
		}
		out = append(out, res.Value)
	}
	return out, Result{}, nil
}

func (i *Interpreter) evaluateDict(n *ast.DictLiteral, env *runtime.Environment) (Result, error) {
	dict := runtime.NewDict()
	for _, entry := range n.Entries {
		key, err := i.evaluate(entry.Key, env)
		if err != nil || key.escaping() {
			return key, err
		}
		val, err := i.evaluate(entry.Value, env)
		if err != nil || val.escaping() {
			return val, err
		}
		if err := dict.Set(key.Value, val.Value); err != nil {
			return Result{}, locate(err, entry.Key.Origin())
		}
	}
	return resultOf(dict), nil
}

func (i *Interpreter) evaluateRange(n *ast.RangeLiteral, env *runtime.Environment) (Result, error) {
	bounds := []ast.Expression{n.Start, n.End}
	if n.Step != nil {
		bounds = append(bounds, n.Step)
	}
	vals, res, err := i.evaluateAll(bounds, env)
	if err != nil || res.escaping() {
		return res, err
	}
	nums := make([]float64, len(vals))
	for idx, v := range vals {
		f, ok := toNumber(v)
		if !ok {
			return Result{}, errorAt(bounds[idx].Origin(), KindTypeError, "range bound must be a number, got %s", v.Kind())
		}
		nums[idx] = f
	}
	r := runtime.RangeValue{Start: nums[0], End: nums[1], Inclusive: n.Inclusive}
	if n.Step != nil {
		r.Step = nums[2]
		if r.Step == 0 {
			return Result{}, errorAt(n.Step.Origin(), KindValueError, "range step cannot be zero")
		}
	} else {
		r.Step = runtime.DefaultStep(r.Start, r.End)
	}
	return resultOf(r), nil
}

func (i *Interpreter) evaluateLogical(n *ast.LogicalOp, env *runtime.Environment) (Result, error) {
	left, err := i.evaluate(n.Left, env)
	if err != nil || left.escaping() {
		return left, err
	}
	switch n.Operator {
	case "??":
		if _, isNull := left.Value.(runtime.NullValue); !isNull {
			return left, nil
		}
		return i.evaluate(n.Right, env)
	case "&&":
		if !truthy(left.Value) {
			return resultOf(runtime.Bool(false)), nil
		}
	case "||":
		if truthy(left.Value) {
			return resultOf(runtime.Bool(true)), nil
		}
	default:
		return Result{}, errorAt(n.Origin(), KindTypeError, "unknown logical operator %s", n.Operator)
	}
	right, err := i.evaluate(n.Right, env)
	if err != nil || right.escaping() {
		return right, err
	}
	return resultOf(runtime.Bool(truthy(right.Value))), nil
}

func (i *Interpreter) evaluateUnary(n *ast.UnaryOp, env *runtime.Environment) (Result, error) {
	operand, err := i.evaluate(n.Operand, env)
	if err != nil || operand.escaping() {
		return operand, err
	}
	switch n.Operator {
	case ast.UnaryNot:
		return resultOf(runtime.Bool(!truthy(operand.Value))), nil
	case ast.UnaryNegate, ast.UnaryPlus:
		f, ok := toNumber(operand.Value)
		if !ok {
			return Result{}, errorAt(n.Origin(), KindTypeError, "unary %s needs a number, got %s", n.Operator, operand.Value.Kind())
		}
		if n.Operator == ast.UnaryNegate {
			f = -f
		}
		return resultOf(runtime.Number(f)), nil
	case ast.UnaryInterpolate:
		tmpl, ok := operand.Value.(runtime.StringValue)
		if !ok {
			return Result{}, errorAt(n.Origin(), KindTypeError, "interpolation needs a string, got %s", operand.Value.Kind())
		}
		at := n.Origin()
		if lit, ok := n.Operand.(*ast.StringLiteral); ok {
			at = lit.Origin()
		}
		return i.interpolate(tmpl.Val, at, env)
	default:
		return Result{}, errorAt(n.Origin(), KindTypeError, "unknown unary operator %s", n.Operator)
	}
}

// place is an assignable location resolved once, so read-modify-write
// evaluates the target's object and index a single time.
type place struct {
	get func() (runtime.Value, error)
	set func(runtime.Value) error
}

func (i *Interpreter) resolvePlace(target ast.Expression, env *runtime.Environment) (place, Result, error) {
	switch t := target.(type) {
	case *ast.Variable:
		return place{
			get: func() (runtime.Value, error) { return env.Get(t.Name) },
			set: func(v runtime.Value) error { return env.Set(t.Name, v) },
		}, Result{}, nil
	case *ast.MemberAccess:
		obj, err := i.evaluate(t.Object, env)
		if err != nil || obj.escaping() {
			return place{}, obj, err
		}
		return place{
			get: func() (runtime.Value, error) { return i.getMember(obj.Value, t.Member, t.Origin()) },
			set: func(v runtime.Value) error { return setMember(obj.Value, t.Member, v) },
		}, Result{}, nil
	case *ast.IndexAccess:
		obj, err := i.evaluate(t.Object, env)
		if err != nil || obj.escaping() {
			return place{}, obj, err
		}
		idx, err := i.evaluate(t.Index, env)
		if err != nil || idx.escaping() {
			return place{}, idx, err
		}
		return place{
			get: func() (runtime.Value, error) { return getIndex(obj.Value, idx.Value, t.Origin()) },
			set: func(v runtime.Value) error { return setIndex(obj.Value, idx.Value, v) },
		}, Result{}, nil
	default:
		return place{}, Result{}, errorAt(target.Origin(), KindTypeError, "invalid assignment target %s", target.NodeType())
	}
}

func (i *Interpreter) evaluateMemberAssignment(n *ast.MemberAssignment, env *runtime.Environment) (Result, error) {
	p, res, err := i.resolvePlace(n.Target, env)
	if err != nil || res.escaping() {
		return res, err
	}
	val, err := i.evaluate(n.Value, env)
	if err != nil || val.escaping() {
		return val, err
	}
	if err := p.set(val.Value); err != nil {
		return Result{}, locate(err, n.Origin())
	}
	return val, nil
}

func (i *Interpreter) evaluateShorthand(n *ast.ShorthandAssignment, env *runtime.Environment) (Result, error) {
	p, res, err := i.resolvePlace(n.Target, env)
	if err != nil || res.escaping() {
		return res, err
	}
	current, err := p.get()
	if err != nil {
		return Result{}, locate(err, n.Origin())
	}
	var operand runtime.Value = runtime.Number(1)
	if n.Value != nil {
		rhs, err := i.evaluate(n.Value, env)
		if err != nil || rhs.escaping() {
			return rhs, err
		}
		operand = rhs.Value
	}
	updated, err := i.binary(n.BinaryOperator(), current, operand, n.Origin())
	if err != nil {
		return Result{}, err
	}
	if err := p.set(updated); err != nil {
		return Result{}, locate(err, n.Origin())
	}
	return resultOf(updated), nil
}

func (i *Interpreter) evaluateCall(n *ast.FunctionCall, env *runtime.Environment) (Result, error) {
	callee, err := i.evaluate(n.Callee, env)
	if err != nil || callee.escaping() {
		return callee, err
	}
	args, res, err := i.evaluateAll(n.Arguments, env)
	if err != nil || res.escaping() {
		return res, err
	}
	v, err := i.callValue(env, callee.Value, args, n.Origin())
	if err != nil {
		return Result{}, err
	}
	return resultOf(v), nil
}
