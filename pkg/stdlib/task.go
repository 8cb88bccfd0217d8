package stdlib

import (
	"time"

	"golang.org/x/sync/errgroup"

	"cinder/interpreter-go/pkg/interpreter"
	"cinder/interpreter-go/pkg/runtime"
)

func taskNamespace() *runtime.NamespaceValue {
	return namespace("task", []runtime.NativeFunctionValue{
		runtime.NewNative("spawn", -1, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			if len(args) == 0 {
				return nil, interpreter.Errorf(interpreter.KindArityError, "task.spawn needs a function")
			}
			return ctx.Host.Spawn(ctx.Env, args[0], args[1:]), nil
		}),
		runtime.NewNative("wait", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			handle, ok := args[0].(*runtime.TaskValue)
			if !ok {
				return nil, interpreter.Errorf(interpreter.KindTypeError, "task.wait: expected a task, got %s", interpreter.Describe(args[0]))
			}
			return handle.Await()
		}),
		runtime.NewNative("all", 1, taskAll),
		runtime.NewNative("sleep", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			ms, err := numberArg(args, 0, "sleep")
			if err != nil {
				return nil, err
			}
			if ms > 0 {
				time.Sleep(time.Duration(ms * float64(time.Millisecond)))
			}
			return runtime.Null, nil
		}),
	}, nil)
}

// taskAll runs every function concurrently, each on its own environment, and
// returns their results in order. Task handles in the list are awaited. The
// first error is reported once all have finished.
func taskAll(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	items, err := interpreter.Elements(args[0])
	if err != nil {
		return nil, err
	}
	results := make([]runtime.Value, len(items))
	var g errgroup.Group
	for idx, item := range items {
		idx := idx
		switch item := item.(type) {
		case *runtime.TaskValue:
			g.Go(func() error {
				v, err := item.Await()
				results[idx] = v
				return err
			})
		default:
			env := ctx.Env.Fork(nil)
			g.Go(func() error {
				v, err := ctx.Host.Call(env, item, nil)
				results[idx] = v
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runtime.NewList(results), nil
}
