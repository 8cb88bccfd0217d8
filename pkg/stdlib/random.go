package stdlib

import (
	"math/rand"
	"sync"
	"time"

	"cinder/interpreter-go/pkg/interpreter"
	"cinder/interpreter-go/pkg/runtime"
)

// source is a seedable generator shared by one random namespace.
type source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *source) with(fn func(*rand.Rand)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.rng)
}

func randomNamespace() *runtime.NamespaceValue {
	src := &source{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	return namespace("random", []runtime.NativeFunctionValue{
		runtime.NewNative("seed", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			n, err := numberArg(args, 0, "seed")
			if err != nil {
				return nil, err
			}
			src.with(func(r *rand.Rand) { r.Seed(int64(n)) })
			return runtime.Null, nil
		}),
		runtime.NewNative("float", 0, func(_ *runtime.NativeCallContext, _ []runtime.Value) (runtime.Value, error) {
			var f float64
			src.with(func(r *rand.Rand) { f = r.Float64() })
			return runtime.Number(f), nil
		}),
		// int(lo, hi) is inclusive of both bounds.
		runtime.NewNative("int", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			lo, err := numberArg(args, 0, "int")
			if err != nil {
				return nil, err
			}
			hi, err := numberArg(args, 1, "int")
			if err != nil {
				return nil, err
			}
			low, high := int64(lo), int64(hi)
			if high < low {
				return nil, interpreter.Errorf(interpreter.KindValueError, "random.int: empty interval [%d, %d]", low, high)
			}
			var n int64
			src.with(func(r *rand.Rand) { n = low + r.Int63n(high-low+1) })
			return runtime.Number(float64(n)), nil
		}),
		runtime.NewNative("choice", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			elems, err := interpreter.Elements(args[0])
			if err != nil {
				return nil, err
			}
			if len(elems) == 0 {
				return nil, interpreter.Errorf(interpreter.KindIndexError, "random.choice: empty sequence")
			}
			var idx int
			src.with(func(r *rand.Rand) { idx = r.Intn(len(elems)) })
			return elems[idx], nil
		}),
		// shuffle permutes a list in place and returns it.
		runtime.NewNative("shuffle", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			l, err := listArg(args, 0, "shuffle")
			if err != nil {
				return nil, err
			}
			src.with(func(r *rand.Rand) {
				r.Shuffle(len(l.Elements), func(a, b int) {
					l.Elements[a], l.Elements[b] = l.Elements[b], l.Elements[a]
				})
			})
			return l, nil
		}),
	}, nil)
}
