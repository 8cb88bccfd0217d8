package runtime

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustGet(t *testing.T, env *Environment, name string) Value {
	t.Helper()
	v, err := env.Get(name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return v
}

func TestEnvironmentShadowing(t *testing.T) {
	env := NewEnvironment()
	env.Define("x", Number(1))

	env.Push(nil)
	env.Define("x", Number(2))
	if got := mustGet(t, env, "x"); got != Number(2) {
		t.Fatalf("expected inner binding, got %#v", got)
	}
	env.Pop()

	if got := mustGet(t, env, "x"); got != Number(1) {
		t.Fatalf("inner binding leaked: %#v", got)
	}
}

func TestEnvironmentSetRebindsNearestVariable(t *testing.T) {
	env := NewEnvironment()
	env.Define("x", Number(1))
	env.Push(nil)
	if err := env.Set("x", Number(5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env.Pop()
	if got := mustGet(t, env, "x"); got != Number(5) {
		t.Fatalf("expected outer binding updated, got %#v", got)
	}
}

func TestEnvironmentSetErrors(t *testing.T) {
	env := NewEnvironment()
	env.DefineConstant("k", Number(1))

	err := env.Set("k", Number(2))
	if !errors.Is(err, ErrConstantAssignment) {
		t.Fatalf("expected constant assignment error, got %v", err)
	}
	if got := mustGet(t, env, "k"); got != Number(1) {
		t.Fatalf("constant was mutated: %#v", got)
	}

	if err := env.Set("missing", Null); !errors.Is(err, ErrUndefinedVariable) {
		t.Fatalf("expected undefined variable error, got %v", err)
	}
	if _, err := env.Get("missing"); !errors.Is(err, ErrUndefinedVariable) {
		t.Fatalf("expected undefined variable error, got %v", err)
	}
}

func TestEnvironmentLookupOrder(t *testing.T) {
	env := NewEnvironment()
	env.DefineConstant("name", String("outer constant"))
	env.Push(nil)
	env.Define("name", String("inner variable"))
	if got := mustGet(t, env, "name"); got != String("inner variable") {
		t.Fatalf("expected variable to win, got %#v", got)
	}
	env.Pop()

	ns := NewNamespace([]string{"name"}, false, env.Global())
	env.DefineNamespace(ns)
	if got := mustGet(t, env, "name"); got != Value(ns) {
		t.Fatalf("expected namespace to win, got %#v", got)
	}
}

func TestRedefiningSwitchesTable(t *testing.T) {
	f := NewFrame(nil)
	f.DefineConstant("x", Number(1))
	f.Define("x", Number(2))
	if err := f.Assign("x", Number(3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vars, consts := f.Names()
	if diff := cmp.Diff([]string{"x"}, vars); diff != "" {
		t.Fatalf("vars mismatch (-want +got):\n%s", diff)
	}
	if len(consts) != 0 {
		t.Fatalf("expected no constants, got %v", consts)
	}
}

func TestClosureFrameIsShared(t *testing.T) {
	env := NewEnvironment()
	env.Define("count", Number(0))
	captured := env.Current()

	if err := env.Set("count", Number(4)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	env.Push(captured)
	got := mustGet(t, env, "count")
	env.Pop()
	if got != Number(4) {
		t.Fatalf("closure frame saw stale value %#v", got)
	}
}

func TestPushPopDepth(t *testing.T) {
	env := NewEnvironment()
	if env.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", env.Depth())
	}
	env.Push(nil)
	env.Push(nil)
	env.Pop()
	env.Pop()
	env.Pop()
	if env.Depth() != 1 {
		t.Fatalf("root frame must survive extra pops, depth %d", env.Depth())
	}
}

func TestWildcardNamespace(t *testing.T) {
	env := NewEnvironment()
	ns := NewNamespace([]string{"util"}, false, env.Global())
	ns.Scope.Define("helper", Number(1))
	ns.Scope.DefineConstant("LIMIT", Number(10))
	ns.EnsureChild("inner", false)

	env.Push(nil)
	defer env.Pop()
	env.DefineWildcardNamespace(ns)

	if got := mustGet(t, env, "helper"); got != Number(1) {
		t.Fatalf("unexpected helper %#v", got)
	}
	if err := env.Set("LIMIT", Number(2)); !errors.Is(err, ErrConstantAssignment) {
		t.Fatalf("expected copied constant to stay constant, got %v", err)
	}
	if got, ok := mustGet(t, env, "inner").(*NamespaceValue); !ok || got.QualifiedName() != "util.inner" {
		t.Fatalf("unexpected child %#v", got)
	}
}

func TestNamespaceMembers(t *testing.T) {
	ns := NewNamespace([]string{"app"}, false, nil)
	if err := ns.SetMember("x", Number(1)); !errors.Is(err, ErrImmutable) {
		t.Fatalf("expected immutable error, got %v", err)
	}
	ns.Mutable = true
	if err := ns.SetMember("x", Number(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	child := ns.EnsureChild("util", false)
	if again := ns.EnsureChild("util", true); again != child || !again.Mutable {
		t.Fatalf("expected existing child upgraded to mutable")
	}
	if err := ns.SetMember("util", Number(2)); !errors.Is(err, ErrImmutable) {
		t.Fatalf("expected child replacement to fail, got %v", err)
	}
	if diff := cmp.Diff([]string{"util", "x"}, ns.MemberNames()); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestStandardNamespaceBuiltOnce(t *testing.T) {
	env := NewEnvironment()
	builds := 0
	factory := func() *NamespaceValue {
		builds++
		return NewStandardNamespace("math", map[string]Value{"pi": Number(3.14)})
	}
	first, created := env.StandardNamespace("math", factory)
	if !created {
		t.Fatalf("expected first request to build")
	}
	fork := env.Fork(nil)
	second, created := fork.StandardNamespace("math", factory)
	if created || second != first || builds != 1 {
		t.Fatalf("expected shared singleton, builds=%d", builds)
	}
}

func TestForkedEnvironmentsShareFramesSafely(t *testing.T) {
	env := NewEnvironment()
	env.Define("shared", Number(0))
	seed := env.Current()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			task := env.Fork(seed)
			task.Push(nil)
			defer task.Pop()
			task.Define("local", Number(float64(i)))
			for j := 0; j < 50; j++ {
				_ = task.Set("shared", Number(float64(j)))
				_, _ = task.Get("shared")
			}
			if got, err := task.Get("local"); err != nil || got != Number(float64(i)) {
				t.Errorf("task %d saw %#v (%v)", i, got, err)
			}
		}(i)
	}
	wg.Wait()
	if env.Depth() != 1 {
		t.Fatalf("forks must not touch the parent stack, depth %d", env.Depth())
	}
	if _, err := env.Get("local"); err == nil {
		t.Fatalf("task locals leaked into the parent")
	}
}

func ExampleFrame_Lookup() {
	global := NewFrame(nil)
	global.Define("greeting", String("hi"))
	inner := NewFrame(global)
	v, _ := inner.Lookup("greeting")
	fmt.Println(v.(StringValue).Val)
	// Output: hi
}
