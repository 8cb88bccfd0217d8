package runtime

import (
	"errors"
	"sync"
	"testing"
)

func TestTaskResolve(t *testing.T) {
	h := NewTask()

	if status := h.Status(); status != TaskPending {
		t.Fatalf("expected pending status, got %v", status)
	}

	h.Resolve(StringValue{Val: "done"})

	val, err := h.Await()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got, ok := val.(StringValue); !ok || got.Val != "done" {
		t.Fatalf("unexpected result %#v", val)
	}
	if status := h.Status(); status != TaskResolved {
		t.Fatalf("expected resolved status, got %v", status)
	}
}

func TestTaskFailSettlesOnce(t *testing.T) {
	h := NewTask()
	boom := errors.New("boom")
	h.Fail(boom)
	h.Resolve(NumberValue{Val: 1})

	val, err := h.Await()
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if val != nil {
		t.Fatalf("expected nil value, got %#v", val)
	}
	if h.Status() != TaskFailed {
		t.Fatalf("expected failed status, got %v", h.Status())
	}
}

func TestTaskAwaitBlocksUntilSettled(t *testing.T) {
	h := NewTask()
	var wg sync.WaitGroup
	results := make([]Value, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = h.Await()
		}(i)
	}
	h.Resolve(NumberValue{Val: 7})
	wg.Wait()
	for i, v := range results {
		if n, ok := v.(NumberValue); !ok || n.Val != 7 {
			t.Fatalf("waiter %d saw %#v", i, v)
		}
	}
}
