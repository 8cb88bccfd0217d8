package interpreter

import (
	"context"
	"sync"

	"cinder/interpreter-go/pkg/runtime"
)

// Task is a unit of asynchronous Cinder work executed by an Executor.
type Task func(ctx context.Context) (runtime.Value, error)

// Executor abstracts the scheduling strategy used by task.spawn.
type Executor interface {
	Run(task Task) *runtime.TaskValue
	Flush()
}

func safeInvoke(ctx context.Context, task Task) (result runtime.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Errorf(KindHostError, "panic: %v", r)
		}
	}()
	return task(ctx)
}

func applyOutcome(handle *runtime.TaskValue, result runtime.Value, err error) {
	if err != nil {
		handle.Fail(err)
		return
	}
	if result == nil {
		result = runtime.Null
	}
	handle.Resolve(result)
}

// GoroutineExecutor runs each task on its own goroutine.
type GoroutineExecutor struct {
	wg sync.WaitGroup
}

func NewGoroutineExecutor() *GoroutineExecutor {
	return &GoroutineExecutor{}
}

func (e *GoroutineExecutor) Run(task Task) *runtime.TaskValue {
	handle := runtime.NewTask()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		result, err := safeInvoke(context.Background(), task)
		applyOutcome(handle, result, err)
	}()
	return handle
}

// Flush waits for every task started so far.
func (e *GoroutineExecutor) Flush() {
	e.wg.Wait()
}

// SerialExecutor executes tasks one at a time on a single worker goroutine,
// in spawn order. Tests use it for deterministic scheduling.
type SerialExecutor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []serialTask
	closed bool
	active bool
}

type serialTask struct {
	handle *runtime.TaskValue
	task   Task
}

func NewSerialExecutor() *SerialExecutor {
	exec := &SerialExecutor{}
	exec.cond = sync.NewCond(&exec.mu)
	go exec.loop()
	return exec
}

func (e *SerialExecutor) Run(task Task) *runtime.TaskValue {
	handle := runtime.NewTask()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		handle.Fail(Errorf(KindHostError, "executor is closed"))
		return handle
	}
	e.queue = append(e.queue, serialTask{handle: handle, task: task})
	e.cond.Broadcast()
	return handle
}

func (e *SerialExecutor) loop() {
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.closed && len(e.queue) == 0 {
			e.mu.Unlock()
			return
		}
		next := e.queue[0]
		e.queue = e.queue[1:]
		e.active = true
		e.mu.Unlock()

		result, err := safeInvoke(context.Background(), next.task)
		applyOutcome(next.handle, result, err)

		e.mu.Lock()
		e.active = false
		e.cond.Broadcast()
		e.mu.Unlock()
	}
}

// Close stops the worker once the queue drains.
func (e *SerialExecutor) Close() {
	e.mu.Lock()
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()
}

// Flush blocks until the queue is empty and no task is running.
func (e *SerialExecutor) Flush() {
	e.mu.Lock()
	for len(e.queue) > 0 || e.active {
		e.cond.Wait()
	}
	e.mu.Unlock()
}
