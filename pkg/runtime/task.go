package runtime

import "sync"

type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskResolved
	TaskFailed
)

func (s TaskStatus) String() string {
	switch s {
	case TaskResolved:
		return "resolved"
	case TaskFailed:
		return "failed"
	default:
		return "pending"
	}
}

// TaskValue is the handle returned by task.spawn. It settles exactly once.
type TaskValue struct {
	mu     sync.Mutex
	status TaskStatus
	result Value
	err    error
	done   *sync.Cond
}

func NewTask() *TaskValue {
	h := &TaskValue{}
	h.done = sync.NewCond(&h.mu)
	return h
}

func (v *TaskValue) Kind() Kind { return KindTask }

func (v *TaskValue) Status() TaskStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Await blocks until the task settles.
func (v *TaskValue) Await() (Value, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for v.status == TaskPending {
		v.done.Wait()
	}
	return v.result, v.err
}

func (v *TaskValue) Resolve(val Value) {
	v.mu.Lock()
	if v.status == TaskPending {
		v.status = TaskResolved
		v.result = val
		v.done.Broadcast()
	}
	v.mu.Unlock()
}

func (v *TaskValue) Fail(err error) {
	v.mu.Lock()
	if v.status == TaskPending {
		v.status = TaskFailed
		v.err = err
		v.done.Broadcast()
	}
	v.mu.Unlock()
}
