package deflate

import "sync"

// ChunkFunc receives streamed output in order. The chunk is only valid for
// the duration of the call.
type ChunkFunc func(chunk []byte)

// Task is the pending result of a streaming transform. Exactly one of Done
// or Failed is closed when the transform finishes. There is no cancellation:
// a started task runs to completion or failure.
type Task struct {
	done   chan struct{}
	failed chan struct{}
	once   sync.Once
	n      int64
	err    error
}

// Go runs fn on its own goroutine and reports its outcome through a Task.
// fn returns the number of bytes it emitted.
func Go(fn func() (int64, error)) *Task {
	t := &Task{done: make(chan struct{}), failed: make(chan struct{})}
	go func() {
		n, err := fn()
		t.finish(n, err)
	}()
	return t
}

func (t *Task) finish(n int64, err error) {
	t.once.Do(func() {
		t.n, t.err = n, err
		if err != nil {
			close(t.failed)
			return
		}
		close(t.done)
	})
}

// Done is closed when the task succeeds.
func (t *Task) Done() <-chan struct{} { return t.done }

// Failed is closed when the task fails; Err then reports why.
func (t *Task) Failed() <-chan struct{} { return t.failed }

// Wait blocks until the task finishes and returns the number of bytes
// delivered to the chunk callback.
func (t *Task) Wait() (int64, error) {
	select {
	case <-t.done:
	case <-t.failed:
	}
	return t.n, t.err
}

// Err returns the failure once Failed is closed, nil otherwise.
func (t *Task) Err() error {
	select {
	case <-t.failed:
		return t.err
	default:
		return nil
	}
}
