package sim

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

type queued struct {
	id CallbackID
	fn StepFunc
}

// Queue is an ordered list of step callbacks. It is safe for concurrent use, and callbacks may
// enqueue or dequeue while the queue is stepping.
type Queue struct {
	mu      sync.Mutex
	nextID  CallbackID
	entries []queued
}

// Enqueue appends fn to the queue.
func (q *Queue) Enqueue(fn StepFunc) (CallbackID, error) {
	if fn == nil {
		return 0, errors.New("cannot enqueue a nil step callback")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	q.entries = append(q.entries, queued{id: q.nextID, fn: fn})
	return q.nextID, nil
}

// Dequeue removes the callback with the given id and reports whether it was present.
func (q *Queue) Dequeue(id CallbackID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.id == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of enqueued callbacks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *Queue) contains(id CallbackID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.id == id {
			return true
		}
	}
	return false
}

// Step runs every callback once in enqueue order. Callbacks asking to detach are removed. A
// failing callback stays enqueued; all errors are returned together once every callback ran.
func (q *Queue) Step(ctx context.Context, client Client) error {
	q.mu.Lock()
	snapshot := make([]queued, len(q.entries))
	copy(snapshot, q.entries)
	q.mu.Unlock()

	var errs error
	for _, e := range snapshot {
		if !q.contains(e.id) {
			continue
		}
		detach, err := e.fn(ctx, client)
		if err != nil {
			errs = multierr.Combine(errs, errors.Wrapf(err, "step callback %d", e.id))
			continue
		}
		if detach {
			q.Dequeue(e.id)
		}
	}
	return errs
}
