// Package schedule provides the deferred task queue behind stream updaters.
//
// A Queue plays the role of a microtask queue: work scheduled on it runs
// after the current synchronous work, one task at a time, on whichever
// goroutine drains it.
package schedule

import (
	"context"
	"sync"
)

// Queue is a FIFO of deferred tasks. Scheduling is safe from any goroutine;
// tasks themselves only ever run on the draining goroutine.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
	wake  chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Schedule appends fn to the queue.
func (q *Queue) Schedule(fn func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending reports how many tasks are waiting.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Drain runs tasks until the queue is empty, including tasks scheduled by
// the tasks it runs, and returns how many ran.
func (q *Queue) Drain() int {
	ran := 0
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return ran
		}
		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		fn()
		ran++
	}
}

// Run drains the queue every time work is scheduled until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	for {
		q.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
		}
	}
}
