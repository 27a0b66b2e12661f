package livepatch

import (
	"context"
	"sync"

	"golang.org/x/net/html"
)

// Updater hands data to a stream. Only the latest value given before the
// stream flushes is applied.
type Updater func(data any)

type stream struct {
	engine    *Engine
	root      *html.Node
	mu        sync.Mutex
	pending   any
	scheduled bool
}

// Stream returns an updater that coalesces rapid updates to root: each call
// stores its data as pending and, unless a flush is already scheduled,
// schedules exactly one. Flushes run on the engine's task queue, driven by
// Flush or Run, and patch with the most recent pending value.
//
// Errors raised while flushing are logged, never returned to the caller of
// the updater. The root is resolved once, now.
func (e *Engine) Stream(root any) (Updater, error) {
	node, err := e.resolveRoot(root)
	if err != nil {
		if err := e.reporter.Fail(err); err != nil {
			return nil, err
		}
		return func(any) {}, nil
	}

	s := &stream{engine: e, root: node}
	return s.update, nil
}

func (s *stream) update(data any) {
	s.engine.metrics.IncrementStreamUpdate()

	s.mu.Lock()
	s.pending = data
	if s.scheduled {
		s.mu.Unlock()
		return
	}
	s.scheduled = true
	s.mu.Unlock()

	s.engine.queue.Schedule(s.flush)
}

func (s *stream) flush() {
	s.mu.Lock()
	data := s.pending
	s.pending = nil
	s.scheduled = false
	s.mu.Unlock()

	s.engine.metrics.IncrementStreamFlush()
	if err := s.engine.Patch(data, s.root); err != nil {
		s.engine.logger.Printf("STREAM: flush failed: %v", err)
	}
}

// Flush runs every deferred task now, on the calling goroutine, and returns
// how many ran.
func (e *Engine) Flush() int {
	return e.queue.Drain()
}

// Pending reports how many tasks wait on the engine's task queue.
func (e *Engine) Pending() int {
	return e.queue.Pending()
}

// Do schedules fn on the engine's task queue, after pending flushes.
func (e *Engine) Do(fn func()) {
	e.queue.Schedule(fn)
}

// Run drives the task queue until ctx is done. While Run is active, engine
// work from other goroutines must go through Do or a stream updater.
func (e *Engine) Run(ctx context.Context) error {
	return e.queue.Run(ctx)
}
