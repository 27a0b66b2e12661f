// Package feed follows push transports and hands every JSON object they
// deliver to a handler. Transport retry and reconnection are left to callers.
package feed

import (
	"encoding/json"
	"log"
)

// Counter names reported through WithCounter.
const (
	CounterSSEFrames       = "sse_frames"
	CounterWebSocketFrames = "websocket_frames"
	CounterSkipped         = "feed_skipped"
)

// Handler receives one decoded payload.
type Handler func(data any)

// Option configures a follower.
type Option func(*options)

type options struct {
	logger *log.Logger
	count  func(name string)
}

// WithLogger logs skipped payloads to logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCounter calls fn with a counter name for every frame received and every
// payload skipped.
func WithCounter(fn func(name string)) Option {
	return func(o *options) {
		o.count = fn
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) incr(name string) {
	if o.count != nil {
		o.count(name)
	}
}

// decodeObject decodes payload and accepts only JSON objects.
func decodeObject(payload []byte) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// deliver decodes payload and forwards it, logging what it has to skip.
func (o *options) deliver(payload []byte, h Handler, source, counter string) {
	o.incr(counter)
	obj, ok := decodeObject(payload)
	if !ok {
		o.incr(CounterSkipped)
		if o.logger != nil {
			o.logger.Printf("%s: skipping non-object payload (%d bytes)", source, len(payload))
		}
		return
	}
	h(obj)
}
