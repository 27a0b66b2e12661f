package dom

import (
	"golang.org/x/net/html"
)

// Event is a notification dispatched on a node.
type Event struct {
	Type          string
	Target        *html.Node
	CurrentTarget *html.Node
	Bubbles       bool
	Detail        any

	stopped bool
}

// StopPropagation prevents the event reaching further ancestors.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Listener handles a dispatched event.
type Listener func(*Event)

type listenerEntry struct {
	fn Listener
}

// AddEventListener registers fn for events of type typ reaching n. The
// returned function removes the registration.
func (t *Tree) AddEventListener(n *html.Node, typ string, fn Listener) func() {
	byType, ok := t.listeners[n]
	if !ok {
		byType = make(map[string][]*listenerEntry)
		t.listeners[n] = byType
	}
	entry := &listenerEntry{fn: fn}
	byType[typ] = append(byType[typ], entry)

	return func() {
		entries := t.listeners[n][typ]
		for i, e := range entries {
			if e == entry {
				t.listeners[n][typ] = append(entries[:i:i], entries[i+1:]...)
				return
			}
		}
	}
}

// Dispatch runs the listeners of ev.Target and, for bubbling events, those of
// each ancestor up to the document node.
func (t *Tree) Dispatch(ev *Event) {
	for node := ev.Target; node != nil; node = node.Parent {
		ev.CurrentTarget = node
		entries := t.listeners[node][ev.Type]
		for _, entry := range append([]*listenerEntry(nil), entries...) {
			entry.fn(ev)
		}
		if ev.stopped || !ev.Bubbles {
			break
		}
	}
	ev.CurrentTarget = nil
}
