// Package patch writes resolved values into tree targets.
package patch

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/livefir/livepatch/internal/binding"
	"github.com/livefir/livepatch/internal/datapath"
	"github.com/livefir/livepatch/internal/dom"
	"github.com/livefir/livepatch/internal/report"
)

// Applier writes values into one document.
type Applier struct {
	Tree     *dom.Tree
	Locals   *binding.LocalCache
	Reporter *report.Reporter
}

// SetValue writes value into prop on n.
//
// An empty prop sets the text content. A nil value resets a typed property to
// its zero value and removes any other attribute. Typed properties keep their
// native type; everything else is written as a string attribute.
func (a *Applier) SetValue(n *html.Node, prop string, value any) error {
	if binding.IsHandler(prop) {
		return a.Reporter.Fail(fmt.Errorf("%w: %s", binding.ErrHandlerBinding, prop))
	}

	if prop == "" {
		dom.SetText(n, datapath.Stringify(value))
		return nil
	}

	kind := dom.PropertyKind(prop)
	if datapath.IsNil(value) {
		if kind == dom.KindNone {
			dom.RemoveAttr(n, prop)
		} else {
			a.Tree.SetProperty(n, prop, kind.Zero())
		}
		return nil
	}

	if kind == dom.KindNone {
		dom.SetAttr(n, prop, datapath.Stringify(value))
	} else {
		a.Tree.SetProperty(n, prop, value)
	}
	return nil
}

// Scalars applies data to every scalar path of reg in registration order.
// Paths that resolve to undefined are left untouched. It returns the number
// of targets written.
func (a *Applier) Scalars(data any, reg *binding.Registry) (int, error) {
	written := 0
	for _, path := range reg.Paths() {
		value, ok := datapath.Resolve(data, path)
		if !ok {
			continue
		}
		for _, entry := range reg.Entries(path) {
			if err := a.SetValue(entry.Node, entry.Prop, value); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

// Item writes the fields of item into the local bindings cached for node.
// The key field and fields without a binding are ignored.
func (a *Applier) Item(node *html.Node, item any) error {
	locals, ok := a.Locals.Get(node)
	if !ok {
		return nil
	}
	for _, field := range datapath.Fields(item) {
		if field == "key" {
			continue
		}
		targets, ok := locals[field]
		if !ok {
			continue
		}
		value, _ := datapath.Get(item, field)
		for _, entry := range targets {
			if err := a.SetValue(entry.Node, entry.Prop, value); err != nil {
				return err
			}
		}
	}
	return nil
}
