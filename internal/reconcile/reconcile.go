// Package reconcile aligns the keyed children of a container with an ordered
// list of items while keeping the identity of every node whose key survives.
package reconcile

import (
	"golang.org/x/net/html"

	"github.com/livefir/livepatch/internal/binding"
	"github.com/livefir/livepatch/internal/datapath"
	"github.com/livefir/livepatch/internal/dom"
	"github.com/livefir/livepatch/internal/patch"
	"github.com/livefir/livepatch/internal/report"
)

// Materializer creates the node for an item seen for the first time.
type Materializer interface {
	Resolve(item any) (*html.Node, error)
}

// Stats describes what one reconciliation did.
type Stats struct {
	Created int
	Moved   int
	Removed int
	Patched int
	// Skipped is true when the whole update was discarded.
	Skipped bool
}

// Reconciler holds the collaborators of a reconciliation pass.
type Reconciler struct {
	Directives binding.Directives
	Applier    *patch.Applier
	Reporter   *report.Reporter
	// OnRemove runs for every node taken out of a container.
	OnRemove func(*html.Node)
}

// Reconcile makes the keyed children of container follow items exactly.
//
// Untagged children are never touched. Items must all be objects carrying a
// key field, and keys must be unique by string form; otherwise the update is
// discarded with a warning and the container is left as it was. Nodes are
// moved only when they are not already right after the previously placed
// node, so runs that are already in order stay in place.
func (r *Reconciler) Reconcile(container *html.Node, items []any, m Materializer) (Stats, error) {
	var stats Stats

	for _, item := range items {
		if !datapath.IsObject(item) || !datapath.Has(item, "key") {
			r.Reporter.Warnf("RECONCILE: collection array contains invalid items, discarding")
			stats.Skipped = true
			return stats, nil
		}
	}

	existing := make(map[string]*html.Node)
	var order []string
	for _, child := range dom.Elements(container) {
		if !dom.HasAttr(child, r.Directives.Key) {
			continue
		}
		key, _ := dom.Attr(child, r.Directives.KeyData)
		if _, seen := existing[key]; !seen {
			order = append(order, key)
		}
		existing[key] = child
	}

	valid := make([]any, 0, len(items))
	keys := make([]string, 0, len(items))
	for _, item := range items {
		key, _ := datapath.Get(item, "key")
		if datapath.IsNil(key) {
			r.Reporter.Warnf("RECONCILE: collection item missing key, skipping")
			continue
		}
		valid = append(valid, item)
		keys = append(keys, datapath.KeyString(key))
	}

	next := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := next[k]; dup {
			r.Reporter.Warnf("RECONCILE: duplicate key %q", k)
			stats.Skipped = true
			return stats, nil
		}
		next[k] = struct{}{}
	}

	var prev *html.Node
	for i, item := range valid {
		key := keys[i]

		node, ok := existing[key]
		if !ok {
			created, err := m.Resolve(item)
			if err != nil {
				return stats, err
			}
			node = created
			dom.SetAttr(node, r.Directives.KeyData, key)
			dom.SetAttr(node, r.Directives.Key, "")
			stats.Created++
		}

		if err := r.Applier.Item(node, item); err != nil {
			return stats, err
		}
		stats.Patched++

		if prev != nil {
			if dom.NextElementSibling(prev) != node {
				if ok {
					stats.Moved++
				}
				dom.InsertAfter(prev, node)
			}
		} else if dom.FirstElementChild(container) != node {
			if ok {
				stats.Moved++
			}
			dom.Prepend(container, node)
		}
		prev = node
	}

	for _, key := range order {
		if _, keep := next[key]; keep {
			continue
		}
		node := existing[key]
		if node.Parent == container {
			container.RemoveChild(node)
		}
		stats.Removed++
		if r.OnRemove != nil {
			r.OnRemove(node)
		}
	}

	return stats, nil
}
