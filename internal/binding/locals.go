package binding

import (
	"golang.org/x/net/html"

	"github.com/livefir/livepatch/internal/dom"
)

// Locals maps an item field name to the targets bound to it inside one list
// node's subtree.
type Locals map[string][]Entry

// LocalCache owns the local bindings of every live list node, keyed by node
// identity. Entries are dropped when their node is removed.
type LocalCache struct {
	byNode map[*html.Node]Locals
}

// NewLocalCache returns an empty cache.
func NewLocalCache() *LocalCache {
	return &LocalCache{byNode: make(map[*html.Node]Locals)}
}

// Get returns the local bindings attached to n.
func (c *LocalCache) Get(n *html.Node) (Locals, bool) {
	locals, ok := c.byNode[n]
	return locals, ok
}

// Set attaches locals to n.
func (c *LocalCache) Set(n *html.Node, locals Locals) {
	c.byNode[n] = locals
}

// Forget drops the bindings of n and any list node nested inside it.
func (c *LocalCache) Forget(n *html.Node) {
	dom.Walk(n, func(node *html.Node) bool {
		delete(c.byNode, node)
		return true
	})
}
