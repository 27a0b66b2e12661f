package dom

import (
	"golang.org/x/net/html"
)

// Tree is a live document with the side tables the engine keeps per node:
// typed property values and event listeners. Nodes are keyed by identity.
type Tree struct {
	Root      *html.Node
	props     map[*html.Node]map[string]any
	listeners map[*html.Node]map[string][]*listenerEntry
}

// NewTree wraps root, usually a document node.
func NewTree(root *html.Node) *Tree {
	return &Tree{
		Root:      root,
		props:     make(map[*html.Node]map[string]any),
		listeners: make(map[*html.Node]map[string][]*listenerEntry),
	}
}

// ElementByID finds the first element whose id attribute equals id.
func (t *Tree) ElementByID(id string) *html.Node {
	if id == "" {
		return nil
	}
	var found *html.Node
	Walk(t.Root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type != html.ElementNode {
			return true
		}
		if v, ok := Attr(n, "id"); ok && v == id {
			found = n
			return false
		}
		return !IsTemplate(n)
	})
	return found
}

// Body returns the <body> element, or nil for fragments.
func (t *Tree) Body() *html.Node {
	var body *html.Node
	Walk(t.Root, func(n *html.Node) bool {
		if body != nil {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return false
		}
		return true
	})
	return body
}

// SetProperty stores a native value for a typed property and mirrors it into
// the attribute of the same name: booleans by presence, others by value.
func (t *Tree) SetProperty(n *html.Node, name string, value any) {
	kind := PropertyKind(name)
	value = kind.Coerce(value)

	values, ok := t.props[n]
	if !ok {
		values = make(map[string]any)
		t.props[n] = values
	}
	values[name] = value

	if !reflectsToAttribute(name) {
		return
	}
	switch v := value.(type) {
	case bool:
		if v {
			SetAttr(n, name, "")
		} else {
			RemoveAttr(n, name)
		}
	case string:
		SetAttr(n, name, v)
	}
}

// Property reads a typed property. Properties never written fall back to the
// attribute the markup was parsed with.
func (t *Tree) Property(n *html.Node, name string) any {
	if values, ok := t.props[n]; ok {
		if v, ok := values[name]; ok {
			return v
		}
	}
	kind := PropertyKind(name)
	switch kind {
	case KindBool:
		return HasAttr(n, name)
	case KindString:
		v, _ := Attr(n, name)
		return v
	case KindInt:
		return 0
	}
	if v, ok := Attr(n, name); ok {
		return v
	}
	return nil
}

// Forget drops every side-table entry for n and its descendants.
func (t *Tree) Forget(n *html.Node) {
	Walk(n, func(node *html.Node) bool {
		delete(t.props, node)
		delete(t.listeners, node)
		return true
	})
}
