package binding

import (
	"golang.org/x/net/html"

	"github.com/livefir/livepatch/internal/dom"
)

// Collection is a container bound to a list path.
type Collection struct {
	Path      string
	Container *html.Node
	Resolver  *Resolver
}

// Registry holds the bindings discovered under one root. Scalar paths and
// collections keep first-registration order.
type Registry struct {
	scalarPaths     []string
	scalars         map[string][]Entry
	collectionPaths []string
	collections     map[string]*Collection
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		scalars:     make(map[string][]Entry),
		collections: make(map[string]*Collection),
	}
}

// AddScalar appends a target to path.
func (r *Registry) AddScalar(path string, entry Entry) {
	if _, ok := r.scalars[path]; !ok {
		r.scalarPaths = append(r.scalarPaths, path)
	}
	r.scalars[path] = append(r.scalars[path], entry)
}

// Paths returns the scalar paths in registration order.
func (r *Registry) Paths() []string {
	return append([]string(nil), r.scalarPaths...)
}

// Entries returns the targets bound to path.
func (r *Registry) Entries(path string) []Entry {
	return r.scalars[path]
}

// SetCollection binds path to c. Re-binding a path keeps its position.
func (r *Registry) SetCollection(c *Collection) {
	if _, ok := r.collections[c.Path]; !ok {
		r.collectionPaths = append(r.collectionPaths, c.Path)
	}
	r.collections[c.Path] = c
}

// Collections returns the collections in registration order.
func (r *Registry) Collections() []*Collection {
	result := make([]*Collection, 0, len(r.collectionPaths))
	for _, path := range r.collectionPaths {
		result = append(result, r.collections[path])
	}
	return result
}

// Retain drops scalar targets that no longer live under root, such as those
// of removed list items; paths left with no targets are removed.
func (r *Registry) Retain(root *html.Node) {
	kept := r.scalarPaths[:0]
	for _, path := range r.scalarPaths {
		entries := r.scalars[path]
		filtered := entries[:0]
		for _, e := range entries {
			if dom.Contains(root, e.Node) {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			delete(r.scalars, path)
			continue
		}
		r.scalars[path] = filtered
		kept = append(kept, path)
	}
	r.scalarPaths = kept
}
