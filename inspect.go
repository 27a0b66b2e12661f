package livepatch

import (
	"golang.org/x/net/html"

	"github.com/livefir/livepatch/internal/dom"
)

// Target is one node written by a scalar path.
type Target struct {
	Node *html.Node
	// Prop is the written property or attribute; empty means text content.
	Prop string
	// Kind names how the value is written: text, boolean, number, string
	// or attribute.
	Kind string
}

// ScalarInfo lists the targets of a scalar path.
type ScalarInfo struct {
	Path    string
	Targets []Target
}

// CollectionInfo describes a collection container.
type CollectionInfo struct {
	Path      string
	Container *html.Node
	// Items counts the keyed children currently in the container.
	Items int
}

// Inspection is a read-only view of the registry of a root.
type Inspection struct {
	Scalars     []ScalarInfo
	Collections []CollectionInfo
}

// Inspect returns the bindings registered for root, building the registry
// if needed. It does not write to the tree.
func (e *Engine) Inspect(root any) (Inspection, error) {
	var result Inspection

	node, err := e.resolveRoot(root)
	if err != nil {
		return result, e.reporter.Fail(err)
	}
	reg, err := e.registry(node, false)
	if err != nil {
		return result, err
	}

	for _, path := range reg.Paths() {
		info := ScalarInfo{Path: path}
		for _, entry := range reg.Entries(path) {
			kind := "text"
			if entry.Prop != "" {
				kind = dom.PropertyKind(entry.Prop).String()
			}
			info.Targets = append(info.Targets, Target{Node: entry.Node, Prop: entry.Prop, Kind: kind})
		}
		result.Scalars = append(result.Scalars, info)
	}

	for _, col := range reg.Collections() {
		count := 0
		for _, child := range dom.Elements(col.Container) {
			if dom.HasAttr(child, e.config.Directives.Key) {
				count++
			}
		}
		result.Collections = append(result.Collections, CollectionInfo{
			Path:      col.Path,
			Container: col.Container,
			Items:     count,
		})
	}
	return result, nil
}
