package binding

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/livefir/livepatch/internal/datapath"
	"github.com/livefir/livepatch/internal/dom"
	"github.com/livefir/livepatch/internal/report"
)

// Env is the state shared by every registry built for one document.
type Env struct {
	Tree       *dom.Tree
	Directives Directives
	Templates  *Templates
	Locals     *LocalCache
	Reporter   *report.Reporter
}

// Build scans root and its descendants, skipping template content, and
// returns the registry of scalar targets and collections found. Build never
// mutates the tree.
func (e *Env) Build(root *html.Node) (*Registry, error) {
	reg := NewRegistry()
	if dom.InTemplate(root) {
		return reg, nil
	}

	if err := e.registerSubtree(root, reg); err != nil {
		return nil, err
	}

	var containers []*html.Node
	dom.ScanElements(root, func(n *html.Node) {
		if dom.HasAttr(n, e.Directives.List) {
			containers = append(containers, n)
		}
	})

	for _, container := range containers {
		name, _ := dom.Attr(container, e.Directives.List)
		if !datapath.IsValid(name) || datapath.IsLocal(name) {
			if err := e.Reporter.Fail(fmt.Errorf("%w: %q", ErrInvalidCollection, name)); err != nil {
				return nil, err
			}
			continue
		}
		templateID, _ := dom.Attr(container, e.Directives.Template)
		reg.SetCollection(&Collection{
			Path:      name,
			Container: container,
			Resolver: &Resolver{
				container:  container,
				templateID: templateID,
				env:        e,
				registry:   reg,
			},
		})
	}
	return reg, nil
}

// registerSubtree adds every global scalar directive under n to reg. Local
// directives are left to extractLocals.
func (e *Env) registerSubtree(n *html.Node, reg *Registry) error {
	var nodes []*html.Node
	dom.ScanElements(n, func(node *html.Node) {
		if dom.HasAttr(node, e.Directives.Bind) {
			nodes = append(nodes, node)
		}
	})

	for _, node := range nodes {
		b, ok := e.Directives.bindingOf(node)
		if !ok || b.Path == "" || datapath.IsLocal(b.Path) {
			continue
		}
		if IsHandler(b.Prop) {
			if err := e.Reporter.Fail(fmt.Errorf("%w: %s", ErrHandlerBinding, b.Prop)); err != nil {
				return err
			}
			continue
		}
		if !datapath.IsValid(b.Path) {
			e.Reporter.Warnf("REGISTRY: invalid path %q", b.Path)
			continue
		}
		reg.AddScalar(b.Path, Entry{Node: node, Prop: b.Prop})
	}
	return nil
}

// extractLocals collects the item-scoped directives of a freshly cloned list
// node, its own directive first, grouped by field name.
func (e *Env) extractLocals(node *html.Node) (Locals, error) {
	locals := make(Locals)
	var nodes []*html.Node
	dom.ScanElements(node, func(n *html.Node) {
		if dom.HasAttr(n, e.Directives.Bind) {
			nodes = append(nodes, n)
		}
	})

	for _, n := range nodes {
		b, ok := e.Directives.bindingOf(n)
		if !ok || !datapath.IsLocal(b.Path) {
			continue
		}
		if IsHandler(b.Prop) {
			if err := e.Reporter.Fail(fmt.Errorf("%w: %s", ErrHandlerBinding, b.Prop)); err != nil {
				return nil, err
			}
			continue
		}
		if !datapath.IsValid(b.Path) {
			e.Reporter.Warnf("REGISTRY: invalid local path %q", b.Path)
			continue
		}
		field := b.Path[1:]
		locals[field] = append(locals[field], Entry{Node: n, Prop: b.Prop})
	}
	return locals, nil
}
