package binding

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/livefir/livepatch/internal/datapath"
	"github.com/livefir/livepatch/internal/dom"
)

// Templates remembers which template elements already passed validation.
type Templates struct {
	validated map[*html.Node]struct{}
}

// NewTemplates returns an empty validation cache.
func NewTemplates() *Templates {
	return &Templates{validated: make(map[*html.Node]struct{})}
}

// IsValidated reports whether tpl passed validation since it was last forgotten.
func (t *Templates) IsValidated(tpl *html.Node) bool {
	_, ok := t.validated[tpl]
	return ok
}

// Validate checks tpl once: no scripts, no event-handler attributes and no
// nested collection directives anywhere in its content. Only successful
// validations are cached.
func (t *Templates) Validate(tpl *html.Node, d Directives) error {
	if t.IsValidated(tpl) {
		return nil
	}
	var err error
	for c := tpl.FirstChild; c != nil && err == nil; c = c.NextSibling {
		dom.Walk(c, func(n *html.Node) bool {
			if err != nil {
				return false
			}
			if n.Type != html.ElementNode {
				return true
			}
			if n.DataAtom == atom.Script || n.Data == "script" {
				err = fmt.Errorf("%w: script not allowed in template", ErrUnsafeTemplate)
				return false
			}
			for _, a := range n.Attr {
				if IsHandler(a.Key) {
					err = fmt.Errorf("%w: event handler attribute %q not allowed in template", ErrUnsafeTemplate, a.Key)
					return false
				}
			}
			if dom.HasAttr(n, d.List) {
				err = fmt.Errorf("%w: nested %s not allowed", ErrUnsafeTemplate, d.List)
				return false
			}
			return true
		})
	}
	if err != nil {
		return err
	}
	t.validated[tpl] = struct{}{}
	return nil
}

// Forget clears the validated status of every template under root.
func (t *Templates) Forget(root *html.Node) {
	dom.Walk(root, func(n *html.Node) bool {
		if dom.IsTemplate(n) {
			delete(t.validated, n)
		}
		return true
	})
}

// Resolver materializes new list items for one container.
type Resolver struct {
	container  *html.Node
	templateID string
	env        *Env
	registry   *Registry
}

// Resolve picks the template for item, clones it, extracts the clone's local
// bindings and registers its global bindings in the shared registry.
//
// Template lookup order: a "<templateId>#" prefix on the item key, the
// container's template attribute, then a <template> child of the container.
// When a hard error is swallowed outside debug mode, a placeholder <div> with
// no bindings is returned instead.
func (r *Resolver) Resolve(item any) (*html.Node, error) {
	tpl := r.lookup(item)
	if tpl == nil {
		if err := r.env.Reporter.Fail(ErrNoTemplate); err != nil {
			return nil, err
		}
		return dom.NewElement("div"), nil
	}
	return r.clone(tpl)
}

func (r *Resolver) lookup(item any) *html.Node {
	if key, ok := datapath.Get(item, "key"); ok && key != nil {
		if name, _, found := strings.Cut(datapath.KeyString(key), "#"); found {
			if tpl := r.env.Tree.ElementByID(name); dom.IsTemplate(tpl) {
				return tpl
			}
		}
	}
	if r.templateID != "" {
		if tpl := r.env.Tree.ElementByID(r.templateID); dom.IsTemplate(tpl) {
			return tpl
		}
	}
	for c := r.container.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsTemplate(c) {
			return c
		}
	}
	return nil
}

func (r *Resolver) clone(tpl *html.Node) (*html.Node, error) {
	if err := r.env.Templates.Validate(tpl, r.env.Directives); err != nil {
		if err := r.env.Reporter.Fail(err); err != nil {
			return nil, err
		}
		return dom.NewElement("div"), nil
	}

	elements := dom.Elements(tpl)
	if len(elements) != 1 {
		err := fmt.Errorf("%w, found %d", ErrTemplateShape, len(elements))
		if err := r.env.Reporter.Fail(err); err != nil {
			return nil, err
		}
		return dom.NewElement("div"), nil
	}
	node := dom.Clone(elements[0])

	locals, err := r.env.extractLocals(node)
	if err != nil {
		return nil, err
	}
	r.env.Locals.Set(node, locals)

	if err := r.env.registerSubtree(node, r.registry); err != nil {
		return nil, err
	}
	return node, nil
}
