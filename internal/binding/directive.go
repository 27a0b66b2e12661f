// Package binding discovers binding directives in a live tree and turns them
// into a registry of scalar targets and collection containers.
package binding

import (
	"errors"
	"strings"

	"golang.org/x/net/html"

	"github.com/livefir/livepatch/internal/dom"
)

var (
	// ErrHandlerBinding rejects bindings that target an event-handler slot.
	ErrHandlerBinding = errors.New("binding to event handler rejected")
	// ErrInvalidCollection rejects a collection directive with a bad path.
	ErrInvalidCollection = errors.New("invalid collection name")
	// ErrNoTemplate is returned when no template can materialize an item.
	ErrNoTemplate = errors.New("no resolvable template for collection")
	// ErrUnsafeTemplate is returned when a template fails validation.
	ErrUnsafeTemplate = errors.New("unsafe template")
	// ErrTemplateShape is returned when a template has other than one top-level element.
	ErrTemplateShape = errors.New("template must contain exactly one element child")
)

// Directives names the attributes that carry binding directives.
type Directives struct {
	Bind     string `yaml:"bind" validate:"required"`
	List     string `yaml:"list" validate:"required"`
	Key      string `yaml:"key" validate:"required"`
	KeyData  string `yaml:"key_data" validate:"required"`
	Template string `yaml:"template" validate:"required"`
	Debug    string `yaml:"debug" validate:"required"`
}

// DefaultDirectives returns the standard s-* vocabulary.
func DefaultDirectives() Directives {
	return Directives{
		Bind:     "s-bind",
		List:     "s-list",
		Key:      "s-key",
		KeyData:  "data-key",
		Template: "s-template",
		Debug:    "s-debug",
	}
}

// Binding is a parsed scalar directive of the form path[:prop].
type Binding struct {
	Path string
	// Prop is the target property; empty means text content.
	Prop string
}

// ParseBinding splits a raw directive value at its first colon.
func ParseBinding(raw string) (Binding, bool) {
	if raw == "" {
		return Binding{}, false
	}
	path, prop, _ := strings.Cut(raw, ":")
	return Binding{Path: path, Prop: prop}, true
}

// bindingOf reads and parses the scalar directive on n.
func (d Directives) bindingOf(n *html.Node) (Binding, bool) {
	raw, ok := dom.Attr(n, d.Bind)
	if !ok {
		return Binding{}, false
	}
	return ParseBinding(raw)
}

// IsHandler reports whether prop names an event-handler slot.
func IsHandler(prop string) bool {
	return strings.HasPrefix(strings.ToLower(prop), "on")
}

// Entry is one scalar target: a node and the property written on it.
type Entry struct {
	Node *html.Node
	Prop string
}
