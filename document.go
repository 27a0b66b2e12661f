package livepatch

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/livefir/livepatch/internal/dom"
)

// Event is a notification dispatched on a node of a Document.
type Event = dom.Event

// Listener handles events dispatched on a Document.
type Listener = dom.Listener

// PatchedDetail is the payload of the patched notification.
type PatchedDetail struct {
	Paths []string `json:"paths"`
}

// Document is a live HTML tree the engine patches in place.
//
// A Document is not safe for concurrent use. All access, including patches
// and renders, must happen on one goroutine at a time.
type Document struct {
	tree *dom.Tree
}

// NewDocument wraps an already parsed tree, usually a document node.
func NewDocument(root *html.Node) *Document {
	return &Document{tree: dom.NewTree(root)}
}

// ParseDocument parses a full HTML document.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return NewDocument(root), nil
}

// ParseDocumentString parses a full HTML document held in a string.
func ParseDocumentString(markup string) (*Document, error) {
	return ParseDocument(strings.NewReader(markup))
}

// Root returns the node the document was created from.
func (d *Document) Root() *html.Node {
	return d.tree.Root
}

// GetElementByID returns the first element with the given id, outside
// template content.
func (d *Document) GetElementByID(id string) *html.Node {
	return d.tree.ElementByID(id)
}

// QuerySelector returns the first element matching a CSS selector, or nil.
func (d *Document) QuerySelector(selector string) (*html.Node, error) {
	return dom.QueryFirst(d.tree.Root, selector)
}

// Query returns every element matching a CSS selector.
func (d *Document) Query(selector string) ([]*html.Node, error) {
	return dom.QueryAll(d.tree.Root, selector)
}

// Property reads a typed property such as checked or selectedIndex.
func (d *Document) Property(n *html.Node, name string) any {
	return d.tree.Property(n, name)
}

// AddEventListener registers fn for events of type typ reaching n, either
// dispatched on n or bubbling up from a descendant. The returned function
// removes the listener.
func (d *Document) AddEventListener(n *html.Node, typ string, fn Listener) func() {
	return d.tree.AddEventListener(n, typ, fn)
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.tree.Root)
}

// RenderMinified writes the document as minified HTML.
func (d *Document) RenderMinified(w io.Writer) error {
	return renderMinified(w, d.tree.Root)
}

// String renders the document, ignoring errors.
func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

// OuterHTML renders a single node.
func OuterHTML(n *html.Node) string {
	var buf bytes.Buffer
	_ = html.Render(&buf, n)
	return buf.String()
}

// TextContent returns the concatenated text below n.
func TextContent(n *html.Node) string {
	return dom.TextContent(n)
}
