package livepatch

import (
	"errors"

	"github.com/livefir/livepatch/internal/binding"
	"github.com/livefir/livepatch/internal/dom"
)

// Hard errors. They are returned only when the engine runs in debug mode;
// otherwise the engine degrades silently and carries on.
var (
	// ErrInvalidRoot is returned when a root is neither a selector nor a node.
	ErrInvalidRoot = errors.New("invalid root: must be selector string or *html.Node")
	// ErrRootNotFound is returned when a root selector matches nothing.
	ErrRootNotFound = errors.New("root element not found")
	// ErrInvalidSelector is returned for malformed root selectors.
	ErrInvalidSelector = dom.ErrInvalidSelector

	ErrHandlerBinding    = binding.ErrHandlerBinding
	ErrInvalidCollection = binding.ErrInvalidCollection
	ErrNoTemplate        = binding.ErrNoTemplate
	ErrUnsafeTemplate    = binding.ErrUnsafeTemplate
	ErrTemplateShape     = binding.ErrTemplateShape
)
