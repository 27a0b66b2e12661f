package dom

import (
	"github.com/livefir/livepatch/internal/datapath"
)

// Kind is the value type of a recognized property.
type Kind int

const (
	// KindNone marks a name that is written as a plain string attribute.
	KindNone Kind = iota
	KindBool
	KindInt
	KindString
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindInt:
		return "number"
	case KindString:
		return "string"
	default:
		return "attribute"
	}
}

// properties is the closed set of names written as typed properties instead
// of string attributes.
var properties = map[string]Kind{
	"value":         KindString,
	"checked":       KindBool,
	"disabled":      KindBool,
	"selected":      KindBool,
	"src":           KindString,
	"href":          KindString,
	"selectedIndex": KindInt,
}

// PropertyKind looks name up in the property table.
func PropertyKind(name string) Kind {
	return properties[name]
}

// Zero returns the reset value of a kind.
func (k Kind) Zero() any {
	switch k {
	case KindBool:
		return false
	case KindInt:
		return 0
	case KindString:
		return ""
	}
	return nil
}

// Coerce converts v to the native type of the kind.
func (k Kind) Coerce(v any) any {
	switch k {
	case KindBool:
		return datapath.Truthy(v)
	case KindInt:
		return datapath.ToInt(v)
	case KindString:
		return datapath.Stringify(v)
	}
	return v
}

// reflectsToAttribute reports whether a property is mirrored into the
// attribute of the same name so that rendered markup shows it.
func reflectsToAttribute(name string) bool {
	return name != "selectedIndex"
}
