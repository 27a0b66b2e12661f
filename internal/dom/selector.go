package dom

import (
	"errors"
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ErrInvalidSelector is returned for selectors cascadia cannot compile.
var ErrInvalidSelector = errors.New("invalid selector")

// Compile parses a CSS selector.
func Compile(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, selector, err)
	}
	return sel, nil
}

// QueryFirst returns the first element under root matching selector, in
// document order. Template content is never matched.
func QueryFirst(root *html.Node, selector string) (*html.Node, error) {
	sel, err := Compile(selector)
	if err != nil {
		return nil, err
	}
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode {
			if sel.Match(n) {
				found = n
				return false
			}
			if IsTemplate(n) {
				return false
			}
		}
		return true
	})
	return found, nil
}

// QueryAll returns every element under root matching selector.
func QueryAll(root *html.Node, selector string) ([]*html.Node, error) {
	sel, err := Compile(selector)
	if err != nil {
		return nil, err
	}
	var result []*html.Node
	Walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if sel.Match(n) {
			result = append(result, n)
		}
		return !IsTemplate(n)
	})
	return result, nil
}
