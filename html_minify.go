package livepatch

import (
	"bytes"
	"io"
	"sync"

	"github.com/tdewolff/minify/v2"
	minifyhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"
)

var (
	minifier *minify.M
	once     sync.Once
)

// getMinifier returns a configured HTML minifier (singleton)
func getMinifier() *minify.M {
	once.Do(func() {
		minifier = minify.New()
		minifier.Add("text/html", &minifyhtml.Minifier{
			KeepDocumentTags:    true,
			KeepEndTags:         true,
			KeepQuotes:          true,
			KeepDefaultAttrVals: true,
		})
	})
	return minifier
}

// renderMinified serializes n and collapses insignificant whitespace.
// If minification fails, the plain rendering is written instead.
func renderMinified(w io.Writer, n *html.Node) error {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return err
	}

	var out bytes.Buffer
	if err := getMinifier().Minify("text/html", &out, bytes.NewReader(buf.Bytes())); err != nil {
		_, err = w.Write(buf.Bytes())
		return err
	}
	_, err := w.Write(out.Bytes())
	return err
}
