package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Inspect lists the bindings of a page without changing it.
func Inspect(args []string) error {
	return inspect(os.Stdout, args)
}

func inspect(w io.Writer, args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if len(opts.positional) != 1 {
		return fmt.Errorf("usage: livepatch inspect <page.html> [--root <selector>] [--debug]")
	}

	engine, err := newEngine(opts.positional[0], opts)
	if err != nil {
		return err
	}
	result, err := engine.Inspect(opts.root)
	if err != nil {
		return err
	}

	width := 0
	for _, s := range result.Scalars {
		width = max(width, len(s.Path))
	}
	for _, c := range result.Collections {
		width = max(width, len(c.Path))
	}

	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Scalars (%d)", len(result.Scalars))))
	for _, s := range result.Scalars {
		targets := make([]string, 0, len(s.Targets))
		for _, t := range s.Targets {
			label := describe(t.Node) + " text"
			if t.Prop != "" {
				label = describe(t.Node) + " " + t.Prop + " " + dimStyle.Render("("+t.Kind+")")
			}
			targets = append(targets, label)
		}
		fmt.Fprintf(w, "  %s  %s\n", pathStyle.Render(pad(s.Path, width)), strings.Join(targets, ", "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Collections (%d)", len(result.Collections))))
	for _, c := range result.Collections {
		fmt.Fprintf(w, "  %s  %s %s\n",
			pathStyle.Render(pad(c.Path, width)),
			describe(c.Container),
			dimStyle.Render(fmt.Sprintf("(%d items)", c.Items)))
	}
	return nil
}

// describe renders a short CSS-like label for n, such as <input#name>.
func describe(n *html.Node) string {
	label := n.Data
	for _, a := range n.Attr {
		if a.Key == "id" && a.Val != "" {
			label += "#" + a.Val
			break
		}
	}
	return "<" + label + ">"
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
