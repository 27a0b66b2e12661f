package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Apply patches a page with a JSON document and prints the result.
func Apply(args []string) error {
	return apply(os.Stdout, os.Stdin, args)
}

func apply(w io.Writer, stdin io.Reader, args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if len(opts.positional) != 2 {
		return fmt.Errorf("usage: livepatch apply <page.html> <data.json|-> [--root <selector>] [--minify] [--debug] [--config <file>]")
	}

	engine, err := newEngine(opts.positional[0], opts)
	if err != nil {
		return err
	}

	data, err := readData(opts.positional[1], stdin)
	if err != nil {
		return err
	}

	if err := engine.Patch(data, opts.root); err != nil {
		return fmt.Errorf("patch failed: %w", err)
	}

	if opts.minify {
		return engine.Document().RenderMinified(w)
	}
	return engine.Document().Render(w)
}

// readData decodes a JSON file, or standard input for "-".
func readData(path string, stdin io.Reader) (any, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open data: %w", err)
		}
		defer f.Close()
		r = f
	}

	var data any
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}
	return data, nil
}
