package commands

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/livefir/livepatch"
)

// options are the flags shared by the page commands.
type options struct {
	root       string
	config     string
	debug      bool
	minify     bool
	positional []string
}

func parseOptions(args []string) (options, error) {
	opts := options{root: "body"}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--root":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--root requires a selector")
			}
			opts.root = args[i+1]
			i++ // skip next arg
		case "--config":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--config requires a file")
			}
			opts.config = args[i+1]
			i++ // skip next arg
		case "--debug":
			opts.debug = true
		case "--minify":
			opts.minify = true
		default:
			if strings.HasPrefix(args[i], "--") {
				return opts, fmt.Errorf("unknown flag: %s", args[i])
			}
			opts.positional = append(opts.positional, args[i])
		}
	}
	return opts, nil
}

// newEngine parses the page at path and creates an engine for it.
func newEngine(path string, opts options) (*livepatch.Engine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	doc, err := livepatch.ParseDocument(f)
	if err != nil {
		return nil, err
	}

	cfg := livepatch.DefaultConfig()
	if opts.config != "" {
		cfg, err = livepatch.LoadConfig(opts.config)
		if err != nil {
			return nil, err
		}
	}
	if opts.debug {
		cfg.Debug = true
	}

	logger := log.New(os.Stderr, cfg.LogPrefix, 0)
	return livepatch.New(doc, livepatch.WithConfig(cfg), livepatch.WithLogger(logger)), nil
}
