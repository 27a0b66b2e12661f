package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/livefir/livepatch/cmd/livepatch/commands"
)

// Version information (can be overridden at build time with -ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error

	switch command {
	case "apply":
		err = commands.Apply(args)
	case "inspect":
		err = commands.Inspect(args)
	case "follow":
		err = commands.Follow(args)
	case "serve":
		err = commands.Serve(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("livepatch version %s\n", version)

	if info, ok := debug.ReadBuildInfo(); ok {
		var vcsRevision string
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				vcsRevision = setting.Value
			}
		}

		if commit != "unknown" {
			fmt.Printf("commit: %s\n", commit)
		} else if vcsRevision != "" {
			if len(vcsRevision) > 12 {
				vcsRevision = vcsRevision[:12]
			}
			fmt.Printf("commit: %s\n", vcsRevision)
		}
		fmt.Printf("go: %s\n", info.GoVersion)
	}
}

func printUsage() {
	fmt.Println("livepatch - apply JSON data to HTML binding directives")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  livepatch apply <page.html> <data.json|->   Patch a page and print it")
	fmt.Println("  livepatch inspect <page.html>               List scalar paths and collections")
	fmt.Println("  livepatch follow <page.html> <url>          Patch a page from an SSE or WebSocket feed")
	fmt.Println("  livepatch serve [--config <file>]           Run the stock ticker and todo demo")
	fmt.Println("  livepatch version                           Show version information")
	fmt.Println()
	fmt.Println("Page Flags:")
	fmt.Println("  --root <selector>    Root element to patch (default: body)")
	fmt.Println("  --config <file>      Engine configuration (YAML)")
	fmt.Println("  --debug              Report hard errors and log warnings")
	fmt.Println("  --minify             Minify the printed page (apply only)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  livepatch apply index.html state.json --root '#app' --minify")
	fmt.Println("  echo '{\"title\":\"Hi\"}' | livepatch apply index.html -")
	fmt.Println("  livepatch follow index.html http://localhost:8080/api/stocks")
	fmt.Println("  livepatch follow index.html ws://localhost:8080/ws")
}
