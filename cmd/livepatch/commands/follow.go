package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/livefir/livepatch"
	"github.com/livefir/livepatch/internal/feed"
)

// Follow patches a page from a live feed and prints it after every change.
// URLs starting with ws:// or wss:// are read as WebSocket text frames,
// anything else as Server-Sent Events.
func Follow(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return follow(ctx, os.Stdout, os.Stderr, args)
}

// follow prints pages to w and a closing summary to errW.
func follow(ctx context.Context, w, errW io.Writer, args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if len(opts.positional) != 2 {
		return fmt.Errorf("usage: livepatch follow <page.html> <url> [--root <selector>] [--debug] [--config <file>]")
	}
	url := opts.positional[1]

	engine, err := newEngine(opts.positional[0], opts)
	if err != nil {
		return err
	}
	update, err := engine.Stream(opts.root)
	if err != nil {
		return err
	}

	var last string
	printer := func() {
		var buf bytes.Buffer
		if err := engine.Document().RenderMinified(&buf); err != nil {
			return
		}
		if page := buf.String(); page != last {
			last = page
			fmt.Fprintln(w, page)
		}
	}
	// every update queues one print behind the flush it triggers
	onData := func(data any) {
		update(data)
		engine.Do(printer)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = engine.Run(runCtx)
	}()

	if strings.HasPrefix(url, "ws://") || strings.HasPrefix(url, "wss://") {
		err = engine.FollowWebSocket(ctx, url, onData)
	} else {
		err = engine.FollowSSE(ctx, url, onData)
	}

	cancel()
	<-runDone
	if n := engine.Pending(); n > 0 {
		fmt.Fprintf(errW, "flushing %d pending task(s)\n", n)
		engine.Flush()
	}
	summarize(errW, engine.Metrics())

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func summarize(w io.Writer, m livepatch.Metrics) {
	frames := m.Counters[feed.CounterSSEFrames] + m.Counters[feed.CounterWebSocketFrames]
	fmt.Fprintln(w, headingStyle.Render("Summary"))
	fmt.Fprintf(w, "  frames    %d (%d skipped)\n", frames, m.Counters[feed.CounterSkipped])
	fmt.Fprintf(w, "  updates   %d in %d flushes (%.1f per flush)\n", m.StreamUpdates, m.StreamFlushes, m.CoalescingRatio)
	fmt.Fprintf(w, "  patches   %d, error rate %.1f%%\n", m.PatchesApplied, m.ErrorRate)
	fmt.Fprintf(w, "  warnings  %d\n", m.Warnings)
}
