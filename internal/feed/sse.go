package feed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// FollowSSE connects to a Server-Sent-Events endpoint and delivers the data
// of every event until ctx is done or the server closes the stream.
func FollowSSE(ctx context.Context, client *http.Client, url string, h Handler, opts ...Option) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status from %s: %s", url, resp.Status)
	}

	err = ReadSSE(resp.Body, h, opts...)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// ReadSSE parses an event stream. Data lines of one event are joined with
// newlines and delivered when the blank line ending the event arrives.
// Comments and fields other than data are ignored, and an event cut off by
// the end of the stream is dropped.
func ReadSSE(r io.Reader, h Handler, opts ...Option) error {
	o := newOptions(opts)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data []string
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if line == "" {
			if len(data) > 0 {
				o.deliver([]byte(strings.Join(data, "\n")), h, "SSE", CounterSSEFrames)
				data = data[:0]
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		if field == "data" {
			data = append(data, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read event stream: %w", err)
	}
	return nil
}
