package livepatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterPage = `<body><div id="box"><span id="n" s-bind="n"></span></div></body>`

func TestStreamCoalescesUpdates(t *testing.T) {
	e, _ := newEngine(t, counterPage, WithDebug(true))
	doc := e.Document()

	patches := 0
	box := doc.GetElementByID("box")
	doc.AddEventListener(box, "livepatch:patched", func(*Event) { patches++ })

	update, err := e.Stream("#box")
	require.NoError(t, err)

	update(map[string]any{"n": 1})
	update(map[string]any{"n": 2})
	update(map[string]any{"n": 3})
	assert.Equal(t, 0, patches)

	assert.Equal(t, 1, e.Flush())
	assert.Equal(t, 1, patches)
	assert.Equal(t, "3", TextContent(doc.GetElementByID("n")))

	update(map[string]any{"n": 4})
	assert.Equal(t, 1, e.Flush())
	assert.Equal(t, 2, patches)
	assert.Equal(t, "4", TextContent(doc.GetElementByID("n")))

	m := e.Metrics()
	assert.Equal(t, int64(4), m.StreamUpdates)
	assert.Equal(t, int64(2), m.StreamFlushes)
}

func TestStreamsAreIndependent(t *testing.T) {
	markup := `<body><p id="a" s-bind="v"></p><p id="b" s-bind="v"></p></body>`
	e, _ := newEngine(t, markup, WithDebug(true))

	ua, err := e.Stream("#a")
	require.NoError(t, err)
	ub, err := e.Stream("#b")
	require.NoError(t, err)

	ua(map[string]any{"v": "a1"})
	ub(map[string]any{"v": "b1"})
	ua(map[string]any{"v": "a2"})

	assert.Equal(t, 2, e.Flush())
	assert.Equal(t, "a2", TextContent(e.Document().GetElementByID("a")))
	assert.Equal(t, "b1", TextContent(e.Document().GetElementByID("b")))
}

func TestStreamErrorsAreLogged(t *testing.T) {
	markup := `<body><div id="box"><button s-bind="x:onclick"></button></div></body>`
	e, logs := newEngine(t, markup, WithDebug(true))

	update, err := e.Stream("#box")
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		update(map[string]any{"x": "alert(1)"})
		e.Flush()
	})
	assert.Contains(t, logs.String(), "STREAM: flush failed")
}

func TestStreamInvalidRoot(t *testing.T) {
	e, _ := newEngine(t, counterPage, WithDebug(true))
	_, err := e.Stream("#missing")
	assert.True(t, errors.Is(err, ErrRootNotFound))

	quiet, _ := newEngine(t, counterPage)
	update, err := quiet.Stream("#missing")
	require.NoError(t, err)
	update(map[string]any{"n": 1})
	assert.Equal(t, 0, quiet.Flush())
}

func TestStreamConcurrentUpdaters(t *testing.T) {
	e, _ := newEngine(t, counterPage, WithDebug(true))
	update, err := e.Stream("#box")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			update(map[string]any{"n": i})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, e.Flush())
	assert.NotEmpty(t, TextContent(e.Document().GetElementByID("n")))
}

func TestRunDrivesStreams(t *testing.T) {
	e, _ := newEngine(t, counterPage, WithDebug(true))
	update, err := e.Stream("#box")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	update(map[string]any{"n": "from run"})

	got := make(chan string, 1)
	require.Eventually(t, func() bool {
		e.Do(func() {
			select {
			case got <- TextContent(e.Document().GetElementByID("n")):
			default:
			}
		})
		select {
		case text := <-got:
			return text == "from run"
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestFollowSSEFeedsStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 1; i <= 3; i++ {
			fmt.Fprintf(w, "data: {\"n\":%d}\n\n", i)
		}
	}))
	defer server.Close()

	e, _ := newEngine(t, counterPage, WithDebug(true))
	update, err := e.Stream("#box")
	require.NoError(t, err)

	require.NoError(t, e.FollowSSE(context.Background(), server.URL, update))
	assert.Equal(t, 1, e.Pending())
	assert.Equal(t, 1, e.Flush())
	assert.Equal(t, 0, e.Pending())
	assert.Equal(t, "3", TextContent(e.Document().GetElementByID("n")))

	m := e.Metrics()
	assert.Equal(t, int64(3), m.Counters["sse_frames"])
	assert.Equal(t, int64(3), m.StreamUpdates)
	assert.Equal(t, int64(1), m.StreamFlushes)
	assert.Equal(t, 3.0, m.CoalescingRatio)
}

func TestFollowSSECountsSkippedPayloads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: [1]\n\ndata: {\"n\":4}\n\n")
	}))
	defer server.Close()

	e, logs := newEngine(t, counterPage, WithDebug(true))
	update, err := e.Stream("#box")
	require.NoError(t, err)

	require.NoError(t, e.FollowSSE(context.Background(), server.URL, update))
	e.Flush()

	m := e.Metrics()
	assert.Equal(t, int64(2), m.Counters["sse_frames"])
	assert.Equal(t, int64(1), m.Counters["feed_skipped"])
	assert.Contains(t, logs.String(), "skipping non-object payload")

	e.ResetMetrics()
	assert.Empty(t, e.Metrics().Counters)
	assert.Zero(t, e.Metrics().StreamUpdates)
}
