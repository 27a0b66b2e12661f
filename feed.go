package livepatch

import (
	"context"

	"github.com/livefir/livepatch/internal/feed"
)

// FollowSSE reads JSON objects from a Server-Sent-Events endpoint and hands
// each one to update. It blocks until ctx is done or the stream ends.
func (e *Engine) FollowSSE(ctx context.Context, url string, update Updater) error {
	return feed.FollowSSE(ctx, nil, url, feed.Handler(update), e.feedOptions()...)
}

// FollowWebSocket reads JSON objects from the text frames of a WebSocket
// and hands each one to update. It blocks until ctx is done or the server
// closes the connection.
func (e *Engine) FollowWebSocket(ctx context.Context, url string, update Updater) error {
	return feed.FollowWebSocket(ctx, nil, url, feed.Handler(update), e.feedOptions()...)
}

func (e *Engine) feedOptions() []feed.Option {
	return []feed.Option{
		feed.WithLogger(e.logger),
		feed.WithCounter(e.metrics.IncrementCustomCounter),
	}
}
