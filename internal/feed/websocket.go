package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

// FollowWebSocket dials url and delivers every text frame until ctx is done
// or the server closes the connection.
func FollowWebSocket(ctx context.Context, dialer *websocket.Dialer, url string, h Handler, opts ...Option) error {
	o := newOptions(opts)
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", url, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return nil
			}
			return fmt.Errorf("failed to read message: %w", err)
		}
		if messageType != websocket.TextMessage {
			continue
		}
		o.deliver(payload, h, "WEBSOCKET", CounterWebSocketFrames)
	}
}
