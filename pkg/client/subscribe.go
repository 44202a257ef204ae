package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"locallink/internal/identity"
	"locallink/pkg/types"

	"github.com/gorilla/websocket"
)

// Subscribe opens the change feed. Events arrive on the returned channel in
// the store's commit order; the channel closes when the connection drops or
// unsubscribe is called. Reconnection is the caller's business: dial again
// and reload the snapshot.
func (c *Client) Subscribe(ctx context.Context) (<-chan types.ChangeEvent, func(), error) {
	header := http.Header{}
	header.Set(identity.HeaderDeviceID, c.deviceID)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.feedURL(), header)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe: %w: %w", types.ErrStoreUnavailable, err)
	}

	events := make(chan types.ChangeEvent)

	go func() {
		defer close(events)

		for {
			var event types.ChangeEvent
			if err := conn.ReadJSON(&event); err != nil {
				return
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	unsubscribe := func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}

	return events, unsubscribe, nil
}

func (c *Client) feedURL() string {
	url := strings.TrimSuffix(c.baseURL, "/")
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/feed"
}
