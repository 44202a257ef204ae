package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPingPeriod = 30 * time.Second
)

// handleFeed upgrades to a websocket and streams change events. The
// connection is the subscription: closing it from either side releases it.
func (s *Service) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.WithError(err).Debug("feed upgrade failed")
		return
	}

	events, unsubscribe := s.feed.Subscribe()
	defer unsubscribe()
	defer conn.Close()

	s.logger.WithField("remote", r.RemoteAddr).Info("feed subscriber connected")

	// Clients never send application data; the read pump only notices the
	// peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(feedPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return

		case <-r.Context().Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}

			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				s.logger.WithError(err).Debug("feed write failed, dropping subscriber")
				return
			}

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
