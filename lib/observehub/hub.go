// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package observehub

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fanoutlabs/coordinator/fanout"
)

const (
	writeDeadline = 10 * time.Second
	subscriberBuf = 64
)

// Hub fans fanout.Event values out to any number of connected
// WebSocket observers. The zero value is not usable; construct with
// New.
type Hub struct {
	logger *slog.Logger

	mu          sync.Mutex
	subscribers map[chan eventPayload]struct{}

	upgrader websocket.Upgrader
}

// New creates a Hub. allowedOrigins controls which Origin header
// values the WebSocket upgrade will accept; a nil or empty slice
// allows any origin, which is appropriate for a hub bound to
// 127.0.0.1 behind no reverse proxy.
func New(logger *slog.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		logger:      logger,
		subscribers: make(map[chan eventPayload]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return isOriginAllowed(r, allowedOrigins)
		},
	}
	return h
}

// eventPayload is the JSON shape observers receive. It mirrors
// fanout.Event but with JSON tags and a wall-clock timestamp, since
// fanout.Event itself carries none.
type eventPayload struct {
	Kind      string    `json:"kind"`
	ChannelID string    `json:"channel_id"`
	Round     int       `json:"round"`
	AgentID   string    `json:"agent_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publish implements fanout.EventSink. It never blocks: an event for a
// subscriber whose channel is full is dropped for that subscriber
// rather than allowed to stall the coordinator's executor goroutine.
func (h *Hub) Publish(event fanout.Event) {
	payload := eventPayload{
		Kind:      string(event.Kind),
		ChannelID: event.ChannelID,
		Round:     event.Round,
		AgentID:   event.AgentID,
		Timestamp: time.Now().UTC(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- payload:
		default:
			h.logger.Warn("observehub: dropping event for slow subscriber",
				slog.String("channel_id", event.ChannelID),
				slog.String("kind", string(event.Kind)))
		}
	}
}

func (h *Hub) subscribe() chan eventPayload {
	ch := make(chan eventPayload, subscriberBuf)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan eventPayload) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	h.mu.Unlock()
	close(ch)
}

// ServeHTTP upgrades the request to a WebSocket and streams events to
// it until the client disconnects. Mount it at the observer endpoint.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case payload, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				return
			}
			if err := conn.WriteJSON(payload); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func isOriginAllowed(r *http.Request, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, candidate := range allowed {
		if candidate == origin {
			return true
		}
	}
	return false
}
