package sse

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mcoot/quizroom/internal/model"
)

const (
	// Time between keepalive comments
	pingPeriod = 15 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 64
)

var errStreamingUnsupported = errors.New("streaming unsupported")

// Client represents a connected scoreboard watcher
type Client struct {
	hub         *Hub
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a new SSE client
func NewClient(hub *Hub) *Client {
	return &Client{
		hub:         hub,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// ServeSSE streams scoreboard updates for one game. The watcher subscribes
// before snapshot is called, so every update published after the snapshot was
// taken reaches the stream. If snapshot fails nothing is written and its error
// is returned.
func (m *HubManager) ServeSSE(w http.ResponseWriter, r *http.Request, code model.GameCode, snapshot func() (model.ScoreboardUpdate, error)) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return errStreamingUnsupported
	}

	hub, client, err := m.Subscribe(code)
	if err != nil {
		return err
	}
	defer hub.Unregister(client)

	initial, err := snapshot()
	if err != nil {
		return err
	}
	data, err := json.Marshal(initial)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	if _, err := w.Write(formatSSEMessage(EventScoreboard, string(data))); err != nil {
		return nil
	}
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return nil
			}
			if _, err := w.Write(message); err != nil {
				return nil
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return nil
			}
			flusher.Flush()

		case <-r.Context().Done():
			return nil
		}
	}
}
