package sse

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/scoreboard"
)

// ErrClosed is returned when subscribing after Close
var ErrClosed = errors.New("scoreboard streams are closed")

// HubManager manages hubs for all watched games and publishes scoreboard
// updates to them
type HubManager struct {
	hubs   map[model.GameCode]*Hub
	closed bool
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.GameCode]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

var _ scoreboard.Publisher = (*HubManager)(nil)

// GetOrCreateHub returns the hub for a game, creating one if it doesn't exist.
// It returns nil once the manager is closed.
func (m *HubManager) GetOrCreateHub(code model.GameCode) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(code)
}

func (m *HubManager) getOrCreateLocked(code model.GameCode) *Hub {
	if m.closed {
		return nil
	}
	if hub, ok := m.hubs[code]; ok {
		return hub
	}

	hub := NewHub(code, m.logger)
	m.hubs[code] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a game, or nil if it doesn't exist
func (m *HubManager) GetHub(code model.GameCode) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[code]
}

// Subscribe registers a new client on the game's hub. A hub closed between
// lookup and registration is replaced.
func (m *HubManager) Subscribe(code model.GameCode) (*Hub, *Client, error) {
	for {
		hub := m.GetOrCreateHub(code)
		if hub == nil {
			return nil, nil, ErrClosed
		}
		client := NewClient(hub)
		if hub.Register(client) {
			return hub, client, nil
		}
		m.mu.Lock()
		if m.hubs[code] == hub {
			delete(m.hubs, code)
		}
		m.mu.Unlock()
	}
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(code model.GameCode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[code]; ok {
		hub.Close()
		delete(m.hubs, code)
		m.logger.Debug("sse hub removed", slog.String("game", string(code)))
	}
}

// Close disconnects every watcher and rejects new subscriptions
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for code, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, code)
	}
	m.logger.Info("sse hubs closed")
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removedCount := 0
	for code, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, code)
			removedCount++
		}
	}
	if removedCount > 0 {
		m.logger.Info("sse empty hubs cleaned up", slog.Int("removed", removedCount))
	}
	return removedCount
}

// Publish forwards an update to the game's watchers. Games nobody watches are
// skipped. A closed game also closes its hub after the final update.
func (m *HubManager) Publish(_ context.Context, update model.ScoreboardUpdate) error {
	hub := m.GetHub(update.Code)
	if hub == nil {
		return nil
	}

	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	hub.BroadcastEvent(EventScoreboard, string(data))

	if update.Reason == model.ReasonGameClosed {
		m.RemoveHub(update.Code)
	}
	return nil
}
