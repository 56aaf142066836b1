package session

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/mcoot/quizroom/internal/dependencies/clock"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/scoreboard"
	"github.com/mcoot/quizroom/internal/services/registry"
)

// Manager starts a Session for every accepted connection. All sessions share
// one registry.
type Manager struct {
	registry  registry.RegistryInterface
	codes     registry.CodeGenerator
	publisher scoreboard.Publisher
	clock     clock.Clock
	cfg       Config
	logger    *slog.Logger
	newID     func() model.PlayerID

	active atomic.Int64
}

// NewManager creates a session manager. A nil publisher disables scoreboard updates.
func NewManager(
	reg registry.RegistryInterface,
	codes registry.CodeGenerator,
	publisher scoreboard.Publisher,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Manager {
	if publisher == nil {
		publisher = scoreboard.Nop{}
	}
	return &Manager{
		registry:  reg,
		codes:     codes,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "session")),
		newID:     model.NewPlayerID,
	}
}

// Serve runs a session over t and blocks until it ends. The transport is
// closed and the player removed from its game before Serve returns.
func (m *Manager) Serve(ctx context.Context, t Transport) {
	s := m.newSession(t)

	m.active.Add(1)
	defer m.active.Add(-1)

	s.run(ctx)
}

// Active returns the number of sessions currently being served
func (m *Manager) Active() int {
	return int(m.active.Load())
}

func (m *Manager) newSession(t Transport) *Session {
	id := m.newID()
	return &Session{
		id:        id,
		transport: t,
		registry:  m.registry,
		codes:     m.codes,
		publisher: m.publisher,
		clock:     m.clock,
		cfg:       m.cfg,
		logger:    m.logger.With(slog.String("session_id", string(id))),
	}
}
