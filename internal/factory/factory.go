package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/quizroom/internal/dependencies/clock"
	"github.com/mcoot/quizroom/internal/dependencies/random"
	"github.com/mcoot/quizroom/internal/scoreboard"
	redisscore "github.com/mcoot/quizroom/internal/scoreboard/redis"
	"github.com/mcoot/quizroom/internal/scoreboard/sse"
	"github.com/mcoot/quizroom/internal/services/registry"
	"github.com/mcoot/quizroom/internal/session"
	"github.com/mcoot/quizroom/internal/transport/ws"
)

// Publisher type constants
const (
	PublisherTypeNone  = "none"
	PublisherTypeRedis = "redis"
)

// App contains all wired application components
type App struct {
	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Game state
	Registry *registry.Registry
	Codes    registry.CodeGenerator

	// Scoreboard observers
	HubManager *sse.HubManager
	Publisher  scoreboard.Publisher

	// Connections
	Sessions  *session.Manager
	WebSocket *ws.Handler

	redis *redisscore.Publisher
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// Shards is the number of registry lock shards; 0 or 1 means one global lock
	Shards int
	// Session holds heartbeat settings (optional)
	// If zero value, defaults to session.DefaultConfig()
	Session session.Config
	// WebSocket holds acceptor settings (optional)
	// If zero value, defaults to ws.DefaultConfig()
	WebSocket ws.Config
	// PublisherType selects an extra scoreboard publisher ("none" or "redis")
	// SSE observers are always served. If empty, defaults to "none"
	PublisherType string
	// RedisConfig holds Redis settings (required if PublisherType is "redis")
	RedisConfig *redisscore.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var redisPub *redisscore.Publisher
	publisherType := cfg.PublisherType
	if publisherType == "" {
		publisherType = PublisherTypeNone
	}

	switch publisherType {
	case PublisherTypeNone:
	case PublisherTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when PublisherType is redis")
		}
		p, err := redisscore.New(*cfg.RedisConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("create redis publisher: %w", err)
		}
		redisPub = p
	default:
		return nil, errors.New("invalid PublisherType: must be 'none' or 'redis'")
	}

	var extra scoreboard.Publisher
	if redisPub != nil {
		extra = redisPub
	}

	app := newWithDependencies(clock.New(), random.New(), extra, cfg, logger)
	app.redis = redisPub
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing).
// extra, if not nil, receives scoreboard updates alongside the SSE hubs.
func newWithDependencies(clk clock.Clock, rnd random.Random, extra scoreboard.Publisher, cfg Config, logger *slog.Logger) *App {
	sessionCfg := cfg.Session
	if sessionCfg == (session.Config{}) {
		sessionCfg = session.DefaultConfig()
	}
	wsCfg := cfg.WebSocket
	if wsCfg == (ws.Config{}) {
		wsCfg = ws.DefaultConfig()
	}

	reg := registry.New(clk, logger, registry.WithShards(cfg.Shards))
	codes := registry.NewHexCodeGenerator(rnd)
	hubManager := sse.NewHubManager(logger)

	var fanout scoreboard.Publisher = hubManager
	if extra != nil {
		fanout = scoreboard.Multi{hubManager, extra}
	}
	publisher := scoreboard.NewLogging(fanout, logger)

	sessions := session.NewManager(reg, codes, publisher, clk, sessionCfg, logger)

	return &App{
		Clock:      clk,
		Random:     rnd,
		Registry:   reg,
		Codes:      codes,
		HubManager: hubManager,
		Publisher:  publisher,
		Sessions:   sessions,
		WebSocket:  ws.NewHandler(sessions, wsCfg, logger),
	}
}

// Close stops every session and releases external connections
func (a *App) Close() error {
	a.WebSocket.Close()
	a.HubManager.Close()
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
