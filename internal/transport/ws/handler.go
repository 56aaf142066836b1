package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mcoot/quizroom/internal/middleware"
	"github.com/mcoot/quizroom/internal/session"
)

// Config holds settings for the websocket acceptor
type Config struct {
	// AllowedOriginPrefix restricts browser origins; empty allows all
	AllowedOriginPrefix string
	ReadBufferSize      int
	WriteBufferSize     int
}

// DefaultConfig allows local development origins
func DefaultConfig() Config {
	return Config{
		AllowedOriginPrefix: "http://localhost:",
		ReadBufferSize:      1024,
		WriteBufferSize:     1024,
	}
}

// Handler upgrades HTTP requests and serves one session per connection. Sessions
// outlive their request context, so the handler owns the context that stops them.
type Handler struct {
	manager  *session.Manager
	upgrader websocket.Upgrader
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewHandler creates a websocket handler feeding sessions to manager
func NewHandler(manager *session.Manager, cfg Config, logger *slog.Logger) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	prefix := cfg.AllowedOriginPrefix
	return &Handler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(r.Header.Get("Origin"), prefix)
			},
		},
		logger: logger.With(slog.String("component", "ws")),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ServeHTTP upgrades the connection and blocks for the session's lifetime
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.track() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.wg.Done()

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		h.logger.Warn("websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()))
		return
	}

	conn := NewConn(wsConn)
	h.logger.Info("websocket connection accepted", slog.String("remote_addr", conn.RemoteAddr()))
	h.manager.Serve(h.ctx, conn)
}

func (h *Handler) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.wg.Add(1)
	return true
}

// Close rejects new connections, stops every running session and waits for
// their cleanup
func (h *Handler) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	h.cancel()
	h.wg.Wait()
}
