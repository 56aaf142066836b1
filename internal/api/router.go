package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/quizroom/internal/api/handler"
	"github.com/mcoot/quizroom/internal/api/middleware"
	"github.com/mcoot/quizroom/internal/dependencies/clock"
	"github.com/mcoot/quizroom/internal/scoreboard/sse"

	sharedmw "github.com/mcoot/quizroom/internal/middleware"
)

// RouterConfig holds configuration for the HTTP router
type RouterConfig struct {
	Logger              *slog.Logger
	Version             string
	AllowedOriginPrefix string
	Games               handler.GameReader
	Sessions            handler.SessionCounter
	HubManager          *sse.HubManager
	// Clock stamps scoreboard snapshots; defaults to the real clock
	Clock clock.Clock
	// WebSocket serves game connections on /ws
	WebSocket http.Handler
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	healthHandler := handler.NewHealthHandler(cfg.Version, cfg.Games, cfg.Sessions)
	gameHandler := handler.NewGameHandler(cfg.Games, cfg.HubManager, clk, cfg.Logger)

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(sharedmw.Logging(cfg.Logger))

	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	r.HandleFunc("/stats", healthHandler.Stats).Methods(http.MethodGet)

	if cfg.WebSocket != nil {
		r.Handle("/ws", cfg.WebSocket).Methods(http.MethodGet)
	}

	games := r.PathPrefix("/games").Subrouter()
	games.HandleFunc("/{code}", gameHandler.Get).Methods(http.MethodGet)
	games.HandleFunc("/{code}/scoreboard", gameHandler.Scoreboard).Methods(http.MethodGet)

	// CORS wraps the router so preflight requests are answered before route matching
	return sharedmw.CORS(cfg.AllowedOriginPrefix)(r)
}
