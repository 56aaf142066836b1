package handler

import (
	"net/http"

	"github.com/mcoot/quizroom/internal/api/response"
)

// HealthHandler reports liveness and live counters
type HealthHandler struct {
	version  string
	games    GameReader
	sessions SessionCounter
}

// SessionCounter reports how many sessions are connected
type SessionCounter interface {
	Active() int
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, games GameReader, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{version: version, games: games, sessions: sessions}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{
		Status:  "healthy",
		Version: h.version,
	})
}

// Stats handles GET /stats
func (h *HealthHandler) Stats(w http.ResponseWriter, _ *http.Request) {
	stats := response.StatsResponse{Games: h.games.Len()}
	if h.sessions != nil {
		stats.Sessions = h.sessions.Active()
	}
	response.JSON(w, http.StatusOK, stats)
}
