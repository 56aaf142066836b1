package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/quizroom/internal/api/apierr"
	"github.com/mcoot/quizroom/internal/api/response"
	"github.com/mcoot/quizroom/internal/dependencies/clock"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/scoreboard/sse"
)

// GameReader is the read-only view of the registry used by HTTP observers
type GameReader interface {
	Game(code model.GameCode) (model.GameState, error)
	Len() int
}

// GameHandler handles game observation endpoints. Games are only mutated over
// the websocket protocol.
type GameHandler struct {
	games      GameReader
	hubManager *sse.HubManager
	clock      clock.Clock
	logger     *slog.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(games GameReader, hubManager *sse.HubManager, clk clock.Clock, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		games:      games,
		hubManager: hubManager,
		clock:      clk,
		logger:     logger,
	}
}

// Get handles GET /games/{code}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := model.GameCode(mux.Vars(r)["code"])

	state, err := h.games.Game(code)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(code, state))
}

// Scoreboard handles GET /games/{code}/scoreboard, streaming updates over SSE
func (h *GameHandler) Scoreboard(w http.ResponseWriter, r *http.Request) {
	code := model.GameCode(mux.Vars(r)["code"])

	snapshot := func() (model.ScoreboardUpdate, error) {
		state, err := h.games.Game(code)
		if err != nil {
			return model.ScoreboardUpdate{}, err
		}
		// The stream outlives the server's write timeout
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
			h.logger.Debug("could not clear write deadline", slog.String("error", err.Error()))
		}
		h.logger.Info("scoreboard observer connected", slog.String("code", string(code)))
		return model.NewScoreboardUpdate(code, model.ReasonSnapshot, state, h.clock.Now()), nil
	}

	err := h.hubManager.ServeSSE(w, r, code, snapshot)
	switch {
	case err == nil:
		h.logger.Info("scoreboard observer disconnected", slog.String("code", string(code)))
	case errors.Is(err, sse.ErrClosed):
		apierr.WriteError(w, apierr.NewUnavailableError())
	default:
		apierr.WriteError(w, err)
	}
}
