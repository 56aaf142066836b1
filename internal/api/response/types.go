package response

import (
	"time"

	"github.com/mcoot/quizroom/internal/model"
)

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Player represents a player in API responses
type Player struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// PlayersFromModel converts a player snapshot, keeping its order
func PlayersFromModel(players []model.Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = Player{Name: p.Name, Score: p.Score}
	}
	return out
}

// GameResponse is a read-only snapshot of one game
type GameResponse struct {
	Code      string    `json:"code"`
	IsActive  bool      `json:"isActive"`
	Players   []Player  `json:"players"`
	CreatedAt time.Time `json:"createdAt"`
}

// GameFromModel builds a GameResponse from a registry snapshot
func GameFromModel(code model.GameCode, state model.GameState) GameResponse {
	return GameResponse{
		Code:      string(code),
		IsActive:  state.IsActive,
		Players:   PlayersFromModel(state.PlayerList()),
		CreatedAt: state.CreatedAt,
	}
}

// StatsResponse reports live server counters
type StatsResponse struct {
	Games    int `json:"games"`
	Sessions int `json:"sessions"`
}
