package model

import "time"

// ScoreboardReason identifies what changed the scoreboard
type ScoreboardReason string

const (
	ReasonGameCreated   ScoreboardReason = "game_created"
	ReasonPlayerJoined  ScoreboardReason = "player_joined"
	ReasonPlayerLeft    ScoreboardReason = "player_left"
	ReasonGameStarted   ScoreboardReason = "game_started"
	ReasonScoresUpdated ScoreboardReason = "scores_updated"
	ReasonGameClosed    ScoreboardReason = "game_closed"
	// ReasonSnapshot marks the state sent when an observer first connects
	ReasonSnapshot ScoreboardReason = "snapshot"
)

// ScoreboardUpdate is a snapshot of one game pushed to scoreboard observers
type ScoreboardUpdate struct {
	Code      GameCode         `json:"code"`
	Reason    ScoreboardReason `json:"reason"`
	IsActive  bool             `json:"isActive"`
	Players   []Player         `json:"players"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewScoreboardUpdate builds an update from a game snapshot
func NewScoreboardUpdate(code GameCode, reason ScoreboardReason, state GameState, now time.Time) ScoreboardUpdate {
	return ScoreboardUpdate{
		Code:      code,
		Reason:    reason,
		IsActive:  state.IsActive,
		Players:   state.PlayerList(),
		Timestamp: now,
	}
}
