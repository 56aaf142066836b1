package model

import "github.com/google/uuid"

// PlayerID uniquely identifies a player. Sessions use the same identifier space.
type PlayerID string

// NewPlayerID returns a fresh random PlayerID
func NewPlayerID() PlayerID {
	return PlayerID(uuid.NewString())
}

// Player represents a participant in a single game
type Player struct {
	ID    PlayerID `json:"-"`
	Name  string   `json:"name"`
	Score int      `json:"score"`
}
