package model

import (
	"sort"
	"time"
)

// GameCode is the short join code players use to find a game
type GameCode string

// GameState is the roster and phase of one game.
// IsActive only ever moves from false to true.
type GameState struct {
	Players   map[PlayerID]Player
	IsActive  bool
	CreatedAt time.Time
}

// NewGameState creates an inactive game with an empty roster
func NewGameState(now time.Time) *GameState {
	return &GameState{
		Players:   make(map[PlayerID]Player),
		CreatedAt: now,
	}
}

// AddPlayer inserts a player with score 0, replacing any entry with the same ID
func (g *GameState) AddPlayer(id PlayerID, name string) Player {
	p := Player{ID: id, Name: name}
	g.Players[id] = p
	return p
}

// RemovePlayer deletes the player and reports whether it was present
func (g *GameState) RemovePlayer(id PlayerID) bool {
	if _, ok := g.Players[id]; !ok {
		return false
	}
	delete(g.Players, id)
	return true
}

// IncrementScore adds one point to the player's score
func (g *GameState) IncrementScore(id PlayerID) (int, error) {
	p, ok := g.Players[id]
	if !ok {
		return 0, ErrPlayerNotFound
	}
	p.Score++
	g.Players[id] = p
	return p.Score, nil
}

// IsEmpty returns true if no players remain
func (g *GameState) IsEmpty() bool {
	return len(g.Players) == 0
}

// PlayerList returns a copy of the roster. Order is stable (by name, then ID) so
// scoreboards render consistently, but callers must not rely on it for correctness.
func (g *GameState) PlayerList() []Player {
	players := make([]Player, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Name != players[j].Name {
			return players[i].Name < players[j].Name
		}
		return players[i].ID < players[j].ID
	})
	return players
}

// Clone returns a deep copy safe to hand outside the registry
func (g *GameState) Clone() GameState {
	players := make(map[PlayerID]Player, len(g.Players))
	for id, p := range g.Players {
		players[id] = p
	}
	return GameState{
		Players:   players,
		IsActive:  g.IsActive,
		CreatedAt: g.CreatedAt,
	}
}
