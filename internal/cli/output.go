package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case StatsResult:
		o.printStatsResult(v)
	case GameResult:
		o.printGameResult(v)
	case ScoreboardUpdate:
		o.printScoreboard(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// GameResult response type
type GameResult struct {
	Code      string    `json:"code"`
	IsActive  bool      `json:"isActive"`
	Players   []Player  `json:"players"`
	CreatedAt time.Time `json:"createdAt"`
}

// ScoreboardUpdate is one event from the scoreboard stream
type ScoreboardUpdate struct {
	Code      string    `json:"code"`
	Reason    string    `json:"reason"`
	IsActive  bool      `json:"isActive"`
	Players   []Player  `json:"players"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// StatsResult response type
type StatsResult struct {
	Games    int `json:"games"`
	Sessions int `json:"sessions"`
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Version: %s\n", h.Version)
}

func (o *Output) printStatsResult(s StatsResult) {
	_, _ = fmt.Fprintf(o.w, "Games: %d\n", s.Games)
	_, _ = fmt.Fprintf(o.w, "Sessions: %d\n", s.Sessions)
}

func (o *Output) printGameResult(g GameResult) {
	state := "waiting"
	if g.IsActive {
		state = "active"
	}
	_, _ = fmt.Fprintf(o.w, "Game: %s\n", g.Code)
	_, _ = fmt.Fprintf(o.w, "State: %s\n", state)
	_, _ = fmt.Fprintf(o.w, "Created: %s\n", g.CreatedAt.Format(time.RFC3339))
	o.printPlayers(g.Players)
}

func (o *Output) printScoreboard(u ScoreboardUpdate) {
	_, _ = fmt.Fprintf(o.w, "[%s] %s %s\n", u.Timestamp.Format("15:04:05"), u.Code, u.Reason)
	o.printPlayers(u.Players)
}

func (o *Output) printPlayers(players []Player) {
	_, _ = fmt.Fprintf(o.w, "Players (%d):\n", len(players))
	for _, p := range players {
		_, _ = fmt.Fprintf(o.w, "  - %-20s %d\n", p.Name, p.Score)
	}
}
