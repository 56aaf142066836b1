package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/quizroom/internal/model"
	redisscore "github.com/mcoot/quizroom/internal/scoreboard/redis"
)

func newWatchCmd() *cobra.Command {
	var redisURL string

	cmd := &cobra.Command{
		Use:   "watch <code>",
		Short: "Stream a game's live scoreboard",
		Long: `Follow the scoreboard of one game as players join, leave and score.

By default updates are read from the server's SSE endpoint. With --redis the
updates are read straight from the Redis channel the server publishes to,
which requires the server to run with PUBLISHER=redis.

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			code := args[0]
			if redisURL != "" {
				return watchRedis(ctx, redisURL, code, out)
			}
			return watchSSE(ctx, code, out)
		},
	}

	cmd.Flags().StringVar(&redisURL, "redis", "", "Read updates from this Redis URL instead of SSE")

	return cmd
}

func watchSSE(ctx context.Context, code string, out *Output) error {
	url := strings.TrimSuffix(cfg.ServerURL, "/") + "/games/" + code + "/scoreboard"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// No timeout for SSE
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if cfg.Verbose {
		out.PrintMessage("Connected to game " + code)
	}

	err = readSSE(resp.Body, func(event, data string) {
		printScoreboardEvent(out, event, data)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}
	return nil
}

func watchRedis(ctx context.Context, redisURL, code string, out *Output) error {
	redisCfg := redisscore.DefaultConfig()
	redisCfg.URL = redisURL

	rdb, err := redisscore.Connect(redisCfg)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	updates, err := redisscore.Subscribe(ctx, rdb, model.GameCode(code))
	if err != nil {
		return err
	}

	if cfg.Verbose {
		out.PrintMessage("Subscribed to game " + code)
	}

	for update := range updates {
		out.Print(scoreboardFromModel(update))
	}
	return nil
}

// readSSE parses an event stream, calling fn for each complete event
func readSSE(r io.Reader, fn func(event, data string)) error {
	scanner := bufio.NewScanner(r)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			// End of event
			if currentEvent != "" {
				fn(currentEvent, strings.Join(dataLines, "\n"))
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	return scanner.Err()
}

func printScoreboardEvent(out *Output, event, data string) {
	var update ScoreboardUpdate
	if err := json.Unmarshal([]byte(data), &update); err != nil {
		out.PrintMessage(fmt.Sprintf("%s: %s", event, data))
		return
	}
	out.Print(update)
}

func scoreboardFromModel(u model.ScoreboardUpdate) ScoreboardUpdate {
	return ScoreboardUpdate{
		Code:      string(u.Code),
		Reason:    string(u.Reason),
		IsActive:  u.IsActive,
		Players:   playersFromProtocol(u.Players),
		Timestamp: u.Timestamp,
	}
}

func playersFromProtocol(players []model.Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = Player{Name: p.Name, Score: p.Score}
	}
	return out
}
