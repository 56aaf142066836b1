package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/quizroom/internal/protocol"
)

const replyTimeout = 10 * time.Second

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play interactively over the websocket protocol",
		Long: `Connect to the server's websocket endpoint and send one command per line:

  create <name>         create a game and join it
  join <code> <name>    join an existing game
  start                 start the current game
  submit                submit a solution without a hint (+1 point)
  hint                  submit a solution using a hint (no points)
  {...}                 send a raw JSON message
  quit                  disconnect

Each command prints the server's reply. Input may be piped in for scripting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			url, err := cfg.WebSocketURL()
			if err != nil {
				return err
			}

			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			if err != nil {
				return fmt.Errorf("connection failed: %w", err)
			}
			defer func() { _ = conn.Close() }()

			return play(ctx, conn, cmd.InOrStdin(), NewOutput(cfg.Output, cmd.OutOrStdout()))
		},
	}
}

// play sends each input line as a command and prints the reply
func play(ctx context.Context, conn *websocket.Conn, in io.Reader, out *Output) error {
	replies := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		// Reading also answers the server's pings
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case replies <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		payload, err := parseCommand(line)
		if err != nil {
			out.PrintMessage(err.Error())
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return fmt.Errorf("send failed: %w", err)
		}

		select {
		case data := <-replies:
			printServerMessage(out, data)
		case err := <-readErr:
			return fmt.Errorf("connection lost: %w", err)
		case <-ctx.Done():
			return nil
		case <-time.After(replyTimeout):
			return errors.New("timed out waiting for reply")
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return nil
}

// parseCommand turns one input line into a protocol frame
func parseCommand(line string) ([]byte, error) {
	if strings.HasPrefix(line, "{") {
		return []byte(line), nil
	}

	fields := strings.Fields(line)
	var msg protocol.ClientMessage
	switch strings.ToLower(fields[0]) {
	case "create":
		if len(fields) < 2 {
			return nil, errors.New("usage: create <name>")
		}
		msg = protocol.CreateGame{PlayerName: strings.Join(fields[1:], " ")}
	case "join":
		if len(fields) < 3 {
			return nil, errors.New("usage: join <code> <name>")
		}
		msg = protocol.JoinGame{Code: strings.ToUpper(fields[1]), PlayerName: strings.Join(fields[2:], " ")}
	case "start":
		msg = protocol.StartGame{}
	case "submit":
		msg = protocol.SubmitSolution{UsedHint: false}
	case "hint":
		msg = protocol.SubmitSolution{UsedHint: true}
	default:
		return nil, fmt.Errorf("unknown command %q", fields[0])
	}

	return protocol.EncodeClient(msg)
}

func printServerMessage(out *Output, data []byte) {
	if out.format == "json" {
		_, _ = fmt.Fprintln(out.w, string(data))
		return
	}

	msg, err := protocol.DecodeServer(data)
	if err != nil {
		_, _ = fmt.Fprintf(out.w, "unrecognised message: %s\n", data)
		return
	}

	switch m := msg.(type) {
	case protocol.GameCreated:
		_, _ = fmt.Fprintf(out.w, "Game created: %s\n", m.GameCode)
	case protocol.PlayerJoined:
		_, _ = fmt.Fprintln(out.w, "Joined game")
		out.printPlayers(playersFromProtocol(m.Players))
	case protocol.GameStarted:
		_, _ = fmt.Fprintln(out.w, "Game started")
	case protocol.UpdateScores:
		_, _ = fmt.Fprintln(out.w, "Scores updated")
		out.printPlayers(playersFromProtocol(m.Players))
	case protocol.Error:
		_, _ = fmt.Fprintf(out.w, "Error: %s\n", m.Message)
	}
}
