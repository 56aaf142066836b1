package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/quizroom/internal/dependencies/clock"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/protocol"
	"github.com/mcoot/quizroom/internal/scoreboard"
	"github.com/mcoot/quizroom/internal/services/registry"
)

// NotInGameMessage is the error text for game commands sent before joining
const NotInGameMessage = "Not in a game"

// Error texts sent for registry failures
const (
	GameNotActiveMessage      = "Game is not active"
	PlayerNotFoundMessage     = "Player not found"
	CodeSpaceExhaustedMessage = "Could not allocate a unique game code"
)

// errHeartbeatTimeout ends a session whose peer stopped answering pings
var errHeartbeatTimeout = errors.New("heartbeat timeout")

// Session is the per-connection protocol state machine. All fields are owned by
// the goroutine running loop; the reader goroutine only hands frames over.
type Session struct {
	id        model.PlayerID
	transport Transport
	registry  registry.RegistryInterface
	codes     registry.CodeGenerator
	publisher scoreboard.Publisher
	clock     clock.Clock
	cfg       Config
	logger    *slog.Logger

	// code is empty while in the lobby
	code          model.GameCode
	lastHeartbeat time.Time
}

// ID returns the session's player ID
func (s *Session) ID() model.PlayerID {
	return s.id
}

// run drives the session until the peer leaves, the watchdog fires, or ctx is
// cancelled. Cleanup always runs last.
func (s *Session) run(ctx context.Context) {
	frames := make(chan Frame)
	readErr := make(chan error, 1)
	done := make(chan struct{})

	s.lastHeartbeat = s.clock.Now()
	go s.readPump(frames, readErr, done)

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	s.logger.Info("session started")
	err := s.loop(ctx, frames, readErr, ticker.C)
	close(done)
	s.terminate(ctx, err)
}

func (s *Session) loop(ctx context.Context, frames <-chan Frame, readErr <-chan error, ticks <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			return err

		case frame := <-frames:
			if err := s.handleFrame(ctx, frame); err != nil {
				return err
			}

		case <-ticks:
			if s.clock.Since(s.lastHeartbeat) > s.cfg.ClientTimeout {
				return errHeartbeatTimeout
			}
			if err := s.transport.Ping(); err != nil {
				return err
			}
		}
	}
}

// readPump forwards frames from the transport until it fails or the loop exits
func (s *Session) readPump(frames chan<- Frame, readErr chan<- error, done <-chan struct{}) {
	for {
		frame, err := s.transport.Next()
		if err != nil {
			readErr <- err
			return
		}
		select {
		case frames <- frame:
		case <-done:
			return
		}
	}
}

func (s *Session) handleFrame(ctx context.Context, frame Frame) error {
	switch frame.Kind {
	case FramePing, FramePong:
		s.lastHeartbeat = s.clock.Now()
		return nil
	case FrameText:
		return s.reply(s.handleText(ctx, frame.Data))
	default:
		s.logger.Warn("unexpected frame ignored", slog.String("kind", frame.Kind.String()))
		return nil
	}
}

func (s *Session) handleText(ctx context.Context, data []byte) protocol.ServerMessage {
	msg, err := protocol.DecodeClient(data)
	if err != nil {
		s.logger.Warn("failed to parse message", slog.String("error", err.Error()))
		return protocol.Error{Message: protocol.InvalidFormatMessage}
	}
	return s.dispatch(ctx, msg)
}

func (s *Session) dispatch(ctx context.Context, msg protocol.ClientMessage) protocol.ServerMessage {
	switch m := msg.(type) {
	case protocol.CreateGame:
		return s.createGame(ctx, m)
	case protocol.JoinGame:
		return s.joinGame(ctx, m)
	case protocol.StartGame:
		return s.startGame(ctx)
	case protocol.SubmitSolution:
		return s.submitSolution(ctx, m)
	default:
		return protocol.Error{Message: protocol.InvalidFormatMessage}
	}
}

// errorReply maps a registry error to the message sent to the player
func errorReply(err error) protocol.Error {
	var notFound *model.GameNotFoundError
	switch {
	case errors.As(err, &notFound):
		return protocol.Error{Message: fmt.Sprintf("Game not found with code: %s", notFound.Code)}
	case errors.Is(err, model.ErrGameNotActive):
		return protocol.Error{Message: GameNotActiveMessage}
	case errors.Is(err, model.ErrPlayerNotFound):
		return protocol.Error{Message: PlayerNotFoundMessage}
	case errors.Is(err, model.ErrCodeSpaceExhausted):
		return protocol.Error{Message: CodeSpaceExhaustedMessage}
	default:
		return protocol.Error{Message: err.Error()}
	}
}

func (s *Session) createGame(ctx context.Context, m protocol.CreateGame) protocol.ServerMessage {
	code, state, err := s.registry.CreateUniqueGame(s.codes, s.id, m.PlayerName)
	if err != nil {
		s.logger.Error("failed to create game", slog.String("error", err.Error()))
		return errorReply(err)
	}
	s.logger.Info("game created",
		slog.String("code", string(code)),
		slog.String("player_name", m.PlayerName))

	s.rebind(ctx, code)
	s.publish(ctx, model.NewScoreboardUpdate(code, model.ReasonGameCreated, state, s.clock.Now()))
	return protocol.GameCreated{GameCode: string(code)}
}

func (s *Session) joinGame(ctx context.Context, m protocol.JoinGame) protocol.ServerMessage {
	code := model.GameCode(m.Code)
	s.logger.Info("player joining game",
		slog.String("code", m.Code),
		slog.String("player_name", m.PlayerName))

	state, err := s.registry.JoinGame(code, s.id, m.PlayerName)
	if err != nil {
		return errorReply(err)
	}

	s.rebind(ctx, code)
	s.publish(ctx, model.NewScoreboardUpdate(code, model.ReasonPlayerJoined, state, s.clock.Now()))
	return protocol.PlayerJoined{Players: state.PlayerList()}
}

func (s *Session) startGame(ctx context.Context) protocol.ServerMessage {
	if s.code == "" {
		return protocol.Error{Message: NotInGameMessage}
	}
	if err := s.registry.StartGame(s.code); err != nil {
		return errorReply(err)
	}
	s.logger.Info("game started", slog.String("code", string(s.code)))

	if state, err := s.registry.Game(s.code); err == nil {
		s.publish(ctx, model.NewScoreboardUpdate(s.code, model.ReasonGameStarted, state, s.clock.Now()))
	}
	return protocol.GameStarted{}
}

func (s *Session) submitSolution(ctx context.Context, m protocol.SubmitSolution) protocol.ServerMessage {
	if s.code == "" {
		return protocol.Error{Message: NotInGameMessage}
	}
	players, err := s.registry.SubmitSolution(s.code, s.id, m.UsedHint)
	if err != nil {
		return errorReply(err)
	}

	s.publish(ctx, model.ScoreboardUpdate{
		Code:      s.code,
		Reason:    model.ReasonScoresUpdated,
		IsActive:  true,
		Players:   players,
		Timestamp: s.clock.Now(),
	})
	return protocol.UpdateScores{Players: players}
}

// rebind moves the session to code, leaving any different game it was in
func (s *Session) rebind(ctx context.Context, code model.GameCode) {
	if s.code != "" && s.code != code {
		s.leave(ctx, s.code)
	}
	s.code = code
}

// leave removes the player from code and tells observers what remains
func (s *Session) leave(ctx context.Context, code model.GameCode) {
	if !s.registry.RemovePlayer(code, s.id) {
		return
	}
	s.logger.Info("player removed from game", slog.String("code", string(code)))

	state, err := s.registry.Game(code)
	if err != nil {
		s.publish(ctx, model.ScoreboardUpdate{
			Code:      code,
			Reason:    model.ReasonGameClosed,
			Players:   []model.Player{},
			Timestamp: s.clock.Now(),
		})
		return
	}
	s.publish(ctx, model.NewScoreboardUpdate(code, model.ReasonPlayerLeft, state, s.clock.Now()))
}

func (s *Session) publish(ctx context.Context, update model.ScoreboardUpdate) {
	if err := s.publisher.Publish(ctx, update); err != nil {
		s.logger.Warn("scoreboard publish failed", slog.String("error", err.Error()))
	}
}

func (s *Session) reply(msg protocol.ServerMessage) error {
	data, err := protocol.EncodeServer(msg)
	if err != nil {
		s.logger.Error("failed to serialize response", slog.String("error", err.Error()))
		return nil
	}
	return s.transport.WriteText(data)
}

// terminate is the single exit path: leave the bound game, then release the connection
func (s *Session) terminate(ctx context.Context, cause error) {
	// The run context may already be cancelled; observers should still hear about the departure
	cleanupCtx := context.WithoutCancel(ctx)
	if s.code != "" {
		s.leave(cleanupCtx, s.code)
		s.code = ""
	}
	if err := s.transport.Close(); err != nil {
		s.logger.Debug("transport close failed", slog.String("error", err.Error()))
	}

	attrs := []any{}
	if cause != nil {
		attrs = append(attrs, slog.String("cause", cause.Error()))
	}
	s.logger.Info("session stopped", attrs...)
}
