package registry

import (
	"log/slog"

	"github.com/mcoot/quizroom/internal/dependencies/clock"
	"github.com/mcoot/quizroom/internal/model"
)

// Registry is the process-wide store of live games keyed by join code.
// Every operation holds the owning shard's lock for its whole duration, so
// operations on one game are totally ordered and an emptied game is deleted
// before any other caller can observe it.
type Registry struct {
	shards shardSet
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures a Registry
type Option func(*options)

type options struct {
	shards int
}

// WithShards partitions the game map into n independently locked shards.
// The default of 1 serializes every operation across all games.
func WithShards(n int) Option {
	return func(o *options) {
		o.shards = n
	}
}

// New creates an empty Registry
func New(clk clock.Clock, logger *slog.Logger, opts ...Option) *Registry {
	o := options{shards: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		shards: newShardSet(o.shards),
		clock:  clk,
		logger: logger.With(slog.String("component", "registry")),
	}
}

// CreateGame stores a new inactive game under code with the caller as its only
// player. An existing game with the same code is replaced.
func (r *Registry) CreateGame(code model.GameCode, playerID model.PlayerID, playerName string) model.GameState {
	var snapshot model.GameState
	r.shards.with(code, func(games map[model.GameCode]*model.GameState) {
		if _, exists := games[code]; exists {
			r.logger.Warn("game code collision, replacing existing game", slog.String("code", string(code)))
		}
		game := model.NewGameState(r.clock.Now())
		game.AddPlayer(playerID, playerName)
		games[code] = game
		snapshot = game.Clone()
	})
	return snapshot
}

// CreateUniqueGame draws codes from gen until it finds one not in use, then
// creates the game there. The check and the insert share a lock acquisition.
func (r *Registry) CreateUniqueGame(gen CodeGenerator, playerID model.PlayerID, playerName string) (model.GameCode, model.GameState, error) {
	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		code := gen.NextCode()
		var (
			snapshot model.GameState
			created  bool
		)
		r.shards.with(code, func(games map[model.GameCode]*model.GameState) {
			if _, exists := games[code]; exists {
				return
			}
			game := model.NewGameState(r.clock.Now())
			game.AddPlayer(playerID, playerName)
			games[code] = game
			snapshot = game.Clone()
			created = true
		})
		if created {
			return code, snapshot, nil
		}
		r.logger.Debug("game code in use, retrying",
			slog.String("code", string(code)),
			slog.Int("attempt", attempt+1))
	}
	return "", model.GameState{}, model.ErrCodeSpaceExhausted
}

// JoinGame adds a player with score 0 to an existing game. Joining again with
// the same ID replaces the earlier entry.
func (r *Registry) JoinGame(code model.GameCode, playerID model.PlayerID, playerName string) (model.GameState, error) {
	var (
		snapshot model.GameState
		err      error
	)
	r.shards.with(code, func(games map[model.GameCode]*model.GameState) {
		game, ok := games[code]
		if !ok {
			err = model.NewGameNotFoundError(code)
			return
		}
		game.AddPlayer(playerID, playerName)
		snapshot = game.Clone()
	})
	return snapshot, err
}

// StartGame marks the game active. Starting an active game is a no-op.
func (r *Registry) StartGame(code model.GameCode) error {
	var err error
	r.shards.with(code, func(games map[model.GameCode]*model.GameState) {
		game, ok := games[code]
		if !ok {
			err = model.NewGameNotFoundError(code)
			return
		}
		game.IsActive = true
	})
	return err
}

// SubmitSolution records a solved question. Without a hint the player's score
// goes up by one; with a hint nothing changes. Returns the current roster.
func (r *Registry) SubmitSolution(code model.GameCode, playerID model.PlayerID, usedHint bool) ([]model.Player, error) {
	var (
		players []model.Player
		err     error
	)
	r.shards.with(code, func(games map[model.GameCode]*model.GameState) {
		game, ok := games[code]
		if !ok {
			err = model.NewGameNotFoundError(code)
			return
		}
		if !game.IsActive {
			err = model.ErrGameNotActive
			return
		}
		if !usedHint {
			if _, err = game.IncrementScore(playerID); err != nil {
				return
			}
		}
		players = game.PlayerList()
	})
	return players, err
}

// RemovePlayer takes the player out of the game and deletes the game once its
// roster is empty. It returns false when the game does not exist.
func (r *Registry) RemovePlayer(code model.GameCode, playerID model.PlayerID) bool {
	found := false
	r.shards.with(code, func(games map[model.GameCode]*model.GameState) {
		game, ok := games[code]
		if !ok {
			return
		}
		found = true
		game.RemovePlayer(playerID)
		if game.IsEmpty() {
			delete(games, code)
			r.logger.Info("game closed", slog.String("code", string(code)))
		}
	})
	return found
}

// Game returns a snapshot of the game stored under code
func (r *Registry) Game(code model.GameCode) (model.GameState, error) {
	var (
		snapshot model.GameState
		err      error
	)
	r.shards.with(code, func(games map[model.GameCode]*model.GameState) {
		game, ok := games[code]
		if !ok {
			err = model.NewGameNotFoundError(code)
			return
		}
		snapshot = game.Clone()
	})
	return snapshot, err
}

// Len returns the number of live games
func (r *Registry) Len() int {
	total := 0
	for _, sh := range r.shards {
		sh.mu.Lock()
		total += len(sh.games)
		sh.mu.Unlock()
	}
	return total
}

// Interface for dependency injection
type RegistryInterface interface {
	CreateGame(code model.GameCode, playerID model.PlayerID, playerName string) model.GameState
	CreateUniqueGame(gen CodeGenerator, playerID model.PlayerID, playerName string) (model.GameCode, model.GameState, error)
	JoinGame(code model.GameCode, playerID model.PlayerID, playerName string) (model.GameState, error)
	StartGame(code model.GameCode) error
	SubmitSolution(code model.GameCode, playerID model.PlayerID, usedHint bool) ([]model.Player, error)
	RemovePlayer(code model.GameCode, playerID model.PlayerID) bool
	Game(code model.GameCode) (model.GameState, error)
}

var _ RegistryInterface = (*Registry)(nil)
