// Package scoreboard fans registry snapshots out to observers of a game, such as
// a projector screen streaming over SSE or a Redis subscriber. Player connections
// never receive these updates; they only see replies to their own requests.
package scoreboard

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/quizroom/internal/model"
)

// Publisher delivers scoreboard updates. Implementations must not block for long:
// sessions call Publish from their event loop.
type Publisher interface {
	Publish(ctx context.Context, update model.ScoreboardUpdate) error
}

// Nop discards every update
type Nop struct{}

// Publish does nothing
func (Nop) Publish(context.Context, model.ScoreboardUpdate) error {
	return nil
}

// Multi publishes to several publishers, continuing past failures
type Multi []Publisher

// Publish sends update to every publisher and joins their errors
func (m Multi) Publish(ctx context.Context, update model.ScoreboardUpdate) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, update); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Logging wraps a publisher and logs failures instead of returning them
type Logging struct {
	next   Publisher
	logger *slog.Logger
}

// NewLogging creates a Logging publisher around next
func NewLogging(next Publisher, logger *slog.Logger) *Logging {
	return &Logging{next: next, logger: logger.With(slog.String("component", "scoreboard"))}
}

// Publish forwards update and swallows the error after logging it
func (l *Logging) Publish(ctx context.Context, update model.ScoreboardUpdate) error {
	if err := l.next.Publish(ctx, update); err != nil {
		l.logger.Warn("scoreboard publish failed",
			slog.String("code", string(update.Code)),
			slog.String("reason", string(update.Reason)),
			slog.String("error", err.Error()))
	}
	return nil
}

var (
	_ Publisher = Nop{}
	_ Publisher = Multi(nil)
	_ Publisher = (*Logging)(nil)
)
