package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/scoreboard"
)

// Publisher publishes scoreboard updates on Redis pub/sub channels
type Publisher struct {
	client *redis.Client
	cfg    Config
	logger *slog.Logger
}

// New connects to Redis and creates a Publisher
func New(cfg Config, logger *slog.Logger) (*Publisher, error) {
	client, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithClient(client, cfg, logger), nil
}

// Connect opens and verifies a Redis client
func Connect(cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewWithClient creates a Publisher with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "redis-scoreboard")),
	}
}

var _ scoreboard.Publisher = (*Publisher)(nil)

// Publish sends the update as JSON on the game's channel
func (p *Publisher) Publish(ctx context.Context, update model.ScoreboardUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}

	if p.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.PublishTimeout)
		defer cancel()
	}

	receivers, err := p.client.Publish(ctx, scoreboardChannel(update.Code), data).Result()
	if err != nil {
		return fmt.Errorf("publish scoreboard %s: %w", update.Code, err)
	}
	p.logger.Debug("scoreboard published",
		slog.String("code", string(update.Code)),
		slog.Int64("receivers", receivers))
	return nil
}

// Close closes the Redis connection
func (p *Publisher) Close() error {
	return p.client.Close()
}

// Subscribe streams a game's scoreboard updates until ctx is cancelled.
// Malformed payloads are skipped.
func Subscribe(ctx context.Context, client *redis.Client, code model.GameCode) (<-chan model.ScoreboardUpdate, error) {
	sub := client.Subscribe(ctx, scoreboardChannel(code))
	// Wait for the subscription to be confirmed so no update is missed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe scoreboard %s: %w", code, err)
	}

	out := make(chan model.ScoreboardUpdate)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var update model.ScoreboardUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					continue
				}
				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
