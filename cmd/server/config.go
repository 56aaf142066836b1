package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/quizroom/internal/api"
	"github.com/mcoot/quizroom/internal/factory"
	redisscore "github.com/mcoot/quizroom/internal/scoreboard/redis"
	"github.com/mcoot/quizroom/internal/session"
	"github.com/mcoot/quizroom/internal/transport/ws"
)

// config is everything main needs, read from the environment
type config struct {
	LogLevel slog.Level
	Server   api.ServerConfig
	Factory  factory.Config
}

// loadConfig reads configuration through getenv, falling back to defaults
func loadConfig(getenv func(string) string) (config, error) {
	cfg := config{
		LogLevel: slog.LevelInfo,
		Server:   api.DefaultServerConfig(),
		Factory: factory.Config{
			Session:       session.DefaultConfig(),
			WebSocket:     ws.DefaultConfig(),
			PublisherType: factory.PublisherTypeNone,
		},
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	cfg.Server.Host = getenv("HOST")
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return config{}, fmt.Errorf("PORT: invalid port %q", v)
		}
		cfg.Server.Port = port
	}

	if v := getenv("SHARDS"); v != "" {
		shards, err := strconv.Atoi(v)
		if err != nil || shards < 1 {
			return config{}, fmt.Errorf("SHARDS: must be a positive integer, got %q", v)
		}
		cfg.Factory.Shards = shards
	}

	if v, ok := lookup(getenv, "ALLOWED_ORIGIN_PREFIX"); ok {
		cfg.Factory.WebSocket.AllowedOriginPrefix = v
	}

	var err error
	if cfg.Factory.Session.HeartbeatInterval, err = durationEnv(getenv, "HEARTBEAT_INTERVAL", cfg.Factory.Session.HeartbeatInterval); err != nil {
		return config{}, err
	}
	if cfg.Factory.Session.ClientTimeout, err = durationEnv(getenv, "CLIENT_TIMEOUT", cfg.Factory.Session.ClientTimeout); err != nil {
		return config{}, err
	}
	if cfg.Factory.Session.ClientTimeout <= cfg.Factory.Session.HeartbeatInterval {
		return config{}, fmt.Errorf("CLIENT_TIMEOUT (%s) must exceed HEARTBEAT_INTERVAL (%s)",
			cfg.Factory.Session.ClientTimeout, cfg.Factory.Session.HeartbeatInterval)
	}

	if v := getenv("PUBLISHER"); v != "" {
		cfg.Factory.PublisherType = strings.ToLower(v)
	}
	if cfg.Factory.PublisherType == factory.PublisherTypeRedis {
		redisURL := getenv("REDIS_URL")
		if redisURL == "" {
			return config{}, fmt.Errorf("REDIS_URL required when PUBLISHER=redis")
		}
		redisCfg := redisscore.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.Factory.RedisConfig = &redisCfg
	}

	return cfg, nil
}

// lookup distinguishes an unset variable from one set to the empty string.
// getenv cannot, so the literal value "*" stands for "allow all".
func lookup(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	switch v {
	case "":
		return "", false
	case "*":
		return "", true
	default:
		return v, true
	}
}

func durationEnv(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}
