package session

import "time"

// Config holds the liveness settings applied to every session
type Config struct {
	// HeartbeatInterval is how often the watchdog checks the peer and pings it
	HeartbeatInterval time.Duration
	// ClientTimeout is how long a peer may stay silent before it is dropped
	ClientTimeout time.Duration
}

// DefaultConfig returns the standard 5s heartbeat and 10s timeout
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 5 * time.Second,
		ClientTimeout:     10 * time.Second,
	}
}
