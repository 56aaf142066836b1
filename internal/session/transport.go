package session

import "errors"

// FrameKind classifies an inbound frame
type FrameKind int

const (
	// FrameText carries one JSON protocol message
	FrameText FrameKind = iota
	// FrameBinary is not part of the protocol and is ignored
	FrameBinary
	// FramePing is a liveness probe sent by the peer; the transport answers it
	FramePing
	// FramePong acknowledges one of our pings
	FramePong
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	default:
		return "unknown"
	}
}

// Frame is one inbound unit read from the connection
type Frame struct {
	Kind FrameKind
	Data []byte
}

// ErrPeerClosed is returned by Transport.Next when the peer closed the connection cleanly
var ErrPeerClosed = errors.New("peer closed connection")

// Transport is a bidirectional message connection. Next is only called from a
// single goroutine; WriteText and Ping only from the session loop. Close may be
// called concurrently with Next and must make it return.
type Transport interface {
	Next() (Frame, error)
	WriteText(data []byte) error
	Ping() error
	Close() error
}
