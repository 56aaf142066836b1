// Package ws carries game sessions over gorilla/websocket connections.
package ws

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/quizroom/internal/session"
)

const (
	// Time allowed to write a message or control frame to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

// Conn adapts a websocket connection to session.Transport. A reader goroutine
// turns data frames and ping/pong control frames into session frames.
type Conn struct {
	ws     *websocket.Conn
	frames chan session.Frame
	done   chan struct{}

	// readErr is written once before frames is closed
	readErr error

	closeOnce sync.Once
	closeErr  error
}

var _ session.Transport = (*Conn)(nil)

// NewConn wraps an upgraded websocket connection and starts reading from it
func NewConn(ws *websocket.Conn) *Conn {
	c := &Conn{
		ws:     ws,
		frames: make(chan session.Frame),
		done:   make(chan struct{}),
	}

	ws.SetReadLimit(maxMessageSize)
	ws.SetPongHandler(func(string) error {
		c.push(session.Frame{Kind: session.FramePong})
		return nil
	})
	ws.SetPingHandler(func(data string) error {
		err := ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) && !isTimeout(err) {
			return err
		}
		c.push(session.Frame{Kind: session.FramePing, Data: []byte(data)})
		return nil
	})

	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	defer close(c.frames)
	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			c.readErr = translateReadError(err)
			return
		}

		kind := session.FrameText
		if messageType == websocket.BinaryMessage {
			kind = session.FrameBinary
		}
		if !c.push(session.Frame{Kind: kind, Data: data}) {
			c.readErr = net.ErrClosed
			return
		}
	}
}

// push hands a frame to Next, giving up once the connection is closed
func (c *Conn) push(f session.Frame) bool {
	select {
	case c.frames <- f:
		return true
	case <-c.done:
		return false
	}
}

// Next returns the next inbound frame
func (c *Conn) Next() (session.Frame, error) {
	f, ok := <-c.frames
	if !ok {
		return session.Frame{}, c.readErr
	}
	return f, nil
}

// WriteText sends one text message
func (c *Conn) WriteText(data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Ping sends a ping control frame
func (c *Conn) Ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close sends a close frame and releases the connection
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// RemoteAddr returns the peer address
func (c *Conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

func translateReadError(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return fmt.Errorf("%w: %v", session.ErrPeerClosed, err)
	}
	return err
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
