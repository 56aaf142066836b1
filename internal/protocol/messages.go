// Package protocol defines the JSON messages exchanged over a game connection.
//
// Every message is a single JSON object tagged by an "event" field; payload
// field names are lowerCamelCase. Inbound and outbound messages are closed sets:
// only the types in this package implement ClientMessage and ServerMessage.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcoot/quizroom/internal/model"
)

// Event names used in the "event" discriminator
const (
	EventCreateGame     = "createGame"
	EventJoinGame       = "joinGame"
	EventStartGame      = "startGame"
	EventSubmitSolution = "submitSolution"

	EventGameCreated  = "gameCreated"
	EventPlayerJoined = "playerJoined"
	EventGameStarted  = "gameStarted"
	EventUpdateScores = "updateScores"
	EventError        = "error"
)

// InvalidFormatMessage is the error text sent for undecodable frames
const InvalidFormatMessage = "Invalid message format"

// ErrInvalidMessage is returned for frames that are not a known client message
var ErrInvalidMessage = errors.New("invalid message")

// ClientMessage is a message sent by a player
type ClientMessage interface {
	clientEvent() string
}

// CreateGame asks for a new game with the sender as first player
type CreateGame struct {
	PlayerName string `json:"playerName"`
}

// JoinGame asks to join an existing game
type JoinGame struct {
	Code       string `json:"code"`
	PlayerName string `json:"playerName"`
}

// StartGame activates the sender's game
type StartGame struct{}

// SubmitSolution reports a solved question
type SubmitSolution struct {
	UsedHint bool `json:"usedHint"`
}

func (CreateGame) clientEvent() string     { return EventCreateGame }
func (JoinGame) clientEvent() string       { return EventJoinGame }
func (StartGame) clientEvent() string      { return EventStartGame }
func (SubmitSolution) clientEvent() string { return EventSubmitSolution }

// ServerMessage is a reply sent to a player
type ServerMessage interface {
	serverEvent() string
}

// GameCreated carries the join code of a new game
type GameCreated struct {
	GameCode string `json:"gameCode"`
}

// PlayerJoined carries the roster after a join
type PlayerJoined struct {
	Players []model.Player `json:"players"`
}

// GameStarted confirms the game is active
type GameStarted struct{}

// UpdateScores carries the roster after a submission
type UpdateScores struct {
	Players []model.Player `json:"players"`
}

// Error reports a failed request
type Error struct {
	Message string `json:"message"`
}

func (GameCreated) serverEvent() string  { return EventGameCreated }
func (PlayerJoined) serverEvent() string { return EventPlayerJoined }
func (GameStarted) serverEvent() string  { return EventGameStarted }
func (UpdateScores) serverEvent() string { return EventUpdateScores }
func (Error) serverEvent() string        { return EventError }

// splitEnvelope parses a frame into its raw fields and the exact "event" tag
func splitEnvelope(data []byte) (string, map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	tag, ok := raw["event"]
	if !ok {
		return "", nil, fmt.Errorf("%w: missing field %q", ErrInvalidMessage, "event")
	}
	var event string
	if err := json.Unmarshal(tag, &event); err != nil {
		return "", nil, fmt.Errorf("%w: event: %v", ErrInvalidMessage, err)
	}
	return event, raw, nil
}

// DecodeClient parses one inbound frame
func DecodeClient(data []byte) (ClientMessage, error) {
	event, raw, err := splitEnvelope(data)
	if err != nil {
		return nil, err
	}

	var msg ClientMessage
	switch event {
	case EventCreateGame:
		var m CreateGame
		if err := decodeFields(raw, &m, "playerName"); err != nil {
			return nil, err
		}
		msg = m
	case EventJoinGame:
		var m JoinGame
		if err := decodeFields(raw, &m, "code", "playerName"); err != nil {
			return nil, err
		}
		msg = m
	case EventStartGame:
		msg = StartGame{}
	case EventSubmitSolution:
		var m SubmitSolution
		if err := decodeFields(raw, &m, "usedHint"); err != nil {
			return nil, err
		}
		msg = m
	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrInvalidMessage, event)
	}
	return msg, nil
}

// decodeFields fills dst from the named fields only. Every field must be present
// under its exact key and must not be null.
func decodeFields(raw map[string]json.RawMessage, dst any, required ...string) error {
	fields := make(map[string]json.RawMessage, len(required))
	for _, field := range required {
		value, ok := raw[field]
		if !ok {
			return fmt.Errorf("%w: missing field %q", ErrInvalidMessage, field)
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return fmt.Errorf("%w: field %q is null", ErrInvalidMessage, field)
		}
		fields[field] = value
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

// EncodeClient serializes a client message, used by the CLI and tests
func EncodeClient(msg ClientMessage) ([]byte, error) {
	return encode(msg.clientEvent(), msg)
}

// EncodeServer serializes a server message
func EncodeServer(msg ServerMessage) ([]byte, error) {
	return encode(msg.serverEvent(), msg)
}

// encode merges the event tag into the payload object
func encode(event string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	fields["event"] = tag
	return json.Marshal(fields)
}

// DecodeServer parses a server frame, used by the CLI and tests
func DecodeServer(data []byte) (ServerMessage, error) {
	event, _, err := splitEnvelope(data)
	if err != nil {
		return nil, err
	}

	var msg ServerMessage
	switch event {
	case EventGameCreated:
		var m GameCreated
		err = json.Unmarshal(data, &m)
		msg = m
	case EventPlayerJoined:
		var m PlayerJoined
		err = json.Unmarshal(data, &m)
		msg = m
	case EventGameStarted:
		msg = GameStarted{}
	case EventUpdateScores:
		var m UpdateScores
		err = json.Unmarshal(data, &m)
		msg = m
	case EventError:
		var m Error
		err = json.Unmarshal(data, &m)
		msg = m
	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrInvalidMessage, event)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return msg, nil
}
