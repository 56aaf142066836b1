package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/quizroom/internal/model"
)

func TestDecodeClient(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ClientMessage
	}{
		{
			name:  "create game",
			input: `{"event":"createGame","playerName":"Pat"}`,
			want:  CreateGame{PlayerName: "Pat"},
		},
		{
			name:  "join game",
			input: `{"event":"joinGame","code":"C0FFEE","playerName":"Quinn"}`,
			want:  JoinGame{Code: "C0FFEE", PlayerName: "Quinn"},
		},
		{
			name:  "start game",
			input: `{"event":"startGame"}`,
			want:  StartGame{},
		},
		{
			name:  "submit solution with hint",
			input: `{"event":"submitSolution","usedHint":true}`,
			want:  SubmitSolution{UsedHint: true},
		},
		{
			name:  "unknown fields are ignored",
			input: `{"event":"submitSolution","usedHint":false,"extra":1}`,
			want:  SubmitSolution{UsedHint: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeClient([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeClientRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: `hello`},
		{name: "missing event", input: `{"playerName":"Pat"}`},
		{name: "unknown event", input: `{"event":"dance"}`},
		{name: "snake case field", input: `{"event":"createGame","player_name":"Pat"}`},
		{name: "missing join code", input: `{"event":"joinGame","playerName":"Pat"}`},
		{name: "wrong field type", input: `{"event":"submitSolution","usedHint":"yes"}`},
		{name: "missing hint flag", input: `{"event":"submitSolution"}`},
		{name: "server event sent by client", input: `{"event":"gameStarted"}`},
		{name: "pascal case event", input: `{"event":"CreateGame","playerName":"Pat"}`},
		{name: "capitalised event key", input: `{"Event":"createGame","playerName":"Pat"}`},
		{name: "capitalised field key", input: `{"event":"createGame","PlayerName":"Pat"}`},
		{name: "null event", input: `{"event":null}`},
		{name: "null player name", input: `{"event":"createGame","playerName":null}`},
		{name: "null join code", input: `{"event":"joinGame","code":null,"playerName":"Pat"}`},
		{name: "null hint flag", input: `{"event":"submitSolution","usedHint":null}`},
		{name: "json null", input: `null`},
		{name: "json array", input: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeClient([]byte(tt.input))
			assert.ErrorIs(t, err, ErrInvalidMessage)
		})
	}
}

func TestEncodeServer(t *testing.T) {
	players := []model.Player{{ID: "p", Name: "P", Score: 0}, {ID: "q", Name: "Q", Score: 1}}

	tests := []struct {
		name string
		msg  ServerMessage
		want string
	}{
		{
			name: "game created",
			msg:  GameCreated{GameCode: "0A1B2C"},
			want: `{"event":"gameCreated","gameCode":"0A1B2C"}`,
		},
		{
			name: "player joined omits ids",
			msg:  PlayerJoined{Players: players},
			want: `{"event":"playerJoined","players":[{"name":"P","score":0},{"name":"Q","score":1}]}`,
		},
		{
			name: "game started",
			msg:  GameStarted{},
			want: `{"event":"gameStarted"}`,
		},
		{
			name: "update scores",
			msg:  UpdateScores{Players: players},
			want: `{"event":"updateScores","players":[{"name":"P","score":0},{"name":"Q","score":1}]}`,
		},
		{
			name: "error",
			msg:  Error{Message: InvalidFormatMessage},
			want: `{"event":"error","message":"Invalid message format"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeServer(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestEncodeClient(t *testing.T) {
	data, err := EncodeClient(JoinGame{Code: "C0FFEE", PlayerName: "Quinn"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"joinGame","code":"C0FFEE","playerName":"Quinn"}`, string(data))

	data, err = EncodeClient(StartGame{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"startGame"}`, string(data))
}

func TestDecodeServer(t *testing.T) {
	msg, err := DecodeServer([]byte(`{"event":"updateScores","players":[{"name":"Q","score":1}]}`))
	require.NoError(t, err)
	assert.Equal(t, UpdateScores{Players: []model.Player{{Name: "Q", Score: 1}}}, msg)

	msg, err = DecodeServer([]byte(`{"event":"error","message":"Not in a game"}`))
	require.NoError(t, err)
	assert.Equal(t, Error{Message: "Not in a game"}, msg)

	_, err = DecodeServer([]byte(`{"event":"createGame"}`))
	assert.ErrorIs(t, err, ErrInvalidMessage)
}
