package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/quizroom/internal/api/apierr"
	"github.com/mcoot/quizroom/internal/dependencies/mocks"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/scoreboard/sse"
	"github.com/mcoot/quizroom/internal/testutil"
)

// closingReader simulates the last player leaving right as the observer reads
// the game: it publishes game_closed before answering.
type closingReader struct {
	hubs  *sse.HubManager
	state model.GameState
	found bool
}

func (r *closingReader) Game(code model.GameCode) (model.GameState, error) {
	_ = r.hubs.Publish(context.Background(), model.ScoreboardUpdate{Code: code, Reason: model.ReasonGameClosed})
	if !r.found {
		return model.GameState{}, model.NewGameNotFoundError(code)
	}
	return r.state, nil
}

func (r *closingReader) Len() int { return 0 }

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func serveScoreboard(t *testing.T, games GameReader, hubs *sse.HubManager) *httptest.ResponseRecorder {
	t.Helper()
	h := NewGameHandler(games, hubs, mocks.NewMockClock(testNow), testutil.NopLogger())

	req := httptest.NewRequest(http.MethodGet, "/games/C0FFEE/scoreboard", nil)
	req = mux.SetURLVars(req, map[string]string{"code": "C0FFEE"})
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Scoreboard(rec, req)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scoreboard stream did not end")
	}
	return rec
}

func scoreboardUpdates(t *testing.T, body string) []model.ScoreboardUpdate {
	t.Helper()
	var updates []model.ScoreboardUpdate
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var u model.ScoreboardUpdate
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &u))
		updates = append(updates, u)
	}
	return updates
}

func TestScoreboardGameClosedDuringLookup(t *testing.T) {
	hubs := sse.NewHubManager(testutil.NopLogger())
	t.Cleanup(hubs.Close)

	rec := serveScoreboard(t, &closingReader{hubs: hubs}, hubs)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apierr.CodeGameNotFound, resp.Error.Code)
}

func TestScoreboardDeliversCloseRacingTheSnapshot(t *testing.T) {
	hubs := sse.NewHubManager(testutil.NopLogger())
	t.Cleanup(hubs.Close)

	state := model.NewGameState(testNow)
	state.AddPlayer("p1", "Alice")
	rec := serveScoreboard(t, &closingReader{hubs: hubs, state: state.Clone(), found: true}, hubs)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	updates := scoreboardUpdates(t, rec.Body.String())
	require.Len(t, updates, 2)
	assert.Equal(t, model.ReasonSnapshot, updates[0].Reason)
	assert.Equal(t, []model.Player{{Name: "Alice"}}, updates[0].Players)
	assert.True(t, testNow.Equal(updates[0].Timestamp))
	assert.Equal(t, model.ReasonGameClosed, updates[1].Reason)
}

func TestScoreboardDuringShutdown(t *testing.T) {
	hubs := sse.NewHubManager(testutil.NopLogger())
	hubs.Close()

	rec := serveScoreboard(t, &closingReader{hubs: hubs, found: true}, hubs)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apierr.CodeUnavailable, resp.Error.Code)
}
