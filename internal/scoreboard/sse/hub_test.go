package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "scoreboard",
			data:      `{"code":"ABC123"}`,
			expected:  "event: scoreboard\ndata: {\"code\":\"ABC123\"}\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "scoreboard",
			data:      "{\n  \"code\": \"ABC123\"\n}",
			expected:  "event: scoreboard\ndata: {\ndata:   \"code\": \"ABC123\"\ndata: }\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(formatSSEMessage(tt.eventName, tt.data)))
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "single line", input: "hello", expected: []string{"hello"}},
		{name: "two lines", input: "line1\nline2", expected: []string{"line1", "line2"}},
		{name: "trailing newline", input: "line1\n", expected: []string{"line1"}},
		{name: "empty string", input: "", expected: []string{""}},
		{name: "crlf line endings", input: "line1\r\nline2\r\n", expected: []string{"line1", "line2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitLines(tt.input))
		})
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub("ABC123", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub)
	require.True(t, hub.Register(client))
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastEvent("scoreboard", "data")

	select {
	case msg := <-client.send:
		assert.Equal(t, "event: scoreboard\ndata: data\n\n", string(msg))
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub("ABC123", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub)
	require.True(t, hub.Register(client))
	hub.Unregister(client)

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-client.send
	assert.False(t, open)
}

func TestHub_RegisterAfterCloseFails(t *testing.T) {
	hub := NewHub("ABC123", testutil.NopLogger())
	go hub.Run()
	hub.Close()
	hub.Close()

	assert.False(t, hub.Register(NewClient(hub)))
	// Must not block
	hub.Unregister(NewClient(hub))
}

func TestHub_CloseFlushesQueuedMessages(t *testing.T) {
	hub := NewHub("ABC123", testutil.NopLogger())
	client := NewClient(hub)
	go hub.Run()
	require.True(t, hub.Register(client))

	hub.BroadcastEvent("scoreboard", "final")
	hub.Close()

	var received []string
	for msg := range client.send {
		received = append(received, string(msg))
	}
	assert.Equal(t, []string{"event: scoreboard\ndata: final\n\n"}, received)
}

func TestHubManager_GetOrCreateHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	hub1 := manager.GetOrCreateHub("ABC123")
	require.NotNil(t, hub1)
	assert.Same(t, hub1, manager.GetOrCreateHub("ABC123"))
	assert.NotSame(t, hub1, manager.GetOrCreateHub("XYZ789"))
	assert.Same(t, hub1, manager.GetHub("ABC123"))
	assert.Nil(t, manager.GetHub("NOTEXIST"))

	manager.RemoveHub("ABC123")
	manager.RemoveHub("XYZ789")
	manager.RemoveHub("NOTEXIST")
	assert.Nil(t, manager.GetHub("ABC123"))
}

func TestHubManager_CleanupEmptyHubs(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	manager.GetOrCreateHub("EMPTY1")
	active, _, err := manager.Subscribe("ACTIVE")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return active.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, manager.CleanupEmptyHubs())
	assert.Nil(t, manager.GetHub("EMPTY1"))
	assert.Same(t, active, manager.GetHub("ACTIVE"))

	manager.RemoveHub("ACTIVE")
}

func TestHubManager_SubscribeReplacesClosedHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	stale := manager.GetOrCreateHub("ABC123")
	stale.Close()

	hub, client, err := manager.Subscribe("ABC123")
	require.NoError(t, err)
	defer manager.RemoveHub("ABC123")

	assert.NotSame(t, stale, hub)
	assert.NotNil(t, client)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHubManager_PublishSkipsUnwatchedGames(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	err := manager.Publish(context.Background(), model.ScoreboardUpdate{Code: "ABC123"})
	require.NoError(t, err)
	assert.Nil(t, manager.GetHub("ABC123"))
}

func TestHubManager_PublishDeliversAndClosesOnGameClosed(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	_, client, err := manager.Subscribe("ABC123")
	require.NoError(t, err)

	update := model.ScoreboardUpdate{
		Code:    "ABC123",
		Reason:  model.ReasonScoresUpdated,
		Players: []model.Player{{Name: "Q", Score: 1}},
	}
	require.NoError(t, manager.Publish(context.Background(), update))
	require.NoError(t, manager.Publish(context.Background(), model.ScoreboardUpdate{
		Code:   "ABC123",
		Reason: model.ReasonGameClosed,
	}))

	var reasons []model.ScoreboardReason
	for msg := range client.send {
		line := strings.TrimPrefix(strings.Split(string(msg), "\n")[1], "data: ")
		var got model.ScoreboardUpdate
		require.NoError(t, json.Unmarshal([]byte(line), &got))
		reasons = append(reasons, got.Reason)
	}
	assert.Equal(t, []model.ScoreboardReason{model.ReasonScoresUpdated, model.ReasonGameClosed}, reasons)
	assert.Nil(t, manager.GetHub("ABC123"))
}

func TestHubManager_CloseDisconnectsWatchers(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	_, client, err := manager.Subscribe("ABC123")
	require.NoError(t, err)

	manager.Close()

	_, open := <-client.send
	assert.False(t, open)
	assert.Nil(t, manager.GetHub("ABC123"))
	assert.Nil(t, manager.GetOrCreateHub("ABC123"))

	_, _, err = manager.Subscribe("ABC123")
	assert.ErrorIs(t, err, ErrClosed)
}

// readUpdate reads one SSE event and decodes its scoreboard payload
func readUpdate(t *testing.T, reader *bufio.Reader) model.ScoreboardUpdate {
	t.Helper()
	var data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" && data != "" {
			break
		}
		if strings.HasPrefix(line, "data: ") {
			data += strings.TrimPrefix(line, "data: ")
		}
	}
	var u model.ScoreboardUpdate
	require.NoError(t, json.Unmarshal([]byte(data), &u))
	return u
}

func TestServeSSE_StreamsInitialAndUpdates(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	initial := model.ScoreboardUpdate{Code: "ABC123", Reason: model.ReasonPlayerJoined, Players: []model.Player{{Name: "P"}}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = manager.ServeSSE(w, r, "ABC123", func() (model.ScoreboardUpdate, error) {
			return initial, nil
		})
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	first := readUpdate(t, reader)
	assert.Equal(t, model.ReasonPlayerJoined, first.Reason)

	require.Eventually(t, func() bool {
		hub := manager.GetHub("ABC123")
		return hub != nil && hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, manager.Publish(context.Background(), model.ScoreboardUpdate{
		Code:   "ABC123",
		Reason: model.ReasonGameClosed,
	}))
	second := readUpdate(t, reader)
	assert.Equal(t, model.ReasonGameClosed, second.Reason)
}

func TestServeSSE_UpdatePublishedDuringSnapshotIsDelivered(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = manager.ServeSSE(w, r, "ABC123", func() (model.ScoreboardUpdate, error) {
			// The last player leaves while the snapshot is being read
			_ = manager.Publish(context.Background(), model.ScoreboardUpdate{Code: "ABC123", Reason: model.ReasonGameClosed})
			return model.ScoreboardUpdate{Code: "ABC123", Reason: model.ReasonSnapshot}, nil
		})
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	reader := bufio.NewReader(resp.Body)
	assert.Equal(t, model.ReasonSnapshot, readUpdate(t, reader).Reason)
	assert.Equal(t, model.ReasonGameClosed, readUpdate(t, reader).Reason)

	// The stream ends once the hub is closed
	_, err = reader.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)
}

func TestServeSSE_SnapshotErrorWritesNothing(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	err := manager.ServeSSE(rec, req, "ABC123", func() (model.ScoreboardUpdate, error) {
		return model.ScoreboardUpdate{}, model.NewGameNotFoundError("ABC123")
	})

	assert.ErrorIs(t, err, model.ErrGameNotFound)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Type"))
	assert.Eventually(t, func() bool { return manager.GetHub("ABC123").ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestServeSSE_AfterCloseFails(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	manager.Close()

	err := manager.ServeSSE(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "ABC123",
		func() (model.ScoreboardUpdate, error) {
			t.Fatal("snapshot must not be read after close")
			return model.ScoreboardUpdate{}, nil
		})
	assert.ErrorIs(t, err, ErrClosed)
}
