package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nightpath/werewolf-server/internal/engine"
	"github.com/nightpath/werewolf-server/internal/game"
)

func newTestGateway(t *testing.T) (*Gateway, *Hub, string) {
	t.Helper()
	logger := zap.NewNop()
	hub := NewHub(logger)
	cfg := engine.Config{
		PausePoll:        2 * time.Millisecond,
		AnnounceDelay:    time.Millisecond,
		ReminderInterval: 25 * time.Millisecond,
	}
	svc := engine.NewService(cfg, hub, nil, nil, nil, logger)
	gw := NewGateway(hub, svc, logger)

	ws := httptest.NewServer(http.HandlerFunc(gw.ServeWS))
	t.Cleanup(ws.Close)
	return gw, hub, "ws" + strings.TrimPrefix(ws.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg clientMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

// readUntil reads frames until one matches the predicate or the
// deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, match func(engine.Event) bool) engine.Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev engine.Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		if match(ev) {
			return ev
		}
	}
	t.Fatal("no matching frame before deadline")
	return engine.Event{}
}

func isAck(op string) func(engine.Event) bool {
	return func(ev engine.Event) bool {
		return ev.Type == "ACK" && ev.Data["op"] == op
	}
}

func isErrorCode(code string) func(engine.Event) bool {
	return func(ev engine.Event) bool {
		return ev.Type == "ERROR" && ev.Data["code"] == code
	}
}

func TestJoinThenAdminWithoutGame(t *testing.T) {
	_, _, url := newTestGateway(t)
	conn := dial(t, url)

	send(t, conn, clientMessage{Type: "join", RoomCode: "ROOM1", PlayerID: "p1"})
	readUntil(t, conn, isAck("join"))

	send(t, conn, clientMessage{Type: "pause"})
	readUntil(t, conn, isErrorCode("GAME_NOT_FOUND"))
}

func TestUnknownMessageType(t *testing.T) {
	_, _, url := newTestGateway(t)
	conn := dial(t, url)

	send(t, conn, clientMessage{Type: "dance"})
	readUntil(t, conn, isErrorCode("BAD_MESSAGE"))
}

func TestStartGameStreamsEventsToRoom(t *testing.T) {
	_, _, url := newTestGateway(t)
	conn := dial(t, url)

	send(t, conn, clientMessage{Type: "join", RoomCode: "ROOM2", PlayerID: "p1"})
	readUntil(t, conn, isAck("join"))

	send(t, conn, clientMessage{
		Type: "start_game", RoomCode: "ROOM2",
		PlayerID: "p1", DisplayName: "Alice", Seat: 1, Role: "villager",
	})
	readUntil(t, conn, isAck("start_game"))

	ev := readUntil(t, conn, func(ev engine.Event) bool {
		return ev.Type == engine.EventPhaseChange
	})
	assert.Equal(t, "ROOM2", ev.RoomCode)

	// Whatever the human is first asked for, the prompt targets their seat.
	ev = readUntil(t, conn, func(ev engine.Event) bool {
		return ev.Type == engine.EventTurnNotify
	})
	assert.Equal(t, 1, ev.Seat)
}

func TestEventsDoNotLeakAcrossRooms(t *testing.T) {
	_, hub, url := newTestGateway(t)
	connA := dial(t, url)
	connB := dial(t, url)

	send(t, connA, clientMessage{Type: "join", RoomCode: "ROOMA", PlayerID: "pa"})
	readUntil(t, connA, isAck("join"))
	send(t, connB, clientMessage{Type: "join", RoomCode: "ROOMB", PlayerID: "pb"})
	readUntil(t, connB, isAck("join"))

	hub.Broadcast("ROOMA", engine.Event{Type: engine.EventAnnouncement, RoomCode: "ROOMA"})
	hub.Broadcast("ROOMB", engine.Event{Type: engine.EventGameOver, RoomCode: "ROOMB"})

	ev := readUntil(t, connB, func(ev engine.Event) bool {
		return ev.Type == engine.EventAnnouncement || ev.Type == engine.EventGameOver
	})
	assert.Equal(t, engine.EventGameOver, ev.Type, "room B must not see room A's events")
}

func TestJoinConcurrentWithBroadcast(t *testing.T) {
	_, hub, url := newTestGateway(t)
	conn := dial(t, url)

	// Fan-out must read the client's room binding safely while the
	// join is still being processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.Broadcast("ROOMC", engine.Event{Type: engine.EventAnnouncement, RoomCode: "ROOMC"})
		}
	}()

	send(t, conn, clientMessage{Type: "join", RoomCode: "ROOMC", PlayerID: "pc"})
	readUntil(t, conn, isAck("join"))
	<-done

	hub.Broadcast("ROOMC", engine.Event{Type: engine.EventGameOver, RoomCode: "ROOMC"})
	ev := readUntil(t, conn, func(ev engine.Event) bool {
		return ev.Type == engine.EventGameOver
	})
	assert.Equal(t, "ROOMC", ev.RoomCode)
}

func TestErrorCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{game.ErrInvalidConfiguration, "INVALID_CONFIGURATION"},
		{game.ErrInvalidTarget, "INVALID_TARGET"},
		{game.ErrActionTypeMismatch, "ACTION_TYPE_MISMATCH"},
		{game.ErrNotYourTurn, "NOT_YOUR_TURN"},
		{game.ErrWitchResourceExhausted, "WITCH_RESOURCE_EXHAUSTED"},
		{game.ErrSelfSaveNotAllowed, "SELF_SAVE_NOT_ALLOWED"},
		{game.ErrGameNotFound, "GAME_NOT_FOUND"},
		{game.ErrGameAlreadyStarted, "GAME_ALREADY_STARTED"},
		{game.ErrNotPaused, "NOT_PAUSED"},
		{fmt.Errorf("boom"), "INTERNAL"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, errorCode(tc.err))
		assert.Equal(t, tc.code, errorCode(fmt.Errorf("wrapped: %w", tc.err)))
	}
}
