package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nightpath/werewolf-server/internal/engine"
	"github.com/nightpath/werewolf-server/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway carries no credentials; origin checks belong to the
	// deployment's reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is the envelope for everything a client can send.
type clientMessage struct {
	Type        string `json:"type"`
	RoomCode    string `json:"roomCode,omitempty"`
	PlayerID    string `json:"playerId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Seat        int    `json:"seat,omitempty"`
	Role        string `json:"role,omitempty"`

	// Action fields.
	Kind         string `json:"kind,omitempty"`
	Target       int    `json:"target,omitempty"`
	Save         bool   `json:"save,omitempty"`
	PoisonTarget int    `json:"poisonTarget,omitempty"`
	Text         string `json:"text,omitempty"`
}

// Gateway serves the WebSocket endpoint and translates client
// messages into engine calls.
type Gateway struct {
	hub    *Hub
	svc    *engine.Service
	logger *zap.Logger
}

// NewGateway wires the hub and engine service together.
func NewGateway(hub *Hub, svc *engine.Service, logger *zap.Logger) *Gateway {
	return &Gateway{hub: hub, svc: svc, logger: logger}
}

// ServeWS upgrades the connection and starts the client pumps.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	g.hub.register(client)

	go client.writePump()
	go client.readPump(g)
}

func (g *Gateway) handleMessage(c *Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		g.sendError(c, "", "BAD_MESSAGE", "malformed message")
		return
	}

	switch msg.Type {
	case "join":
		g.handleJoin(c, msg)

	case "start_game":
		g.handleStart(c, msg)

	case "action":
		g.handleAction(c, msg)

	case "pause":
		g.replyAdmin(c, msg.Type, g.svc.PauseGame(c.roomCode))

	case "resume":
		g.replyAdmin(c, msg.Type, g.svc.ResumeGame(c.roomCode))

	case "stop":
		g.replyAdmin(c, msg.Type, g.svc.StopGame(c.roomCode))

	default:
		g.sendError(c, msg.Type, "BAD_MESSAGE", "unknown message type")
	}
}

func (g *Gateway) handleJoin(c *Client, msg clientMessage) {
	if msg.RoomCode == "" {
		g.sendError(c, msg.Type, "BAD_MESSAGE", "roomCode is required")
		return
	}
	g.hub.subscribe(c, msg.RoomCode, msg.PlayerID)
	g.sendAck(c, msg.Type)

	// Tell a rejoining player what the engine is waiting on, if
	// anything, so the client can restore its prompt.
	if kind, ok := g.svc.Waiting(c.roomCode, c.playerID); ok {
		g.sendEvent(c, engine.Event{
			Type:      engine.EventTurnNotify,
			RoomCode:  c.roomCode,
			Timestamp: time.Now(),
			Data:      map[string]any{"waitKind": string(kind), "resumed": true},
		})
	}
}

func (g *Gateway) handleStart(c *Client, msg clientMessage) {
	if msg.RoomCode == "" {
		g.sendError(c, msg.Type, "BAD_MESSAGE", "roomCode is required")
		return
	}
	g.hub.subscribe(c, msg.RoomCode, msg.PlayerID)

	_, err := g.svc.StartGame(msg.RoomCode, engine.StartOptions{
		HumanPlayerID: msg.PlayerID,
		HumanName:     msg.DisplayName,
		HumanSeat:     msg.Seat,
		HumanRole:     msg.Role,
	})
	g.replyAdmin(c, msg.Type, err)
}

func (g *Gateway) handleAction(c *Client, msg clientMessage) {
	if c.roomCode == "" || c.playerID == "" {
		g.sendError(c, msg.Type, "NOT_YOUR_TURN", "join a room first")
		return
	}

	err := g.svc.ProcessHumanAction(c.roomCode, c.playerID, engine.HumanAction{
		Kind:         engine.WaitKind(msg.Kind),
		Target:       msg.Target,
		Save:         msg.Save,
		PoisonTarget: msg.PoisonTarget,
		Text:         msg.Text,
	})
	g.replyAdmin(c, msg.Type, err)
}

func (g *Gateway) replyAdmin(c *Client, op string, err error) {
	if err != nil {
		g.sendError(c, op, errorCode(err), err.Error())
		return
	}
	g.sendAck(c, op)
}

func (g *Gateway) sendAck(c *Client, op string) {
	g.sendEvent(c, engine.Event{
		Type:      "ACK",
		RoomCode:  c.roomCode,
		Timestamp: time.Now(),
		Data:      map[string]any{"op": op},
	})
}

func (g *Gateway) sendError(c *Client, op, code, message string) {
	g.sendEvent(c, engine.Event{
		Type:      "ERROR",
		RoomCode:  c.roomCode,
		Timestamp: time.Now(),
		Data:      map[string]any{"op": op, "code": code, "message": message},
	})
}

func (g *Gateway) sendEvent(c *Client, ev engine.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		g.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}
	c.trySend(payload)
}

// errorCode maps engine errors to stable codes for clients.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidConfiguration):
		return "INVALID_CONFIGURATION"
	case errors.Is(err, game.ErrInvalidTarget):
		return "INVALID_TARGET"
	case errors.Is(err, game.ErrActionTypeMismatch):
		return "ACTION_TYPE_MISMATCH"
	case errors.Is(err, game.ErrNotYourTurn):
		return "NOT_YOUR_TURN"
	case errors.Is(err, game.ErrWitchResourceExhausted):
		return "WITCH_RESOURCE_EXHAUSTED"
	case errors.Is(err, game.ErrSelfSaveNotAllowed):
		return "SELF_SAVE_NOT_ALLOWED"
	case errors.Is(err, game.ErrGameNotFound):
		return "GAME_NOT_FOUND"
	case errors.Is(err, game.ErrGameAlreadyStarted):
		return "GAME_ALREADY_STARTED"
	case errors.Is(err, game.ErrNotPaused):
		return "NOT_PAUSED"
	default:
		return "INTERNAL"
	}
}
