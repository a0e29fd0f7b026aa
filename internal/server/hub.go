// Package server exposes the game engine over WebSocket. The Hub
// fans engine events out to connected clients; the Gateway turns
// inbound client messages into engine calls.
package server

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/nightpath/werewolf-server/internal/engine"
)

// Hub tracks connected clients and routes engine events to them. It
// implements engine.Sink.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("Client connected", zap.String("remoteAddr", c.conn.RemoteAddr().String()))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.logger.Info("Client disconnected",
		zap.String("playerId", c.playerID),
		zap.String("roomCode", c.roomCode))
}

// subscribe binds a client to a room and player identity. The fields
// are written under the hub lock because Broadcast and Notify read
// them from other goroutines.
func (h *Hub) subscribe(c *Client, roomCode, playerID string) {
	h.mu.Lock()
	c.roomCode = roomCode
	if playerID != "" {
		c.playerID = playerID
	}
	h.mu.Unlock()
}

// Broadcast sends an event to every client subscribed to the room.
func (h *Hub) Broadcast(roomCode string, ev engine.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.roomCode == roomCode {
			c.trySend(payload)
		}
	}
}

// Notify sends an event to one player's connections in the room.
func (h *Hub) Notify(roomCode, playerID string, ev engine.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.roomCode == roomCode && c.playerID == playerID {
			c.trySend(payload)
		}
	}
}
