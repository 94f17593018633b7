package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ChangeEvent tells connected sessions that an entity collection changed
// and their cached copy should be refetched.
type ChangeEvent struct {
	Type      string `json:"type"`
	Entity    string `json:"entity"`
	ID        string `json:"id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Entity names used in change events.
const (
	EntityMembers    = "members"
	EntityPhotos     = "photos"
	EntityShareLinks = "shareLinks"
	EntityTreeLayout = "treeLayout"
)

// EventHub fans entity-change notifications out to WebSocket sessions.
// Delivery is best effort: a connection that fails a write is dropped.
type EventHub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]bool
}

// NewEventHub creates a new event hub
func NewEventHub() *EventHub {
	return &EventHub{
		conns: make(map[*websocket.Conn]bool),
	}
}

// Register adds a WebSocket connection to the hub
func (h *EventHub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
	log.Info().Int("sessions", len(h.conns)).Msg("Event session registered")
}

// Unregister removes a WebSocket connection from the hub
func (h *EventHub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[conn] {
		delete(h.conns, conn)
		conn.Close()
		log.Info().Int("sessions", len(h.conns)).Msg("Event session unregistered")
	}
}

// Broadcast sends a changed notification for an entity to every session.
func (h *EventHub) Broadcast(entity, id string) {
	event := ChangeEvent{
		Type:      "changed",
		Entity:    entity,
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal change event")
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Str("entity", entity).Msg("Dropping stale event session")
			h.Unregister(conn)
		}
	}
}

// notifier is what mutation services need from the hub. A nil notifier is
// valid and means nobody listens.
type notifier interface {
	Broadcast(entity, id string)
}

func notify(n notifier, entity, id string) {
	if n != nil {
		n.Broadcast(entity, id)
	}
}
