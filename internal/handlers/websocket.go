package handlers

import (
	"net/http"

	"family-tree-backend/internal/middleware"
	"family-tree-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades viewer sessions onto the change-event hub
type WebSocketHandler struct {
	hub *services.EventHub
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.EventHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// Serve handles GET /ws. The capability check happens here rather than in
// the router because the share token arrives as a query parameter on the
// upgrade request itself.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if !middleware.GetCapability(r.Context()).CanView() {
		respondError(w, "Access denied", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.hub.Register(conn)

	// The server only pushes; the read loop exists to detect the close.
	go func() {
		defer h.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
