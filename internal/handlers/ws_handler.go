package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"lobbycast/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Kiosk displays connect from the same host; the dashboard is not
	// exposed past the building network.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// DisplayHandler upgrades kiosk connections and attaches them to the hub
type DisplayHandler struct {
	hub *services.WebSocketService
}

// NewDisplayHandler creates a new display websocket handler
func NewDisplayHandler(hub *services.WebSocketService) *DisplayHandler {
	return &DisplayHandler{hub: hub}
}

// Serve handles GET /ws/display
func (h *DisplayHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := h.hub.Register(conn)
	go client.ReadLoop(h.hub)
}
