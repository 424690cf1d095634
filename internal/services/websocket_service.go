package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// DisplayEvent is one message pushed to connected kiosk displays
type DisplayEvent struct {
	Type    string `json:"type"` // "slideshow" or "player"
	Payload any    `json:"payload"`
}

// DisplayClient is one connected kiosk display
type DisplayClient struct {
	conn *websocket.Conn
	send chan []byte
}

// WebSocketService fans slideshow and player state out to every connected
// lobby display so they all track the same presentation
type WebSocketService struct {
	clients    map[*DisplayClient]bool
	register   chan *DisplayClient
	unregister chan *DisplayClient
	broadcast  chan []byte

	mu   sync.Mutex
	last []byte // most recent event, replayed to newly connected displays
}

// NewWebSocketService creates a new websocket service
func NewWebSocketService() *WebSocketService {
	return &WebSocketService{
		clients:    make(map[*DisplayClient]bool),
		register:   make(chan *DisplayClient),
		unregister: make(chan *DisplayClient),
		broadcast:  make(chan []byte, 16),
	}
}

// Run processes client registration and broadcasts. Call in a goroutine.
func (ws *WebSocketService) Run() {
	for {
		select {
		case client := <-ws.register:
			ws.clients[client] = true
			log.Printf("Display connected: total=%d", len(ws.clients))
			ws.mu.Lock()
			last := ws.last
			ws.mu.Unlock()
			if last != nil {
				select {
				case client.send <- last:
				default:
				}
			}

		case client := <-ws.unregister:
			if _, ok := ws.clients[client]; ok {
				delete(ws.clients, client)
				close(client.send)
				log.Printf("Display disconnected: total=%d", len(ws.clients))
			}

		case message := <-ws.broadcast:
			ws.mu.Lock()
			ws.last = message
			ws.mu.Unlock()
			for client := range ws.clients {
				select {
				case client.send <- message:
				default:
					// Slow display: drop it rather than block the hub
					delete(ws.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Broadcast sends an event to every connected display
func (ws *WebSocketService) Broadcast(event DisplayEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal display event: %v", err)
		return
	}
	ws.broadcast <- data
}

// Register adds a connection to the hub and starts its write pump
func (ws *WebSocketService) Register(conn *websocket.Conn) *DisplayClient {
	client := &DisplayClient{
		conn: conn,
		send: make(chan []byte, 16),
	}
	ws.register <- client
	go client.writePump(ws)
	return client
}

// Unregister removes a client from the hub
func (ws *WebSocketService) Unregister(client *DisplayClient) {
	ws.unregister <- client
}

func (c *DisplayClient) writePump(ws *WebSocketService) {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			ws.Unregister(c)
			return
		}
	}
}

// ReadLoop drains inbound messages until the display disconnects. Displays
// are passive viewers; their messages are ignored.
func (c *DisplayClient) ReadLoop(ws *WebSocketService) {
	defer func() {
		ws.Unregister(c)
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
