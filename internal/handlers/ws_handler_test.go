package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobbycast/internal/services"
)

func newDisplayServer(t *testing.T) (*httptest.Server, *services.WebSocketService) {
	t.Helper()
	hub := services.NewWebSocketService()
	go hub.Run()
	handler := NewDisplayHandler(hub)
	server := httptest.NewServer(http.HandlerFunc(handler.Serve))
	t.Cleanup(server.Close)
	return server, hub
}

func dialDisplay(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) services.DisplayEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event services.DisplayEvent
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestDisplayWebSocketBroadcast(t *testing.T) {
	server, hub := newDisplayServer(t)

	first := dialDisplay(t, server.URL)
	second := dialDisplay(t, server.URL)

	// Give the hub a moment to register both connections
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(services.DisplayEvent{Type: "slideshow", Payload: map[string]any{"is_active": true}})

	for _, conn := range []*websocket.Conn{first, second} {
		event := readEvent(t, conn)
		assert.Equal(t, "slideshow", event.Type)
	}
}

func TestDisplayWebSocketReplaysLastEvent(t *testing.T) {
	server, hub := newDisplayServer(t)

	first := dialDisplay(t, server.URL)
	time.Sleep(50 * time.Millisecond)
	hub.Broadcast(services.DisplayEvent{Type: "player", Payload: map[string]any{"phase": "ready"}})
	readEvent(t, first)

	// A display connecting after the broadcast still gets the current state
	late := dialDisplay(t, server.URL)
	event := readEvent(t, late)
	assert.Equal(t, "player", event.Type)
}
