package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"facefolio/pkg/logger"
)

// Message is the envelope every frame on the wire uses.
type Message struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

type client struct {
	conn   *websocket.Conn
	userID uuid.UUID
	roomID string
}

// WebSocketManager tracks live connections keyed by connection and by user.
type WebSocketManager struct {
	clients map[*websocket.Conn]*client
	byUser  map[uuid.UUID]map[*websocket.Conn]struct{}
	mu      sync.RWMutex
}

// Manager is the process-wide connection registry.
var Manager = NewWebSocketManager()

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients: make(map[*websocket.Conn]*client),
		byUser:  make(map[uuid.UUID]map[*websocket.Conn]struct{}),
	}
}

func (m *WebSocketManager) RegisterClient(conn *websocket.Conn, userID uuid.UUID, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clients[conn] = &client{conn: conn, userID: userID, roomID: roomID}
	if m.byUser[userID] == nil {
		m.byUser[userID] = make(map[*websocket.Conn]struct{})
	}
	m.byUser[userID][conn] = struct{}{}

	logger.WebSocket("client_registered", "Client registered", map[string]interface{}{
		"user_id":     userID.String(),
		"connections": len(m.clients),
	})
}

func (m *WebSocketManager) UnregisterClient(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[conn]
	if !ok {
		return
	}
	delete(m.clients, conn)
	if conns := m.byUser[c.userID]; conns != nil {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(m.byUser, c.userID)
		}
	}

	logger.WebSocket("client_unregistered", "Client unregistered", map[string]interface{}{
		"user_id":     c.userID.String(),
		"connections": len(m.clients),
	})
}

// BroadcastToUser sends a message to every open connection of one user.
func (m *WebSocketManager) BroadcastToUser(userID uuid.UUID, messageType string, data map[string]interface{}) {
	payload, err := json.Marshal(Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		logger.WebSocketError("marshal_message", "Failed to marshal message", err, map[string]interface{}{
			"type": messageType,
		})
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for conn := range m.byUser[userID] {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.WebSocketError("write_message", "Failed to write message", err, map[string]interface{}{
				"user_id": userID.String(),
				"type":    messageType,
			})
		}
	}
}

// ConnectionCount reports how many connections are currently registered.
func (m *WebSocketManager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// HandleWebSocketMessage answers client frames; only ping is understood.
func HandleWebSocketMessage(conn *websocket.Conn, messageType int, message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	if msg.Type == "ping" {
		payload, _ := json.Marshal(Message{Type: "pong", Timestamp: time.Now()})
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
}
