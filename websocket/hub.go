package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents a connected WebSocket client
type Client struct {
	Hub      *Hub
	ID       uint
	UserType string // "customer" or "provider"
	Conn     *websocket.Conn
	Send     chan []byte
	mu       sync.Mutex
}

// Hub manages all WebSocket connections and per-order watch lists
type Hub struct {
	// Registered clients keyed by user ID
	Clients map[uint]*Client

	// Order watchers: which users receive events for which order
	OrderWatchers map[uint]map[uint]bool

	// Broadcast channel for messages to all clients
	Broadcast chan *Message

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Message handlers
	MessageHandlers map[string]MessageHandler

	mu sync.RWMutex
}

// Message is the wire envelope for every frame in both directions
type Message struct {
	Type       string      `json:"type"`
	OrderID    uint        `json:"order_id,omitempty"`
	SenderID   uint        `json:"sender_id,omitempty"`
	SenderType string      `json:"sender_type,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Data       interface{} `json:"data,omitempty"`
}

// MessageHandler handles different types of messages
type MessageHandler func(*Client, *Message) error

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	hub := &Hub{
		Clients:         make(map[uint]*Client),
		OrderWatchers:   make(map[uint]map[uint]bool),
		Broadcast:       make(chan *Message),
		Register:        make(chan *Client),
		Unregister:      make(chan *Client),
		MessageHandlers: make(map[string]MessageHandler),
	}

	hub.registerDefaultHandlers()

	return hub
}

func (h *Hub) registerDefaultHandlers() {
	h.MessageHandlers["watch_order"] = h.handleWatchOrder
	h.MessageHandlers["unwatch_order"] = h.handleUnwatchOrder
	h.MessageHandlers["ping"] = h.handlePing
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.Clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("🔌 Client registered: ID=%d, Type=%s", client.ID, client.UserType)

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.Clients[client.ID]; ok {
				for orderID := range h.OrderWatchers {
					if h.OrderWatchers[orderID][client.ID] {
						delete(h.OrderWatchers[orderID], client.ID)
					}
				}
				delete(h.Clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("🔌 Client unregistered: ID=%d, Type=%s", client.ID, client.UserType)

		case message := <-h.Broadcast:
			h.broadcastMessage(message)
		}
	}
}

// broadcastMessage sends a message to all connected clients
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return
	}

	for _, client := range h.Clients {
		select {
		case client.Send <- data:
		default:
			log.Printf("⚠️ User %d's send buffer is full", client.ID)
		}
	}
}

// SendToUser sends a message to a specific user
func (h *Hub) SendToUser(userID uint, message *Message) {
	h.mu.RLock()
	client, exists := h.Clients[userID]
	h.mu.RUnlock()

	if !exists {
		// Offline users rely on the stored notification instead
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return
	}

	select {
	case client.Send <- data:
	default:
		log.Printf("⚠️ User %d's send buffer is full", userID)
	}
}

// WatchOrder subscribes a user to events for an order
func (h *Hub) WatchOrder(userID, orderID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.OrderWatchers[orderID] == nil {
		h.OrderWatchers[orderID] = make(map[uint]bool)
	}
	h.OrderWatchers[orderID][userID] = true

	log.Printf("👀 User %d watching order %d", userID, orderID)
}

// UnwatchOrder removes a user's subscription to an order
func (h *Hub) UnwatchOrder(userID, orderID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.OrderWatchers[orderID] != nil {
		delete(h.OrderWatchers[orderID], userID)
	}
}

// SendToOrderWatchers sends a message to every user watching the order
func (h *Hub) SendToOrderWatchers(orderID uint, message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	watchers := h.OrderWatchers[orderID]
	if len(watchers) == 0 {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("❌ Error marshaling message: %v", err)
		return
	}

	for userID := range watchers {
		client, exists := h.Clients[userID]
		if !exists {
			continue
		}
		select {
		case client.Send <- data:
		default:
			log.Printf("⚠️ User %d's send buffer is full", userID)
		}
	}
}

// GetConnectedUsers returns a list of currently connected user IDs
func (h *Hub) GetConnectedUsers() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]uint, 0, len(h.Clients))
	for userID := range h.Clients {
		users = append(users, userID)
	}
	return users
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.Clients[userID]
	return exists
}

func (h *Hub) handleWatchOrder(client *Client, message *Message) error {
	if message.OrderID == 0 {
		return client.SendError("invalid_message", "watch_order requires an order_id")
	}
	h.WatchOrder(client.ID, message.OrderID)
	return client.SendMessage(&Message{
		Type:      "watching",
		OrderID:   message.OrderID,
		Timestamp: time.Now(),
	})
}

func (h *Hub) handleUnwatchOrder(client *Client, message *Message) error {
	if message.OrderID == 0 {
		return client.SendError("invalid_message", "unwatch_order requires an order_id")
	}
	h.UnwatchOrder(client.ID, message.OrderID)
	return nil
}

// handlePing handles ping messages for connection health
func (h *Hub) handlePing(client *Client, message *Message) error {
	pongMessage := &Message{
		Type:      "pong",
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(pongMessage)
	if err != nil {
		return err
	}

	select {
	case client.Send <- data:
	default:
		log.Printf("⚠️ Could not send pong to user %d", client.ID)
	}

	return nil
}
