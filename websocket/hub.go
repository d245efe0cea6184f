package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"aasaan-server/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one connected provider
type Client struct {
	UserID   uint
	Services []string
	conn     *websocket.Conn
	send     chan []byte
	hub      *Hub
}

// Hub maintains the set of connected providers and pushes newly created
// work requests to the ones whose declared services match.
type Hub struct {
	clients    map[uint]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *models.WorkRequest
	mutex      sync.RWMutex
}

// FeedHub is the process-wide provider feed hub. main starts its Run loop.
var FeedHub = NewHub()

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *models.WorkRequest, 64),
	}
}

// Run processes register, unregister and broadcast events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			// One connection per provider, drop any previous one
			if old, exists := h.clients[client.UserID]; exists {
				close(old.send)
			}
			h.clients[client.UserID] = client
			h.mutex.Unlock()
			log.Printf("🔌 Provider %d connected to the live feed (%d online)", client.UserID, h.ClientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if current, exists := h.clients[client.UserID]; exists && current == client {
				delete(h.clients, client.UserID)
				close(client.send)
			}
			h.mutex.Unlock()
			log.Printf("🔌 Provider %d disconnected from the live feed", client.UserID)

		case request := <-h.broadcast:
			h.dispatchRequest(request)
		}
	}
}

// BroadcastNewRequest queues a freshly created work request for delivery to
// matching connected providers. Never blocks the caller.
func (h *Hub) BroadcastNewRequest(request *models.WorkRequest) {
	select {
	case h.broadcast <- request:
	default:
		log.Printf("⚠️ Feed broadcast queue full, dropping request %d", request.ID)
	}
}

// dispatchRequest sends the request to every connected provider that declares
// its service. Matching is by exact service id only.
func (h *Hub) dispatchRequest(request *models.WorkRequest) {
	message, err := json.Marshal(map[string]interface{}{
		"type":    "newRequest",
		"request": request,
	})
	if err != nil {
		log.Printf("❌ Failed to marshal feed message: %v", err)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	sent := 0
	for _, client := range h.clients {
		if !offersService(client.Services, request.Service) {
			continue
		}
		select {
		case client.send <- message:
			sent++
		default:
			// Slow consumer, skip rather than block the hub
		}
	}

	if sent > 0 {
		log.Printf("📡 Request %d pushed to %d connected providers", request.ID, sent)
	}
}

// ClientCount returns the number of connected providers
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func offersService(services []string, service string) bool {
	for _, s := range services {
		if s == service {
			return true
		}
	}
	return false
}

// readPump drains the connection so control frames are processed; the feed
// is one-way, inbound data messages are discarded.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️ Feed read error for provider %d: %v", c.UserID, err)
			}
			break
		}
	}
}

// writePump pushes queued messages and keepalive pings to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
