// Package realtime pushes alerts to connected clients over websockets.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/messaging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// Message is the frame sent to clients
type Message struct {
	Type  string                      `json:"type"`
	Alert messaging.AlertCreatedEvent `json:"alert"`
}

type client struct {
	userID string
	role   actor.Role
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks the websocket connections of this instance by user
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewHub creates a hub accepting connections from allowedOrigins. An empty
// list accepts any origin.
func NewHub(allowedOrigins []string, log *logger.Logger) *Hub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin]
			},
		},
		logger: log,
	}
}

// ServeWS upgrades the request and streams the actor's alerts until the
// client disconnects
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, a *actor.Actor) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		userID: a.ID,
		role:   a.Role,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
	h.register(c)

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// Broadcast delivers an alert to every connection of its recipient. Slow
// clients whose buffer is full are disconnected.
func (h *Hub) Broadcast(ev messaging.AlertCreatedEvent) int {
	payload, err := json.Marshal(Message{Type: messaging.EventAlertCreated, Alert: ev})
	if err != nil {
		h.logger.Error().Err(err).Str("alert_id", ev.AlertID).Msg("failed to encode alert")
		return 0
	}

	// send channels are only closed under the write lock
	h.mu.RLock()
	delivered := 0
	var slow []*client
	for c := range h.clients[ev.RecipientID] {
		select {
		case c.send <- payload:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn().Str("user_id", c.userID).Msg("websocket client too slow, dropping connection")
		h.unregister(c)
	}
	return delivered
}

// Connections counts open connections
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Disconnect closes every connection of a user
func (h *Hub) Disconnect(userID string) int {
	h.mu.RLock()
	conns := make([]*client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		h.unregister(c)
	}
	return len(conns)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.RLock()
	all := []*client{}
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.unregister(c)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}

	h.logger.Debug().Str("user_id", c.userID).Str("role", string(c.role)).Msg("websocket client connected")
}

// unregister is idempotent; the first call closes the send channel
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)

	h.logger.Debug().Str("user_id", c.userID).Msg("websocket client disconnected")
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// readPump discards client frames and notices disconnects
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
