// Package wshub provides a websocket event publisher. Each connected client
// subscribes to one topic; published events are pushed to every subscriber
// of their topic. Delivery is fire and forget: a slow or absent subscriber
// never blocks or fails a publish.
package wshub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chocolab/ai-gateway/internal/core/ports"
	"github.com/chocolab/ai-gateway/internal/domain"
)

const (
	// sendBuffer is the per-client outbound queue. Events beyond it are
	// dropped for that client.
	sendBuffer = 16

	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

// Hub fans published events out to websocket subscribers.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu          sync.RWMutex
	subscribers map[string]map[*client]struct{}
	closed      bool
}

var _ ports.EventPublisher = (*Hub)(nil)

type client struct {
	topic string
	conn  *websocket.Conn
	send  chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger,
		subscribers: make(map[string]map[*client]struct{}),
	}
}

// Publish pushes the event to every subscriber of its topic. It never fails:
// events for topics with no subscribers are dropped.
func (h *Hub) Publish(_ context.Context, event *domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.subscribers[event.Topic] {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping event for slow subscriber",
				slog.String("topic", event.Topic))
		}
	}
	return nil
}

// ServeWS upgrades the request to a websocket subscribed to topic. It blocks
// until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, topic string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	c := &client{topic: topic, conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// Subscribers returns the current subscriber count for a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, clients := range h.subscribers {
		for c := range clients {
			close(c.send)
		}
	}
	h.subscribers = make(map[string]map[*client]struct{})
	return nil
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if h.subscribers[c.topic] == nil {
		h.subscribers[c.topic] = make(map[*client]struct{})
	}
	h.subscribers[c.topic][c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.subscribers[c.topic]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			close(c.send)
			if len(clients) == 0 {
				delete(h.subscribers, c.topic)
			}
		}
	}
}

// readPump discards inbound frames; it exists to notice disconnects and to
// answer pings.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}

	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
