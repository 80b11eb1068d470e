package websocket

import (
	"log/slog"
	"sync"
)

// Message tells open pages that part of the shared state changed and should
// be fetched again.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     string         `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message whose Type is "<entity>_<action>".
func NewMessage(entity, action, id string, extra map[string]any) Message {
	return Message{
		Type:   entity + "_" + action,
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub tracks the open pages and tells each of them what to reload.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a page to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("page connected", "clients", n)
}

// Unregister removes c and stops its delivery loop. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("page disconnected", "clients", n)
}

// Broadcast hands msg to every page. A page that has not caught up yet keeps
// only the newest message per entity, so a slow page reloads each section
// once instead of missing updates.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.enqueue(msg) {
			h.logger.Debug("coalesced message for slow page", "entity", msg.Entity)
		}
	}
}

// ClientCount returns the number of open pages.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
