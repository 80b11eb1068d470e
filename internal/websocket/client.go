package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	ws "github.com/coder/websocket"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
)

// Client is one open page. Pages only listen; anything they send is ignored.
type Client struct {
	hub  *Hub
	conn *ws.Conn

	mu      sync.Mutex
	pending []Message // at most one per entity, oldest first
	wake    chan struct{}
	closed  bool
}

// NewClient wraps an accepted connection. Call Run to serve it.
func NewClient(hub *Hub, conn *ws.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		wake: make(chan struct{}, 1),
	}
}

// enqueue stores msg, replacing any undelivered message for the same entity.
// It reports whether an older message was replaced.
func (c *Client) enqueue(msg Message) (replaced bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}

	for i, p := range c.pending {
		if p.Entity == msg.Entity {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			replaced = true
			break
		}
	}
	c.pending = append(c.pending, msg)

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return replaced
}

// take returns and clears the pending messages.
func (c *Client) take() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.pending
	c.pending = nil
	return msgs
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.pending = nil
		close(c.wake)
	}
}

// Run registers the client and writes pending messages until the page goes
// away or ctx ends.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	// CloseRead discards incoming frames and cancels ctx when the peer closes.
	ctx = c.conn.CloseRead(ctx)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case _, ok := <-c.wake:
			if !ok {
				return
			}
			for _, msg := range c.take() {
				if err := c.write(ctx, msg); err != nil {
					return
				}
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("marshal message", "type", msg.Type, "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, data)
}
