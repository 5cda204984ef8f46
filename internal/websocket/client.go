package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/connectly/backend/internal/logger"
	"go.uber.org/zap"
)

const (
	// writeWait bounds a single frame write
	writeWait = 10 * time.Second

	// pongWait is how long a socket may stay silent before reads fail
	pongWait = 60 * time.Second

	// pingPeriod must stay under pongWait so pings keep reads alive
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024

	sendBufferSize = 256
)

// Client is one authenticated socket. A user may hold several at once
// (multiple tabs, devices); the hub fans unicasts across all of them.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	UserID string
	Name   string

	// Outbound frames, drained by WritePump
	send chan []byte

	ConnectedAt time.Time
	LastPingAt  time.Time
	RemoteAddr  string
	UserAgent   string

	rateLimiter *RateLimiter

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewClient wraps an upgraded connection. The rate limits come from the
// hub's config at connect time.
func NewClient(hub *Hub, conn *websocket.Conn, userID, name string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	limits := hub.GetRateLimitConfig()

	return &Client{
		hub:         hub,
		conn:        conn,
		UserID:      userID,
		Name:        name,
		send:        make(chan []byte, sendBufferSize),
		ConnectedAt: time.Now(),
		rateLimiter: NewRateLimiter(limits.MaxMessagesPerSecond, limits.BurstSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ReadPump reads inbound frames until the socket dies, applying the
// rate limit and dispatching to registered handlers. Runs on its own
// goroutine per socket.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		readCtx, readCancel := context.WithTimeout(c.ctx, pongWait)
		_, data, err := c.conn.Read(readCtx)
		readCancel()

		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Log.Info("Client disconnected normally", zap.String("user", c.UserID))
			} else if c.ctx.Err() == nil {
				// Shutdown-time read failures are expected, skip those
				logger.Log.Error("Read error for client", zap.String("user", c.UserID), zap.Error(err))
				c.hub.metrics.Errors.Add(1)
			}
			return
		}

		if !c.rateLimiter.Allow() {
			c.SendError("rate_limited", "Too many messages, please slow down")
			c.hub.metrics.Errors.Add(1)
			continue
		}
		c.hub.metrics.MessagesReceived.Add(1)

		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			logger.Log.Warn("WebSocket JSON parse error",
				zap.String("user", c.UserID),
				zap.Error(err))
			c.SendError("invalid_json", "Failed to parse message")
			continue
		}

		c.dispatch(&message)
	}
}

// WritePump drains the send buffer onto the wire and keeps the socket
// alive with periodic pings. Runs on its own goroutine per socket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "server shutdown")
			return

		case frame, ok := <-c.send:
			if !ok {
				// Hub closed the channel during unregister
				c.conn.Close(websocket.StatusNormalClosure, "closing")
				return
			}

			writeCtx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				logger.Log.Error("Write error for client", zap.String("user", c.UserID), zap.Error(err))
				c.hub.metrics.Errors.Add(1)
				return
			}

		case <-ticker.C:
			c.mu.Lock()
			c.LastPingAt = time.Now()
			c.mu.Unlock()

			pingCtx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Log.Warn("Ping failed for client", zap.String("user", c.UserID), zap.Error(err))
				return
			}
		}
	}
}

// dispatch routes one inbound message. Ping and auth are handled here;
// everything else goes through the hub's handler registry.
func (c *Client) dispatch(message *Message) {
	if message.Timestamp.IsZero() {
		message.Timestamp = FlexibleTime{Time: time.Now().UTC()}
	}

	switch message.Type {
	case MessageTypePing, "heartbeat": // some clients send "heartbeat"
		c.pong(message)
		return
	case MessageTypeAuth:
		// Auth happened at upgrade time, just acknowledge
		c.Send(NewMessage(MessageTypeAuth, AuthPayload{
			UserID: c.UserID,
			Status: "authenticated",
		}))
		return
	}

	handler, ok := c.hub.GetHandler(message.Type)
	if !ok {
		logger.Log.Warn("Unknown message type",
			zap.String("user", c.UserID),
			zap.String("type", message.Type))
		c.SendError("unknown_type", fmt.Sprintf("Unknown message type: %s", message.Type))
		return
	}

	if err := handler(c, message); err != nil {
		logger.Log.Error("Handler error",
			zap.String("type", message.Type),
			zap.Error(err))
		c.SendError("handler_error", fmt.Sprintf("Failed to process %s", message.Type))
	}
}

// pong answers a ping with server time and measured latency
func (c *Client) pong(message *Message) {
	var ping PingPayload
	if err := message.ParsePayload(&ping); err != nil {
		ping.ClientTime = 0
	}

	serverTime := time.Now().UnixMilli()
	reply := NewMessage(MessageTypePong, PongPayload{
		ClientTime: ping.ClientTime,
		ServerTime: serverTime,
		Latency:    serverTime - ping.ClientTime,
	})
	if message.ID != "" {
		reply.ReplyTo = message.ID
	}

	// Best effort, the socket may already be closing
	_ = c.Send(reply)
}

// Send queues one message for this socket without blocking. Returns an
// error when the socket is closed or its buffer is full.
func (c *Client) Send(message *Message) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return fmt.Errorf("client connection closed")
	}
	c.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return fmt.Errorf("client shutting down")
	default:
		return fmt.Errorf("send buffer full")
	}
}

// SendError queues an error frame for this socket
func (c *Client) SendError(code, message string) {
	c.Send(NewErrorMessage(code, message))
}

// Close tears the socket down once; later calls are no-ops
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	c.conn.Close(websocket.StatusNormalClosure, "closing")
}

// IsClosed reports whether Close has run
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// ClientInfo is the externally visible view of one socket
type ClientInfo struct {
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	ConnectedAt time.Time `json:"connected_at"`
	LastPingAt  time.Time `json:"last_ping_at"`
	RemoteAddr  string    `json:"remote_addr"`
	UserAgent   string    `json:"user_agent"`
}

// GetInfo snapshots the socket's metadata
func (c *Client) GetInfo() ClientInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ClientInfo{
		UserID:      c.UserID,
		Name:        c.Name,
		ConnectedAt: c.ConnectedAt,
		LastPingAt:  c.LastPingAt,
		RemoteAddr:  c.RemoteAddr,
		UserAgent:   c.UserAgent,
	}
}

// RateLimiter is a token bucket guarding inbound message rates
type RateLimiter struct {
	tokens    float64
	maxTokens float64
	refill    float64
	lastTime  time.Time
	mu        sync.Mutex
}

// NewRateLimiter creates a bucket holding burst tokens that refills at
// maxPerSecond.
func NewRateLimiter(maxPerSecond int, burst int) *RateLimiter {
	return &RateLimiter{
		tokens:    float64(burst),
		maxTokens: float64(burst),
		refill:    float64(maxPerSecond),
		lastTime:  time.Now(),
	}
}

// Allow consumes one token, refilling for the elapsed time first
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastTime).Seconds()
	r.lastTime = now

	r.tokens += elapsed * r.refill
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}

	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}
