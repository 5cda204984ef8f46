package websocket

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/connectly/backend/internal/cache"
	"github.com/connectly/backend/internal/logger"
	"go.uber.org/zap"
)

const bridgeChannelPrefix = "realtime:"

// Bridge fans realtime frames out across server instances through
// Redis pub/sub. Each instance subscribes to every per-user channel
// and forwards frames to the sockets attached to its local hub, so a
// recipient connected to another instance still gets the push.
//
// Delivery is best-effort. The durable row in Postgres is the source
// of truth; a dropped frame is never retried.
type Bridge struct {
	hub   *Hub
	redis *cache.RedisClient

	ctx    context.Context
	cancel context.CancelFunc
}

// NewBridge creates a bridge over the given hub. A nil redis client is
// allowed; pushes then short-circuit to the local hub only.
func NewBridge(hub *Hub, redis *cache.RedisClient) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		hub:    hub,
		redis:  redis,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run consumes the pub/sub stream and forwards frames to local sockets.
// Blocks until Close is called; run it in its own goroutine.
func (b *Bridge) Run() {
	if b.redis == nil {
		logger.Log.Info("Realtime bridge running without Redis, single-instance delivery only")
		return
	}

	sub := b.redis.PSubscribe(b.ctx, bridgeChannelPrefix+"*")
	defer sub.Close()

	logger.Log.Info("Realtime bridge subscribed", zap.String("pattern", bridgeChannelPrefix+"*"))

	ch := sub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			userID := strings.TrimPrefix(m.Channel, bridgeChannelPrefix)
			if userID == "" {
				continue
			}

			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				logger.Log.Warn("Bridge received malformed frame",
					zap.String("channel", m.Channel),
					zap.Error(err))
				continue
			}

			b.hub.SendToUser(userID, &msg)
		}
	}
}

// Push delivers a frame to every socket a user has, on any instance.
func (b *Bridge) Push(userID string, msg *Message) {
	if b.redis == nil {
		b.hub.SendToUser(userID, msg)
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Warn("Bridge failed to marshal frame", zap.Error(err))
		return
	}

	if err := b.redis.Publish(b.ctx, bridgeChannelPrefix+userID, data); err != nil {
		logger.Log.Warn("Bridge publish failed, falling back to local delivery",
			zap.String("user_id", userID),
			zap.Error(err))
		b.hub.SendToUser(userID, msg)
	}
}

// PushEvent wraps a payload in a typed frame and delivers it
func (b *Bridge) PushEvent(userID string, event string, payload interface{}) {
	b.Push(userID, NewMessage(event, payload))
}

// Close stops the subscriber loop
func (b *Bridge) Close() {
	b.cancel()
}
