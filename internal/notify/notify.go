// Package notify creates stored notifications for cross-user actions
// and pushes them to live sockets after commit.
package notify

import (
	"context"

	"github.com/connectly/backend/internal/cache"
	"github.com/connectly/backend/internal/database"
	"github.com/connectly/backend/internal/logger"
	"github.com/connectly/backend/internal/models"
	ws "github.com/connectly/backend/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Pusher delivers realtime frames to a user's sockets on any instance
type Pusher interface {
	PushEvent(userID string, event string, payload interface{})
}

// Service builds and stores notifications. Rows are written inside the
// caller's transaction; realtime delivery happens after commit via
// Dispatch and is best-effort.
type Service struct {
	pusher Pusher
	redis  *cache.RedisClient
}

// NewService creates a notification service
func NewService() *Service {
	return &Service{}
}

// SetPusher wires the realtime delivery path
func (s *Service) SetPusher(p Pusher) {
	s.pusher = p
}

// SetRedis wires the unread-count cache
func (s *Service) SetRedis(rc *cache.RedisClient) {
	s.redis = rc
}

// createInTx stores a notification inside the caller's transaction.
// Self-directed actions are dropped and return (nil, nil).
func (s *Service) createInTx(tx *gorm.DB, n *models.Notification) (*models.Notification, error) {
	if n.UserID == "" || n.UserID == n.ActorID {
		return nil, nil
	}
	if err := tx.Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// Dispatch pushes stored notifications to live sockets and refreshes
// the unread badge. Call it only after the enclosing transaction has
// committed; nil entries are skipped.
func (s *Service) Dispatch(notifs ...*models.Notification) {
	for _, n := range notifs {
		if n == nil {
			continue
		}

		if s.redis != nil {
			s.redis.InvalidateUnreadCount(context.Background(), n.UserID)
		}

		if s.pusher == nil {
			continue
		}

		payload := ws.NotificationPayload{
			ID:        n.ID,
			Type:      string(n.Type),
			Title:     n.Title,
			Body:      n.Message,
			ActorID:   n.ActorID,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.UnixMilli(),
		}
		if n.PostID != nil {
			payload.PostID = *n.PostID
		}
		if n.JobID != nil {
			payload.JobID = *n.JobID
		}
		s.pusher.PushEvent(n.UserID, ws.MessageTypeNotification, payload)
	}
}

// UnreadCount returns the user's unread notification count, serving
// from the Redis cache when warm.
func (s *Service) UnreadCount(userID string) (int64, error) {
	if s.redis != nil {
		if n, ok := s.redis.GetUnreadCount(context.Background(), userID); ok {
			return n, nil
		}
	}

	var count int64
	err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	if s.redis != nil {
		s.redis.SetUnreadCount(context.Background(), userID, count)
	}
	return count, nil
}

// InvalidateUnread drops the cached unread count after read-state writes
func (s *Service) InvalidateUnread(userID string) {
	if s.redis != nil {
		s.redis.InvalidateUnreadCount(context.Background(), userID)
	}
}

// MessageSent records a message notification and pushes it.
// Satisfies the websocket Notifier so socket-sent messages share the
// REST path's side effects. Messages are already durable when this
// runs, so the row is written outside any transaction.
func (s *Service) MessageSent(msg *models.Message, sender *models.User) {
	n := &models.Notification{
		UserID:  msg.RecipientID,
		ActorID: msg.SenderID,
		Type:    models.NotifMessage,
		Title:   "New message",
		Message: sender.FullName() + " sent you a message",
	}
	stored, err := s.createInTx(database.DB, n)
	if err != nil {
		logger.Log.Warn("Failed to store message notification",
			zap.String("recipient", msg.RecipientID),
			zap.Error(err))
		return
	}
	s.Dispatch(stored)
}
