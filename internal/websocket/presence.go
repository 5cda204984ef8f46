// Presence tracking for user online status.
package websocket

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/connectly/backend/internal/database"
	"github.com/connectly/backend/internal/models"
)

// PresenceStatus represents the current status of a user
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

// UserPresence tracks a single user's presence state
type UserPresence struct {
	UserID       string         `json:"user_id"`
	Name         string         `json:"name"`
	Status       PresenceStatus `json:"status"`
	LastActivity time.Time      `json:"last_activity"`
	ConnectedAt  time.Time      `json:"connected_at"`
}

// PresenceTracker tracks which users hold open sockets and stamps
// last_active_at when the last socket drops.
type PresenceTracker struct {
	hub *Hub

	presence map[string]*UserPresence
	mu       sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPresenceTracker creates a presence tracker over the given hub
func NewPresenceTracker(hub *Hub) *PresenceTracker {
	ctx, cancel := context.WithCancel(context.Background())
	return &PresenceTracker{
		hub:      hub,
		presence: make(map[string]*UserPresence),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Stop shuts the tracker down and marks everyone offline
func (p *PresenceTracker) Stop() {
	p.cancel()

	p.mu.Lock()
	for userID := range p.presence {
		p.markOffline(userID)
	}
	p.presence = make(map[string]*UserPresence)
	p.mu.Unlock()

	log.Println("👤 Presence tracker stopped")
}

// OnConnect records a new socket for a user
func (p *PresenceTracker) OnConnect(client *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := p.presence[client.UserID]; ok {
		existing.LastActivity = now
		return
	}

	p.presence[client.UserID] = &UserPresence{
		UserID:       client.UserID,
		Name:         client.Name,
		Status:       StatusOnline,
		LastActivity: now,
		ConnectedAt:  now,
	}
}

// OnDisconnect drops a socket; when it was the user's last one the
// user goes offline and last_active_at is stamped.
func (p *PresenceTracker) OnDisconnect(client *Client) {
	if p.hub.IsUserOnline(client.UserID) {
		return
	}

	p.mu.Lock()
	delete(p.presence, client.UserID)
	p.mu.Unlock()

	p.markOffline(client.UserID)
}

// GetOnlinePresence returns presence for the requested users that are online
func (p *PresenceTracker) GetOnlinePresence(userIDs []string) map[string]*UserPresence {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(map[string]*UserPresence)
	for _, id := range userIDs {
		if pr, ok := p.presence[id]; ok {
			result[id] = pr
		}
	}
	return result
}

func (p *PresenceTracker) markOffline(userID string) {
	now := time.Now().UTC()
	if err := database.DB.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_active_at", now).Error; err != nil {
		log.Printf("Failed to stamp last_active_at for %s: %v", userID, err)
	}
}
