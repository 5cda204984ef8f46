package handlers

import (
	"github.com/connectly/backend/internal/auth"
	"github.com/connectly/backend/internal/feed"
	"github.com/connectly/backend/internal/notify"
	"github.com/connectly/backend/internal/websocket"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth      *auth.Service
	feed      *feed.Service
	notifier  *notify.Service
	wsHandler *websocket.Handler
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService *auth.Service, feedService *feed.Service, notifier *notify.Service) *Handlers {
	return &Handlers{
		auth:     authService,
		feed:     feedService,
		notifier: notifier,
	}
}

// SetWebSocketHandler sets the WebSocket handler for real-time delivery
func (h *Handlers) SetWebSocketHandler(ws *websocket.Handler) {
	h.wsHandler = ws
}
