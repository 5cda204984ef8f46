package websocket

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/connectly/backend/internal/database"
	"github.com/connectly/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Notifier records the durable side effects of socket-sent messages.
// Implemented by the notification service; kept as an interface here so
// the hub has no dependency on it.
type Notifier interface {
	MessageSent(msg *models.Message, sender *models.User)
}

// Handler handles WebSocket HTTP upgrade requests
type Handler struct {
	hub       *Hub
	jwtSecret []byte
	bridge    *Bridge
	notifier  Notifier
	presence  *PresenceTracker
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, jwtSecret []byte) *Handler {
	return &Handler{
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

// SetBridge sets the cross-instance delivery bridge
func (h *Handler) SetBridge(b *Bridge) {
	h.bridge = b
}

// SetNotifier sets the notification sink for socket-sent messages
func (h *Handler) SetNotifier(n Notifier) {
	h.notifier = n
}

// SetPresenceTracker sets the presence tracker
func (h *Handler) SetPresenceTracker(p *PresenceTracker) {
	h.presence = p
}

// push delivers to all of a user's sockets, across instances when a
// bridge is configured
func (h *Handler) push(userID string, msg *Message) {
	if h.bridge != nil {
		h.bridge.Push(userID, msg)
		return
	}
	h.hub.SendToUser(userID, msg)
}

// HandleWebSocket handles WebSocket upgrade requests.
// Authentication is done via JWT token in query param: ?token=...
// Or via Authorization header: Bearer <token>
func (h *Handler) HandleWebSocket(c *gin.Context) {
	user, err := h.authenticateRequest(c)
	if err != nil {
		log.Printf("WebSocket auth failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "authentication_failed",
			"message": err.Error(),
		})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // TODO: restrict origins once the web client's domains are final
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, conn, user.ID, user.FullName())
	client.RemoteAddr = c.ClientIP()
	client.UserAgent = c.GetHeader("User-Agent")

	h.hub.Register(client)

	if h.presence != nil {
		h.presence.OnConnect(client)
	}

	client.Send(NewMessage(MessageTypeSystem, SystemPayload{
		Event:   "connected",
		Message: "Welcome to Connectly!",
		Data: map[string]interface{}{
			"user_id":     user.ID,
			"name":        user.FullName(),
			"server_time": time.Now().UTC().UnixMilli(),
			"session_id":  fmt.Sprintf("%p", client),
		},
	}))

	go client.WritePump()
	client.ReadPump() // blocks until client disconnects

	if h.presence != nil {
		h.presence.OnDisconnect(client)
	}
}

// authenticateRequest extracts and validates the JWT token from the request
func (h *Handler) authenticateRequest(c *gin.Context) (*models.User, error) {
	tokenString := ""

	if token := c.Query("token"); token != "" {
		tokenString = token
	}

	if auth := c.GetHeader("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			tokenString = strings.TrimPrefix(auth, "Bearer ")
		} else {
			tokenString = auth
		}
	}

	if tokenString == "" {
		return nil, errors.New("no authentication token provided")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return h.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, errors.New("token missing expiration")
	}
	if time.Unix(int64(exp), 0).Before(time.Now()) {
		return nil, errors.New("token expired")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, errors.New("invalid user_id in token")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return &user, nil
}

// HandleMetrics returns WebSocket metrics (for monitoring)
func (h *Handler) HandleMetrics(c *gin.Context) {
	metrics := h.hub.GetMetrics()
	c.JSON(http.StatusOK, gin.H{
		"websocket":    metrics,
		"online_users": h.hub.GetOnlineUsers(),
		"timestamp":    time.Now().UTC(),
	})
}

// HandleOnlineStatus checks if specific users are online
func (h *Handler) HandleOnlineStatus(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	statuses := make(map[string]bool)
	for _, userID := range req.UserIDs {
		statuses[userID] = h.hub.IsUserOnline(userID)
	}

	c.JSON(http.StatusOK, gin.H{
		"statuses":  statuses,
		"timestamp": time.Now().UTC(),
	})
}

// RegisterDefaultHandlers registers the default message handlers
func (h *Handler) RegisterDefaultHandlers() {
	// Direct message sent over the socket: persist first, then relay.
	h.hub.RegisterHandler(MessageTypeChatMessage, func(client *Client, msg *Message) error {
		var payload ChatPayload
		if err := msg.ParsePayload(&payload); err != nil {
			return err
		}
		if payload.RecipientID == "" || strings.TrimSpace(payload.Content) == "" {
			client.SendError("invalid_message", "recipient_id and content are required")
			return nil
		}
		if payload.RecipientID == client.UserID {
			client.SendError("invalid_message", "cannot message yourself")
			return nil
		}

		var recipient models.User
		if err := database.DB.First(&recipient, "id = ?", payload.RecipientID).Error; err != nil {
			client.SendError("recipient_not_found", "recipient does not exist")
			return nil
		}

		stored := models.Message{
			SenderID:    client.UserID,
			RecipientID: payload.RecipientID,
			Content:     payload.Content,
			Type:        models.MessageText,
		}
		if err := database.DB.Create(&stored).Error; err != nil {
			return fmt.Errorf("failed to store message: %w", err)
		}

		if h.notifier != nil {
			var sender models.User
			if err := database.DB.First(&sender, "id = ?", client.UserID).Error; err == nil {
				h.notifier.MessageSent(&stored, &sender)
			}
		}

		out := ChatPayload{
			MessageID:      stored.ID,
			ConversationID: stored.ConversationID,
			SenderID:       stored.SenderID,
			SenderName:     client.Name,
			RecipientID:    stored.RecipientID,
			Content:        stored.Content,
			CreatedAt:      stored.CreatedAt.UnixMilli(),
		}
		h.push(stored.RecipientID, NewMessage(MessageTypeChatMessage, out))

		// Ack back to the sender with the stored ids
		ack := NewMessage(MessageTypeChatMessage, out)
		if msg.ID != "" {
			ack.ReplyTo = msg.ID
		}
		return client.Send(ack)
	})

	// Typing indicators relay without persistence
	relayTyping := func(eventType string) MessageHandler {
		return func(client *Client, msg *Message) error {
			var payload TypingPayload
			if err := msg.ParsePayload(&payload); err != nil {
				return err
			}
			if payload.RecipientID == "" {
				return nil
			}
			payload.UserID = client.UserID
			payload.Name = client.Name
			payload.Timestamp = time.Now().UnixMilli()
			h.push(payload.RecipientID, NewMessage(eventType, payload))
			return nil
		}
	}
	h.hub.RegisterHandler(MessageTypeUserTyping, relayTyping(MessageTypeUserTyping))
	h.hub.RegisterHandler(MessageTypeUserStopTyping, relayTyping(MessageTypeUserStopTyping))

	log.Println("📨 Registered default WebSocket message handlers")
}

// NotifyNotification pushes a stored notification to its recipient
func (h *Handler) NotifyNotification(userID string, payload *NotificationPayload) {
	h.push(userID, NewMessage(MessageTypeNotification, payload))
}

// NotifyMessage pushes a stored direct message to its recipient
func (h *Handler) NotifyMessage(userID string, payload *ChatPayload) {
	h.push(userID, NewMessage(MessageTypeChatMessage, payload))
}

// NotifyConversationRead tells the other participant their messages
// in the conversation were read.
func (h *Handler) NotifyConversationRead(userID, conversationID, readerID string, readAt time.Time) {
	h.push(userID, NewMessage(MessageTypeChatRead, ReadReceiptPayload{
		ConversationID: conversationID,
		ReaderID:       readerID,
		ReadAt:         readAt.UnixMilli(),
	}))
}

// UpdateNotificationCount pushes the new unread badge count
func (h *Handler) UpdateNotificationCount(userID string, unread int64) {
	h.push(userID, NewMessage(MessageTypeNotificationCount, NotificationCountPayload{
		UnreadCount: unread,
		Timestamp:   time.Now().UnixMilli(),
	}))
}

// Shutdown gracefully shuts down the WebSocket handler
func (h *Handler) Shutdown(ctx context.Context) error {
	if h.bridge != nil {
		h.bridge.Close()
	}
	return h.hub.Shutdown(ctx)
}

// GetHub returns the hub for external access
func (h *Handler) GetHub() *Hub {
	return h.hub
}
