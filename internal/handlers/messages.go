package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/connectly/backend/internal/database"
	"github.com/connectly/backend/internal/logger"
	"github.com/connectly/backend/internal/middleware"
	"github.com/connectly/backend/internal/models"
	"github.com/connectly/backend/internal/util"
	"github.com/connectly/backend/internal/websocket"
	"github.com/gin-gonic/gin"
)

// ConversationSummary is one row in the conversation list
type ConversationSummary struct {
	ConversationID string          `json:"conversation_id"`
	OtherUser      models.User     `json:"other_user"`
	LastMessage    *models.Message `json:"last_message"`
	UnreadCount    int64           `json:"unread_count"`
}

// SendMessage sends a direct message over REST. The stored row is the
// source of truth; socket delivery is best-effort on top.
// POST /api/v1/messages
func (h *Handlers) SendMessage(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		RecipientID string `json:"recipient_id" binding:"required"`
		Content     string `json:"content" binding:"required,min=1,max=10000"`
		Type        string `json:"type" binding:"omitempty,oneof=text file"`
		FileURL     string `json:"file_url" binding:"omitempty,url"`
		FileName    string `json:"file_name" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if req.RecipientID == user.ID {
		util.RespondValidationError(c, "recipient_id", "You cannot message yourself")
		return
	}

	var recipient models.User
	if err := database.DB.First(&recipient, "id = ?", req.RecipientID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	message := models.Message{
		SenderID:    user.ID,
		RecipientID: req.RecipientID,
		Content:     req.Content,
		Type:        models.MessageText,
		FileURL:     req.FileURL,
		FileName:    req.FileName,
	}
	if req.Type != "" {
		message.Type = models.MessageType(req.Type)
	}

	if err := database.DB.Create(&message).Error; err != nil {
		logger.ErrorWithFields("Failed to store message", err)
		util.RespondInternalError(c, "Failed to send message")
		return
	}
	middleware.RecordMessageSent("rest")

	h.notifier.MessageSent(&message, user)

	if h.wsHandler != nil {
		h.wsHandler.NotifyMessage(req.RecipientID, &websocket.ChatPayload{
			MessageID:      message.ID,
			ConversationID: message.ConversationID,
			SenderID:       user.ID,
			SenderName:     user.FullName(),
			RecipientID:    req.RecipientID,
			Content:        message.Content,
			CreatedAt:      message.CreatedAt.UnixMilli(),
		})
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// GetConversations lists the user's conversations with their latest
// message and unread count.
// GET /api/v1/messages/conversations
func (h *Handlers) GetConversations(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, limit, offset := util.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

	// Latest message per conversation the user participates in
	var latest []models.Message
	err := database.DB.Raw(`
		SELECT DISTINCT ON (conversation_id) *
		FROM messages
		WHERE sender_id = ? OR recipient_id = ?
		ORDER BY conversation_id, created_at DESC`, userID, userID).
		Scan(&latest).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load conversations")
		return
	}

	summaries := make([]ConversationSummary, 0, len(latest))
	for i := range latest {
		msg := latest[i]
		otherID := msg.SenderID
		if otherID == userID {
			otherID = msg.RecipientID
		}

		var other models.User
		if err := database.DB.First(&other, "id = ?", otherID).Error; err != nil {
			continue
		}

		var unread int64
		database.DB.Model(&models.Message{}).
			Where("conversation_id = ? AND recipient_id = ? AND read_at IS NULL",
				msg.ConversationID, userID).
			Count(&unread)

		summaries = append(summaries, ConversationSummary{
			ConversationID: msg.ConversationID,
			OtherUser:      other,
			LastMessage:    &msg,
			UnreadCount:    unread,
		})
	}

	// The DISTINCT ON pass orders by conversation_id, so re-sort by
	// last activity before slicing pages
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastMessage.CreatedAt.After(summaries[j].LastMessage.CreatedAt)
	})

	start := offset
	if start > len(summaries) {
		start = len(summaries)
	}
	end := start + limit
	if end > len(summaries) {
		end = len(summaries)
	}

	c.JSON(http.StatusOK, gin.H{
		"conversations": summaries[start:end],
		"meta": gin.H{
			"page":  page,
			"limit": limit,
			"count": end - start,
			"total": len(summaries),
		},
	})
}

// GetConversation returns the message history with one user
// GET /api/v1/messages/conversations/:id
func (h *Handlers) GetConversation(c *gin.Context) {
	otherID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, limit, offset := util.Pagination(c.Query("page"), c.Query("limit"), 50, 100)

	conversationID := models.ConversationID(userID, otherID)

	var messages []models.Message
	err := database.DB.
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":        messages,
		"conversation_id": conversationID,
		"meta":            gin.H{"page": page, "limit": limit, "count": len(messages)},
	})
}

// MarkConversationRead marks all messages from the other user as read
// POST /api/v1/messages/conversations/:id/read
func (h *Handlers) MarkConversationRead(c *gin.Context) {
	otherID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	conversationID := models.ConversationID(userID, otherID)
	now := time.Now()

	result := database.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND read_at IS NULL", conversationID, userID).
		Update("read_at", now)
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to mark conversation read")
		return
	}

	// Let the sender's open sockets update read receipts
	if h.wsHandler != nil && result.RowsAffected > 0 {
		h.wsHandler.NotifyConversationRead(otherID, conversationID, userID, now)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "conversation_read",
		"updated":      result.RowsAffected,
		"conversation": conversationID,
	})
}

// DeleteConversation removes the full message history with one user
// DELETE /api/v1/messages/conversations/:id
func (h *Handlers) DeleteConversation(c *gin.Context) {
	otherID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	conversationID := models.ConversationID(userID, otherID)

	result := database.DB.
		Where("conversation_id = ?", conversationID).
		Delete(&models.Message{})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to delete conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "conversation_deleted",
		"deleted": result.RowsAffected,
	})
}
