package handlers

import (
	"net/http"
	"time"

	"github.com/connectly/backend/internal/database"
	"github.com/connectly/backend/internal/logger"
	"github.com/connectly/backend/internal/models"
	"github.com/connectly/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// GetNotifications lists the user's notifications, newest first
// GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, limit, offset := util.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

	query := database.DB.
		Preload("Actor").
		Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load notifications")
		return
	}

	unread, err := h.notifier.UnreadCount(userID)
	if err != nil {
		logger.WarnWithFields("Failed to count unread notifications", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
		"meta":          gin.H{"page": page, "limit": limit, "count": len(notifications)},
	})
}

// MarkNotificationRead marks one notification as read
// POST /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	notifID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var notification models.Notification
	if err := database.DB.First(&notification, "id = ? AND user_id = ?", notifID, userID).Error; err != nil {
		util.RespondNotFound(c, "notification")
		return
	}

	if !notification.IsRead {
		now := time.Now()
		if err := database.DB.Model(&notification).Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
			util.RespondInternalError(c, "Failed to mark notification read")
			return
		}
		notification.IsRead = true
		notification.ReadAt = &now
		h.notifier.InvalidateUnread(userID)
	}

	c.JSON(http.StatusOK, gin.H{"notification": notification})
}

// MarkAllNotificationsRead marks every unread notification as read
// POST /api/v1/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to mark notifications read")
		return
	}
	h.notifier.InvalidateUnread(userID)

	c.JSON(http.StatusOK, gin.H{
		"message": "notifications_read",
		"updated": result.RowsAffected,
	})
}

// DeleteNotification removes one notification
// DELETE /api/v1/notifications/:id
func (h *Handlers) DeleteNotification(c *gin.Context) {
	notifID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := database.DB.
		Where("id = ? AND user_id = ?", notifID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to delete notification")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "notification")
		return
	}
	h.notifier.InvalidateUnread(userID)

	c.JSON(http.StatusOK, gin.H{"message": "notification_deleted"})
}

// ClearNotifications removes all of the user's notifications
// DELETE /api/v1/notifications
func (h *Handlers) ClearNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := database.DB.
		Where("user_id = ?", userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to clear notifications")
		return
	}
	h.notifier.InvalidateUnread(userID)

	c.JSON(http.StatusOK, gin.H{
		"message": "notifications_cleared",
		"deleted": result.RowsAffected,
	})
}
