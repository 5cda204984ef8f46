package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/connectly/backend/internal/database"
	"github.com/connectly/backend/internal/logger"
	"github.com/connectly/backend/internal/models"
	"github.com/connectly/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RequestConnection sends a connection request to another user.
// A declined request between the same pair is reset to pending so the
// pair stays eligible; pending and accepted pairs conflict.
// POST /api/v1/connections/request
func (h *Handlers) RequestConnection(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		RecipientID string `json:"recipient_id" binding:"required"`
		Message     string `json:"message" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if req.RecipientID == user.ID {
		util.RespondValidationError(c, "recipient_id", "You cannot connect with yourself")
		return
	}

	var recipient models.User
	if err := database.DB.First(&recipient, "id = ?", req.RecipientID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	pairKey := models.ConnectionPairKey(user.ID, req.RecipientID)

	var existing models.ConnectionRequest
	err := database.DB.Where("pair_key = ?", pairKey).First(&existing).Error
	if err == nil {
		switch existing.Status {
		case models.RequestPending:
			util.RespondConflict(c, "A request between these users is already pending")
			return
		case models.RequestAccepted:
			util.RespondConflict(c, "You are already connected")
			return
		case models.RequestBlocked:
			util.RespondForbidden(c, "This request cannot be sent")
			return
		case models.RequestDeclined:
			// Reset the row so the pair key stays unique
			existing.RequesterID = user.ID
			existing.RecipientID = req.RecipientID
			existing.Status = models.RequestPending
			existing.Message = req.Message
			existing.RespondedAt = nil

			var notif *models.Notification
			txErr := database.DB.Transaction(func(tx *gorm.DB) error {
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
				var err error
				notif, err = h.notifier.ConnectionRequested(tx, &existing, user)
				return err
			})
			if txErr != nil {
				util.RespondInternalError(c, "Failed to send connection request")
				return
			}
			h.notifier.Dispatch(notif)

			c.JSON(http.StatusCreated, gin.H{"request": existing})
			return
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondInternalError(c, "Failed to check existing requests")
		return
	}

	request := models.ConnectionRequest{
		RequesterID: user.ID,
		RecipientID: req.RecipientID,
		Message:     req.Message,
	}

	var notif *models.Notification
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return err
		}
		var err error
		notif, err = h.notifier.ConnectionRequested(tx, &request, user)
		return err
	})
	if txErr != nil {
		logger.ErrorWithFields("Failed to create connection request", txErr)
		util.RespondInternalError(c, "Failed to send connection request")
		return
	}
	h.notifier.Dispatch(notif)

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// GetReceivedRequests lists pending requests addressed to the user
// GET /api/v1/connections/requests/received
func (h *Handlers) GetReceivedRequests(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, limit, offset := util.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

	var requests []models.ConnectionRequest
	err := database.DB.
		Preload("Requester").
		Where("recipient_id = ? AND status = ?", userID, models.RequestPending).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"meta":     gin.H{"page": page, "limit": limit, "count": len(requests)},
	})
}

// GetSentRequests lists pending requests the user has sent
// GET /api/v1/connections/requests/sent
func (h *Handlers) GetSentRequests(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, limit, offset := util.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

	var requests []models.ConnectionRequest
	err := database.DB.
		Preload("Recipient").
		Where("requester_id = ? AND status = ?", userID, models.RequestPending).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"meta":     gin.H{"page": page, "limit": limit, "count": len(requests)},
	})
}

// RespondToRequest accepts or declines a pending request. Only the
// recipient may respond. Accepting writes both mirrored connection
// rows and bumps both connection counts in one transaction.
// POST /api/v1/connections/requests/:id/respond
func (h *Handlers) RespondToRequest(c *gin.Context) {
	requestID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Action string `json:"action" binding:"required,oneof=accept decline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var request models.ConnectionRequest
	if err := database.DB.First(&request, "id = ?", requestID).Error; err != nil {
		util.RespondNotFound(c, "connection request")
		return
	}

	if request.RecipientID != user.ID {
		util.RespondForbidden(c, "Only the recipient can respond to this request")
		return
	}
	if request.Status != models.RequestPending {
		util.RespondConflict(c, "This request has already been answered")
		return
	}

	now := time.Now()

	if req.Action == "decline" {
		request.Status = models.RequestDeclined
		request.RespondedAt = &now
		if err := database.DB.Save(&request).Error; err != nil {
			util.RespondInternalError(c, "Failed to decline request")
			return
		}
		c.JSON(http.StatusOK, gin.H{"request": request})
		return
	}

	request.Status = models.RequestAccepted
	request.RespondedAt = &now

	var notif *models.Notification
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&request).Error; err != nil {
			return err
		}
		edges := []models.Connection{
			{UserID: request.RequesterID, ConnectedUserID: request.RecipientID},
			{UserID: request.RecipientID, ConnectedUserID: request.RequesterID},
		}
		if err := tx.Create(&edges).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("id IN ?", []string{request.RequesterID, request.RecipientID}).
			UpdateColumn("connection_count", gorm.Expr("connection_count + 1")).Error; err != nil {
			return err
		}
		var err error
		notif, err = h.notifier.ConnectionAccepted(tx, request.RequesterID, user)
		return err
	})
	if err != nil {
		logger.ErrorWithFields("Failed to accept connection request", err)
		util.RespondInternalError(c, "Failed to accept request")
		return
	}
	h.notifier.Dispatch(notif)

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// GetConnections lists the user's accepted connections
// GET /api/v1/connections
func (h *Handlers) GetConnections(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, limit, offset := util.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

	var connections []models.Connection
	err := database.DB.
		Preload("ConnectedUser").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&connections).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load connections")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connections": connections,
		"meta":        gin.H{"page": page, "limit": limit, "count": len(connections)},
	})
}

// RemoveConnection severs an accepted connection. Both mirrored rows
// and the request row go so the pair may reconnect later.
// DELETE /api/v1/connections/:id
func (h *Handlers) RemoveConnection(c *gin.Context) {
	otherID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var edge models.Connection
	if err := database.DB.Where("user_id = ? AND connected_user_id = ?", userID, otherID).
		First(&edge).Error; err != nil {
		util.RespondNotFound(c, "connection")
		return
	}

	pairKey := models.ConnectionPairKey(userID, otherID)
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(
			"(user_id = ? AND connected_user_id = ?) OR (user_id = ? AND connected_user_id = ?)",
			userID, otherID, otherID, userID).
			Delete(&models.Connection{}).Error; err != nil {
			return err
		}
		if err := tx.Where("pair_key = ?", pairKey).
			Delete(&models.ConnectionRequest{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id IN ?", []string{userID, otherID}).
			UpdateColumn("connection_count", gorm.Expr("GREATEST(connection_count - 1, 0)")).Error
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to remove connection")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "connection_removed"})
}

// GetMutualConnections lists users connected to both the caller and
// the target user.
// GET /api/v1/connections/mutual/:id
func (h *Handlers) GetMutualConnections(c *gin.Context) {
	otherID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit := util.ParseInt(c.Query("limit"), 20)
	if limit > 100 {
		limit = 100
	}

	var users []models.User
	err := database.DB.Raw(`
		SELECT u.*
		FROM connections c1
		JOIN connections c2 ON c2.connected_user_id = c1.connected_user_id
		JOIN users u ON u.id = c1.connected_user_id
		WHERE c1.user_id = ? AND c2.user_id = ? AND u.deleted_at IS NULL
		ORDER BY u.connection_count DESC
		LIMIT ?`, userID, otherID, limit).Scan(&users).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load mutual connections")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}
