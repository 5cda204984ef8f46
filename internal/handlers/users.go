package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/connectly/backend/internal/database"
	"github.com/connectly/backend/internal/logger"
	"github.com/connectly/backend/internal/models"
	"github.com/connectly/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetUser returns a user's profile
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	targetID := c.Param("id")
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", targetID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	connected := viewerID == targetID || h.isConnected(viewerID, targetID)

	// Private profiles show a reduced card to users outside the graph
	if user.IsPrivate && !connected {
		c.JSON(http.StatusOK, gin.H{
			"user": gin.H{
				"id":         user.ID,
				"first_name": user.FirstName,
				"last_name":  user.LastName,
				"headline":   user.Headline,
				"avatar_url": user.AvatarURL,
				"is_private": true,
			},
		})
		return
	}

	// Record the view for everyone except the owner
	if viewerID != targetID {
		viewer, _ := util.GetUserFromContext(c)
		var notif *models.Notification
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&user).UpdateColumn("profile_views", gorm.Expr("profile_views + 1")).Error; err != nil {
				return err
			}
			var err error
			notif, err = h.notifier.ProfileViewed(tx, targetID, viewer)
			return err
		})
		if err != nil {
			logger.WarnWithFields("Failed to record profile view for user "+targetID, err)
		} else {
			user.ProfileViews++
			h.notifier.Dispatch(notif)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"is_connected": connected,
	})
}

// UpdateMe updates the authenticated user's profile
// PUT /api/v1/users/me
func (h *Handlers) UpdateMe(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		FirstName  *string                   `json:"first_name" binding:"omitempty,min=1,max=50"`
		LastName   *string                   `json:"last_name" binding:"omitempty,min=1,max=50"`
		Headline   *string                   `json:"headline" binding:"omitempty,max=120"`
		Bio        *string                   `json:"bio" binding:"omitempty,max=2000"`
		Location   *string                   `json:"location" binding:"omitempty,max=100"`
		AvatarURL  *string                   `json:"avatar_url" binding:"omitempty,url"`
		Skills     *[]string                 `json:"skills"`
		Experience *[]models.ExperienceEntry `json:"experience"`
		Education  *[]models.EducationEntry  `json:"education"`
		IsPrivate  *bool                     `json:"is_private"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Headline != nil {
		updates["headline"] = *req.Headline
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.Skills != nil {
		if len(*req.Skills) > 50 {
			util.RespondValidationError(c, "skills", "At most 50 skills are allowed")
			return
		}
		updates["skills"] = models.StringArray(*req.Skills)
	}
	if req.IsPrivate != nil {
		updates["is_private"] = *req.IsPrivate
	}

	if len(updates) > 0 {
		if err := database.DB.Model(user).Updates(updates).Error; err != nil {
			util.RespondInternalError(c, "Failed to update profile")
			return
		}
	}

	// jsonb columns go through Save so the serializer runs
	if req.Experience != nil || req.Education != nil {
		if req.Experience != nil {
			user.Experience = *req.Experience
		}
		if req.Education != nil {
			user.Education = *req.Education
		}
		if err := database.DB.Model(user).Select("experience", "education").Updates(user).Error; err != nil {
			util.RespondInternalError(c, "Failed to update profile")
			return
		}
	}

	if err := database.DB.First(user, "id = ?", user.ID).Error; err != nil {
		util.RespondInternalError(c, "Failed to reload profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SearchUsers searches profiles by name, headline, location, and skills
// GET /api/v1/users/search
func (h *Handlers) SearchUsers(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	q := strings.TrimSpace(c.Query("q"))
	location := strings.TrimSpace(c.Query("location"))
	skills := util.ParseCSV(c.Query("skills"))
	page, limit, offset := util.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

	if q == "" && location == "" && len(skills) == 0 {
		util.RespondBadRequest(c, "Provide at least one of q, location, or skills")
		return
	}

	query := database.DB.Model(&models.User{})
	if q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where(
			"LOWER(first_name || ' ' || last_name) LIKE ? OR LOWER(headline) LIKE ?",
			pattern, pattern)
	}
	if location != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(location)+"%")
	}
	for _, skill := range skills {
		query = query.Where("? = ANY(skills)", skill)
	}

	var users []models.User
	if err := query.
		Order("connection_count DESC, created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		util.RespondInternalError(c, "Search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"meta": gin.H{
			"page":  page,
			"limit": limit,
			"count": len(users),
		},
	})
}

// GetSuggestions returns people the user may want to connect with,
// ranked by mutual connection count.
// GET /api/v1/users/suggestions
func (h *Handlers) GetSuggestions(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit := util.ParseInt(c.Query("limit"), 10)
	if limit > 50 {
		limit = 50
	}

	// Second-degree contacts the user is not already connected to
	var users []models.User
	err := database.DB.Raw(`
		SELECT u.*, COUNT(*) AS mutual_count
		FROM connections c1
		JOIN connections c2 ON c2.user_id = c1.connected_user_id
		JOIN users u ON u.id = c2.connected_user_id
		WHERE c1.user_id = ?
		  AND c2.connected_user_id != ?
		  AND c2.connected_user_id NOT IN (
			SELECT connected_user_id FROM connections WHERE user_id = ?
		  )
		  AND u.deleted_at IS NULL
		GROUP BY u.id
		ORDER BY mutual_count DESC, u.connection_count DESC
		LIMIT ?`, userID, userID, userID, limit).Scan(&users).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load suggestions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// ToggleFollow follows a user, or unfollows when already following
// POST /api/v1/users/:id/follow
func (h *Handlers) ToggleFollow(c *gin.Context) {
	targetID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if targetID == userID {
		util.RespondValidationError(c, "id", "You cannot follow yourself")
		return
	}

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	var existing models.Follow
	err := database.DB.Where("follower_id = ? AND following_id = ?", userID, targetID).First(&existing).Error

	if err == nil {
		// Already following, so unfollow
		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", targetID).
				UpdateColumn("follower_count", gorm.Expr("GREATEST(follower_count - 1, 0)")).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).Where("id = ?", userID).
				UpdateColumn("following_count", gorm.Expr("GREATEST(following_count - 1, 0)")).Error
		})
		if txErr != nil {
			util.RespondInternalError(c, "Failed to unfollow")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "unfollowed", "following": false})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondInternalError(c, "Failed to check follow state")
		return
	}

	follow := models.Follow{FollowerID: userID, FollowingID: targetID}
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&follow).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", targetID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error
	})
	if txErr != nil {
		util.RespondInternalError(c, "Failed to follow")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "followed", "following": true})
}

// GetFollowers lists a user's followers
// GET /api/v1/users/:id/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	targetID := c.Param("id")
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}
	page, limit, offset := util.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

	var users []models.User
	err := database.DB.
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", targetID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load followers")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"meta":  gin.H{"page": page, "limit": limit, "count": len(users)},
	})
}

// GetFollowing lists users a user follows
// GET /api/v1/users/:id/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	targetID := c.Param("id")
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}
	page, limit, offset := util.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

	var users []models.User
	err := database.DB.
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", targetID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load following")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"meta":  gin.H{"page": page, "limit": limit, "count": len(users)},
	})
}

// isConnected reports whether an accepted connection exists between two users
func (h *Handlers) isConnected(a, b string) bool {
	var count int64
	database.DB.Model(&models.Connection{}).
		Where("user_id = ? AND connected_user_id = ?", a, b).
		Count(&count)
	return count > 0
}
