package handlers

import (
	"errors"
	"net/http"

	"github.com/connectly/backend/internal/database"
	"github.com/connectly/backend/internal/logger"
	"github.com/connectly/backend/internal/models"
	"github.com/connectly/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// engagementExpr recomputes the derived score from the counter columns.
// Runs inside the same transaction as every counter mutation so the
// stored score never drifts.
var engagementExpr = gorm.Expr("like_count + comment_count + 2 * share_count")

// CreatePost creates a new post
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content    string `json:"content" binding:"required,min=1,max=5000"`
		Type       string `json:"type" binding:"omitempty,oneof=text image link job_share"`
		ImageURL   string `json:"image_url" binding:"omitempty,url"`
		LinkURL    string `json:"link_url" binding:"omitempty,url"`
		Visibility string `json:"visibility" binding:"omitempty,oneof=public connections"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	post := models.Post{
		AuthorID:   user.ID,
		Content:    req.Content,
		Type:       models.PostTypeText,
		ImageURL:   req.ImageURL,
		LinkURL:    req.LinkURL,
		Visibility: models.VisibilityPublic,
		Hashtags:   models.StringArray(util.ExtractHashtags(req.Content)),
	}
	if req.Type != "" {
		post.Type = models.PostType(req.Type)
	}
	if req.Visibility != "" {
		post.Visibility = models.Visibility(req.Visibility)
	}

	mentions := util.ExtractMentions(req.Content)

	var notifs []*models.Notification
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		// Mention handles are first.last or the email local part
		for _, mention := range mentions {
			var mentioned models.User
			if err := tx.Where("LOWER(first_name || '.' || last_name) = ? OR LOWER(email) LIKE ?",
				mention, mention+"@%").First(&mentioned).Error; err != nil {
				continue
			}
			n, err := h.notifier.Mentioned(tx, &post, user, mentioned.ID)
			if err != nil {
				return err
			}
			notifs = append(notifs, n)
		}
		return nil
	})
	if err != nil {
		logger.ErrorWithFields("Failed to create post", err)
		util.RespondInternalError(c, "Failed to create post")
		return
	}
	h.notifier.Dispatch(notifs...)

	post.Author = *user
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetPost returns a single post with its author
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.Preload("Author").First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	if !h.canViewPost(&post, userID) {
		util.RespondNotFound(c, "post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// ToggleLike likes a post, or removes the like when already present
// POST /api/v1/posts/:id/like
func (h *Handlers) ToggleLike(c *gin.Context) {
	postID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if !h.canViewPost(&post, user.ID) {
		util.RespondNotFound(c, "post")
		return
	}

	var existing models.PostLike
	err := database.DB.Where("post_id = ? AND user_id = ?", postID, user.ID).First(&existing).Error

	if err == nil {
		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			return tx.Model(&post).UpdateColumns(map[string]interface{}{
				"like_count":       gorm.Expr("GREATEST(like_count - 1, 0)"),
				"engagement_score": engagementExpr,
			}).Error
		})
		if txErr != nil {
			util.RespondInternalError(c, "Failed to unlike post")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "post_unliked", "liked": false})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondInternalError(c, "Failed to check like state")
		return
	}

	var notif *models.Notification
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		like := models.PostLike{PostID: postID, UserID: user.ID}
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		if err := tx.Model(&post).UpdateColumns(map[string]interface{}{
			"like_count":       gorm.Expr("like_count + 1"),
			"engagement_score": engagementExpr,
		}).Error; err != nil {
			return err
		}
		var err error
		notif, err = h.notifier.PostLiked(tx, &post, user)
		return err
	})
	if txErr != nil {
		util.RespondInternalError(c, "Failed to like post")
		return
	}
	h.notifier.Dispatch(notif)

	c.JSON(http.StatusOK, gin.H{"message": "post_liked", "liked": true})
}

// CreateComment adds a comment to a post
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	postID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,min=1,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if !h.canViewPost(&post, user.ID) {
		util.RespondNotFound(c, "post")
		return
	}

	comment := models.PostComment{
		PostID:  postID,
		UserID:  user.ID,
		Content: req.Content,
	}

	var notif *models.Notification
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		if err := tx.Model(&post).UpdateColumns(map[string]interface{}{
			"comment_count":    gorm.Expr("comment_count + 1"),
			"engagement_score": engagementExpr,
		}).Error; err != nil {
			return err
		}
		var err error
		notif, err = h.notifier.PostCommented(tx, &post, user)
		return err
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to create comment")
		return
	}
	h.notifier.Dispatch(notif)

	comment.User = *user
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetComments lists a post's comments, newest first
// GET /api/v1/posts/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, limit, offset := util.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if !h.canViewPost(&post, userID) {
		util.RespondNotFound(c, "post")
		return
	}

	var comments []models.PostComment
	err := database.DB.
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load comments")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"meta": gin.H{
			"page":  page,
			"limit": limit,
			"count": len(comments),
			"total": post.CommentCount,
		},
	})
}

// SharePost reshares a post, at most once per user
// POST /api/v1/posts/:id/share
func (h *Handlers) SharePost(c *gin.Context) {
	postID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	// The commentary is optional, so an empty body is a valid share.
	var req struct {
		Comment string `json:"comment" binding:"max=1000"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			util.RespondBadRequest(c, err.Error())
			return
		}
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if !h.canViewPost(&post, user.ID) {
		util.RespondNotFound(c, "post")
		return
	}

	share := models.PostShare{
		PostID:  postID,
		UserID:  user.ID,
		Comment: req.Comment,
	}

	var notif *models.Notification
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&share).Error; err != nil {
			return err
		}
		if err := tx.Model(&post).UpdateColumns(map[string]interface{}{
			"share_count":      gorm.Expr("share_count + 1"),
			"engagement_score": engagementExpr,
		}).Error; err != nil {
			return err
		}
		var err error
		notif, err = h.notifier.PostShared(tx, &post, user)
		return err
	})
	if err != nil {
		// The unique index on (post_id, user_id) is the duplicate check,
		// so concurrent reshares resolve to a conflict rather than a 500.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.RespondConflict(c, "You have already shared this post")
			return
		}
		util.RespondInternalError(c, "Failed to share post")
		return
	}
	h.notifier.Dispatch(notif)

	c.JSON(http.StatusCreated, gin.H{"share": share})
}

// DeletePost soft-deletes a post. Only the author or an admin may
// delete; likes, comments, and shares stay behind the soft delete.
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	postID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	if post.AuthorID != user.ID && !user.IsAdmin {
		util.RespondForbidden(c, "You do not own this post")
		return
	}

	if err := database.DB.Delete(&post).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "post_deleted"})
}

// canViewPost applies the visibility rule for a single post read
func (h *Handlers) canViewPost(post *models.Post, userID string) bool {
	if post.Visibility == models.VisibilityPublic {
		return true
	}
	if post.AuthorID == userID {
		return true
	}
	return h.isConnected(userID, post.AuthorID)
}
