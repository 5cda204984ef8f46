package handlers

import (
	"net/http"
	"strings"

	"github.com/connectly/backend/internal/logger"
	"github.com/connectly/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// GetFeed returns one page of the authenticated user's home feed
// GET /api/v1/posts/feed
func (h *Handlers) GetFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, limit, _ := util.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

	resp, err := h.feed.GetFeed(c.Request.Context(), userID, page, limit)
	if err != nil {
		logger.ErrorWithFields("Failed to assemble feed", err)
		util.RespondInternalError(c, "Failed to load feed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetHashtagFeed returns public posts for one hashtag
// GET /api/v1/posts/hashtag/:tag
func (h *Handlers) GetHashtagFeed(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	tag := strings.ToLower(strings.TrimPrefix(c.Param("tag"), "#"))
	if tag == "" || len(tag) > 50 {
		util.RespondValidationError(c, "tag", "Hashtag must be 1-50 characters")
		return
	}
	page, limit, _ := util.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

	resp, err := h.feed.GetHashtagFeed(c.Request.Context(), tag, page, limit)
	if err != nil {
		util.RespondInternalError(c, "Failed to load hashtag feed")
		return
	}

	c.JSON(http.StatusOK, resp)
}
