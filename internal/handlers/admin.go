package handlers

import (
	"net/http"

	"github.com/connectly/backend/internal/database"
	"github.com/connectly/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// GetAdminStats returns aggregate platform counts. Admin only.
// GET /api/v1/admin/stats
func (h *Handlers) GetAdminStats(c *gin.Context) {
	var users, posts, jobs, messages, connections int64

	database.DB.Model(&models.User{}).Count(&users)
	database.DB.Model(&models.Post{}).Count(&posts)
	database.DB.Model(&models.Job{}).Count(&jobs)
	database.DB.Model(&models.Message{}).Count(&messages)
	database.DB.Model(&models.Connection{}).Count(&connections)

	c.JSON(http.StatusOK, gin.H{
		"users":       users,
		"posts":       posts,
		"jobs":        jobs,
		"messages":    messages,
		"connections": connections / 2,
	})
}
