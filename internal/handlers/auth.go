package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/connectly/backend/internal/auth"
	"github.com/connectly/backend/internal/logger"
	"github.com/connectly/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Register creates a new user account
// POST /api/v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Register(req)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			util.RespondConflict(c, "An account with this email already exists")
			return
		}
		logger.ErrorWithFields("Registration failed", err)
		util.RespondInternalError(c, "Failed to create account")
		return
	}

	logger.Log.Info("User registered",
		logger.WithUserID(resp.User.ID),
		zap.String("email", resp.User.Email))

	c.JSON(http.StatusCreated, resp)
}

// Login authenticates with email and password
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Login(req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			util.RespondUnauthorized(c, "Invalid email or password")
			return
		}
		logger.ErrorWithFields("Login failed", err)
		util.RespondInternalError(c, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user's own profile
// GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangePassword rotates the authenticated user's password
// PUT /api/v1/auth/password
func (h *Handlers) ChangePassword(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			util.RespondUnauthorized(c, "Current password is incorrect")
			return
		}
		logger.ErrorWithFields("Password change failed", err)
		util.RespondInternalError(c, "Failed to change password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password_changed"})
}

// AuthMiddleware validates the Bearer token and loads the user into
// the request context.
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			util.RespondUnauthorized(c, "Missing or invalid Authorization header")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		user, err := h.auth.ValidateToken(token)
		if err != nil {
			util.RespondUnauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
