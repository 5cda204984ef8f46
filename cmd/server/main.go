package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/connectly/backend/internal/auth"
	"github.com/connectly/backend/internal/cache"
	"github.com/connectly/backend/internal/database"
	"github.com/connectly/backend/internal/feed"
	"github.com/connectly/backend/internal/handlers"
	"github.com/connectly/backend/internal/logger"
	"github.com/connectly/backend/internal/metrics"
	"github.com/connectly/backend/internal/middleware"
	"github.com/connectly/backend/internal/notify"
	"github.com/connectly/backend/internal/telemetry"
	"github.com/connectly/backend/internal/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Initialize structured logging
	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Connectly server starting ===")

	// Initialize database
	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize Redis (optional - realtime fan-out and counters degrade without it)
	redisClient, err := cache.NewRedisClient(
		os.Getenv("REDIS_HOST"),
		os.Getenv("REDIS_PORT"),
		os.Getenv("REDIS_PASSWORD"),
	)
	if err != nil {
		logger.Log.Warn("Redis unavailable, continuing without it", zap.Error(err))
		redisClient = nil
	}

	// Initialize Prometheus metrics
	metrics.Initialize()

	// Initialize OpenTelemetry tracing
	tracerProvider, err := telemetry.InitTracer(telemetry.ConfigFromEnv("connectly-backend"))
	if err != nil {
		logger.Log.Warn("Failed to initialize tracing", zap.Error(err))
	}
	if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.Log.Warn("Tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	// Initialize auth service
	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}
	authService := auth.NewService(jwtSecret)

	// Initialize feed and notification services
	feedService := feed.NewService()
	notifier := notify.NewService()
	notifier.SetRedis(redisClient)

	// Initialize WebSocket hub and handler
	wsHub := websocket.NewHub()
	go wsHub.Run()

	wsHandler := websocket.NewHandler(wsHub, jwtSecret)
	wsHandler.RegisterDefaultHandlers()
	wsHandler.SetNotifier(notifier)

	// Bridge fan-out through Redis pub/sub so pushes reach clients on any instance
	wsBridge := websocket.NewBridge(wsHub, redisClient)
	go wsBridge.Run()
	wsHandler.SetBridge(wsBridge)
	notifier.SetPusher(wsBridge)

	// Presence tracking
	presence := websocket.NewPresenceTracker(wsHub)
	wsHandler.SetPresenceTracker(presence)

	// Initialize handlers
	h := handlers.NewHandlers(authService, feedService, notifier)
	h.SetWebSocketHandler(wsHandler)

	// Setup Gin router
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(otelgin.Middleware("connectly-backend"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	// Rate limiting backed by Redis
	if redisClient != nil {
		r.Use(middleware.RedisRateLimitMiddleware(300, time.Minute))
	}

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if err := database.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "connectly-backend",
		})
	})

	// Prometheus metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api/v1")
	{
		// Authentication routes
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", h.AuthMiddleware(), h.Me)
			authGroup.PUT("/password", h.AuthMiddleware(), h.ChangePassword)
		}

		// User and profile routes
		users := api.Group("/users")
		{
			users.Use(h.AuthMiddleware())
			users.PUT("/me", h.UpdateMe)
			users.GET("/search", h.SearchUsers)
			users.GET("/suggestions", h.GetSuggestions)
			users.GET("/:id", h.GetUser)
			users.POST("/:id/follow", h.ToggleFollow)
			users.GET("/:id/followers", h.GetFollowers)
			users.GET("/:id/following", h.GetFollowing)
		}

		// Post and feed routes
		posts := api.Group("/posts")
		{
			posts.Use(h.AuthMiddleware())
			posts.POST("", h.CreatePost)
			posts.GET("/feed", h.GetFeed)
			posts.GET("/hashtag/:tag", h.GetHashtagFeed)
			posts.GET("/:id", h.GetPost)
			posts.DELETE("/:id", h.DeletePost)
			posts.POST("/:id/like", h.ToggleLike)
			posts.POST("/:id/comments", h.CreateComment)
			posts.GET("/:id/comments", h.GetComments)
			posts.POST("/:id/share", h.SharePost)
		}

		// Connection graph routes
		connections := api.Group("/connections")
		{
			connections.Use(h.AuthMiddleware())
			connections.POST("/request", h.RequestConnection)
			connections.GET("/requests/received", h.GetReceivedRequests)
			connections.GET("/requests/sent", h.GetSentRequests)
			connections.POST("/requests/:id/respond", h.RespondToRequest)
			connections.GET("", h.GetConnections)
			connections.DELETE("/:id", h.RemoveConnection)
			connections.GET("/mutual/:id", h.GetMutualConnections)
		}

		// Job board routes
		jobs := api.Group("/jobs")
		{
			jobs.Use(h.AuthMiddleware())
			jobs.POST("", h.CreateJob)
			jobs.GET("", h.ListJobs)
			jobs.GET("/applications/mine", h.MyApplications)
			jobs.GET("/:id", h.GetJob)
			jobs.PUT("/:id", h.UpdateJob)
			jobs.DELETE("/:id", h.DeleteJob)
			jobs.POST("/:id/apply", h.ApplyToJob)
			jobs.GET("/:id/applications", h.ListApplications)
			jobs.PUT("/:id/applications/:appID", h.UpdateApplicationStatus)
		}

		// Messaging routes
		messages := api.Group("/messages")
		{
			messages.Use(h.AuthMiddleware())
			messages.POST("", h.SendMessage)
			messages.GET("/conversations", h.GetConversations)
			messages.GET("/conversations/:id", h.GetConversation)
			messages.POST("/conversations/:id/read", h.MarkConversationRead)
			messages.DELETE("/conversations/:id", h.DeleteConversation)
		}

		// Notification routes
		notifications := api.Group("/notifications")
		{
			notifications.Use(h.AuthMiddleware())
			notifications.GET("", h.GetNotifications)
			notifications.POST("/:id/read", h.MarkNotificationRead)
			notifications.POST("/read-all", h.MarkAllNotificationsRead)
			notifications.DELETE("/:id", h.DeleteNotification)
			notifications.DELETE("", h.ClearNotifications)
		}

		// Admin routes
		admin := api.Group("/admin")
		{
			admin.Use(h.AuthMiddleware(), middleware.RequireAdmin())
			admin.GET("/stats", h.GetAdminStats)
		}

		// WebSocket routes
		ws := api.Group("/ws")
		{
			// Connection endpoint - auth via query param ?token=... or Authorization header
			ws.GET("", wsHandler.HandleWebSocket)
			ws.GET("/metrics", h.AuthMiddleware(), wsHandler.HandleMetrics)
			ws.POST("/online", h.AuthMiddleware(), wsHandler.HandleOnlineStatus)
		}
	}

	// Server configuration
	port := os.Getenv("PORT")
	if port == "" {
		port = "8787"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info("🚀 Connectly backend listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown WebSocket connections gracefully
	if err := wsHandler.Shutdown(ctx); err != nil {
		logger.Log.Warn("WebSocket shutdown warning", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
