package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/connectly/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection.
// DB_DRIVER=sqlite switches to a local file database for development;
// everything else goes through Postgres.
func Initialize() error {
	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	config := &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var db *gorm.DB
	var err error

	if os.Getenv("DB_DRIVER") == "sqlite" {
		path := getEnvOrDefault("DB_PATH", "connectly.db")
		db, err = gorm.Open(sqlite.Open(path), config)
	} else {
		databaseURL := os.Getenv("DATABASE_URL")
		if databaseURL == "" {
			host := getEnvOrDefault("DB_HOST", "localhost")
			port := getEnvOrDefault("DB_PORT", "5432")
			user := getEnvOrDefault("DB_USER", "postgres")
			password := getEnvOrDefault("DB_PASSWORD", "")
			dbname := getEnvOrDefault("DB_NAME", "connectly")
			sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

			databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				host, port, user, password, dbname, sslmode)
		}
		db, err = gorm.Open(postgres.Open(databaseURL), config)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Println("✅ Database connected successfully")

	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if DB.Dialector.Name() == "postgres" {
		if err := DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
			log.Printf("Warning: Could not create uuid-ossp extension: %v", err)
		}
	}

	err := DB.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Connection{},
		&models.ConnectionRequest{},
		&models.Post{},
		&models.PostLike{},
		&models.PostComment{},
		&models.PostShare{},
		&models.Job{},
		&models.JobApplication{},
		&models.Message{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if DB.Dialector.Name() == "postgres" {
		if err := createIndexes(); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	log.Println("✅ Database migrations completed")
	return nil
}

// createIndexes creates performance indexes beyond what the struct tags declare
func createIndexes() error {
	// User search indexes
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_location ON users (location) WHERE location <> ''")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_skills ON users USING GIN (skills)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_name_search ON users USING gin(to_tsvector('english', first_name || ' ' || last_name || ' ' || coalesce(headline, '')))")

	// Feed queries: author timeline and trending scan
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_author_created ON posts (author_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_created ON posts (created_at DESC) WHERE deleted_at IS NULL")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_trending ON posts (engagement_score DESC, created_at DESC) WHERE deleted_at IS NULL")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_posts_hashtags ON posts USING GIN (hashtags)")

	// Engagement child tables
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_post_comments_post_created ON post_comments (post_id, created_at DESC)")

	// Connection graph lookups
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_connection_requests_recipient_pending ON connection_requests (recipient_id, created_at DESC) WHERE status = 'pending'")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_connection_requests_requester_pending ON connection_requests (requester_id, created_at DESC) WHERE status = 'pending'")

	// Job board filters
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_jobs_active_created ON jobs (is_active, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_jobs_search ON jobs USING gin(to_tsvector('english', title || ' ' || company || ' ' || description))")

	// Messaging: thread reads and unread checks
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_messages_conversation_created ON messages (conversation_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_messages_recipient_unread ON messages (recipient_id) WHERE read_at IS NULL")

	// Notification list and badge count
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications (user_id, created_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications (user_id) WHERE is_read = false AND deleted_at IS NULL")

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
