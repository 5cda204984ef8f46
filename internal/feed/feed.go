// Package feed assembles the home feed from the user's graph plus
// trending public posts.
package feed

import (
	"context"
	"time"

	"github.com/connectly/backend/internal/database"
	"github.com/connectly/backend/internal/logger"
	"github.com/connectly/backend/internal/middleware"
	"github.com/connectly/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TrendingThreshold is the minimum engagement score at which a public
// post is surfaced to users outside the author's graph.
const TrendingThreshold = 10

// Meta describes one feed page
type Meta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Count   int  `json:"count"`
	HasMore bool `json:"has_more"`
}

// Response is the payload for a feed page
type Response struct {
	Posts []models.Post `json:"posts"`
	Meta  Meta          `json:"meta"`
}

// Service generates feeds
type Service struct {
	db *gorm.DB
}

// NewService creates a feed service backed by the global database
func NewService() *Service {
	return &Service{db: database.DB}
}

// GetFeed returns one page of the user's home feed.
//
// Candidates are the user's own posts, posts from connections, posts
// from followed users, and trending public posts. A connections-only
// post is visible to the author and their connections; everyone else
// sees public posts only. Ordering is created_at DESC, then
// engagement_score DESC, then id DESC so pages are stable.
func (s *Service) GetFeed(ctx context.Context, userID string, page, limit int) (*Response, error) {
	start := time.Now()

	connectionIDs, err := s.connectionIDs(userID)
	if err != nil {
		return nil, err
	}
	followingIDs, err := s.followingIDs(userID)
	if err != nil {
		return nil, err
	}

	// Connections plus self may see connections-only posts
	graphIDs := append([]string{userID}, connectionIDs...)
	audienceIDs := append(append([]string{}, graphIDs...), followingIDs...)

	offset := (page - 1) * limit

	var posts []models.Post
	err = s.db.WithContext(ctx).
		Preload("Author").
		Where("(author_id IN ? OR (engagement_score >= ? AND visibility = ?))",
			audienceIDs, TrendingThreshold, models.VisibilityPublic).
		Where("(visibility = ? OR author_id IN ?)", models.VisibilityPublic, graphIDs).
		Order("created_at DESC, engagement_score DESC, id DESC").
		Limit(limit + 1).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}

	middleware.RecordFeedGeneration("home", time.Since(start))
	logger.Log.Debug("Feed page assembled",
		logger.WithUserID(userID),
		zap.Int("page", page),
		zap.Int("count", len(posts)),
		zap.Bool("has_more", hasMore))

	return &Response{
		Posts: posts,
		Meta: Meta{
			Page:    page,
			Limit:   limit,
			Count:   len(posts),
			HasMore: hasMore,
		},
	}, nil
}

// GetHashtagFeed returns public posts tagged with the given hashtag,
// newest first.
func (s *Service) GetHashtagFeed(ctx context.Context, tag string, page, limit int) (*Response, error) {
	offset := (page - 1) * limit

	var posts []models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("visibility = ? AND ? = ANY(hashtags)", models.VisibilityPublic, tag).
		Order("created_at DESC, engagement_score DESC, id DESC").
		Limit(limit + 1).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}

	return &Response{
		Posts: posts,
		Meta: Meta{
			Page:    page,
			Limit:   limit,
			Count:   len(posts),
			HasMore: hasMore,
		},
	}, nil
}

func (s *Service) connectionIDs(userID string) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.Connection{}).
		Where("user_id = ?", userID).
		Pluck("connected_user_id", &ids).Error
	return ids, err
}

func (s *Service) followingIDs(userID string) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	return ids, err
}
