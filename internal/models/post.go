package models

import (
	"time"

	"gorm.io/gorm"
)

// PostType distinguishes post content kinds
type PostType string

const (
	PostTypeText     PostType = "text"
	PostTypeImage    PostType = "image"
	PostTypeLink     PostType = "link"
	PostTypeJobShare PostType = "job_share"
)

// Visibility controls who can see a post in feeds
type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilityConnections Visibility = "connections"
)

// Post represents a feed entry authored by a user
type Post struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	AuthorID string `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Content    string     `gorm:"type:text;not null" json:"content"`
	Type       PostType   `gorm:"type:varchar(20);default:text" json:"type"`
	ImageURL   string     `json:"image_url,omitempty"`
	LinkURL    string     `json:"link_url,omitempty"`
	Visibility Visibility `gorm:"type:varchar(20);default:public;index" json:"visibility"`

	// Extracted from content at write time
	Hashtags StringArray `gorm:"type:text[]" json:"hashtags"`

	// Engagement counters, updated atomically alongside the child tables
	LikeCount    int `gorm:"default:0" json:"like_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`
	ShareCount   int `gorm:"default:0" json:"share_count"`

	// likes + comments + 2*shares, recomputed in the same transaction
	// as every engagement mutation
	EngagementScore int `gorm:"default:0;index" json:"engagement_score"`

	// Relations populated on detail reads
	Comments []PostComment `gorm:"foreignKey:PostID" json:"comments,omitempty"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ComputeEngagement returns the derived score for the current counters
func (p *Post) ComputeEngagement() int {
	return p.LikeCount + p.CommentCount + 2*p.ShareCount
}

// PostLike records one user liking one post
type PostLike struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID string `gorm:"not null;index:idx_post_likes_pair,unique" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;index:idx_post_likes_pair,unique;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// PostComment is a flat comment on a post
type PostComment struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PostShare records one user resharing one post, at most once
type PostShare struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID string `gorm:"not null;index:idx_post_shares_pair,unique" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`
	UserID string `gorm:"not null;index:idx_post_shares_pair,unique;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	// Optional commentary shown with the reshare
	Comment string `gorm:"type:text" json:"comment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (l *PostLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

func (c *PostComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (s *PostShare) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = generateUUID()
	}
	return nil
}
