package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType enumerates the cross-user actions that notify
type NotificationType string

const (
	NotifConnectionRequest  NotificationType = "connection_request"
	NotifConnectionAccepted NotificationType = "connection_accepted"
	NotifPostLike           NotificationType = "post_like"
	NotifPostComment        NotificationType = "post_comment"
	NotifPostShare          NotificationType = "post_share"
	NotifMention            NotificationType = "mention"
	NotifJobApplication     NotificationType = "job_application"
	NotifMessage            NotificationType = "message"
	NotifProfileView        NotificationType = "profile_view"
)

// Notification is a stored alert for a user. Title and Message are
// denormalized at write time so reads never join back to the actor.
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	ActorID string `gorm:"index" json:"actor_id,omitempty"`
	Actor   *User  `gorm:"foreignKey:ActorID" json:"actor,omitempty"`

	Type    NotificationType `gorm:"type:varchar(30);not null;index" json:"type"`
	Title   string           `gorm:"not null" json:"title"`
	Message string           `gorm:"type:text" json:"message"`

	PostID *string `gorm:"type:uuid;index" json:"post_id,omitempty"`
	JobID  *string `gorm:"type:uuid;index" json:"job_id,omitempty"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}
