package models

import (
	"time"

	"gorm.io/gorm"
)

// MessageType distinguishes message payload kinds
type MessageType string

const (
	MessageText MessageType = "text"
	MessageFile MessageType = "file"
)

// Message is one direct message between two users.
// ConversationID groups both directions of a pair into one thread.
type Message struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ConversationID string `gorm:"not null;index" json:"conversation_id"`

	SenderID    string `gorm:"not null;index" json:"sender_id"`
	Sender      User   `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	RecipientID string `gorm:"not null;index" json:"recipient_id"`
	Recipient   User   `gorm:"foreignKey:RecipientID" json:"-"`

	Content string      `gorm:"type:text;not null" json:"content"`
	Type    MessageType `gorm:"type:varchar(20);default:text" json:"type"`

	FileURL  string `json:"file_url,omitempty"`
	FileName string `json:"file_name,omitempty"`

	ReadAt *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ConversationID derives the shared thread id for a user pair.
// The ids are sorted so both directions land in the same thread.
func ConversationID(a, b string) string {
	if a < b {
		return a + "_" + b
	}
	return b + "_" + a
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	if m.ConversationID == "" {
		m.ConversationID = ConversationID(m.SenderID, m.RecipientID)
	}
	return nil
}
