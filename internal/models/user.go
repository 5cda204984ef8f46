package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringArray is a custom type for PostgreSQL text[] that implements Scanner and Valuer
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	// PostgreSQL returns text[] as a string like "{value1,value2,value3}"
	str, ok := value.(string)
	if !ok {
		if bytes, ok := value.([]byte); ok {
			str = string(bytes)
		} else {
			*a = nil
			return nil
		}
	}

	str = strings.TrimPrefix(str, "{")
	str = strings.TrimSuffix(str, "}")

	if str == "" {
		*a = []string{}
		return nil
	}

	*a = strings.Split(str, ",")
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// ExperienceEntry is one position in a user's work history
type ExperienceEntry struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Current     bool   `json:"current,omitempty"`
	Description string `json:"description,omitempty"`
}

// EducationEntry is one school in a user's education history
type EducationEntry struct {
	School    string `json:"school"`
	Degree    string `json:"degree,omitempty"`
	Field     string `json:"field,omitempty"`
	StartYear int    `json:"start_year,omitempty"`
	EndYear   int    `json:"end_year,omitempty"`
}

// User represents a member account
type User struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `gorm:"not null" json:"last_name"`

	PasswordHash string `gorm:"type:text;not null" json:"-"`

	// Profile data
	Headline   string            `gorm:"type:text" json:"headline"`
	Bio        string            `gorm:"type:text" json:"bio"`
	Location   string            `gorm:"type:text" json:"location"`
	AvatarURL  string            `json:"avatar_url"`
	Skills     StringArray       `gorm:"type:text[]" json:"skills"`
	Experience []ExperienceEntry `gorm:"type:jsonb;serializer:json" json:"experience"`
	Education  []EducationEntry  `gorm:"type:jsonb;serializer:json" json:"education"`

	// Cached social stats; source of truth is the edge tables
	ConnectionCount int `gorm:"default:0" json:"connection_count"`
	FollowerCount   int `gorm:"default:0" json:"follower_count"`
	FollowingCount  int `gorm:"default:0" json:"following_count"`
	ProfileViews    int `gorm:"default:0" json:"profile_views"`

	IsPrivate bool `gorm:"default:false" json:"is_private"`
	IsAdmin   bool `gorm:"default:false" json:"-"`

	LastActiveAt *time.Time `json:"last_active_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// FullName returns the user's display name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Follow is an asymmetric edge: follower watches following's posts
type Follow struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	FollowerID  string `gorm:"not null;index:idx_follows_pair,unique" json:"follower_id"`
	Follower    User   `gorm:"foreignKey:FollowerID" json:"-"`
	FollowingID string `gorm:"not null;index:idx_follows_pair,unique;index" json:"following_id"`
	Following   User   `gorm:"foreignKey:FollowingID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Connection is one direction of an accepted mutual connection.
// Two mirrored rows exist per pair so either side's list is a single
// indexed lookup.
type Connection struct {
	ID              string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID          string `gorm:"not null;index:idx_connections_pair,unique" json:"user_id"`
	User            User   `gorm:"foreignKey:UserID" json:"-"`
	ConnectedUserID string `gorm:"not null;index:idx_connections_pair,unique;index" json:"connected_user_id"`
	ConnectedUser   User   `gorm:"foreignKey:ConnectedUserID" json:"connected_user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RequestStatus is the lifecycle state of a connection request
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
	RequestBlocked  RequestStatus = "blocked"
)

// ConnectionRequest is a pending invitation between two users.
// PairKey is the sorted id pair; its unique index guarantees at most
// one request row per unordered pair regardless of direction.
type ConnectionRequest struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	RequesterID string `gorm:"not null;index" json:"requester_id"`
	Requester   User   `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	RecipientID string `gorm:"not null;index" json:"recipient_id"`
	Recipient   User   `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`

	PairKey string        `gorm:"uniqueIndex;not null" json:"-"`
	Status  RequestStatus `gorm:"type:varchar(20);default:pending;index" json:"status"`
	Message string        `gorm:"type:text" json:"message,omitempty"`

	RespondedAt *time.Time `json:"responded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConnectionPairKey builds the order-independent key for a user pair
func ConnectionPairKey(a, b string) string {
	if a < b {
		return a + "_" + b
	}
	return b + "_" + a
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (r *ConnectionRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	if r.PairKey == "" {
		r.PairKey = ConnectionPairKey(r.RequesterID, r.RecipientID)
	}
	return nil
}

func generateUUID() string {
	return uuid.New().String()
}
