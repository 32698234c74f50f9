package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */

// User represents the user entity. Only the fields the realtime and
// messaging paths read are mapped here; profile CRUD lives elsewhere.
type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username        string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email           string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName        string     `gorm:"size:255;not null" json:"full_name"`
	ProfileImageURL *string    `json:"profile_image_url,omitempty"`
	IsActive        bool       `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DisplayName is what typing indicators and message previews show:
// the full name when set, otherwise the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

/** -------------------- DTOs -------------------- */

// UserPublicResponse is the sender shape embedded in message payloads.
type UserPublicResponse struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	FullName        string    `json:"full_name"`
	ProfileImageURL *string   `json:"profile_image_url,omitempty"`
}

func NewUserPublicResponse(u *User) *UserPublicResponse {
	if u == nil {
		return nil
	}
	return &UserPublicResponse{
		ID:              u.ID,
		Username:        u.Username,
		FullName:        u.FullName,
		ProfileImageURL: u.ProfileImageURL,
	}
}
