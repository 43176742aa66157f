package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User rows are provisioned by the identity provider; this service only
// reads them for author summaries.
type User struct {
	ID          string    `gorm:"type:uuid;primary_key" json:"id"`
	Username    string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	DisplayName *string   `gorm:"type:varchar(100)" json:"display_name,omitempty"`
	AvatarURL   *string   `gorm:"type:text" json:"avatar_url,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// Summary is the author shape embedded in ranking and comment responses.
type UserSummary struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// Summary returns the public author fields for embedding in responses.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}
