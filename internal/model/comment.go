package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID        string         `gorm:"type:uuid;primary_key" json:"id"`
	RankingID string         `gorm:"type:uuid;not null;index;references:rankings(id)" json:"ranking_id"`
	UserID    string         `gorm:"type:uuid;not null;index;references:users(id)" json:"user_id"`
	ParentID  *string        `gorm:"type:uuid;index;references:comments(id)" json:"parent_id,omitempty"` // For nested comments/replies
	Content   string         `gorm:"type:text;not null" json:"content"`
	LikeCount int64          `gorm:"not null;default:0" json:"like_count"` // Cached; source of truth is the reactions table
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User    User      `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Parent  *Comment  `gorm:"foreignKey:ParentID;references:ID" json:"-"`
	Replies []Comment `gorm:"foreignKey:ParentID;references:ID" json:"replies,omitempty"`
	// Reactions are polymorphic (target_type + target_id), no foreign key constraint;
	// they are aggregated through the reaction repository.
}

// BeforeCreate hook to generate UUID
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Comment) TableName() string {
	return "comments"
}
