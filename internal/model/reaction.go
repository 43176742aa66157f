package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Reaction struct {
	ID         string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;index:idx_user_target_emoji,unique" json:"user_id"`
	TargetType string    `gorm:"type:varchar(20);not null;index:idx_user_target_emoji,unique" json:"target_type"` // ranking, comment, ranking_item
	TargetID   string    `gorm:"type:uuid;not null;index:idx_user_target_emoji,unique" json:"target_id"`
	Emoji      string    `gorm:"type:varchar(16);not null;index:idx_user_target_emoji,unique" json:"emoji"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

// BeforeCreate hook to generate UUID
func (r *Reaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Reaction) TableName() string {
	return "reactions"
}

// Constants for target types
const (
	TargetTypeRanking     = "ranking"
	TargetTypeComment     = "comment"
	TargetTypeRankingItem = "ranking_item"
)

// LikeEmoji is the one reaction that maintains the cached like counters.
const LikeEmoji = "❤️"

// ValidTargetType reports whether s names a reactable record kind.
func ValidTargetType(s string) bool {
	switch s {
	case TargetTypeRanking, TargetTypeComment, TargetTypeRankingItem:
		return true
	}
	return false
}

// ReactionSummary is one row of the grouped reaction listing.
type ReactionSummary struct {
	Emoji       string `json:"emoji"`
	Count       int64  `json:"count"`
	UserReacted bool   `json:"user_reacted"`
}
