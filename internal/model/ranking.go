package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Ranking struct {
	ID            string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID        string    `gorm:"type:uuid;not null;index;references:users(id)" json:"user_id"`
	CategoryID    string    `gorm:"type:uuid;not null;index;references:categories(id)" json:"category_id"`
	Title         string    `gorm:"type:varchar(200);not null" json:"title"`
	Description   *string   `gorm:"type:text" json:"description,omitempty"`
	IsPublic      bool      `gorm:"not null" json:"is_public"`
	AllowComments bool      `gorm:"not null" json:"allow_comments"`
	LikeCount     int64     `gorm:"not null;default:0" json:"like_count"`    // Cached; source of truth is the reactions table
	CommentCount  int64     `gorm:"not null;default:0" json:"comment_count"` // Cached; source of truth is the comments table
	ViewCount     int64     `gorm:"not null;default:0" json:"view_count"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	User     User          `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Category Category      `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	Items    []RankingItem `gorm:"foreignKey:RankingID;references:ID" json:"items,omitempty"`
}

// BeforeCreate hook to generate UUID
func (r *Ranking) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Ranking) TableName() string {
	return "rankings"
}

// RankingItem is one entry of a ranked list. Positions are 1-based and
// assigned from request order; contiguity is the caller's responsibility.
type RankingItem struct {
	ID          string    `gorm:"type:uuid;primary_key" json:"id"`
	RankingID   string    `gorm:"type:uuid;not null;index;references:rankings(id)" json:"ranking_id"`
	Position    int       `gorm:"not null" json:"position"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	ImageURL    *string   `gorm:"type:text" json:"image_url,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeCreate hook to generate UUID
func (i *RankingItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (RankingItem) TableName() string {
	return "ranking_items"
}
