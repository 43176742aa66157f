package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"ranklist/internal/model"
	"ranklist/internal/util"

	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(comment *model.Comment) error
	FindByID(id string) (*model.Comment, error)
	FindTreeByRankingID(rankingID string) ([]*model.Comment, error)
	SoftDelete(comment *model.Comment) error
	CountByRankingID(rankingID string) (int64, error)
	Exists(id string) (bool, error)
}

type commentRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	commentTreeCachePrefix = "comment:tree:"
	commentCacheExpiration = 15 * time.Minute
)

func NewCommentRepository(db *gorm.DB, redis *util.RedisClient) CommentRepository {
	return &commentRepository{
		db:    db,
		redis: redis,
	}
}

// Create inserts the comment and increments the ranking's cached comment
// counter in the same transaction, so the counter never drifts from the
// row count even when posts race.
func (r *commentRepository) Create(comment *model.Comment) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&model.Ranking{}).
			Where("id = ?", comment.RankingID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).Error
	})
	if err != nil {
		return err
	}

	// Invalidate caches
	if r.redis != nil {
		r.invalidateTreeCache(comment.RankingID)
		invalidateRankingCaches(r.redis, comment.RankingID)
	}

	return nil
}

// FindByID finds a comment by ID (soft-deleted comments are not found)
func (r *commentRepository) FindByID(id string) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.Preload("User").Where("id = ?", id).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// FindTreeByRankingID returns non-deleted top-level comments newest-first,
// each carrying its non-deleted replies oldest-first. Like counts are
// attached by the service from the reactions table.
func (r *commentRepository) FindTreeByRankingID(rankingID string) ([]*model.Comment, error) {
	// Try cache first
	cacheKey := commentTreeCachePrefix + rankingID
	if r.redis != nil {
		cached, err := r.getTreeFromCache(cacheKey)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var comments []*model.Comment
	err := r.db.Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Replies.User").
		Where("ranking_id = ? AND parent_id IS NULL", rankingID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	// Cache the result
	if r.redis != nil {
		r.cacheTree(cacheKey, comments)
	}

	return comments, nil
}

// SoftDelete marks the comment deleted and decrements the ranking's cached
// comment counter in the same transaction.
func (r *commentRepository) SoftDelete(comment *model.Comment) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(comment).Error; err != nil {
			return err
		}
		return tx.Model(&model.Ranking{}).
			Where("id = ?", comment.RankingID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - ?", 1)).Error
	})
	if err != nil {
		return err
	}

	// Invalidate caches
	if r.redis != nil {
		r.invalidateTreeCache(comment.RankingID)
		invalidateRankingCaches(r.redis, comment.RankingID)
	}

	return nil
}

// CountByRankingID counts non-deleted comments for a ranking
func (r *commentRepository) CountByRankingID(rankingID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Comment{}).
		Where("ranking_id = ?", rankingID).
		Count(&count).Error
	return count, err
}

// Exists checks whether a non-deleted comment with the ID exists
func (r *commentRepository) Exists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Comment{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Cache helpers
func (r *commentRepository) cacheTree(key string, comments []*model.Comment) {
	if r.redis == nil {
		return
	}

	commentsJSON, err := json.Marshal(comments)
	if err != nil {
		return
	}

	r.redis.Set(key, string(commentsJSON), commentCacheExpiration)
}

func (r *commentRepository) getTreeFromCache(key string) ([]*model.Comment, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("redis not available")
	}

	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var comments []*model.Comment
	if err := json.Unmarshal([]byte(cached), &comments); err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *commentRepository) invalidateTreeCache(rankingID string) {
	if r.redis == nil {
		return
	}
	r.redis.Delete(commentTreeCachePrefix + rankingID)
}
