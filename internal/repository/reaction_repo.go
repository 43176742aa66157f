package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"ranklist/internal/model"
	"ranklist/internal/util"

	"gorm.io/gorm"
)

type ReactionRepository interface {
	Toggle(userID, targetType, targetID, emoji string) (bool, error)
	FindByKey(userID, targetType, targetID, emoji string) (*model.Reaction, error)
	SummarizeByTarget(targetType, targetID string) ([]model.ReactionSummary, error)
	FindUserEmojis(userID, targetType, targetID string) (map[string]bool, error)
	CountByTargets(targetType string, targetIDs []string, emoji string) (map[string]int64, error)
	CountByTarget(targetType, targetID, emoji string) (int64, error)
}

type reactionRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	reactionSummaryCachePrefix = "reaction:summary:"
	reactionCacheExpiration    = 10 * time.Minute
)

func NewReactionRepository(db *gorm.DB, redis *util.RedisClient) ReactionRepository {
	return &reactionRepository{
		db:    db,
		redis: redis,
	}
}

// Toggle inserts or removes the reaction keyed by (user, target type, target
// id, emoji) and keeps the target's cached like counter in step. The lookup,
// the row mutation and the counter adjustment run in a single transaction so
// concurrent toggles on the same key cannot drift the counter; the unique
// index on the key is the backstop for the lost-update window.
// Returns true when the reaction now exists, false when it was removed.
func (r *reactionRepository) Toggle(userID, targetType, targetID, emoji string) (bool, error) {
	var reacted bool

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Reaction
		err := tx.Where("user_id = ? AND target_type = ? AND target_id = ? AND emoji = ?",
			userID, targetType, targetID, emoji).First(&existing).Error

		switch {
		case err == nil:
			// Remove reaction. A concurrent toggle-off can win the delete
			// between our lookup and here; only the delete that actually
			// removed the row may decrement the counter.
			res := tx.Delete(&existing)
			if res.Error != nil {
				return res.Error
			}
			reacted = false
			if res.RowsAffected == 0 {
				return nil
			}
			return adjustLikeCounter(tx, targetType, targetID, emoji, -1)

		case err == gorm.ErrRecordNotFound:
			// Add reaction
			reaction := &model.Reaction{
				UserID:     userID,
				TargetType: targetType,
				TargetID:   targetID,
				Emoji:      emoji,
			}
			if err := tx.Create(reaction).Error; err != nil {
				return err
			}
			if err := adjustLikeCounter(tx, targetType, targetID, emoji, 1); err != nil {
				return err
			}
			reacted = true
			return nil

		default:
			return err
		}
	})
	if err != nil {
		return false, err
	}

	// Invalidate caches
	if r.redis != nil {
		r.invalidateSummaryCache(targetType, targetID)
		if targetType == model.TargetTypeRanking {
			invalidateRankingCaches(r.redis, targetID)
		}
	}

	return reacted, nil
}

// adjustLikeCounter bumps the cached like counter on the parent record.
// Only the like emoji maintains a counter, and ranking items carry none.
func adjustLikeCounter(tx *gorm.DB, targetType, targetID, emoji string, delta int64) error {
	if emoji != model.LikeEmoji {
		return nil
	}

	switch targetType {
	case model.TargetTypeRanking:
		return tx.Model(&model.Ranking{}).
			Where("id = ?", targetID).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
	case model.TargetTypeComment:
		return tx.Model(&model.Comment{}).
			Where("id = ?", targetID).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
	}
	return nil
}

// FindByKey finds a reaction by its idempotency key
func (r *reactionRepository) FindByKey(userID, targetType, targetID, emoji string) (*model.Reaction, error) {
	var reaction model.Reaction
	err := r.db.Where("user_id = ? AND target_type = ? AND target_id = ? AND emoji = ?",
		userID, targetType, targetID, emoji).First(&reaction).Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

// SummarizeByTarget groups all reactions on a target by emoji. Counts come
// straight from the rows, never from a cached column.
func (r *reactionRepository) SummarizeByTarget(targetType, targetID string) ([]model.ReactionSummary, error) {
	// Try cache first
	cacheKey := fmt.Sprintf("%s%s:%s", reactionSummaryCachePrefix, targetType, targetID)
	if r.redis != nil {
		cached, err := r.getSummaryFromCache(cacheKey)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var rows []model.ReactionSummary
	err := r.db.Model(&model.Reaction{}).
		Select("emoji, count(*) as count").
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Group("emoji").
		Order("count DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	// Cache the result
	if r.redis != nil {
		r.cacheSummary(cacheKey, rows)
	}

	return rows, nil
}

// FindUserEmojis returns the set of emojis the user has put on a target
func (r *reactionRepository) FindUserEmojis(userID, targetType, targetID string) (map[string]bool, error) {
	var reactions []model.Reaction
	err := r.db.Select("emoji").
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}

	m := make(map[string]bool)
	for _, reaction := range reactions {
		m[reaction.Emoji] = true
	}
	return m, nil
}

// CountByTargets counts reactions with one emoji for multiple targets in one query
func (r *reactionRepository) CountByTargets(targetType string, targetIDs []string, emoji string) (map[string]int64, error) {
	if len(targetIDs) == 0 {
		return map[string]int64{}, nil
	}

	var results []struct {
		TargetID string
		Count    int64
	}
	err := r.db.Model(&model.Reaction{}).
		Select("target_id, count(*) as count").
		Where("target_type = ? AND target_id IN ? AND emoji = ?", targetType, targetIDs, emoji).
		Group("target_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	m := make(map[string]int64)
	for _, row := range results {
		m[row.TargetID] = row.Count
	}
	// Ensure all IDs have an entry (0 if not found)
	for _, id := range targetIDs {
		if _, ok := m[id]; !ok {
			m[id] = 0
		}
	}
	return m, nil
}

// CountByTarget counts reactions with one emoji on a single target
func (r *reactionRepository) CountByTarget(targetType, targetID, emoji string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Reaction{}).
		Where("target_type = ? AND target_id = ? AND emoji = ?", targetType, targetID, emoji).
		Count(&count).Error
	return count, err
}

// Cache helpers
func (r *reactionRepository) cacheSummary(key string, rows []model.ReactionSummary) {
	if r.redis == nil {
		return
	}

	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return
	}

	r.redis.Set(key, string(rowsJSON), reactionCacheExpiration)
}

func (r *reactionRepository) getSummaryFromCache(key string) ([]model.ReactionSummary, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("redis not available")
	}

	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var rows []model.ReactionSummary
	if err := json.Unmarshal([]byte(cached), &rows); err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *reactionRepository) invalidateSummaryCache(targetType, targetID string) {
	if r.redis == nil {
		return
	}
	r.redis.Delete(fmt.Sprintf("%s%s:%s", reactionSummaryCachePrefix, targetType, targetID))
}
