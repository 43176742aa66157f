package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"ranklist/internal/model"
	"ranklist/internal/util"

	"gorm.io/gorm"
)

type RankingRepository interface {
	Create(ranking *model.Ranking) error
	FindByID(id string) (*model.Ranking, error)
	FindPublicByID(id string) (*model.Ranking, error)
	FindPublic(page, limit int, categorySlug, search string) ([]*model.Ranking, int64, error)
	FindPublicSince(since time.Time, limit int) ([]*model.Ranking, error)
	FindFeatured(since time.Time, limit int) ([]*model.Ranking, error)
	IncrementViewCount(id string) error
	Exists(id string) (bool, error)
	ItemExists(id string) (bool, error)
}

type rankingRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	rankingCachePrefix     = "ranking:"
	rankingListCachePrefix = "ranking:list:"
	rankingCacheExpiration = 15 * time.Minute
)

// invalidateRankingCaches drops the cached detail and listing entries for a
// ranking. Shared with the reaction and comment repositories, whose writes
// change the counters embedded in those cache bodies.
func invalidateRankingCaches(redis *util.RedisClient, rankingID string) {
	if redis == nil {
		return
	}
	redis.Delete(rankingCachePrefix + rankingID)
	redis.DeletePattern(rankingListCachePrefix + "*")
}

func NewRankingRepository(db *gorm.DB, redis *util.RedisClient) RankingRepository {
	return &rankingRepository{
		db:    db,
		redis: redis,
	}
}

// Create creates a new ranking with its items and invalidates listing caches
func (r *rankingRepository) Create(ranking *model.Ranking) error {
	if err := r.db.Create(ranking).Error; err != nil {
		return err
	}

	// Invalidate caches
	if r.redis != nil {
		r.redis.DeletePattern(rankingListCachePrefix + "*")
	}

	return nil
}

// FindByID finds a ranking by ID regardless of visibility
func (r *rankingRepository) FindByID(id string) (*model.Ranking, error) {
	var ranking model.Ranking
	err := r.preloadAll(r.db).Where("id = ?", id).First(&ranking).Error
	if err != nil {
		return nil, err
	}
	return &ranking, nil
}

// FindPublicByID finds a public ranking by ID
func (r *rankingRepository) FindPublicByID(id string) (*model.Ranking, error) {
	// Try cache first
	if r.redis != nil {
		cached, err := r.getFromCache(rankingCachePrefix + id)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	var ranking model.Ranking
	err := r.preloadAll(r.db).Where("id = ? AND is_public = ?", id, true).First(&ranking).Error
	if err != nil {
		return nil, err
	}

	// Cache the result
	if r.redis != nil {
		r.cacheRanking(&ranking)
	}

	return &ranking, nil
}

// FindPublic lists public rankings newest-first with optional category slug
// filter and case-insensitive title/description search, paginated.
func (r *rankingRepository) FindPublic(page, limit int, categorySlug, search string) ([]*model.Ranking, int64, error) {
	// Try cache first
	cacheKey := fmt.Sprintf("%s%d:%d:%s:%s", rankingListCachePrefix, page, limit, categorySlug, search)
	if r.redis != nil && search == "" {
		cached, err := r.getListFromCache(cacheKey)
		if err == nil && cached != nil {
			total, err := r.countPublic(categorySlug, search)
			if err == nil {
				return cached, total, nil
			}
		}
	}

	query := r.db.Model(&model.Ranking{}).Where("rankings.is_public = ?", true)
	query = r.applyFilters(query, categorySlug, search)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rankings []*model.Ranking
	err := r.preloadAll(query).
		Order("rankings.created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&rankings).Error
	if err != nil {
		return nil, 0, err
	}

	// Cache the result
	if r.redis != nil && search == "" {
		r.cacheList(cacheKey, rankings)
	}

	return rankings, total, nil
}

// FindPublicSince returns the trending candidate set: public rankings created
// at or after the cutoff, newest-first. Scoring happens in the service.
func (r *rankingRepository) FindPublicSince(since time.Time, limit int) ([]*model.Ranking, error) {
	var rankings []*model.Ranking
	query := r.db.Where("is_public = ?", true)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	err := r.preloadAll(query).
		Order("created_at DESC").
		Limit(limit).
		Find(&rankings).Error
	if err != nil {
		return nil, err
	}
	return rankings, nil
}

// FindFeatured returns public rankings created at or after the cutoff,
// ordered by the fixed engagement tie-break chain.
func (r *rankingRepository) FindFeatured(since time.Time, limit int) ([]*model.Ranking, error) {
	var rankings []*model.Ranking
	err := r.preloadAll(r.db.Where("is_public = ? AND created_at >= ?", true, since)).
		Order("like_count DESC, comment_count DESC, view_count DESC, created_at DESC").
		Limit(limit).
		Find(&rankings).Error
	if err != nil {
		return nil, err
	}
	return rankings, nil
}

// IncrementViewCount bumps the view counter. A plain column update; views
// carry no business logic.
func (r *rankingRepository) IncrementViewCount(id string) error {
	err := r.db.Model(&model.Ranking{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
	if err != nil {
		return err
	}

	if r.redis != nil {
		r.redis.Delete(rankingCachePrefix + id)
	}

	return nil
}

// Exists checks whether a ranking with the ID exists
func (r *rankingRepository) Exists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Ranking{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ItemExists checks whether a ranking item with the ID exists
func (r *rankingRepository) ItemExists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&model.RankingItem{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *rankingRepository) preloadAll(db *gorm.DB) *gorm.DB {
	return db.Preload("User").
		Preload("Category").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (r *rankingRepository) applyFilters(query *gorm.DB, categorySlug, search string) *gorm.DB {
	if categorySlug != "" {
		query = query.Joins("JOIN categories ON categories.id = rankings.category_id").
			Where("categories.slug = ?", categorySlug)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("rankings.title ILIKE ? OR rankings.description ILIKE ?", like, like)
	}
	return query
}

func (r *rankingRepository) countPublic(categorySlug, search string) (int64, error) {
	query := r.db.Model(&model.Ranking{}).Where("rankings.is_public = ?", true)
	query = r.applyFilters(query, categorySlug, search)
	var total int64
	err := query.Count(&total).Error
	return total, err
}

// Cache helpers
func (r *rankingRepository) cacheRanking(ranking *model.Ranking) {
	if r.redis == nil {
		return
	}

	rankingJSON, err := json.Marshal(ranking)
	if err != nil {
		return
	}

	r.redis.Set(rankingCachePrefix+ranking.ID, string(rankingJSON), rankingCacheExpiration)
}

func (r *rankingRepository) getFromCache(key string) (*model.Ranking, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("redis not available")
	}

	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var ranking model.Ranking
	if err := json.Unmarshal([]byte(cached), &ranking); err != nil {
		return nil, err
	}

	return &ranking, nil
}

func (r *rankingRepository) cacheList(key string, rankings []*model.Ranking) {
	if r.redis == nil {
		return
	}

	rankingsJSON, err := json.Marshal(rankings)
	if err != nil {
		return
	}

	r.redis.Set(key, string(rankingsJSON), rankingCacheExpiration)
}

func (r *rankingRepository) getListFromCache(key string) ([]*model.Ranking, error) {
	if r.redis == nil {
		return nil, fmt.Errorf("redis not available")
	}

	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var rankings []*model.Ranking
	if err := json.Unmarshal([]byte(cached), &rankings); err != nil {
		return nil, err
	}

	return rankings, nil
}
