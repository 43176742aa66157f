package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"ranklist/internal/model"
	"ranklist/internal/repository"

	"gorm.io/gorm"
)

type RankingService interface {
	CreateRanking(userID string, req CreateRankingRequest) (*model.Ranking, error)
	GetRanking(id string) (*model.Ranking, error)
	ListRankings(page, limit int, categorySlug, search string) ([]*model.Ranking, *Pagination, error)
	ListCategories() ([]*model.Category, error)
}

type rankingService struct {
	rankingRepo  repository.RankingRepository
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
}

type CreateRankingRequest struct {
	Title         string              `json:"title" binding:"required,max=200"`
	Description   *string             `json:"description,omitempty"`
	Category      string              `json:"category,omitempty"`
	IsPublic      *bool               `json:"is_public,omitempty"`
	AllowComments *bool               `json:"allow_comments,omitempty"`
	Items         []CreateRankingItem `json:"items" binding:"required,min=1,dive"`
}

type CreateRankingItem struct {
	Title       string  `json:"title" binding:"required,max=200"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// Pagination is the listing metadata block.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func NewRankingService(
	rankingRepo repository.RankingRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
) RankingService {
	return &rankingService{
		rankingRepo:  rankingRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
	}
}

// CreateRanking creates a ranking with its items. Item positions are
// 1-based and follow request order.
func (s *rankingService) CreateRanking(userID string, req CreateRankingRequest) (*model.Ranking, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidArgument)
	}

	if _, err := s.userRepo.FindByID(userID); err != nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}

	category, err := s.getOrCreateCategory(req.Category)
	if err != nil {
		return nil, err
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	allowComments := true
	if req.AllowComments != nil {
		allowComments = *req.AllowComments
	}

	ranking := &model.Ranking{
		UserID:        userID,
		CategoryID:    category.ID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		IsPublic:      isPublic,
		AllowComments: allowComments,
		Items:         make([]model.RankingItem, len(req.Items)),
	}
	for i, item := range req.Items {
		ranking.Items[i] = model.RankingItem{
			Position:    i + 1,
			Title:       item.Title,
			Description: item.Description,
			ImageURL:    item.ImageURL,
		}
	}

	if err := s.rankingRepo.Create(ranking); err != nil {
		return nil, fmt.Errorf("failed to create ranking: %w", err)
	}

	return s.rankingRepo.FindByID(ranking.ID)
}

// GetRanking returns a public ranking and bumps its view counter.
func (s *rankingService) GetRanking(id string) (*model.Ranking, error) {
	ranking, err := s.rankingRepo.FindPublicByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: ranking %s", ErrNotFound, id)
	}

	if err := s.rankingRepo.IncrementViewCount(id); err != nil {
		return nil, fmt.Errorf("failed to record view: %w", err)
	}
	ranking.ViewCount++

	return ranking, nil
}

// ListRankings lists public rankings with optional category and search
// filters, newest-first, paginated.
func (s *rankingService) ListRankings(page, limit int, categorySlug, search string) ([]*model.Ranking, *Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	rankings, total, err := s.rankingRepo.FindPublic(page, limit, categorySlug, search)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list rankings: %w", err)
	}

	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}

	return rankings, &Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}, nil
}

// ListCategories lists all categories
func (s *rankingService) ListCategories() ([]*model.Category, error) {
	categories, err := s.categoryRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// getOrCreateCategory resolves the named category by slug, creating it on
// first use. Blank falls back to the default bucket.
func (s *rankingService) getOrCreateCategory(name string) (*model.Category, error) {
	name = strings.TrimSpace(name)

	slug := model.DefaultCategorySlug
	display := "Other"
	description := "Miscellaneous rankings"
	if name != "" {
		slug = strings.ToLower(name)
		r, size := utf8.DecodeRuneInString(name)
		display = strings.ToUpper(string(r)) + name[size:]
		description = fmt.Sprintf("Rankings about %s", name)
	}

	category, err := s.categoryRepo.FindBySlug(slug)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to resolve category: %w", err)
	}

	category = &model.Category{
		Name:        display,
		Slug:        slug,
		Description: &description,
	}
	if err := s.categoryRepo.Create(category); err != nil {
		// Lost a create race on the slug unique index; the winner's row
		// is the one to use.
		if existing, findErr := s.categoryRepo.FindBySlug(slug); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}
