package service

import (
	"fmt"
	"testing"
	"unicode/utf8"

	"ranklist/internal/model"
	"ranklist/internal/repository"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newRankingService(t *testing.T) (RankingService, *gorm.DB, *model.User) {
	db := setupTestDB(t)
	user := seedUser(t, db, "dave")

	svc := NewRankingService(
		repository.NewRankingRepository(db, nil),
		repository.NewCategoryRepository(db),
		repository.NewUserRepository(db),
	)
	return svc, db, user
}

// racingCategoryRepo slips a conflicting row in ahead of every create,
// emulating a concurrent request winning the insert.
type racingCategoryRepo struct {
	repository.CategoryRepository
	db    *gorm.DB
	rival *model.Category
}

func (r *racingCategoryRepo) Create(category *model.Category) error {
	if r.rival == nil {
		r.rival = &model.Category{Name: category.Name, Slug: category.Slug}
		if err := r.db.Create(r.rival).Error; err != nil {
			return err
		}
	}
	return r.CategoryRepository.Create(category)
}

func TestCreateRanking(t *testing.T) {
	t.Run("assigns 1-based positions in request order", func(t *testing.T) {
		svc, _, user := newRankingService(t)

		ranking, err := svc.CreateRanking(user.ID, CreateRankingRequest{
			Title: "Top 3 breakfasts",
			Items: []CreateRankingItem{
				{Title: "Pancakes"},
				{Title: "Waffles"},
				{Title: "Toast"},
			},
		})
		assert.NoError(t, err)
		assert.Len(t, ranking.Items, 3)
		for i, item := range ranking.Items {
			assert.Equal(t, i+1, item.Position)
		}
		assert.Equal(t, "Pancakes", ranking.Items[0].Title)
		assert.True(t, ranking.IsPublic)
		assert.True(t, ranking.AllowComments)
	})

	t.Run("creates the category on first use and reuses it after", func(t *testing.T) {
		svc, db, user := newRankingService(t)

		req := CreateRankingRequest{
			Title:    "Top 1",
			Category: "anime",
			Items:    []CreateRankingItem{{Title: "Only"}},
		}
		first, err := svc.CreateRanking(user.ID, req)
		assert.NoError(t, err)
		assert.Equal(t, "anime", first.Category.Slug)

		second, err := svc.CreateRanking(user.ID, req)
		assert.NoError(t, err)
		assert.Equal(t, first.CategoryID, second.CategoryID)

		var count int64
		db.Model(&model.Category{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("multibyte category names capitalize cleanly", func(t *testing.T) {
		svc, _, user := newRankingService(t)

		ranking, err := svc.CreateRanking(user.ID, CreateRankingRequest{
			Title:    "Top pastries",
			Category: "éclairs",
			Items:    []CreateRankingItem{{Title: "One"}},
		})
		assert.NoError(t, err)
		assert.Equal(t, "éclairs", ranking.Category.Slug)
		assert.Equal(t, "Éclairs", ranking.Category.Name)
		assert.True(t, utf8.ValidString(ranking.Category.Name))
	})

	t.Run("category created by a rival request is reused, not an error", func(t *testing.T) {
		db := setupTestDB(t)
		user := seedUser(t, db, "dave")

		// The rival insert lands between the slug lookup miss and our
		// insert, so the create hits the unique index.
		categoryRepo := &racingCategoryRepo{
			CategoryRepository: repository.NewCategoryRepository(db),
			db:                 db,
		}
		svc := NewRankingService(
			repository.NewRankingRepository(db, nil),
			categoryRepo,
			repository.NewUserRepository(db),
		)

		ranking, err := svc.CreateRanking(user.ID, CreateRankingRequest{
			Title:    "Raced",
			Category: "games",
			Items:    []CreateRankingItem{{Title: "One"}},
		})
		assert.NoError(t, err)
		assert.NotNil(t, categoryRepo.rival)
		assert.Equal(t, categoryRepo.rival.ID, ranking.CategoryID)

		var count int64
		db.Model(&model.Category{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("blank category falls back to the default bucket", func(t *testing.T) {
		svc, _, user := newRankingService(t)

		ranking, err := svc.CreateRanking(user.ID, CreateRankingRequest{
			Title: "Uncategorized",
			Items: []CreateRankingItem{{Title: "One"}},
		})
		assert.NoError(t, err)
		assert.Equal(t, model.DefaultCategorySlug, ranking.Category.Slug)
	})

	t.Run("explicit visibility flags stick", func(t *testing.T) {
		svc, _, user := newRankingService(t)

		no := false
		ranking, err := svc.CreateRanking(user.ID, CreateRankingRequest{
			Title:         "Private list",
			IsPublic:      &no,
			AllowComments: &no,
			Items:         []CreateRankingItem{{Title: "One"}},
		})
		assert.NoError(t, err)
		assert.False(t, ranking.IsPublic)
		assert.False(t, ranking.AllowComments)
	})

	t.Run("unknown author", func(t *testing.T) {
		svc, _, _ := newRankingService(t)

		_, err := svc.CreateRanking("00000000-0000-0000-0000-000000000000", CreateRankingRequest{
			Title: "Orphan",
			Items: []CreateRankingItem{{Title: "One"}},
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("requires a title and at least one item", func(t *testing.T) {
		svc, _, user := newRankingService(t)

		_, err := svc.CreateRanking(user.ID, CreateRankingRequest{Title: "  ", Items: []CreateRankingItem{{Title: "One"}}})
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = svc.CreateRanking(user.ID, CreateRankingRequest{Title: "Empty"})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestGetRanking(t *testing.T) {
	t.Run("returns the ranking and counts the view", func(t *testing.T) {
		svc, db, user := newRankingService(t)

		created, err := svc.CreateRanking(user.ID, CreateRankingRequest{
			Title: "Viewed",
			Items: []CreateRankingItem{{Title: "One"}},
		})
		assert.NoError(t, err)

		got, err := svc.GetRanking(created.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), got.ViewCount)

		_, err = svc.GetRanking(created.ID)
		assert.NoError(t, err)

		var row model.Ranking
		assert.NoError(t, db.First(&row, "id = ?", created.ID).Error)
		assert.Equal(t, int64(2), row.ViewCount)
	})

	t.Run("private rankings are not found", func(t *testing.T) {
		svc, _, user := newRankingService(t)

		no := false
		created, err := svc.CreateRanking(user.ID, CreateRankingRequest{
			Title:    "Hidden",
			IsPublic: &no,
			Items:    []CreateRankingItem{{Title: "One"}},
		})
		assert.NoError(t, err)

		_, err = svc.GetRanking(created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListRankings(t *testing.T) {
	t.Run("paginates public rankings", func(t *testing.T) {
		svc, _, user := newRankingService(t)

		for i := 0; i < 5; i++ {
			_, err := svc.CreateRanking(user.ID, CreateRankingRequest{
				Title: fmt.Sprintf("List %d", i),
				Items: []CreateRankingItem{{Title: "One"}},
			})
			assert.NoError(t, err)
		}

		rankings, pagination, err := svc.ListRankings(1, 2, "", "")
		assert.NoError(t, err)
		assert.Len(t, rankings, 2)
		assert.Equal(t, int64(5), pagination.Total)
		assert.Equal(t, int64(3), pagination.Pages)

		rankings, _, err = svc.ListRankings(3, 2, "", "")
		assert.NoError(t, err)
		assert.Len(t, rankings, 1)
	})

	t.Run("filters by category slug", func(t *testing.T) {
		svc, _, user := newRankingService(t)

		_, err := svc.CreateRanking(user.ID, CreateRankingRequest{
			Title:    "Games list",
			Category: "games",
			Items:    []CreateRankingItem{{Title: "One"}},
		})
		assert.NoError(t, err)
		_, err = svc.CreateRanking(user.ID, CreateRankingRequest{
			Title:    "Food list",
			Category: "food",
			Items:    []CreateRankingItem{{Title: "One"}},
		})
		assert.NoError(t, err)

		rankings, pagination, err := svc.ListRankings(1, 10, "games", "")
		assert.NoError(t, err)
		assert.Len(t, rankings, 1)
		assert.Equal(t, "Games list", rankings[0].Title)
		assert.Equal(t, int64(1), pagination.Total)
	})

	t.Run("hides private rankings", func(t *testing.T) {
		svc, _, user := newRankingService(t)

		no := false
		_, err := svc.CreateRanking(user.ID, CreateRankingRequest{
			Title:    "Secret",
			IsPublic: &no,
			Items:    []CreateRankingItem{{Title: "One"}},
		})
		assert.NoError(t, err)

		rankings, pagination, err := svc.ListRankings(1, 10, "", "")
		assert.NoError(t, err)
		assert.Empty(t, rankings)
		assert.Equal(t, int64(0), pagination.Total)
	})

	t.Run("clamps out-of-range paging values", func(t *testing.T) {
		svc, _, _ := newRankingService(t)

		_, pagination, err := svc.ListRankings(0, -5, "", "")
		assert.NoError(t, err)
		assert.Equal(t, 1, pagination.Page)
		assert.Equal(t, 10, pagination.Limit)
	})
}
