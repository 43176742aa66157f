package service

import (
	"testing"
	"time"

	"ranklist/internal/model"
	"ranklist/internal/repository"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type discoverFixture struct {
	db       *gorm.DB
	discover DiscoverService
	user     *model.User
	category *model.Category
	now      time.Time
}

func newDiscoverFixture(t *testing.T) *discoverFixture {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	return &discoverFixture{
		db:       db,
		discover: NewDiscoverService(repository.NewRankingRepository(db, nil), func() time.Time { return now }),
		user:     seedUser(t, db, "carol"),
		category: seedCategory(t, db, "movies"),
		now:      now,
	}
}

func (f *discoverFixture) seed(t *testing.T, title string, age time.Duration, likes, comments, views int64, public bool) *model.Ranking {
	ranking := &model.Ranking{
		UserID:        f.user.ID,
		CategoryID:    f.category.ID,
		Title:         title,
		IsPublic:      public,
		AllowComments: true,
		LikeCount:     likes,
		CommentCount:  comments,
		ViewCount:     views,
		CreatedAt:     f.now.Add(-age),
	}
	if err := f.db.Create(ranking).Error; err != nil {
		t.Fatalf("Failed to seed ranking: %v", err)
	}
	return ranking
}

func titles(rankings []*model.Ranking) []string {
	out := make([]string, len(rankings))
	for i, r := range rankings {
		out[i] = r.Title
	}
	return out
}

func TestFeatured(t *testing.T) {
	t.Run("orders by likes then comments then views then recency", func(t *testing.T) {
		f := newDiscoverFixture(t)

		f.seed(t, "most liked", 24*time.Hour, 10, 0, 0, true)
		f.seed(t, "tied likes more comments", 24*time.Hour, 5, 8, 0, true)
		f.seed(t, "tied likes fewer comments", 24*time.Hour, 5, 2, 100, true)

		got, err := f.discover.Featured(6)
		assert.NoError(t, err)
		assert.Equal(t, []string{"most liked", "tied likes more comments", "tied likes fewer comments"}, titles(got))
	})

	t.Run("excludes rankings older than thirty days and private ones", func(t *testing.T) {
		f := newDiscoverFixture(t)

		f.seed(t, "recent", 5*24*time.Hour, 1, 0, 0, true)
		f.seed(t, "too old", 40*24*time.Hour, 100, 100, 100, true)
		f.seed(t, "private", 24*time.Hour, 100, 100, 100, false)

		got, err := f.discover.Featured(6)
		assert.NoError(t, err)
		assert.Equal(t, []string{"recent"}, titles(got))
	})

	t.Run("respects the limit", func(t *testing.T) {
		f := newDiscoverFixture(t)

		for i := int64(0); i < 8; i++ {
			f.seed(t, "r", 24*time.Hour, i, 0, 0, true)
		}

		got, err := f.discover.Featured(6)
		assert.NoError(t, err)
		assert.Len(t, got, 6)
	})
}

func TestTrending(t *testing.T) {
	t.Run("orders by decayed engagement, not raw totals", func(t *testing.T) {
		f := newDiscoverFixture(t)

		// The old ranking has more raw engagement but decays to the floor;
		// the fresh one keeps nearly all of its score.
		f.seed(t, "old heavyweight", 300*time.Hour, 50, 0, 0, true)
		f.seed(t, "fresh contender", 2*time.Hour, 20, 0, 0, true)

		got, err := f.discover.Trending(TimeFilterAll, 10)
		assert.NoError(t, err)
		assert.Equal(t, []string{"fresh contender", "old heavyweight"}, titles(got))
	})

	t.Run("time filter bounds the candidate window", func(t *testing.T) {
		f := newDiscoverFixture(t)

		f.seed(t, "this week", 2*24*time.Hour, 1, 0, 0, true)
		f.seed(t, "last month", 20*24*time.Hour, 100, 0, 0, true)

		got, err := f.discover.Trending(TimeFilterWeek, 10)
		assert.NoError(t, err)
		assert.Equal(t, []string{"this week"}, titles(got))

		got, err = f.discover.Trending(TimeFilterMonth, 10)
		assert.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("unknown filter falls back to all time", func(t *testing.T) {
		f := newDiscoverFixture(t)

		f.seed(t, "ancient", 400*24*time.Hour, 1, 0, 0, true)

		got, err := f.discover.Trending("fortnight", 10)
		assert.NoError(t, err)
		assert.Equal(t, []string{"ancient"}, titles(got))
	})

	t.Run("private rankings never trend", func(t *testing.T) {
		f := newDiscoverFixture(t)

		f.seed(t, "hidden", time.Hour, 100, 100, 100, false)

		got, err := f.discover.Trending(TimeFilterAll, 10)
		assert.NoError(t, err)
		assert.Empty(t, got)
	})
}
