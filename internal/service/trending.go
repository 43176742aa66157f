package service

import (
	"sort"
	"time"

	"ranklist/internal/model"
)

// Trending scoring: engagement decayed by age, with a floor so old but
// heavily engaged rankings keep a score proportional to their engagement.
// The exact constants are part of the product behavior; do not tune them
// without re-baselining the discover pages.
const (
	trendingCommentWeight = 2.0
	trendingViewWeight    = 0.1
	trendingDecayHours    = 24 * 7
	trendingRecencyFloor  = 0.1
)

// Time filters for the trending window.
const (
	TimeFilterToday = "today"
	TimeFilterWeek  = "week"
	TimeFilterMonth = "month"
	TimeFilterAll   = "all"
)

// FeaturedWindow is how far back the featured selection looks.
const FeaturedWindow = 30 * 24 * time.Hour

// TrendingScore computes the transient score for one ranking at the given
// instant. Never persisted, never exposed to clients.
func TrendingScore(ranking *model.Ranking, now time.Time) float64 {
	engagement := float64(ranking.LikeCount) +
		trendingCommentWeight*float64(ranking.CommentCount) +
		trendingViewWeight*float64(ranking.ViewCount)

	ageHours := now.Sub(ranking.CreatedAt).Hours()
	recency := 1 - ageHours/trendingDecayHours
	if recency < trendingRecencyFloor {
		recency = trendingRecencyFloor
	}

	return engagement * recency
}

// SelectTrending orders candidates by trending score descending and returns
// the top limit. The sort is stable: candidates with equal scores keep their
// incoming order. Pure function of (candidates, now).
func SelectTrending(candidates []*model.Ranking, now time.Time, limit int) []*model.Ranking {
	scored := make([]*model.Ranking, len(candidates))
	copy(scored, candidates)

	scores := make(map[*model.Ranking]float64, len(scored))
	for _, r := range scored {
		scores[r] = TrendingScore(r, now)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scores[scored[i]] > scores[scored[j]]
	})

	if limit >= 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// TrendingCutoff translates a time filter into the candidate-window start.
// "today" means since local midnight; "all" and anything unrecognized mean
// unbounded and return the zero time.
func TrendingCutoff(filter string, now time.Time) time.Time {
	switch filter {
	case TimeFilterToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case TimeFilterWeek:
		return now.Add(-7 * 24 * time.Hour)
	case TimeFilterMonth:
		return now.Add(-30 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}
