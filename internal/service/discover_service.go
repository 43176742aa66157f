package service

import (
	"fmt"
	"time"

	"ranklist/internal/model"
	"ranklist/internal/repository"
)

type DiscoverService interface {
	Featured(limit int) ([]*model.Ranking, error)
	Trending(timeFilter string, limit int) ([]*model.Ranking, error)
}

type discoverService struct {
	rankingRepo repository.RankingRepository
	now         func() time.Time
}

// NewDiscoverService builds the discover (featured/trending) service. The
// clock is injected so scoring is deterministic under test.
func NewDiscoverService(rankingRepo repository.RankingRepository, now func() time.Time) DiscoverService {
	if now == nil {
		now = time.Now
	}
	return &discoverService{
		rankingRepo: rankingRepo,
		now:         now,
	}
}

// Featured returns public rankings from the trailing 30 days ordered by the
// fixed tie-break chain: likes, comments, views, then recency. No score is
// computed; the ordering runs in the datastore over the whole window.
func (s *discoverService) Featured(limit int) ([]*model.Ranking, error) {
	since := s.now().Add(-FeaturedWindow)
	rankings, err := s.rankingRepo.FindFeatured(since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load featured rankings: %w", err)
	}
	return rankings, nil
}

// Trending pulls the candidate window (twice the requested page, newest
// first) and ranks it in memory by trending score.
func (s *discoverService) Trending(timeFilter string, limit int) ([]*model.Ranking, error) {
	now := s.now()
	cutoff := TrendingCutoff(timeFilter, now)

	candidates, err := s.rankingRepo.FindPublicSince(cutoff, limit*2)
	if err != nil {
		return nil, fmt.Errorf("failed to load trending candidates: %w", err)
	}

	return SelectTrending(candidates, now, limit), nil
}
