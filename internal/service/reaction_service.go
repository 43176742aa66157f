package service

import (
	"fmt"
	"strings"

	"ranklist/internal/model"
	"ranklist/internal/repository"
)

type ReactionService interface {
	Toggle(userID, targetType, targetID, emoji string) (bool, error)
	ToggleCommentLike(userID, commentID string) (bool, error)
	ListReactions(targetType, targetID, actingUserID string) ([]model.ReactionSummary, error)
}

type reactionService struct {
	reactionRepo repository.ReactionRepository
	rankingRepo  repository.RankingRepository
	commentRepo  repository.CommentRepository
	events       EventPublisher
}

func NewReactionService(
	reactionRepo repository.ReactionRepository,
	rankingRepo repository.RankingRepository,
	commentRepo repository.CommentRepository,
	events EventPublisher,
) ReactionService {
	return &reactionService{
		reactionRepo: reactionRepo,
		rankingRepo:  rankingRepo,
		commentRepo:  commentRepo,
		events:       events,
	}
}

// Toggle records or removes the (user, target, emoji) reaction. Calling it
// twice with identical arguments returns to the original state.
func (s *reactionService) Toggle(userID, targetType, targetID, emoji string) (bool, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return false, fmt.Errorf("%w: emoji is required", ErrInvalidArgument)
	}
	if targetID == "" {
		return false, fmt.Errorf("%w: target id is required", ErrInvalidArgument)
	}
	if !model.ValidTargetType(targetType) {
		return false, fmt.Errorf("%w: %q", ErrInvalidTargetType, targetType)
	}

	rankingID, err := s.resolveTarget(targetType, targetID)
	if err != nil {
		return false, err
	}

	reacted, err := s.reactionRepo.Toggle(userID, targetType, targetID, emoji)
	if err != nil {
		return false, fmt.Errorf("failed to toggle reaction: %w", err)
	}

	if s.events != nil && rankingID != "" {
		s.events.PublishReactionToggled(rankingID, targetType, targetID, userID, emoji, reacted)
	}

	return reacted, nil
}

// ToggleCommentLike is the shortcut route for liking a comment.
func (s *reactionService) ToggleCommentLike(userID, commentID string) (bool, error) {
	return s.Toggle(userID, model.TargetTypeComment, commentID, model.LikeEmoji)
}

// ListReactions aggregates all reaction rows on a target by emoji. Counts
// come from the rows directly, never the cached counters. When an acting
// user is known, their own reactions are flagged.
func (s *reactionService) ListReactions(targetType, targetID, actingUserID string) ([]model.ReactionSummary, error) {
	if targetID == "" {
		return nil, fmt.Errorf("%w: target id is required", ErrInvalidArgument)
	}
	if !model.ValidTargetType(targetType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTargetType, targetType)
	}

	summaries, err := s.reactionRepo.SummarizeByTarget(targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}

	if actingUserID != "" {
		mine, err := s.reactionRepo.FindUserEmojis(actingUserID, targetType, targetID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user reactions: %w", err)
		}
		for i := range summaries {
			summaries[i].UserReacted = mine[summaries[i].Emoji]
		}
	}

	return summaries, nil
}

// resolveTarget checks the target row exists and reports the ranking the
// engagement belongs to ("" for ranking items, which have no counter and no
// live page to notify).
func (s *reactionService) resolveTarget(targetType, targetID string) (string, error) {
	switch targetType {
	case model.TargetTypeRanking:
		exists, err := s.rankingRepo.Exists(targetID)
		if err != nil {
			return "", fmt.Errorf("failed to resolve target: %w", err)
		}
		if !exists {
			return "", fmt.Errorf("%w: ranking %s", ErrNotFound, targetID)
		}
		return targetID, nil

	case model.TargetTypeComment:
		comment, err := s.commentRepo.FindByID(targetID)
		if err != nil {
			return "", fmt.Errorf("%w: comment %s", ErrNotFound, targetID)
		}
		return comment.RankingID, nil

	case model.TargetTypeRankingItem:
		exists, err := s.rankingRepo.ItemExists(targetID)
		if err != nil {
			return "", fmt.Errorf("failed to resolve target: %w", err)
		}
		if !exists {
			return "", fmt.Errorf("%w: ranking item %s", ErrNotFound, targetID)
		}
		return "", nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidTargetType, targetType)
}
