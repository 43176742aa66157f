package service

import (
	"fmt"
	"strings"

	"ranklist/internal/model"
	"ranklist/internal/repository"
)

type CommentService interface {
	CreateComment(userID, rankingID string, req CreateCommentRequest) (*model.Comment, error)
	ListByRanking(rankingID string) ([]*model.Comment, error)
	DeleteComment(userID, commentID string) error
}

type commentService struct {
	commentRepo  repository.CommentRepository
	rankingRepo  repository.RankingRepository
	reactionRepo repository.ReactionRepository
	events       EventPublisher
}

type CreateCommentRequest struct {
	Content  string  `json:"content" binding:"required"`
	ParentID *string `json:"parent_id,omitempty"` // For replies
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	rankingRepo repository.RankingRepository,
	reactionRepo repository.ReactionRepository,
	events EventPublisher,
) CommentService {
	return &commentService{
		commentRepo:  commentRepo,
		rankingRepo:  rankingRepo,
		reactionRepo: reactionRepo,
		events:       events,
	}
}

// CreateComment posts a comment or reply on a ranking. The insert and the
// comment counter bump happen in one transaction inside the repository.
func (s *commentService) CreateComment(userID, rankingID string, req CreateCommentRequest) (*model.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidArgument)
	}

	ranking, err := s.rankingRepo.FindByID(rankingID)
	if err != nil {
		return nil, fmt.Errorf("%w: ranking %s", ErrNotFound, rankingID)
	}
	if !ranking.AllowComments {
		return nil, fmt.Errorf("%w: comments are disabled for this ranking", ErrForbidden)
	}

	// If this is a reply, the parent must exist on the same ranking
	if req.ParentID != nil && *req.ParentID != "" {
		parent, err := s.commentRepo.FindByID(*req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("%w: parent comment %s", ErrNotFound, *req.ParentID)
		}
		if parent.RankingID != rankingID {
			return nil, fmt.Errorf("%w: parent comment belongs to a different ranking", ErrInvalidArgument)
		}
	} else {
		req.ParentID = nil
	}

	comment := &model.Comment{
		RankingID: rankingID,
		UserID:    userID,
		ParentID:  req.ParentID,
		Content:   content,
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	// Reload with the author attached
	created, err := s.commentRepo.FindByID(comment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created comment: %w", err)
	}

	if s.events != nil {
		s.events.PublishCommentCreated(rankingID, created.ID, userID)
	}

	return created, nil
}

// ListByRanking returns the comment tree: non-deleted top-level comments
// newest-first, replies oldest-first. Like counts on every node, replies
// included, are true aggregates over the reactions table.
func (s *commentService) ListByRanking(rankingID string) ([]*model.Comment, error) {
	exists, err := s.rankingRepo.Exists(rankingID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ranking: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: ranking %s", ErrNotFound, rankingID)
	}

	comments, err := s.commentRepo.FindTreeByRankingID(rankingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	if err := s.attachLikeCounts(comments); err != nil {
		return nil, err
	}

	return comments, nil
}

// attachLikeCounts overwrites cached like counters on the tree with live
// aggregates, one grouped query for the whole tree.
func (s *commentService) attachLikeCounts(comments []*model.Comment) error {
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
		for i := range c.Replies {
			ids = append(ids, c.Replies[i].ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	counts, err := s.reactionRepo.CountByTargets(model.TargetTypeComment, ids, model.LikeEmoji)
	if err != nil {
		return fmt.Errorf("failed to count comment likes: %w", err)
	}

	for _, c := range comments {
		c.LikeCount = counts[c.ID]
		for i := range c.Replies {
			c.Replies[i].LikeCount = counts[c.Replies[i].ID]
		}
	}
	return nil
}

// DeleteComment soft-deletes the author's own comment and decrements the
// ranking's comment counter in the same transaction.
func (s *commentService) DeleteComment(userID, commentID string) error {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		return fmt.Errorf("%w: comment %s", ErrNotFound, commentID)
	}

	if comment.UserID != userID {
		return fmt.Errorf("%w: you can only delete your own comments", ErrForbidden)
	}

	if err := s.commentRepo.SoftDelete(comment); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}
