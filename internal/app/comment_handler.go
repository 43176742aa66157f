package app

import (
	"net/http"

	"ranklist/internal/service"
	"ranklist/internal/util"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// Create handles posting a comment or reply on a ranking
// POST /api/v1/rankings/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	rankingID := c.Param("id")
	if rankingID == "" {
		util.BadRequest(c, "Ranking ID is required")
		return
	}

	var req service.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.CreateComment(userID.(string), rankingID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Comment created successfully", gin.H{"comment": comment})
}

// List handles getting the comment tree for a ranking
// GET /api/v1/rankings/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	rankingID := c.Param("id")
	if rankingID == "" {
		util.BadRequest(c, "Ranking ID is required")
		return
	}

	comments, err := h.commentService.ListByRanking(rankingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comments retrieved successfully", gin.H{"comments": comments})
}

// Delete handles soft-deleting the caller's own comment
// DELETE /api/v1/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	commentID := c.Param("id")
	if commentID == "" {
		util.BadRequest(c, "Comment ID is required")
		return
	}

	if err := h.commentService.DeleteComment(userID.(string), commentID); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comment deleted successfully", nil)
}
