package app

import (
	"net/http"

	"ranklist/internal/service"
	"ranklist/internal/util"

	"github.com/gin-gonic/gin"
)

type ReactionHandler struct {
	reactionService service.ReactionService
}

func NewReactionHandler(reactionService service.ReactionService) *ReactionHandler {
	return &ReactionHandler{
		reactionService: reactionService,
	}
}

// Toggle handles toggling a reaction on a target
// POST /api/v1/reactions
func (h *ReactionHandler) Toggle(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		TargetType string `json:"target_type" binding:"required"`
		TargetID   string `json:"target_id" binding:"required"`
		Emoji      string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	reacted, err := h.reactionService.Toggle(userID.(string), req.TargetType, req.TargetID, req.Emoji)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Reaction toggled successfully", gin.H{"reacted": reacted})
}

// List handles listing reactions for a target grouped by emoji
// GET /api/v1/reactions?target_type=ranking&target_id=xxx
func (h *ReactionHandler) List(c *gin.Context) {
	targetType := c.Query("target_type")
	targetID := c.Query("target_id")

	if targetType == "" || targetID == "" {
		util.BadRequest(c, "target_type and target_id are required")
		return
	}

	// Anonymous callers get counts without the user_reacted flags
	actingUserID := ""
	if userID, exists := c.Get("userID"); exists {
		actingUserID = userID.(string)
	}

	reactions, err := h.reactionService.ListReactions(targetType, targetID, actingUserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Reactions retrieved successfully", gin.H{"reactions": reactions})
}

// ToggleCommentLike handles the like shortcut on a comment
// POST /api/v1/comments/:id/like
func (h *ReactionHandler) ToggleCommentLike(c *gin.Context) {
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

	liked, err := h.reactionService.ToggleCommentLike(userID.(string), commentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comment like toggled successfully", gin.H{"liked": liked})
}
