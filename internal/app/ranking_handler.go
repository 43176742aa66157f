package app

import (
	"errors"
	"net/http"
	"strconv"

	"ranklist/internal/service"
	"ranklist/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type RankingHandler struct {
	rankingService service.RankingService
}

func NewRankingHandler(rankingService service.RankingService) *RankingHandler {
	return &RankingHandler{
		rankingService: rankingService,
	}
}

// Create handles ranking creation
// POST /api/v1/rankings
func (h *RankingHandler) Create(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req service.CreateRankingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, rankingValidationMessage(err))
		return
	}

	ranking, err := h.rankingService.CreateRanking(userID.(string), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Ranking created successfully", gin.H{"ranking": ranking})
}

// rankingValidationMessage turns binding errors into user-friendly messages
func rankingValidationMessage(err error) string {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		for _, fieldErr := range validationErr {
			switch fieldErr.Field() {
			case "Title":
				if fieldErr.Tag() == "max" {
					return "Title must be at most 200 characters"
				}
				return "Title is required"
			case "Items":
				return "At least one item is required"
			}
		}
	}
	return err.Error()
}

// Get handles getting a public ranking by ID
// GET /api/v1/rankings/:id
func (h *RankingHandler) Get(c *gin.Context) {
	rankingID := c.Param("id")
	if rankingID == "" {
		util.BadRequest(c, "Ranking ID is required")
		return
	}

	ranking, err := h.rankingService.GetRanking(rankingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Ranking retrieved successfully", gin.H{"ranking": ranking})
}

// List handles listing public rankings with pagination, search and category filter
// GET /api/v1/rankings
func (h *RankingHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	category := c.Query("category")
	search := c.Query("search")

	rankings, pagination, err := h.rankingService.ListRankings(page, limit, category, search)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Rankings retrieved successfully", gin.H{
		"rankings":   rankings,
		"pagination": pagination,
	})
}

// ListCategories handles listing all categories
// GET /api/v1/categories
func (h *RankingHandler) ListCategories(c *gin.Context) {
	categories, err := h.rankingService.ListCategories()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Categories retrieved successfully", gin.H{"categories": categories})
}
