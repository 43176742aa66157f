package app

import (
	"net/http"
	"strconv"

	"ranklist/internal/service"
	"ranklist/internal/util"

	"github.com/gin-gonic/gin"
)

type DiscoverHandler struct {
	discoverService service.DiscoverService
}

func NewDiscoverHandler(discoverService service.DiscoverService) *DiscoverHandler {
	return &DiscoverHandler{
		discoverService: discoverService,
	}
}

// Featured handles getting recently popular public rankings
// GET /api/v1/rankings/featured
func (h *DiscoverHandler) Featured(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "6"))
	if err != nil || limit < 1 {
		limit = 6
	}
	if limit > 50 {
		limit = 50
	}

	rankings, err := h.discoverService.Featured(limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Featured rankings retrieved successfully", gin.H{"rankings": rankings})
}

// Trending handles getting rankings scored by recent engagement
// GET /api/v1/rankings/trending
func (h *DiscoverHandler) Trending(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	timeFilter := c.DefaultQuery("time_filter", service.TimeFilterWeek)

	rankings, err := h.discoverService.Trending(timeFilter, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Trending rankings retrieved successfully", gin.H{
		"rankings":    rankings,
		"time_filter": timeFilter,
	})
}
