package app

import (
	"errors"
	"net/http"

	"ranklist/internal/service"
	"ranklist/internal/util"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service sentinel errors onto HTTP statuses.
// Anything unrecognized is an internal error; the datastore detail stays in
// the logs, not the response.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		util.NotFound(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		util.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, service.ErrInvalidTargetType):
		util.BadRequest(c, err.Error())
	default:
		util.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}
