package handler

import (
	"errors"
	"net/http"

	"github.com/caredemy/certpath-backend/internal/response"
	"github.com/caredemy/certpath-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// respondServiceError maps domain errors to the response envelope. Handlers
// call this from their terminal error branch; anything unmapped is a 500.
func respondServiceError(c *gin.Context, err error) {
	var accessErr *service.AccessDeniedError
	var cooldownErr *service.CooldownActiveError
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &accessErr):
		response.FailWithReason(c, http.StatusForbidden, response.ErrAccessDenied, accessErr.Reason)
	case errors.As(err, &cooldownErr):
		response.FailWithReason(c, http.StatusForbidden, response.ErrCooldownActive, cooldownErr.Error())
	case errors.As(err, &validationErr):
		response.FailWithReason(c, http.StatusBadRequest, response.ErrValidation, validationErr.Detail)
	case errors.Is(err, service.ErrGateAlreadyPassed):
		response.Fail(c, http.StatusForbidden, response.ErrGateAlreadyPassed)
	case errors.Is(err, service.ErrSessionConflict):
		response.Fail(c, http.StatusConflict, response.ErrSessionConflict)
	case errors.Is(err, service.ErrInvalidSession):
		response.Fail(c, http.StatusNotFound, response.ErrInvalidSession)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrCourseNotCompleted):
		response.Fail(c, http.StatusForbidden, response.ErrAccessDenied)
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
