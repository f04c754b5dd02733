package handler

import (
	"net/http"

	"github.com/caredemy/certpath-backend/internal/middleware"
	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/caredemy/certpath-backend/internal/response"
	"github.com/caredemy/certpath-backend/internal/service"
	"github.com/caredemy/certpath-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProgressHandler handles lesson completion, quizzes and progress reads.
type ProgressHandler struct {
	progressService *service.ProgressService
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// CompleteLesson godoc
// POST /api/v1/lessons/:lesson_id/complete
func (h *ProgressHandler) CompleteLesson(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lessonID, err := uuid.Parse(c.Param("lesson_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	next, err := h.progressService.CompleteLesson(c.Request.Context(), *identity, lessonID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"completed":   true,
		"next_action": next,
	})
}

// SubmitQuiz godoc
// POST /api/v1/lessons/:lesson_id/quiz/submit
func (h *ProgressHandler) SubmitQuiz(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lessonID, err := uuid.Parse(c.Param("lesson_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.progressService.SubmitQuiz(c.Request.Context(), *identity, lessonID, req.Answers)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetDetailedProgress godoc
// GET /api/v1/courses/:course_id/detailed-progress
func (h *ProgressHandler) GetDetailedProgress(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	report, err := h.progressService.GetDetailedProgress(c.Request.Context(), *identity, courseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, report)
}
