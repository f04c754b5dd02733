package handler

import (
	"net/http"

	"github.com/caredemy/certpath-backend/internal/middleware"
	"github.com/caredemy/certpath-backend/internal/response"
	"github.com/caredemy/certpath-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccessHandler exposes read-only gating checks, so clients can render
// locked/unlocked state without attempting the action.
type AccessHandler struct {
	accessService *service.AccessService
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(accessService *service.AccessService) *AccessHandler {
	return &AccessHandler{accessService: accessService}
}

// CheckLessonAccess godoc
// GET /api/v1/access/lessons/:lesson_id
func (h *AccessHandler) CheckLessonAccess(c *gin.Context) {
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

	decision, err := h.accessService.CheckLesson(c.Request.Context(), *identity, lessonID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, decision)
}

// CheckChapterTestAccess godoc
// GET /api/v1/access/chapter-tests/:chapter_id
func (h *AccessHandler) CheckChapterTestAccess(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	chapterID, err := uuid.Parse(c.Param("chapter_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	decision, err := h.accessService.CheckChapterTest(c.Request.Context(), *identity, chapterID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, decision)
}

// CheckFinalExamAccess godoc
// GET /api/v1/courses/:course_id/access/final-exam
func (h *AccessHandler) CheckFinalExamAccess(c *gin.Context) {
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

	decision, err := h.accessService.CheckFinalExam(c.Request.Context(), *identity, courseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, decision)
}
