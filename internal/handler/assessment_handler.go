package handler

import (
	"net/http"
	"time"

	"github.com/caredemy/certpath-backend/internal/middleware"
	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/caredemy/certpath-backend/internal/response"
	"github.com/caredemy/certpath-backend/internal/service"
	"github.com/caredemy/certpath-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AssessmentHandler handles chapter test session endpoints.
type AssessmentHandler struct {
	sessionService *service.SessionService
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(sessionService *service.SessionService) *AssessmentHandler {
	return &AssessmentHandler{sessionService: sessionService}
}

// startedSessionPayload is the response body for a freshly started session:
// session metadata plus the redacted question paper.
func startedSessionPayload(session *model.AssessmentSession) gin.H {
	return gin.H{
		"session":        session,
		"questions":      model.Redact(session.Snapshot),
		"remaining_time": int(session.RemainingTime(time.Now()).Seconds()),
	}
}

// StartChapterTest godoc
// POST /api/v1/chapters/:chapter_id/test/start
func (h *AssessmentHandler) StartChapterTest(c *gin.Context) {
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

	session, err := h.sessionService.StartChapterTest(c.Request.Context(), *identity, chapterID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, startedSessionPayload(session))
}

// SubmitChapterTest godoc
// POST /api/v1/chapters/:chapter_id/test/submit
func (h *AssessmentHandler) SubmitChapterTest(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if _, err := uuid.Parse(c.Param("chapter_id")); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.sessionService.Submit(c.Request.Context(), *identity, req.SessionID, req.Answers)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// AbandonChapterTest godoc
// POST /api/v1/chapters/:chapter_id/test/abandon
// Withdrawal, not failure: the attempt is not consumed and no cooldown starts.
func (h *AssessmentHandler) AbandonChapterTest(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if _, err := uuid.Parse(c.Param("chapter_id")); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AbandonAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.Abandon(c.Request.Context(), *identity, req.SessionID); err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"abandoned": true})
}
