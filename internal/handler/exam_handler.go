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

// ExamHandler handles final exam endpoints.
type ExamHandler struct {
	sessionService *service.SessionService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(sessionService *service.SessionService) *ExamHandler {
	return &ExamHandler{sessionService: sessionService}
}

// StartFinalExam godoc
// POST /api/v1/courses/:course_id/exam/start
func (h *ExamHandler) StartFinalExam(c *gin.Context) {
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

	session, err := h.sessionService.StartFinalExam(c.Request.Context(), *identity, courseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, startedSessionPayload(session))
}

// SubmitFinalExam godoc
// POST /api/v1/courses/:course_id/submit-exam
// The caller's ACTIVE exam session is resolved server-side; the payload
// carries answers only.
func (h *ExamHandler) SubmitFinalExam(c *gin.Context) {
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

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.sessionService.SubmitFinalExam(c.Request.Context(), *identity, courseID, req.Answers)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}
