package handler

import (
	"net/http"

	"github.com/caredemy/certpath-backend/internal/middleware"
	"github.com/caredemy/certpath-backend/internal/response"
	"github.com/caredemy/certpath-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// CertificateHandler handles certificate listing and public verification.
type CertificateHandler struct {
	certificateService *service.CertificateService
}

// NewCertificateHandler creates a new CertificateHandler.
func NewCertificateHandler(certificateService *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificateService: certificateService}
}

// ListCertificates godoc
// GET /api/v1/certificates
func (h *CertificateHandler) ListCertificates(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	certs, err := h.certificateService.ListByUser(c.Request.Context(), identity.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"certificates": certs})
}

// VerifyCertificate godoc
// GET /api/v1/public/certificates/verify/:code
// Public endpoint: no authentication. One code resolves both paired records.
func (h *CertificateHandler) VerifyCertificate(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	pair, err := h.certificateService.VerifyByCode(c.Request.Context(), code)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, pair)
}
