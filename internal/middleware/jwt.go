package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/caredemy/certpath-backend/internal/response"
	"github.com/caredemy/certpath-backend/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyIdentity is the Gin context key for the caller identity.
	ContextKeyIdentity = "identity"
)

// RequireIdentity validates an identity JWT from the Authorization header
// and stores the resolved identity in the Gin context.
func RequireIdentity(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := extractAndValidate(c, tokens)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeyIdentity, identity)
		c.Next()
	}
}

// RequireIdentityWS validates an identity JWT from the query param ?token=...
// Used for WebSocket upgrade requests, which cannot set headers.
func RequireIdentityWS(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		identity, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeyIdentity, identity)
		c.Next()
	}
}

// GetIdentity retrieves the caller identity from the Gin context.
func GetIdentity(c *gin.Context) *model.Identity {
	val, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return nil
	}
	identity, ok := val.(*model.Identity)
	if !ok {
		return nil
	}
	return identity
}

func extractAndValidate(c *gin.Context, tokens *service.TokenService) (*model.Identity, error) {
	tokenStr := ""

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			tokenStr = parts[1]
		}
	}

	if tokenStr == "" {
		return nil, fmt.Errorf("authorization header required")
	}

	return tokens.ValidateToken(tokenStr)
}
