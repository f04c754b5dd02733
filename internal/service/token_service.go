package service

import (
	"errors"
	"fmt"

	"github.com/caredemy/certpath-backend/internal/config"
	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

// Claims extends JWT standard claims with the identity fields this engine
// authorizes with. Tokens are issued by the external identity service; the
// engine only validates them.
type Claims struct {
	jwt.RegisteredClaims
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
}

// TokenService validates externally-issued identity tokens.
type TokenService struct {
	cfg *config.Config
}

// NewTokenService creates a new TokenService.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{cfg: cfg}
}

// ValidateToken parses and validates a JWT, returning the caller identity.
// Tokens carrying an unknown role string are rejected outright.
func (s *TokenService) ValidateToken(tokenStr string) (*model.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("invalid role claim: %w", err)
	}

	return &model.Identity{UserID: claims.UserID, Role: role}, nil
}
