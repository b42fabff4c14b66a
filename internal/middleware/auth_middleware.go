package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/alumnisphere/api/internal/app/auth"
	"github.com/alumnisphere/api/internal/app/models"
	"github.com/alumnisphere/api/internal/app/models/dto"
	jwtauth "github.com/alumnisphere/api/internal/pkg/auth"
	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuth
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextRole     = "role"
)

// AccountGuard confirms that the account behind a valid token is still
// allowed to act.
type AccountGuard interface {
	EnsureActive(ctx context.Context, userID int64) error
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *jwtauth.JWTService
	authorizer auth.Authorizer
	accounts   AccountGuard
}

// NewAuthMiddleware creates a new AuthMiddleware. A nil accounts guard skips
// the per-request account check.
func NewAuthMiddleware(jwtService *jwtauth.JWTService, authorizer auth.Authorizer, accounts AccountGuard) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		authorizer: authorizer,
		accounts:   accounts,
	}
}

// TokenFromRequest extracts a bearer token from the Authorization header or,
// for clients that cannot set headers (browsers opening a WebSocket, Swagger
// UI), from the token or authorization query parameter.
func TokenFromRequest(c *gin.Context) (string, error) {
	raw := c.GetHeader("Authorization")
	if raw == "" {
		if q := c.Query("token"); q != "" {
			raw = q
		} else {
			raw = c.Query("authorization")
		}
	}
	raw = strings.Trim(raw, "\"'")
	return jwtauth.ExtractBearerToken(raw)
}

// Authenticate validates the request's token and returns its claims
func (m *AuthMiddleware) Authenticate(c *gin.Context) (*jwtauth.Claims, *dto.ErrorDetail) {
	tokenString, err := TokenFromRequest(c)
	if err != nil {
		return nil, dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
			WithDetails("Authorization header missing")
	}

	claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
	if err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication failed").WithDetails("Invalid token")
		if errors.Is(err, jwtauth.ErrExpiredToken) {
			detail = dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Authentication failed").WithDetails("Token has expired")
		}
		return nil, detail
	}
	return claims, nil
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, detail := m.Authenticate(c)
		if detail != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(detail))
			return
		}
		if m.accounts != nil {
			if err := m.accounts.EnsureActive(c.Request.Context(), claims.UserID); err != nil {
				HandleAPIError(c, err)
				c.Abort()
				return
			}
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, models.Role(claims.Role))
		c.Next()
	}
}

// Authorize checks the caller's role against the casbin policy. It must run
// after JWTAuth.
func (m *AuthMiddleware) Authorize(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").WithDetails("User role not found")))
			return
		}

		if !m.authorizer.Can(role, resource, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
					WithDetails("You don't have sufficient permissions for this operation")))
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user's ID
func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// GetRole returns the authenticated user's role
func GetRole(c *gin.Context) (models.Role, bool) {
	v, exists := c.Get(ContextRole)
	if !exists {
		return "", false
	}
	role, ok := v.(models.Role)
	return role, ok
}
