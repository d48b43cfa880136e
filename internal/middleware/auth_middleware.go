package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jdon/coffeechat/internal/app/models/dto"
	"github.com/jdon/coffeechat/internal/pkg/apperrors"
	"github.com/jdon/coffeechat/internal/pkg/auth"
)

// Context keys set by the auth middleware
const (
	ContextKeyMemberID = "memberID"
	ContextKeyEmail    = "email"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware resolves the calling member from a bearer JWT
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// JWTAuth requires a valid token and stores the member id in the context
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// Browsers cannot set headers on websocket upgrades
			authHeader = c.Query("token")
		}
		if authHeader == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		if !m.authenticate(c, authHeader) {
			return
		}
		c.Next()
	}
}

// OptionalAuth resolves the member when a token is present and lets anonymous requests through.
// A token that is present but invalid is still rejected.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		if !m.authenticate(c, authHeader) {
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context, authHeader string) bool {
	tokenString, err := auth.ExtractBearerToken(authHeader)
	if err == nil {
		var claims *auth.Claims
		claims, err = m.tokens.ValidateToken(tokenString)
		if err == nil {
			c.Set(ContextKeyMemberID, claims.MemberID)
			c.Set(ContextKeyEmail, claims.Email)
			return true
		}
	}

	errorCode := dto.ErrorCodeInvalidToken
	errorDetails := "Invalid token"
	if errors.Is(err, apperrors.ErrTokenExpired) {
		errorCode = dto.ErrorCodeExpiredToken
		errorDetails = "Token has expired"
	} else if errors.Is(err, apperrors.ErrInvalidFormat) {
		errorDetails = "Invalid token format"
	}

	errorDetail := dto.NewErrorDetail(errorCode, "Authentication failed").WithDetails(errorDetails)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
	return false
}

// GetMemberID returns the authenticated member id, if any
func GetMemberID(c *gin.Context) (int64, bool) {
	value, exists := c.Get(ContextKeyMemberID)
	if !exists {
		return 0, false
	}
	memberID, ok := value.(int64)
	return memberID, ok && memberID > 0
}

// GetViewerID returns the member id as a pointer, nil for anonymous requests
func GetViewerID(c *gin.Context) *int64 {
	memberID, ok := GetMemberID(c)
	if !ok {
		return nil
	}
	return &memberID
}
