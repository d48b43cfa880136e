package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jdon/coffeechat/internal/app/models/dto"
	"github.com/jdon/coffeechat/internal/pkg/apperrors"
	"github.com/jdon/coffeechat/internal/pkg/logger"
)

// HandleAPIError maps a service error onto an HTTP status and error code.
// This is the only place domain errors become transport errors.
func HandleAPIError(c *gin.Context, err error) {
	status, code, message := classifyError(err)

	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		message = custom.Message
	}

	detail := dto.NewErrorDetail(code, message)
	if custom != nil && custom.Code != "" {
		detail.WithDetails(map[string]interface{}{"reason": custom.Code})
	}

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled API error")
		detail = dto.NewErrorDetail(code, message).WithSeverity(dto.ErrorSeverityCritical)
	}

	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func classifyError(err error) (int, dto.ErrorCode, string) {
	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"
	case errors.Is(err, apperrors.ErrAlreadyApplied):
		return http.StatusConflict, dto.ErrorCodeAlreadyApplied, "Coffee chat already applied"
	case errors.Is(err, apperrors.ErrInvalidTransition):
		return http.StatusConflict, dto.ErrorCodeInvalidTransition, err.Error()
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrStaleRecord):
		return http.StatusConflict, dto.ErrorCodeConflict, "Resource was modified concurrently"
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrInvalidFormat):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required"
	default:
		return http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"
	}
}
