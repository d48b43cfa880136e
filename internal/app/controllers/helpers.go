package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jdon/coffeechat/internal/app/models/dto"
	"github.com/jdon/coffeechat/internal/middleware"
)

// parseIDParam reads a positive int64 path parameter, writing a 400 response when it is malformed.
func parseIDParam(ctx *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+label+" ID").
			WithDetails(label + " ID must be a positive number")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// requireMember returns the authenticated member, writing a 401 response when there is none.
func requireMember(ctx *gin.Context) (int64, bool) {
	memberID, ok := middleware.GetMemberID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return memberID, true
}
