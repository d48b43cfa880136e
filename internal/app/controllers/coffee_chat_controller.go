package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jdon/coffeechat/internal/app/models/dto"
	"github.com/jdon/coffeechat/internal/app/services"
	"github.com/jdon/coffeechat/internal/domain/coffeechat"
	"github.com/jdon/coffeechat/internal/middleware"
	"github.com/jdon/coffeechat/internal/pkg/helpers"
)

// CoffeeChatController handles coffee chat endpoints
type CoffeeChatController struct {
	coffeeChatService services.CoffeeChatService
	limits            helpers.PageLimits
}

// NewCoffeeChatController creates a new CoffeeChatController
func NewCoffeeChatController(coffeeChatService services.CoffeeChatService, limits helpers.PageLimits) *CoffeeChatController {
	return &CoffeeChatController{
		coffeeChatService: coffeeChatService,
		limits:            limits,
	}
}

// ListCoffeeChats handles listing coffee chats
// @Summary List coffee chats
// @Description Lists coffee chats with keyword, job category and sort filters. Anonymous access allowed.
// @Tags coffeechats
// @Produce json
// @Param keyword query string false "Case-insensitive match on title or content"
// @Param jobCategory query int false "Job category ID, 0 for all"
// @Param sort query string false "Sort order" Enums(NEWEST, OLDEST, MEET_DATE, VIEW_COUNT)
// @Param page query int false "Page number (0-based)" default(0) minimum(0)
// @Param size query int false "Page size (default: 12, max: 100)" default(12) minimum(1) maximum(100)
// @Success 200 {object} dto.APIResponse{data=dto.CoffeeChatListResponse} "Coffee chats retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid query parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /coffeechats [get]
func (c *CoffeeChatController) ListCoffeeChats(ctx *gin.Context) {
	filter := coffeechat.Filter{
		Keyword: ctx.Query("keyword"),
		Sort:    coffeechat.ParseSortCondition(ctx.Query("sort")),
	}

	if raw := ctx.Query("jobCategory"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || categoryID < 0 {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid job category").
				WithDetails("jobCategory must be a non-negative number")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		filter.JobCategoryID = categoryID
	}

	page := helpers.ParsePaginationParams(ctx, c.limits)
	response, err := c.coffeeChatService.ListChats(ctx, filter, page)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// GetCoffeeChat handles the coffee chat detail
// @Summary Get coffee chat by ID
// @Description Returns one coffee chat and counts the view. Authenticated callers get their host/guest flags.
// @Tags coffeechats
// @Produce json
// @Param id path int true "Coffee chat ID"
// @Success 200 {object} dto.APIResponse{data=dto.CoffeeChatDetailResponse} "Coffee chat retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid coffee chat ID"
// @Failure 401 {object} dto.ErrorResponse "Invalid token"
// @Failure 404 {object} dto.ErrorResponse "Coffee chat not found"
// @Router /coffeechats/{id} [get]
func (c *CoffeeChatController) GetCoffeeChat(ctx *gin.Context) {
	chatID, ok := parseIDParam(ctx, "id", "coffee chat")
	if !ok {
		return
	}

	response, err := c.coffeeChatService.GetChat(ctx, chatID, middleware.GetViewerID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// CreateCoffeeChat handles opening a coffee chat slot
// @Summary Create coffee chat
// @Description Opens a new coffee chat slot hosted by the caller
// @Tags coffeechats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCoffeeChatRequest true "Coffee chat details"
// @Success 201 {object} dto.APIResponse{data=dto.CreatedResponse} "Coffee chat created"
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Member or job category not found"
// @Router /coffeechats [post]
func (c *CoffeeChatController) CreateCoffeeChat(ctx *gin.Context) {
	memberID, ok := requireMember(ctx)
	if !ok {
		return
	}

	var req dto.CreateCoffeeChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	id, err := c.coffeeChatService.CreateChat(ctx, memberID, req.Fields())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.CreatedResponse{ID: id}))
}

// UpdateCoffeeChat handles editing a coffee chat
// @Summary Edit coffee chat
// @Description Replaces the editable fields of a coffee chat. Host only; completed chats cannot be edited.
// @Tags coffeechats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Coffee chat ID"
// @Param request body dto.UpdateCoffeeChatRequest true "Coffee chat details"
// @Success 200 {object} dto.APIResponse{data=dto.CoffeeChatDetailResponse} "Coffee chat updated"
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 403 {object} dto.ErrorResponse "Not the host"
// @Failure 404 {object} dto.ErrorResponse "Coffee chat not found"
// @Failure 409 {object} dto.ErrorResponse "Invalid status or concurrent modification"
// @Router /coffeechats/{id} [put]
func (c *CoffeeChatController) UpdateCoffeeChat(ctx *gin.Context) {
	memberID, ok := requireMember(ctx)
	if !ok {
		return
	}
	chatID, ok := parseIDParam(ctx, "id", "coffee chat")
	if !ok {
		return
	}

	var req dto.UpdateCoffeeChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	response, err := c.coffeeChatService.EditChat(ctx, chatID, memberID, req.Fields())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// DeleteCoffeeChat handles deleting a coffee chat
// @Summary Delete coffee chat
// @Description Deletes an OPEN or CANCELLED coffee chat. Host only.
// @Tags coffeechats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Coffee chat ID"
// @Success 200 {object} dto.APIResponse "Coffee chat deleted"
// @Failure 403 {object} dto.ErrorResponse "Not the host"
// @Failure 404 {object} dto.ErrorResponse "Coffee chat not found"
// @Failure 409 {object} dto.ErrorResponse "Coffee chat cannot be deleted in its current status"
// @Router /coffeechats/{id} [delete]
func (c *CoffeeChatController) DeleteCoffeeChat(ctx *gin.Context) {
	memberID, ok := requireMember(ctx)
	if !ok {
		return
	}
	chatID, ok := parseIDParam(ctx, "id", "coffee chat")
	if !ok {
		return
	}

	if err := c.coffeeChatService.DeleteChat(ctx, chatID, memberID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil))
}

// ApplyCoffeeChat handles applying to a coffee chat
// @Summary Apply to coffee chat
// @Description Applies to an open coffee chat. Only one applicant can hold a slot.
// @Tags coffeechats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Coffee chat ID"
// @Success 200 {object} dto.APIResponse{data=dto.CoffeeChatDetailResponse} "Applied"
// @Failure 404 {object} dto.ErrorResponse "Coffee chat or member not found"
// @Failure 409 {object} dto.ErrorResponse "Already applied or invalid status"
// @Router /coffeechats/{id} [post]
func (c *CoffeeChatController) ApplyCoffeeChat(ctx *gin.Context) {
	c.runTransition(ctx, c.coffeeChatService.ApplyToChat)
}

// ConfirmCoffeeChat handles confirming the applicant
// @Summary Confirm applicant
// @Tags coffeechats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Coffee chat ID"
// @Success 200 {object} dto.APIResponse{data=dto.CoffeeChatDetailResponse} "Confirmed"
// @Failure 403 {object} dto.ErrorResponse "Not the host"
// @Failure 409 {object} dto.ErrorResponse "Invalid status transition"
// @Router /coffeechats/{id}/confirm [post]
func (c *CoffeeChatController) ConfirmCoffeeChat(ctx *gin.Context) {
	c.runTransition(ctx, c.coffeeChatService.ConfirmChat)
}

// RejectCoffeeChat handles rejecting the applicant
// @Summary Reject applicant
// @Tags coffeechats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Coffee chat ID"
// @Success 200 {object} dto.APIResponse{data=dto.CoffeeChatDetailResponse} "Rejected"
// @Failure 403 {object} dto.ErrorResponse "Not the host"
// @Failure 409 {object} dto.ErrorResponse "Invalid status transition"
// @Router /coffeechats/{id}/reject [post]
func (c *CoffeeChatController) RejectCoffeeChat(ctx *gin.Context) {
	c.runTransition(ctx, c.coffeeChatService.RejectChat)
}

// CancelCoffeeChat handles cancelling an application or a slot
// @Summary Cancel coffee chat
// @Description Withdraws a pending application or cancels the slot. Host or guest.
// @Tags coffeechats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Coffee chat ID"
// @Success 200 {object} dto.APIResponse{data=dto.CoffeeChatDetailResponse} "Cancelled"
// @Failure 403 {object} dto.ErrorResponse "Not a participant"
// @Failure 409 {object} dto.ErrorResponse "Invalid status transition"
// @Router /coffeechats/{id}/cancel [post]
func (c *CoffeeChatController) CancelCoffeeChat(ctx *gin.Context) {
	c.runTransition(ctx, c.coffeeChatService.CancelChat)
}

// CompleteCoffeeChat handles marking a chat as held
// @Summary Complete coffee chat
// @Tags coffeechats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Coffee chat ID"
// @Success 200 {object} dto.APIResponse{data=dto.CoffeeChatDetailResponse} "Completed"
// @Failure 403 {object} dto.ErrorResponse "Not a participant"
// @Failure 409 {object} dto.ErrorResponse "Invalid status transition"
// @Router /coffeechats/{id}/complete [post]
func (c *CoffeeChatController) CompleteCoffeeChat(ctx *gin.Context) {
	c.runTransition(ctx, c.coffeeChatService.CompleteChat)
}

// ReopenCoffeeChat handles reopening a cancelled slot
// @Summary Reopen coffee chat
// @Tags coffeechats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Coffee chat ID"
// @Success 200 {object} dto.APIResponse{data=dto.CoffeeChatDetailResponse} "Reopened"
// @Failure 403 {object} dto.ErrorResponse "Not the host"
// @Failure 409 {object} dto.ErrorResponse "Invalid status transition"
// @Router /coffeechats/{id}/reopen [post]
func (c *CoffeeChatController) ReopenCoffeeChat(ctx *gin.Context) {
	c.runTransition(ctx, c.coffeeChatService.ReopenChat)
}

type transitionFunc func(ctx context.Context, chatID, actorID int64) (*dto.CoffeeChatDetailResponse, error)

func (c *CoffeeChatController) runTransition(ctx *gin.Context, fn transitionFunc) {
	memberID, ok := requireMember(ctx)
	if !ok {
		return
	}
	chatID, ok := parseIDParam(ctx, "id", "coffee chat")
	if !ok {
		return
	}

	response, err := fn(ctx, chatID, memberID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// ListMyAppliedChats handles listing chats the caller applied to
// @Summary List my applications
// @Tags coffeechats
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (0-based)" default(0)
// @Param size query int false "Page size" default(12)
// @Success 200 {object} dto.APIResponse{data=dto.CoffeeChatListResponse} "Coffee chats retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /coffeechats/guest [get]
func (c *CoffeeChatController) ListMyAppliedChats(ctx *gin.Context) {
	memberID, ok := requireMember(ctx)
	if !ok {
		return
	}

	response, err := c.coffeeChatService.ListByGuest(ctx, memberID, helpers.ParsePaginationParams(ctx, c.limits))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// ListMyHostedChats handles listing chats the caller hosts
// @Summary List my hosted chats
// @Tags coffeechats
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (0-based)" default(0)
// @Param size query int false "Page size" default(12)
// @Success 200 {object} dto.APIResponse{data=dto.CoffeeChatListResponse} "Coffee chats retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /coffeechats/host [get]
func (c *CoffeeChatController) ListMyHostedChats(ctx *gin.Context) {
	memberID, ok := requireMember(ctx)
	if !ok {
		return
	}

	response, err := c.coffeeChatService.ListByHost(ctx, memberID, helpers.ParsePaginationParams(ctx, c.limits))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}
