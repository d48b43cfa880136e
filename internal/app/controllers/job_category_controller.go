package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jdon/coffeechat/internal/app/models/dto"
	"github.com/jdon/coffeechat/internal/app/services"
	"github.com/jdon/coffeechat/internal/middleware"
)

// JobCategoryController handles job category endpoints
type JobCategoryController struct {
	jobCategoryService services.JobCategoryService
}

// NewJobCategoryController creates a new JobCategoryController
func NewJobCategoryController(jobCategoryService services.JobCategoryService) *JobCategoryController {
	return &JobCategoryController{jobCategoryService: jobCategoryService}
}

// ListJobCategories godoc
// @Summary List job categories
// @Tags job-categories
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.JobCategoryResponse} "Job categories retrieved successfully"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /job-categories [get]
func (c *JobCategoryController) ListJobCategories(ctx *gin.Context) {
	categories, err := c.jobCategoryService.ListJobCategories(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(categories))
}
