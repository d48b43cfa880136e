package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jdon/coffeechat/internal/app/models/dto"
	"github.com/jdon/coffeechat/internal/app/repositories"
)

// JobCategoryService defines the job category operations
type JobCategoryService interface {
	ListJobCategories(ctx context.Context) ([]dto.JobCategoryResponse, error)
}

type jobCategoryServiceImpl struct {
	categories repositories.JobCategoryStore
	logger     zerolog.Logger
}

// NewJobCategoryService creates a new JobCategoryService
func NewJobCategoryService(categories repositories.JobCategoryStore, logger zerolog.Logger) JobCategoryService {
	return &jobCategoryServiceImpl{
		categories: categories,
		logger:     logger,
	}
}

// ListJobCategories returns every job category
func (s *jobCategoryServiceImpl) ListJobCategories(ctx context.Context) ([]dto.JobCategoryResponse, error) {
	categories, err := s.categories.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list job categories")
		return nil, fmt.Errorf("failed to list job categories: %w", err)
	}
	return dto.FromJobCategories(categories), nil
}
