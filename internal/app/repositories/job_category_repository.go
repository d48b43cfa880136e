package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdon/coffeechat/internal/app/models"
)

// JobCategoryRepository handles database operations for job categories
type JobCategoryRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewJobCategoryRepository creates a new job category repository
func NewJobCategoryRepository(db *pgxpool.Pool) *JobCategoryRepository {
	return &JobCategoryRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a category, leaving an existing one with the same name untouched
func (r *JobCategoryRepository) Create(ctx context.Context, category *models.JobCategory) (int64, error) {
	sqlStr, args, err := r.sb.Insert("job_categories").
		Columns("name", "parent_id").
		Values(category.Name, category.ParentID).
		Suffix("ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create job category query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&category.ID); err != nil {
		return 0, fmt.Errorf("error creating job category: %w", err)
	}
	return category.ID, nil
}

// GetAll retrieves all job categories ordered by id
func (r *JobCategoryRepository) GetAll(ctx context.Context) ([]*models.JobCategory, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, parent_id FROM job_categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error listing job categories: %w", err)
	}
	defer rows.Close()

	categories := []*models.JobCategory{}
	for rows.Next() {
		var category models.JobCategory
		if err := rows.Scan(&category.ID, &category.Name, &category.ParentID); err != nil {
			return nil, fmt.Errorf("error scanning job category: %w", err)
		}
		categories = append(categories, &category)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

// Exists checks whether a job category with the id exists
func (r *JobCategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM job_categories WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking job category existence: %w", err)
	}
	return exists, nil
}
