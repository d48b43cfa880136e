package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdon/coffeechat/internal/app/models"
	"github.com/jdon/coffeechat/internal/pkg/logger"
)

// CourseRepository handles database operations for scraped courses
type CourseRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Upsert writes courses in one transaction, refreshing rows that share an external id
func (r *CourseRepository) Upsert(ctx context.Context, courses []*models.Course) (int, error) {
	if len(courses) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin course upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, course := range courses {
		sqlStr, args, err := r.sb.Insert("courses").
			Columns("external_id", "title", "url", "instructor", "image_url", "price", "job_category_id", "scraped_at").
			Values(course.ExternalID, course.Title, course.URL, course.Instructor, course.ImageURL,
				course.Price, course.JobCategoryID, course.ScrapedAt).
			Suffix(`ON CONFLICT (external_id) DO UPDATE SET
				title = EXCLUDED.title,
				url = EXCLUDED.url,
				instructor = EXCLUDED.instructor,
				image_url = EXCLUDED.image_url,
				price = EXCLUDED.price,
				job_category_id = EXCLUDED.job_category_id,
				scraped_at = EXCLUDED.scraped_at
			RETURNING id`).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("failed to build course upsert query: %w", err)
		}

		if err := tx.QueryRow(ctx, sqlStr, args...).Scan(&course.ID); err != nil {
			logger.Error().Err(err).Str("externalID", course.ExternalID).Msg("Error upserting course")
			return 0, fmt.Errorf("failed to upsert course %s: %w", course.ExternalID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit course upsert: %w", err)
	}
	return len(courses), nil
}

// GetAll retrieves every stored course
func (r *CourseRepository) GetAll(ctx context.Context) ([]*models.Course, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, external_id, title, url, instructor, image_url, price, job_category_id, scraped_at
		FROM courses
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.ExternalID, &c.Title, &c.URL, &c.Instructor, &c.ImageURL,
			&c.Price, &c.JobCategoryID, &c.ScrapedAt); err != nil {
			return nil, fmt.Errorf("error scanning course: %w", err)
		}
		courses = append(courses, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return courses, nil
}
