package batch

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jdon/coffeechat/internal/app/models"
	"github.com/jdon/coffeechat/internal/app/repositories"
)

// CourseScrapingJobName is the registry name of the course scraping job
const CourseScrapingJobName = "courseScrapingJob"

// CourseFetcher returns one page of catalog courses
type CourseFetcher interface {
	FetchPage(ctx context.Context, page int) ([]CatalogCourse, error)
}

// CourseScrapingJob copies the course catalog into the course store page by page
type CourseScrapingJob struct {
	fetcher  CourseFetcher
	courses  repositories.CourseStore
	maxPages int
	logger   zerolog.Logger
}

// NewCourseScrapingJob creates the job. maxPages bounds a single run.
func NewCourseScrapingJob(fetcher CourseFetcher, courses repositories.CourseStore, maxPages int, logger zerolog.Logger) *CourseScrapingJob {
	if maxPages <= 0 {
		maxPages = 1
	}
	return &CourseScrapingJob{
		fetcher:  fetcher,
		courses:  courses,
		maxPages: maxPages,
		logger:   logger,
	}
}

// Name implements Job
func (j *CourseScrapingJob) Name() string {
	return CourseScrapingJobName
}

// Run implements Job
func (j *CourseScrapingJob) Run(ctx context.Context, params Params) error {
	log := j.logger.With().Str("executionID", params.ExecutionID.String()).Logger()

	total := 0
	for page := 1; page <= j.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("course scraping stopped at page %d: %w", page, err)
		}

		entries, err := j.fetcher.FetchPage(ctx, page)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			break
		}

		batch := make([]*models.Course, 0, len(entries))
		for _, entry := range entries {
			if course := toCourse(entry, params); course != nil {
				batch = append(batch, course)
			}
		}
		if len(batch) == 0 {
			continue
		}

		written, err := j.courses.Upsert(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to store courses from page %d: %w", page, err)
		}
		total += written
		log.Debug().Int("page", page).Int("courses", written).Msg("Catalog page stored")
	}

	log.Info().Int("courses", total).Msg("Course catalog scraped")
	return nil
}

// toCourse maps a catalog entry; entries without an id or title are skipped.
func toCourse(entry CatalogCourse, params Params) *models.Course {
	id := strings.TrimSpace(entry.ID)
	title := strings.TrimSpace(entry.Title)
	if id == "" || title == "" {
		return nil
	}

	course := &models.Course{
		ExternalID: id,
		Title:      title,
		URL:        entry.URL,
		Instructor: entry.Instructor,
		ImageURL:   entry.Thumbnail,
		Price:      entry.Price,
		ScrapedAt:  params.Timestamp,
	}
	if entry.JobCategoryID > 0 {
		category := entry.JobCategoryID
		course.JobCategoryID = &category
	}
	return course
}
