package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jdon/coffeechat/internal/app/models"
	"github.com/jdon/coffeechat/internal/domain/coffeechat"
	"github.com/jdon/coffeechat/internal/pkg/apperrors"
)

// CoffeeChatRow is the GORM mapping of the coffee_chats table
type CoffeeChatRow struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	HostID        int64  `gorm:"not null;index"`
	GuestID       *int64 `gorm:"index"`
	JobCategoryID int64  `gorm:"not null;index"`
	Status        string `gorm:"size:16;not null;index"`
	Title         string `gorm:"not null"`
	Content       string `gorm:"not null"`
	MeetDate      time.Time
	OpenChatURL   string
	ViewCount     int64 `gorm:"not null;default:0"`
	Version       int64 `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName keeps the table name shared with the SQL migrations
func (CoffeeChatRow) TableName() string {
	return coffeeChatTable
}

func rowFromChat(c *coffeechat.CoffeeChat) *CoffeeChatRow {
	return &CoffeeChatRow{
		ID:            c.ID,
		HostID:        c.HostID,
		GuestID:       c.GuestID,
		JobCategoryID: c.JobCategoryID,
		Status:        string(c.Status),
		Title:         c.Title,
		Content:       c.Content,
		MeetDate:      c.MeetDate,
		OpenChatURL:   c.OpenChatURL,
		ViewCount:     c.ViewCount,
		Version:       c.Version,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (r *CoffeeChatRow) toChat() *coffeechat.CoffeeChat {
	return &coffeechat.CoffeeChat{
		ID:            r.ID,
		HostID:        r.HostID,
		GuestID:       r.GuestID,
		JobCategoryID: r.JobCategoryID,
		Status:        coffeechat.Status(r.Status),
		Title:         r.Title,
		Content:       r.Content,
		MeetDate:      r.MeetDate,
		OpenChatURL:   r.OpenChatURL,
		ViewCount:     r.ViewCount,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// GormModels lists the models the sqlite driver auto-migrates
func GormModels() []interface{} {
	return []interface{}{
		&models.Member{},
		&models.JobCategory{},
		&models.Course{},
		&CoffeeChatRow{},
	}
}

// GormCoffeeChatStore is the SQLite CoffeeChatStore backed by GORM
type GormCoffeeChatStore struct {
	db *gorm.DB
}

// NewGormCoffeeChatStore creates a GORM-backed chat store
func NewGormCoffeeChatStore(db *gorm.DB) *GormCoffeeChatStore {
	return &GormCoffeeChatStore{db: db}
}

func (s *GormCoffeeChatStore) Create(ctx context.Context, chat *coffeechat.CoffeeChat) (int64, error) {
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now().UTC()
	}
	chat.UpdatedAt = chat.CreatedAt
	chat.Version = 1

	row := rowFromChat(chat)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return 0, fmt.Errorf("failed to create coffee chat: %w", err)
	}
	chat.ID = row.ID
	return chat.ID, nil
}

func (s *GormCoffeeChatStore) Get(ctx context.Context, id int64) (*coffeechat.CoffeeChat, error) {
	var row CoffeeChatRow
	result := s.db.WithContext(ctx).First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCoffeeChatNotFound
		}
		return nil, fmt.Errorf("failed to get coffee chat: %w", result.Error)
	}
	return row.toChat(), nil
}

// Update applies mutate to a fresh copy and writes it only where the version is unchanged.
func (s *GormCoffeeChatStore) Update(ctx context.Context, id int64, mutate MutateFunc) (*coffeechat.CoffeeChat, error) {
	working, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	readVersion := working.Version

	if err := checkedMutate(working, mutate); err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&CoffeeChatRow{}).
		Where("id = ? AND version = ?", id, readVersion).
		UpdateColumns(map[string]interface{}{
			"guest_id":        working.GuestID,
			"job_category_id": working.JobCategoryID,
			"status":          string(working.Status),
			"title":           working.Title,
			"content":         working.Content,
			"meet_date":       working.MeetDate,
			"open_chat_url":   working.OpenChatURL,
			"updated_at":      working.UpdatedAt,
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update coffee chat: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		exists, err := s.exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.ErrCoffeeChatNotFound
		}
		return nil, apperrors.ErrStaleRecord
	}

	// Return what this call wrote; only the view counter may have moved since the read.
	working.Version = readVersion + 1
	err = s.db.WithContext(ctx).Model(&CoffeeChatRow{}).
		Select("view_count").
		Where("id = ?", id).
		Scan(&working.ViewCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read view count: %w", err)
	}
	return working, nil
}

func (s *GormCoffeeChatStore) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND status IN ?", id, []string{string(coffeechat.StatusOpen), string(coffeechat.StatusCancelled)}).
		Delete(&CoffeeChatRow{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete coffee chat: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	exists, err := s.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrCoffeeChatNotFound
	}
	return apperrors.ErrCoffeeChatNotDeletable
}

func (s *GormCoffeeChatStore) List(ctx context.Context, filter coffeechat.Filter, page coffeechat.PageRequest) (*coffeechat.Page, error) {
	scoped := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&CoffeeChatRow{})
		if filter.JobCategoryID > 0 {
			q = q.Where("job_category_id = ?", filter.JobCategoryID)
		}
		if filter.HostID > 0 {
			q = q.Where("host_id = ?", filter.HostID)
		}
		if filter.GuestID > 0 {
			q = q.Where("guest_id = ?", filter.GuestID)
		}
		if kw := filter.NormalizedKeyword(); kw != "" {
			pattern := containsPattern(kw)
			q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')`, pattern, pattern)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count coffee chats: %w", err)
	}
	if total == 0 {
		return coffeechat.NewPage(nil, page, 0), nil
	}

	var rows []CoffeeChatRow
	err := scoped().
		Order(coffeeChatOrderBy[coffeechat.ParseSortCondition(string(filter.Sort))]).
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list coffee chats: %w", err)
	}

	items := make([]*coffeechat.CoffeeChat, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toChat())
	}
	return coffeechat.NewPage(items, page, total), nil
}

func (s *GormCoffeeChatStore) IncrementViewCount(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Model(&CoffeeChatRow{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if result.Error != nil {
		return fmt.Errorf("failed to increment view count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrCoffeeChatNotFound
	}
	return nil
}

func (s *GormCoffeeChatStore) exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&CoffeeChatRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking coffee chat existence: %w", err)
	}
	return count > 0, nil
}

// GormMemberStore is the SQLite MemberStore
type GormMemberStore struct {
	db *gorm.DB
}

// NewGormMemberStore creates a GORM-backed member store
func NewGormMemberStore(db *gorm.DB) *GormMemberStore {
	return &GormMemberStore{db: db}
}

func (s *GormMemberStore) Create(ctx context.Context, member *models.Member) (int64, error) {
	var taken int64
	if err := s.db.WithContext(ctx).Model(&models.Member{}).Where("email = ?", member.Email).Count(&taken).Error; err != nil {
		return 0, fmt.Errorf("error checking member email: %w", err)
	}
	if taken > 0 {
		return 0, apperrors.NewConflictError("member email already registered")
	}

	if err := s.db.WithContext(ctx).Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, apperrors.NewConflictError("member email already registered")
		}
		return 0, fmt.Errorf("error creating member: %w", err)
	}
	return member.ID, nil
}

func (s *GormMemberStore) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	var member models.Member
	result := s.db.WithContext(ctx).First(&member, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMemberNotFound
		}
		return nil, fmt.Errorf("error retrieving member: %w", result.Error)
	}
	return &member, nil
}

func (s *GormMemberStore) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Member{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking member existence: %w", err)
	}
	return count > 0, nil
}

// GormJobCategoryStore is the SQLite JobCategoryStore
type GormJobCategoryStore struct {
	db *gorm.DB
}

// NewGormJobCategoryStore creates a GORM-backed job category store
func NewGormJobCategoryStore(db *gorm.DB) *GormJobCategoryStore {
	return &GormJobCategoryStore{db: db}
}

// Create inserts the category unless one with the same name exists
func (s *GormJobCategoryStore) Create(ctx context.Context, category *models.JobCategory) (int64, error) {
	result := s.db.WithContext(ctx).
		Where(models.JobCategory{Name: category.Name}).
		Attrs(models.JobCategory{ParentID: category.ParentID}).
		FirstOrCreate(category)
	if result.Error != nil {
		return 0, fmt.Errorf("error creating job category: %w", result.Error)
	}
	return category.ID, nil
}

func (s *GormJobCategoryStore) GetAll(ctx context.Context) ([]*models.JobCategory, error) {
	categories := []*models.JobCategory{}
	if err := s.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("error listing job categories: %w", err)
	}
	return categories, nil
}

func (s *GormJobCategoryStore) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.JobCategory{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking job category existence: %w", err)
	}
	return count > 0, nil
}

// GormCourseStore is the SQLite CourseStore
type GormCourseStore struct {
	db *gorm.DB
}

// NewGormCourseStore creates a GORM-backed course store
func NewGormCourseStore(db *gorm.DB) *GormCourseStore {
	return &GormCourseStore{db: db}
}

// Upsert inserts courses, refreshing rows that share an external id
func (s *GormCourseStore) Upsert(ctx context.Context, courses []*models.Course) (int, error) {
	if len(courses) == 0 {
		return 0, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, course := range courses {
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "external_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "url", "instructor", "image_url", "price", "job_category_id", "scraped_at"}),
			}).Create(course)
			if result.Error != nil {
				return fmt.Errorf("failed to upsert course %s: %w", course.ExternalID, result.Error)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(courses), nil
}

func (s *GormCourseStore) GetAll(ctx context.Context) ([]*models.Course, error) {
	courses := []*models.Course{}
	if err := s.db.WithContext(ctx).Order("id").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	return courses, nil
}
