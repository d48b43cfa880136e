package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"
)

// Repositories holds all the repository instances
type Repositories struct {
	CoffeeChats   CoffeeChatStore
	Members       MemberStore
	JobCategories JobCategoryStore
	Courses       CourseStore
}

// NewRepositories initializes the PostgreSQL repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		CoffeeChats:   NewCoffeeChatRepository(db),
		Members:       NewMemberRepository(db),
		JobCategories: NewJobCategoryRepository(db),
		Courses:       NewCourseRepository(db),
	}
}

// NewGormRepositories initializes the SQLite repositories
func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		CoffeeChats:   NewGormCoffeeChatStore(db),
		Members:       NewGormMemberStore(db),
		JobCategories: NewGormJobCategoryStore(db),
		Courses:       NewGormCourseStore(db),
	}
}

// NewMemoryRepositories initializes process-local repositories
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		CoffeeChats:   NewMemoryCoffeeChatStore(),
		Members:       NewMemoryMemberStore(),
		JobCategories: NewMemoryJobCategoryStore(),
		Courses:       NewMemoryCourseStore(),
	}
}
