package repositories

import (
	"context"
	"strings"

	"github.com/jdon/coffeechat/internal/app/models"
	"github.com/jdon/coffeechat/internal/domain/coffeechat"
)

// MutateFunc changes a working copy of a chat inside Update. Returning an error aborts the write.
type MutateFunc func(chat *coffeechat.CoffeeChat) error

// CoffeeChatStore persists coffee chats. Update is a version-checked compare-and-swap:
// a write that lost to a concurrent writer fails with apperrors.ErrStaleRecord.
type CoffeeChatStore interface {
	Create(ctx context.Context, chat *coffeechat.CoffeeChat) (int64, error)
	Get(ctx context.Context, id int64) (*coffeechat.CoffeeChat, error)
	Update(ctx context.Context, id int64, mutate MutateFunc) (*coffeechat.CoffeeChat, error)
	// Delete removes an OPEN or CANCELLED chat in one atomic step.
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter coffeechat.Filter, page coffeechat.PageRequest) (*coffeechat.Page, error)
	// IncrementViewCount bumps the counter without touching the version.
	IncrementViewCount(ctx context.Context, id int64) error
}

// MemberStore answers member lookups for the coffee chat workflow
type MemberStore interface {
	Create(ctx context.Context, member *models.Member) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Member, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// JobCategoryStore reads and seeds job categories
type JobCategoryStore interface {
	Create(ctx context.Context, category *models.JobCategory) (int64, error)
	GetAll(ctx context.Context) ([]*models.JobCategory, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// CourseStore keeps courses collected by the scraping job
type CourseStore interface {
	// Upsert inserts or refreshes courses keyed by ExternalID and reports how many rows were written.
	Upsert(ctx context.Context, courses []*models.Course) (int, error)
	GetAll(ctx context.Context) ([]*models.Course, error)
}

// likeEscaper escapes LIKE metacharacters so a keyword matches literally under ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns a keyword into a LIKE pattern matching it as a plain substring
func containsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}

// checkedMutate runs mutate and refuses results that break the chat invariants,
// so no backend ever writes an inconsistent record.
func checkedMutate(chat *coffeechat.CoffeeChat, mutate MutateFunc) error {
	if err := mutate(chat); err != nil {
		return err
	}
	return chat.CheckInvariants()
}
