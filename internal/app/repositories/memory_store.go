package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jdon/coffeechat/internal/app/models"
	"github.com/jdon/coffeechat/internal/domain/coffeechat"
	"github.com/jdon/coffeechat/internal/pkg/apperrors"
)

// MemoryCoffeeChatStore keeps chats in process memory. Used by tests and the memory driver.
type MemoryCoffeeChatStore struct {
	mu     sync.RWMutex
	chats  map[int64]*coffeechat.CoffeeChat
	nextID int64
	now    func() time.Time
}

// NewMemoryCoffeeChatStore creates an empty in-memory chat store
func NewMemoryCoffeeChatStore() *MemoryCoffeeChatStore {
	return &MemoryCoffeeChatStore{
		chats: make(map[int64]*coffeechat.CoffeeChat),
		now:   time.Now,
	}
}

// Create stores a copy of chat and assigns its id
func (s *MemoryCoffeeChatStore) Create(ctx context.Context, chat *coffeechat.CoffeeChat) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.now().UTC()
	chat.ID = s.nextID
	chat.Version = 1
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	chat.UpdatedAt = chat.CreatedAt
	s.chats[chat.ID] = chat.Clone()
	return chat.ID, nil
}

// Get returns a copy of the stored chat
func (s *MemoryCoffeeChatStore) Get(ctx context.Context, id int64) (*coffeechat.CoffeeChat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[id]
	if !ok {
		return nil, apperrors.ErrCoffeeChatNotFound
	}
	return chat.Clone(), nil
}

// Update runs mutate on a copy outside the lock, then swaps it in only if the stored
// version is still the one that was read.
func (s *MemoryCoffeeChatStore) Update(ctx context.Context, id int64, mutate MutateFunc) (*coffeechat.CoffeeChat, error) {
	working, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	readVersion := working.Version

	if err := checkedMutate(working, mutate); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.chats[id]
	if !ok {
		return nil, apperrors.ErrCoffeeChatNotFound
	}
	if stored.Version != readVersion {
		return nil, apperrors.ErrStaleRecord
	}

	working.ID = stored.ID
	working.HostID = stored.HostID
	working.ViewCount = stored.ViewCount
	working.CreatedAt = stored.CreatedAt
	working.Version = readVersion + 1
	s.chats[id] = working
	return working.Clone(), nil
}

// Delete removes a chat in a deletable status
func (s *MemoryCoffeeChatStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[id]
	if !ok {
		return apperrors.ErrCoffeeChatNotFound
	}
	if !chat.Status.Deletable() {
		return apperrors.ErrCoffeeChatNotDeletable
	}
	delete(s.chats, id)
	return nil
}

// List filters, sorts and pages a snapshot of the store
func (s *MemoryCoffeeChatStore) List(ctx context.Context, filter coffeechat.Filter, page coffeechat.PageRequest) (*coffeechat.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	snapshot := make([]*coffeechat.CoffeeChat, 0, len(s.chats))
	for _, chat := range s.chats {
		snapshot = append(snapshot, chat.Clone())
	}
	s.mu.RUnlock()

	return coffeechat.Paginate(snapshot, filter, page), nil
}

// IncrementViewCount bumps the view counter
func (s *MemoryCoffeeChatStore) IncrementViewCount(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[id]
	if !ok {
		return apperrors.ErrCoffeeChatNotFound
	}
	chat.ViewCount++
	return nil
}

// MemoryMemberStore is an in-memory MemberStore
type MemoryMemberStore struct {
	mu      sync.RWMutex
	members map[int64]*models.Member
	nextID  int64
}

// NewMemoryMemberStore creates an empty member store
func NewMemoryMemberStore() *MemoryMemberStore {
	return &MemoryMemberStore{members: make(map[int64]*models.Member)}
}

func (s *MemoryMemberStore) Create(ctx context.Context, member *models.Member) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.members {
		if existing.Email == member.Email {
			return 0, apperrors.NewConflictError("member email already registered")
		}
	}

	if member.ID == 0 {
		s.nextID++
		member.ID = s.nextID
	} else if member.ID > s.nextID {
		s.nextID = member.ID
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
	}
	cp := *member
	s.members[member.ID] = &cp
	return member.ID, nil
}

func (s *MemoryMemberStore) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, ok := s.members[id]
	if !ok {
		return nil, apperrors.ErrMemberNotFound
	}
	cp := *member
	return &cp, nil
}

func (s *MemoryMemberStore) Exists(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[id]
	return ok, nil
}

// MemoryJobCategoryStore is an in-memory JobCategoryStore
type MemoryJobCategoryStore struct {
	mu         sync.RWMutex
	categories map[int64]*models.JobCategory
	nextID     int64
}

// NewMemoryJobCategoryStore creates an empty job category store
func NewMemoryJobCategoryStore() *MemoryJobCategoryStore {
	return &MemoryJobCategoryStore{categories: make(map[int64]*models.JobCategory)}
}

// Create inserts the category unless one with the same name exists
func (s *MemoryJobCategoryStore) Create(ctx context.Context, category *models.JobCategory) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.Name == category.Name {
			*category = *existing
			return category.ID, nil
		}
	}

	if category.ID == 0 {
		s.nextID++
		category.ID = s.nextID
	} else if category.ID > s.nextID {
		s.nextID = category.ID
	}
	cp := *category
	s.categories[category.ID] = &cp
	return category.ID, nil
}

func (s *MemoryJobCategoryStore) GetAll(ctx context.Context) ([]*models.JobCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.JobCategory, 0, len(s.categories))
	for _, c := range s.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryJobCategoryStore) Exists(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.categories[id]
	return ok, nil
}

// MemoryCourseStore is an in-memory CourseStore keyed by external id
type MemoryCourseStore struct {
	mu      sync.RWMutex
	courses map[string]*models.Course
	nextID  int64
}

// NewMemoryCourseStore creates an empty course store
func NewMemoryCourseStore() *MemoryCourseStore {
	return &MemoryCourseStore{courses: make(map[string]*models.Course)}
}

func (s *MemoryCourseStore) Upsert(ctx context.Context, courses []*models.Course) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, course := range courses {
		cp := *course
		if existing, ok := s.courses[course.ExternalID]; ok {
			cp.ID = existing.ID
		} else {
			s.nextID++
			cp.ID = s.nextID
		}
		course.ID = cp.ID
		s.courses[course.ExternalID] = &cp
	}
	return len(courses), nil
}

func (s *MemoryCourseStore) GetAll(ctx context.Context) ([]*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Course, 0, len(s.courses))
	for _, c := range s.courses {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
