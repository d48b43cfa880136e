package repositories

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jdon/coffeechat/internal/app/models"
	"github.com/jdon/coffeechat/internal/domain/coffeechat"
	"github.com/jdon/coffeechat/internal/pkg/apperrors"
)

func openTestGorm(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "coffeechat.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(GormModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func backends(t *testing.T) map[string]func(t *testing.T) *Repositories {
	return map[string]func(t *testing.T) *Repositories{
		"memory": func(t *testing.T) *Repositories { return NewMemoryRepositories() },
		"sqlite": func(t *testing.T) *Repositories { return NewGormRepositories(openTestGorm(t)) },
	}
}

var baseTime = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

func seedChat(t *testing.T, store CoffeeChatStore, host, category int64, title string, created time.Time) int64 {
	t.Helper()
	chat := coffeechat.NewCoffeeChat(host, coffeechat.Fields{
		Title:         title,
		Content:       "content of " + title,
		JobCategoryID: category,
		MeetDate:      created.Add(24 * time.Hour),
		OpenChatURL:   "https://open.kakao.com/o/abc",
	})
	chat.CreatedAt = created
	id, err := store.Create(context.Background(), chat)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return id
}

func TestCoffeeChatStore_CreateGet(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t).CoffeeChats
			ctx := context.Background()

			id := seedChat(t, store, 1, 5, "Backend talk", baseTime)
			if id == 0 {
				t.Fatal("expected assigned id")
			}

			chat, err := store.Get(ctx, id)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if chat.Status != coffeechat.StatusOpen || chat.Version != 1 || chat.GuestID != nil {
				t.Errorf("stored chat = %+v", chat)
			}
			if chat.Title != "Backend talk" || chat.JobCategoryID != 5 || chat.HostID != 1 {
				t.Errorf("fields not persisted: %+v", chat)
			}

			if _, err := store.Get(ctx, id+100); !errors.Is(err, apperrors.ErrCoffeeChatNotFound) {
				t.Errorf("missing chat err = %v, want ErrCoffeeChatNotFound", err)
			}
		})
	}
}

func TestCoffeeChatStore_UpdateCAS(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t).CoffeeChats
			ctx := context.Background()
			id := seedChat(t, store, 1, 5, "CAS", baseTime)

			updated, err := store.Update(ctx, id, func(c *coffeechat.CoffeeChat) error {
				return c.Apply(2, baseTime.Add(time.Minute))
			})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if updated.Version != 2 || updated.Status != coffeechat.StatusApplied || !updated.IsGuest(2) {
				t.Errorf("updated = %+v", updated)
			}

			// A write landing between read and write makes the outer write stale.
			_, err = store.Update(ctx, id, func(c *coffeechat.CoffeeChat) error {
				if _, err := store.Update(ctx, id, func(inner *coffeechat.CoffeeChat) error {
					return inner.Confirm(1, baseTime.Add(2*time.Minute))
				}); err != nil {
					t.Fatalf("inner Update: %v", err)
				}
				return c.Reject(1, baseTime.Add(3*time.Minute))
			})
			if !errors.Is(err, apperrors.ErrStaleRecord) {
				t.Fatalf("outer Update err = %v, want ErrStaleRecord", err)
			}

			stored, err := store.Get(ctx, id)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if stored.Status != coffeechat.StatusConfirmed || stored.Version != 3 {
				t.Errorf("stored after stale write = %s v%d, want CONFIRMED v3", stored.Status, stored.Version)
			}
		})
	}
}

func TestCoffeeChatStore_MutatorErrorWritesNothing(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t).CoffeeChats
			ctx := context.Background()
			id := seedChat(t, store, 1, 5, "guarded", baseTime)

			_, err := store.Update(ctx, id, func(c *coffeechat.CoffeeChat) error {
				c.Title = "should not persist"
				return c.Confirm(1, baseTime)
			})
			if !errors.Is(err, apperrors.ErrInvalidTransition) {
				t.Fatalf("err = %v, want ErrInvalidTransition", err)
			}

			stored, _ := store.Get(ctx, id)
			if stored.Title != "guarded" || stored.Version != 1 {
				t.Errorf("stored = %q v%d, want untouched", stored.Title, stored.Version)
			}
		})
	}
}

func TestCoffeeChatStore_UpdateRejectsBrokenInvariants(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t).CoffeeChats
			ctx := context.Background()
			id := seedChat(t, store, 1, 5, "consistent", baseTime)

			_, err := store.Update(ctx, id, func(c *coffeechat.CoffeeChat) error {
				c.Status = coffeechat.StatusApplied
				return nil
			})
			var invariantErr *coffeechat.InvariantError
			if !errors.As(err, &invariantErr) {
				t.Fatalf("APPLIED without guest err = %v, want InvariantError", err)
			}

			_, err = store.Update(ctx, id, func(c *coffeechat.CoffeeChat) error {
				host := c.HostID
				c.GuestID = &host
				c.Status = coffeechat.StatusApplied
				return nil
			})
			if !errors.As(err, &invariantErr) {
				t.Fatalf("host as guest err = %v, want InvariantError", err)
			}

			stored, _ := store.Get(ctx, id)
			if stored.Status != coffeechat.StatusOpen || stored.GuestID != nil || stored.Version != 1 {
				t.Errorf("stored = %s guest=%v v%d, want untouched OPEN", stored.Status, stored.GuestID, stored.Version)
			}
		})
	}
}

func TestCoffeeChatStore_UpdateReturnsWrittenState(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t).CoffeeChats
			ctx := context.Background()
			id := seedChat(t, store, 1, 5, "before", baseTime)

			for i := 0; i < 2; i++ {
				if err := store.IncrementViewCount(ctx, id); err != nil {
					t.Fatalf("IncrementViewCount: %v", err)
				}
			}

			updated, err := store.Update(ctx, id, func(c *coffeechat.CoffeeChat) error {
				return c.Edit(1, coffeechat.Fields{
					Title:         "after",
					Content:       c.Content,
					JobCategoryID: c.JobCategoryID,
					MeetDate:      c.MeetDate,
					OpenChatURL:   c.OpenChatURL,
				}, baseTime.Add(time.Minute))
			})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if updated.Title != "after" || updated.Version != 2 || updated.ViewCount != 2 {
				t.Errorf("updated = %q v%d views=%d, want after v2 views=2", updated.Title, updated.Version, updated.ViewCount)
			}
		})
	}
}

func TestCoffeeChatStore_Delete(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t).CoffeeChats
			ctx := context.Background()

			confirmed := seedChat(t, store, 1, 5, "confirmed", baseTime)
			if _, err := store.Update(ctx, confirmed, func(c *coffeechat.CoffeeChat) error {
				if err := c.Apply(2, baseTime); err != nil {
					return err
				}
				return c.Confirm(1, baseTime)
			}); err != nil {
				t.Fatalf("drive to CONFIRMED: %v", err)
			}
			if err := store.Delete(ctx, confirmed); !errors.Is(err, apperrors.ErrConflict) {
				t.Errorf("delete CONFIRMED err = %v, want ErrConflict", err)
			}

			cancelled := seedChat(t, store, 1, 5, "cancelled", baseTime)
			if _, err := store.Update(ctx, cancelled, func(c *coffeechat.CoffeeChat) error {
				return c.Cancel(1, baseTime)
			}); err != nil {
				t.Fatalf("drive to CANCELLED: %v", err)
			}
			if err := store.Delete(ctx, cancelled); err != nil {
				t.Errorf("delete CANCELLED: %v", err)
			}
			if _, err := store.Get(ctx, cancelled); !errors.Is(err, apperrors.ErrResourceNotFound) {
				t.Errorf("deleted chat still readable: %v", err)
			}

			if err := store.Delete(ctx, 9999); !errors.Is(err, apperrors.ErrCoffeeChatNotFound) {
				t.Errorf("delete missing err = %v, want ErrCoffeeChatNotFound", err)
			}
		})
	}
}

func TestCoffeeChatStore_List(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t).CoffeeChats
			ctx := context.Background()

			a := seedChat(t, store, 1, 5, "Golang mentoring", baseTime)
			b := seedChat(t, store, 2, 7, "Design review", baseTime.Add(time.Hour))
			c := seedChat(t, store, 3, 5, "Resume clinic", baseTime.Add(2*time.Hour))

			page, err := store.List(ctx, coffeechat.Filter{JobCategoryID: 5}, coffeechat.PageRequest{Size: 12})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if page.TotalItems != 2 || len(page.Items) != 2 {
				t.Fatalf("category 5 page = %d items of %d", len(page.Items), page.TotalItems)
			}
			if page.Items[0].ID != c || page.Items[1].ID != a {
				t.Errorf("order = [%d %d], want newest first [%d %d]", page.Items[0].ID, page.Items[1].ID, c, a)
			}

			page, err = store.List(ctx, coffeechat.Filter{Keyword: "GOLANG"}, coffeechat.PageRequest{Size: 12})
			if err != nil {
				t.Fatalf("List keyword: %v", err)
			}
			if page.TotalItems != 1 || page.Items[0].ID != a {
				t.Errorf("keyword page = %+v", page.Items)
			}

			page, err = store.List(ctx, coffeechat.Filter{Keyword: "   "}, coffeechat.PageRequest{Page: 1, Size: 2})
			if err != nil {
				t.Fatalf("List page 1: %v", err)
			}
			if page.TotalItems != 3 || page.TotalPages != 2 || len(page.Items) != 1 || page.Items[0].ID != a || !page.Last() {
				t.Errorf("second page = %+v", page)
			}

			if _, err := store.Update(ctx, b, func(chat *coffeechat.CoffeeChat) error { return chat.Apply(9, baseTime) }); err != nil {
				t.Fatalf("apply: %v", err)
			}
			page, err = store.List(ctx, coffeechat.Filter{GuestID: 9}, coffeechat.PageRequest{Size: 12})
			if err != nil {
				t.Fatalf("List guest: %v", err)
			}
			if page.TotalItems != 1 || page.Items[0].ID != b {
				t.Errorf("guest page = %+v", page.Items)
			}

			empty, err := store.List(ctx, coffeechat.Filter{HostID: 42}, coffeechat.PageRequest{Size: 12})
			if err != nil {
				t.Fatalf("List host: %v", err)
			}
			if empty.TotalItems != 0 || empty.Items == nil {
				t.Errorf("empty page = %+v", empty)
			}
		})
	}
}

func TestCoffeeChatStore_ListKeywordIsLiteral(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t).CoffeeChats
			ctx := context.Background()

			golang := seedChat(t, store, 1, 5, "Golang mentoring", baseTime)
			discount := seedChat(t, store, 2, 5, "100% discount", baseTime.Add(time.Hour))
			snake := seedChat(t, store, 3, 5, `snake_case\paths`, baseTime.Add(2*time.Hour))

			tests := []struct {
				keyword string
				want    []int64
			}{
				{keyword: "_", want: []int64{snake}},
				{keyword: "%", want: []int64{discount}},
				{keyword: "g%g", want: nil},
				{keyword: "g_lang", want: nil},
				{keyword: `\`, want: []int64{snake}},
				{keyword: "0% DIS", want: []int64{discount}},
				{keyword: "mentor", want: []int64{golang}},
			}
			for _, tt := range tests {
				page, err := store.List(ctx, coffeechat.Filter{Keyword: tt.keyword}, coffeechat.PageRequest{Size: 12})
				if err != nil {
					t.Fatalf("List %q: %v", tt.keyword, err)
				}
				if int(page.TotalItems) != len(tt.want) || len(page.Items) != len(tt.want) {
					t.Errorf("keyword %q matched %d chats, want %d", tt.keyword, page.TotalItems, len(tt.want))
					continue
				}
				for i, id := range tt.want {
					if page.Items[i].ID != id {
						t.Errorf("keyword %q item %d = %d, want %d", tt.keyword, i, page.Items[i].ID, id)
					}
				}
			}
		})
	}
}

func TestCoffeeChatStore_IncrementViewCount(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t).CoffeeChats
			ctx := context.Background()
			id := seedChat(t, store, 1, 5, "viewed", baseTime)

			for i := 0; i < 3; i++ {
				if err := store.IncrementViewCount(ctx, id); err != nil {
					t.Fatalf("IncrementViewCount: %v", err)
				}
			}
			chat, _ := store.Get(ctx, id)
			if chat.ViewCount != 3 || chat.Version != 1 {
				t.Errorf("view count %d version %d, want 3 and 1", chat.ViewCount, chat.Version)
			}

			if err := store.IncrementViewCount(ctx, 777); !errors.Is(err, apperrors.ErrCoffeeChatNotFound) {
				t.Errorf("missing chat err = %v", err)
			}
		})
	}
}

func TestMemoryCoffeeChatStore_ConcurrentApply(t *testing.T) {
	store := NewMemoryCoffeeChatStore()
	id := seedChat(t, store, 1, 5, "contended", baseTime)

	const applicants = 20
	var wg sync.WaitGroup
	errs := make(chan error, applicants)
	start := make(chan struct{})
	for i := 0; i < applicants; i++ {
		wg.Add(1)
		go func(guest int64) {
			defer wg.Done()
			<-start
			_, err := store.Update(context.Background(), id, func(c *coffeechat.CoffeeChat) error {
				return c.Apply(guest, baseTime)
			})
			errs <- err
		}(int64(100 + i))
	}
	close(start)
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, apperrors.ErrStaleRecord), errors.Is(err, apperrors.ErrAlreadyApplied):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("successes = %d, want 1", successes)
	}

	chat, _ := store.Get(context.Background(), id)
	if chat.Status != coffeechat.StatusApplied || chat.GuestID == nil || chat.Version != 2 {
		t.Errorf("final chat = %+v", chat)
	}
}

func TestStores_Supporting(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repos := open(t)
			ctx := context.Background()

			memberID, err := repos.Members.Create(ctx, &models.Member{Email: "host@jdon.kr", Nickname: "host"})
			if err != nil {
				t.Fatalf("create member: %v", err)
			}
			if ok, _ := repos.Members.Exists(ctx, memberID); !ok {
				t.Error("member should exist")
			}
			if _, err := repos.Members.Create(ctx, &models.Member{Email: "host@jdon.kr", Nickname: "dup"}); !errors.Is(err, apperrors.ErrConflict) {
				t.Errorf("duplicate email err = %v, want conflict", err)
			}
			if ok, _ := repos.Members.Exists(ctx, memberID+50); ok {
				t.Error("unknown member reported as existing")
			}
			if _, err := repos.Members.GetByID(ctx, memberID+50); !errors.Is(err, apperrors.ErrMemberNotFound) {
				t.Errorf("GetByID missing err = %v", err)
			}

			backend := &models.JobCategory{Name: "Backend"}
			if _, err := repos.JobCategories.Create(ctx, backend); err != nil {
				t.Fatalf("create category: %v", err)
			}
			again := &models.JobCategory{Name: "Backend"}
			if _, err := repos.JobCategories.Create(ctx, again); err != nil {
				t.Fatalf("create duplicate category: %v", err)
			}
			categories, err := repos.JobCategories.GetAll(ctx)
			if err != nil {
				t.Fatalf("GetAll categories: %v", err)
			}
			if len(categories) != 1 {
				t.Errorf("categories = %d, want duplicate name collapsed", len(categories))
			}
			if ok, _ := repos.JobCategories.Exists(ctx, backend.ID); !ok {
				t.Error("category should exist")
			}

			courses := []*models.Course{
				{ExternalID: "inf-1", Title: "Go basics", Price: 10000, ScrapedAt: baseTime},
				{ExternalID: "inf-2", Title: "Kubernetes", Price: 20000, ScrapedAt: baseTime},
			}
			if n, err := repos.Courses.Upsert(ctx, courses); err != nil || n != 2 {
				t.Fatalf("Upsert = %d, %v", n, err)
			}
			refreshed := []*models.Course{{ExternalID: "inf-1", Title: "Go basics 2nd edition", Price: 12000, ScrapedAt: baseTime.Add(time.Hour)}}
			if _, err := repos.Courses.Upsert(ctx, refreshed); err != nil {
				t.Fatalf("re-Upsert: %v", err)
			}
			stored, err := repos.Courses.GetAll(ctx)
			if err != nil {
				t.Fatalf("GetAll courses: %v", err)
			}
			if len(stored) != 2 {
				t.Fatalf("courses = %d, want 2", len(stored))
			}
			for _, c := range stored {
				if c.ExternalID == "inf-1" && (c.Title != "Go basics 2nd edition" || c.Price != 12000) {
					t.Errorf("course not refreshed: %+v", c)
				}
			}
		})
	}
}
