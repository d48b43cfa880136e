package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jdon/coffeechat/internal/app/models"
	"github.com/jdon/coffeechat/internal/app/repositories"
	"github.com/jdon/coffeechat/internal/domain/coffeechat"
	"github.com/jdon/coffeechat/internal/pkg/apperrors"
	"github.com/jdon/coffeechat/internal/pkg/helpers"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []coffeechat.ChatEvent
}

func (n *recordingNotifier) Publish(event coffeechat.ChatEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) all() []coffeechat.ChatEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]coffeechat.ChatEvent(nil), n.events...)
}

type fixture struct {
	svc      CoffeeChatService
	repos    *repositories.Repositories
	notifier *recordingNotifier
	members  []int64
	backend  int64
	design   int64
}

func newFixture(t *testing.T, memberCount int) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := repositories.NewMemoryRepositories()

	f := &fixture{repos: repos, notifier: &recordingNotifier{}}
	for i := 0; i < memberCount; i++ {
		id, err := repos.Members.Create(ctx, &models.Member{
			Email:    fmt.Sprintf("member%d@example.com", i),
			Nickname: fmt.Sprintf("member%d", i),
		})
		if err != nil {
			t.Fatalf("create member: %v", err)
		}
		f.members = append(f.members, id)
	}

	var err error
	if f.backend, err = repos.JobCategories.Create(ctx, &models.JobCategory{Name: "Backend"}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	if f.design, err = repos.JobCategories.Create(ctx, &models.JobCategory{Name: "Design"}); err != nil {
		t.Fatalf("create category: %v", err)
	}

	f.svc = NewCoffeeChatService(repos, f.notifier, helpers.PageLimits{DefaultSize: helpers.DefaultPageSize, MaxSize: helpers.MaxPageSize}, zerolog.Nop())
	return f
}

func (f *fixture) fields(category int64, title string) coffeechat.Fields {
	return coffeechat.Fields{
		Title:         title,
		Content:       "let's talk about " + title,
		JobCategoryID: category,
		MeetDate:      time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC),
		OpenChatURL:   "https://open.kakao.com/o/abc",
	}
}

func (f *fixture) open(t *testing.T, host int64) int64 {
	t.Helper()
	id, err := f.svc.CreateChat(context.Background(), host, f.fields(f.backend, "backend chat"))
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	return id
}

func (f *fixture) status(t *testing.T, id int64) (coffeechat.Status, *int64) {
	t.Helper()
	chat, err := f.repos.CoffeeChats.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return chat.Status, chat.GuestID
}

func TestCreateChat(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	host := f.members[0]

	id := f.open(t, host)
	chat, err := f.repos.CoffeeChats.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if chat.Status != coffeechat.StatusOpen || chat.Version != 1 || chat.GuestID != nil {
		t.Errorf("created chat = %+v", chat)
	}

	if _, err := f.svc.CreateChat(ctx, 999, f.fields(f.backend, "x")); !errors.Is(err, apperrors.ErrMemberNotFound) {
		t.Errorf("unknown host: err = %v", err)
	}
	if _, err := f.svc.CreateChat(ctx, host, f.fields(999, "x")); !errors.Is(err, apperrors.ErrJobCategoryNotFound) {
		t.Errorf("unknown category: err = %v", err)
	}
	if _, err := f.svc.CreateChat(ctx, host, f.fields(f.backend, "")); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("blank title: err = %v", err)
	}
}

func TestApplyToChat_ConcurrentApplicants(t *testing.T) {
	const applicants = 16
	f := newFixture(t, applicants+1)
	host := f.members[0]
	chatID := f.open(t, host)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		already   int
		other     []error
	)
	start := make(chan struct{})
	for _, guest := range f.members[1:] {
		wg.Add(1)
		go func(guest int64) {
			defer wg.Done()
			<-start
			_, err := f.svc.ApplyToChat(context.Background(), chatID, guest)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperrors.ErrAlreadyApplied):
				already++
			default:
				other = append(other, err)
			}
		}(guest)
	}
	close(start)
	wg.Wait()

	if successes != 1 || already != applicants-1 || len(other) != 0 {
		t.Fatalf("successes=%d already=%d other=%v", successes, already, other)
	}
	status, guest := f.status(t, chatID)
	if status != coffeechat.StatusApplied || guest == nil {
		t.Errorf("status=%s guest=%v", status, guest)
	}
}

func TestApplyToChat_Guards(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	host, guest, other := f.members[0], f.members[1], f.members[2]
	chatID := f.open(t, host)

	if _, err := f.svc.ApplyToChat(ctx, chatID, host); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Errorf("self-apply: err = %v, want invalid transition", err)
	}
	if _, err := f.svc.ApplyToChat(ctx, chatID, 999); !errors.Is(err, apperrors.ErrMemberNotFound) {
		t.Errorf("unknown guest: err = %v", err)
	}
	if _, err := f.svc.ApplyToChat(ctx, 999, guest); !errors.Is(err, apperrors.ErrCoffeeChatNotFound) {
		t.Errorf("unknown chat: err = %v", err)
	}

	resp, err := f.svc.ApplyToChat(ctx, chatID, guest)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !resp.IsGuest || resp.IsHost || resp.Status != string(coffeechat.StatusApplied) {
		t.Errorf("apply response = %+v", resp)
	}

	if _, err := f.svc.ApplyToChat(ctx, chatID, other); !errors.Is(err, apperrors.ErrAlreadyApplied) {
		t.Errorf("second applicant: err = %v", err)
	}
	if _, err := f.svc.ApplyToChat(ctx, chatID, host); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Errorf("self-apply on applied chat: err = %v", err)
	}
}

func TestCancelThenReapply(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	host, first, second := f.members[0], f.members[1], f.members[2]
	chatID := f.open(t, host)

	if _, err := f.svc.ApplyToChat(ctx, chatID, first); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := f.svc.CancelChat(ctx, chatID, first); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if status, guest := f.status(t, chatID); status != coffeechat.StatusOpen || guest != nil {
		t.Fatalf("after cancel status=%s guest=%v", status, guest)
	}

	if _, err := f.svc.ApplyToChat(ctx, chatID, second); err != nil {
		t.Fatalf("reapply: %v", err)
	}
	if _, guest := f.status(t, chatID); guest == nil || *guest != second {
		t.Errorf("guest = %v, want %d", guest, second)
	}
}

func TestTransitions_RejectRepeats(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	host, guest, other := f.members[0], f.members[1], f.members[2]
	chatID := f.open(t, host)

	if _, err := f.svc.ApplyToChat(ctx, chatID, guest); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := f.svc.ConfirmChat(ctx, chatID, guest); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("guest confirm: err = %v, want forbidden", err)
	}
	if _, err := f.svc.ConfirmChat(ctx, chatID, host); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	var te *coffeechat.TransitionError
	if _, err := f.svc.ConfirmChat(ctx, chatID, host); !errors.As(err, &te) || te.From != coffeechat.StatusConfirmed {
		t.Errorf("re-confirm: err = %v", err)
	}
	if _, err := f.svc.CompleteChat(ctx, chatID, other); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("outsider complete: err = %v", err)
	}
	if _, err := f.svc.CompleteChat(ctx, chatID, guest); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := f.svc.CompleteChat(ctx, chatID, host); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Errorf("double complete: err = %v", err)
	}
	if _, err := f.svc.EditChat(ctx, chatID, host, f.fields(f.backend, "late edit")); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Errorf("edit completed: err = %v", err)
	}
}

func TestRejectAndReopen(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	host, guest := f.members[0], f.members[1]
	chatID := f.open(t, host)

	if _, err := f.svc.ApplyToChat(ctx, chatID, guest); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := f.svc.RejectChat(ctx, chatID, host); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if status, g := f.status(t, chatID); status != coffeechat.StatusOpen || g != nil {
		t.Fatalf("after reject status=%s guest=%v", status, g)
	}

	if _, err := f.svc.CancelChat(ctx, chatID, host); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.ReopenChat(ctx, chatID, guest); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("non-host reopen: err = %v", err)
	}
	if _, err := f.svc.ReopenChat(ctx, chatID, host); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if status, _ := f.status(t, chatID); status != coffeechat.StatusOpen {
		t.Errorf("after reopen status=%s", status)
	}
}

func TestEditChat(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	host, other := f.members[0], f.members[1]
	chatID := f.open(t, host)

	if _, err := f.svc.EditChat(ctx, chatID, other, f.fields(f.design, "hijack")); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("non-host edit: err = %v", err)
	}
	if _, err := f.svc.EditChat(ctx, chatID, host, f.fields(999, "bad category")); !errors.Is(err, apperrors.ErrJobCategoryNotFound) {
		t.Errorf("unknown category: err = %v", err)
	}

	resp, err := f.svc.EditChat(ctx, chatID, host, f.fields(f.design, "portfolio review"))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if resp.Title != "portfolio review" || resp.JobCategoryID != f.design || !resp.IsHost {
		t.Errorf("edit response = %+v", resp)
	}
}

func TestDeleteChat(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	host, guest := f.members[0], f.members[1]

	confirmed := f.open(t, host)
	if _, err := f.svc.ApplyToChat(ctx, confirmed, guest); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := f.svc.ConfirmChat(ctx, confirmed, host); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := f.svc.DeleteChat(ctx, confirmed, host); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("delete confirmed: err = %v, want conflict", err)
	}

	cancelled := f.open(t, host)
	if _, err := f.svc.CancelChat(ctx, cancelled, host); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := f.svc.DeleteChat(ctx, cancelled, guest); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("non-host delete: err = %v", err)
	}
	if err := f.svc.DeleteChat(ctx, cancelled, host); err != nil {
		t.Fatalf("delete cancelled: %v", err)
	}
	if _, err := f.repos.CoffeeChats.Get(ctx, cancelled); !errors.Is(err, apperrors.ErrCoffeeChatNotFound) {
		t.Errorf("deleted chat still readable: %v", err)
	}

	open := f.open(t, host)
	if err := f.svc.RemoveChat(ctx, open); err != nil {
		t.Errorf("remove open: %v", err)
	}
	if err := f.svc.RemoveChat(ctx, open); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("remove twice: err = %v", err)
	}
}

func TestGetChat_ViewerFlagsAndViews(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	host, guest, other := f.members[0], f.members[1], f.members[2]
	chatID := f.open(t, host)
	if _, err := f.svc.ApplyToChat(ctx, chatID, guest); err != nil {
		t.Fatalf("apply: %v", err)
	}

	tests := []struct {
		name              string
		viewer            *int64
		wantHost, wantGst bool
	}{
		{"anonymous", nil, false, false},
		{"host", &host, true, false},
		{"guest", &guest, false, true},
		{"other", &other, false, false},
	}
	for i, tt := range tests {
		resp, err := f.svc.GetChat(ctx, chatID, tt.viewer)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if resp.IsHost != tt.wantHost || resp.IsGuest != tt.wantGst {
			t.Errorf("%s: isHost=%v isGuest=%v", tt.name, resp.IsHost, resp.IsGuest)
		}
		if resp.ViewCount != int64(i+1) {
			t.Errorf("%s: viewCount=%d, want %d", tt.name, resp.ViewCount, i+1)
		}
	}

	chat, _ := f.repos.CoffeeChats.Get(ctx, chatID)
	if chat.Version != 2 {
		t.Errorf("views changed the version: %d", chat.Version)
	}
}

func TestListChats(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	host, guest := f.members[0], f.members[1]

	for i := 0; i < 3; i++ {
		if _, err := f.svc.CreateChat(ctx, host, f.fields(f.backend, fmt.Sprintf("golang %d", i))); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	designID, err := f.svc.CreateChat(ctx, host, f.fields(f.design, "figma"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	byCategory, err := f.svc.ListChats(ctx, coffeechat.Filter{JobCategoryID: f.backend}, coffeechat.PageRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if byCategory.Pagination.TotalItems != 3 || byCategory.Pagination.Size != helpers.DefaultPageSize {
		t.Errorf("category list pagination = %+v", byCategory.Pagination)
	}
	for _, c := range byCategory.CoffeeChats {
		if c.JobCategoryID != f.backend {
			t.Errorf("chat %d has category %d", c.ID, c.JobCategoryID)
		}
	}

	all, err := f.svc.ListChats(ctx, coffeechat.Filter{Keyword: ""}, coffeechat.PageRequest{Size: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.Pagination.TotalItems != 4 || all.Pagination.TotalPages != 2 || len(all.CoffeeChats) != 2 {
		t.Errorf("unfiltered list = %+v", all.Pagination)
	}

	if _, err := f.svc.ApplyToChat(ctx, designID, guest); err != nil {
		t.Fatalf("apply: %v", err)
	}
	mine, err := f.svc.ListByGuest(ctx, guest, coffeechat.PageRequest{})
	if err != nil {
		t.Fatalf("list by guest: %v", err)
	}
	if len(mine.CoffeeChats) != 1 || mine.CoffeeChats[0].ID != designID {
		t.Errorf("guest list = %+v", mine.CoffeeChats)
	}

	hosted, err := f.svc.ListByHost(ctx, host, coffeechat.PageRequest{Size: 500})
	if err != nil {
		t.Fatalf("list by host: %v", err)
	}
	if hosted.Pagination.TotalItems != 4 || hosted.Pagination.Size != helpers.MaxPageSize {
		t.Errorf("host list pagination = %+v", hosted.Pagination)
	}
}

func TestNotifierReceivesTransitions(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	host, guest := f.members[0], f.members[1]
	chatID := f.open(t, host)

	if _, err := f.svc.ApplyToChat(ctx, chatID, guest); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := f.svc.RejectChat(ctx, chatID, host); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.svc.ConfirmChat(ctx, chatID, host); err == nil {
		t.Fatal("confirm on open chat succeeded")
	}

	events := f.notifier.all()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	reject := events[1]
	if reject.Event != coffeechat.EventReject || reject.Status != coffeechat.StatusOpen {
		t.Errorf("reject event = %+v", reject)
	}
	if reject.GuestID == nil || *reject.GuestID != guest {
		t.Errorf("rejected guest missing from event: %+v", reject)
	}
	if len(reject.Recipients()) != 2 {
		t.Errorf("recipients = %v", reject.Recipients())
	}
}
