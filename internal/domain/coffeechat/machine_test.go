package coffeechat

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/jdon/coffeechat/internal/pkg/apperrors"
)

const (
	hostID  int64 = 1
	guestID int64 = 2
	otherID int64 = 3
)

var now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newChat() *CoffeeChat {
	return NewCoffeeChat(hostID, Fields{
		Title:         "Backend career talk",
		Content:       "Go, databases and on-call",
		JobCategoryID: 5,
		MeetDate:      now.Add(48 * time.Hour),
	})
}

func chatIn(t *testing.T, status Status) *CoffeeChat {
	t.Helper()
	c := newChat()
	steps := map[Status][]func() error{
		StatusOpen:      nil,
		StatusApplied:   {func() error { return c.Apply(guestID, now) }},
		StatusConfirmed: {func() error { return c.Apply(guestID, now) }, func() error { return c.Confirm(hostID, now) }},
		StatusCompleted: {
			func() error { return c.Apply(guestID, now) },
			func() error { return c.Confirm(hostID, now) },
			func() error { return c.Complete(guestID, now) },
		},
		StatusCancelled: {func() error { return c.Cancel(hostID, now) }},
	}
	for _, step := range steps[status] {
		if err := step(); err != nil {
			t.Fatalf("driving chat to %s: %v", status, err)
		}
	}
	if c.Status != status {
		t.Fatalf("status = %s, want %s", c.Status, status)
	}
	return c
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name      string
		from      Status
		event     Event
		actor     int64
		want      Status
		wantGuest bool
	}{
		{"apply", StatusOpen, EventApply, guestID, StatusApplied, true},
		{"confirm", StatusApplied, EventConfirm, hostID, StatusConfirmed, true},
		{"reject", StatusApplied, EventReject, hostID, StatusOpen, false},
		{"guest withdraws", StatusApplied, EventCancel, guestID, StatusOpen, false},
		{"host cancels pending", StatusApplied, EventCancel, hostID, StatusOpen, false},
		{"complete by guest", StatusConfirmed, EventComplete, guestID, StatusCompleted, true},
		{"complete by host", StatusConfirmed, EventComplete, hostID, StatusCompleted, true},
		{"cancel open", StatusOpen, EventCancel, hostID, StatusCancelled, false},
		{"cancel confirmed", StatusConfirmed, EventCancel, guestID, StatusCancelled, false},
		{"reopen", StatusCancelled, EventReopen, hostID, StatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := chatIn(t, tt.from)
			if err := c.Fire(tt.event, tt.actor, now.Add(time.Minute)); err != nil {
				t.Fatalf("Fire(%s): %v", tt.event, err)
			}
			if c.Status != tt.want {
				t.Errorf("status = %s, want %s", c.Status, tt.want)
			}
			if (c.GuestID != nil) != tt.wantGuest {
				t.Errorf("guest bound = %v, want %v", c.GuestID != nil, tt.wantGuest)
			}
			if !c.UpdatedAt.Equal(now.Add(time.Minute)) {
				t.Errorf("UpdatedAt = %v, want transition time", c.UpdatedAt)
			}
			if err := c.CheckInvariants(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestTransitions_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		from  Status
		event Event
		actor int64
	}{
		{"re-confirm", StatusConfirmed, EventConfirm, hostID},
		{"double complete", StatusCompleted, EventComplete, hostID},
		{"confirm open", StatusOpen, EventConfirm, hostID},
		{"complete applied", StatusApplied, EventComplete, guestID},
		{"reopen applied", StatusApplied, EventReopen, hostID},
		{"cancel completed", StatusCompleted, EventCancel, guestID},
		{"reopen open", StatusOpen, EventReopen, hostID},
		{"apply to cancelled", StatusCancelled, EventApply, otherID},
		{"unknown event", StatusOpen, Event("ARCHIVE"), hostID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := chatIn(t, tt.from)
			before := *c
			err := c.Fire(tt.event, tt.actor, now)

			var te *TransitionError
			if !errors.As(err, &te) {
				t.Fatalf("err = %v, want *TransitionError", err)
			}
			if te.From != tt.from || te.Event != tt.event {
				t.Errorf("TransitionError = {%s %s}, want {%s %s}", te.From, te.Event, tt.from, tt.event)
			}
			if !errors.Is(err, apperrors.ErrInvalidTransition) {
				t.Errorf("err does not match ErrInvalidTransition")
			}
			if c.Status != before.Status || c.UpdatedAt != before.UpdatedAt {
				t.Errorf("rejected transition mutated the chat")
			}
		})
	}
}

func TestApply_SelfApplication(t *testing.T) {
	for _, status := range []Status{StatusOpen, StatusCancelled, StatusApplied} {
		c := chatIn(t, status)
		err := c.Apply(hostID, now)
		if !errors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("%s: self apply err = %v, want ErrInvalidTransition", status, err)
		}
	}
}

func TestApply_AlreadyApplied(t *testing.T) {
	c := chatIn(t, StatusApplied)
	err := c.Apply(otherID, now)
	if !errors.Is(err, apperrors.ErrAlreadyApplied) {
		t.Fatalf("err = %v, want ErrAlreadyApplied", err)
	}
	if !c.IsGuest(guestID) {
		t.Errorf("first guest was replaced")
	}
}

func TestTransitions_Forbidden(t *testing.T) {
	tests := []struct {
		name  string
		from  Status
		event Event
		actor int64
	}{
		{"guest confirms", StatusApplied, EventConfirm, guestID},
		{"stranger rejects", StatusApplied, EventReject, otherID},
		{"stranger cancels", StatusConfirmed, EventCancel, otherID},
		{"stranger completes", StatusConfirmed, EventComplete, otherID},
		{"guest reopens", StatusCancelled, EventReopen, guestID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := chatIn(t, tt.from)
			err := c.Fire(tt.event, tt.actor, now)
			if !errors.Is(err, apperrors.ErrPermissionDenied) {
				t.Fatalf("err = %v, want ErrPermissionDenied", err)
			}
			if c.Status != tt.from {
				t.Errorf("status changed to %s", c.Status)
			}
		})
	}
}

func TestEdit(t *testing.T) {
	fields := Fields{Title: "New", Content: "Updated", JobCategoryID: 7, MeetDate: now.Add(72 * time.Hour)}

	c := chatIn(t, StatusConfirmed)
	if err := c.Edit(hostID, fields, now); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if c.Title != "New" || c.JobCategoryID != 7 || c.Status != StatusConfirmed {
		t.Errorf("edit result = %+v", c)
	}

	if err := c.Edit(guestID, fields, now); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("guest edit err = %v, want ErrPermissionDenied", err)
	}

	done := chatIn(t, StatusCompleted)
	if err := done.Edit(hostID, fields, now); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Errorf("completed edit err = %v, want ErrInvalidTransition", err)
	}
}

// Random walks over the event alphabet must never break the guest/status invariant.
func TestInvariantHoldsOverRandomSequences(t *testing.T) {
	events := []Event{EventApply, EventConfirm, EventReject, EventCancel, EventComplete, EventReopen}
	actors := []int64{hostID, guestID, otherID}
	rng := rand.New(rand.NewSource(42))

	for walk := 0; walk < 500; walk++ {
		c := newChat()
		for step := 0; step < 20; step++ {
			ev := events[rng.Intn(len(events))]
			actor := actors[rng.Intn(len(actors))]
			before := c.Status
			if err := c.Fire(ev, actor, now); err != nil && c.Status != before {
				t.Fatalf("walk %d step %d: failed %s changed status %s -> %s", walk, step, ev, before, c.Status)
			}
			if err := c.CheckInvariants(); err != nil {
				t.Fatalf("walk %d step %d after %s by %d: %v", walk, step, ev, actor, err)
			}
		}
	}
}
