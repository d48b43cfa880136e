package coffeechat

import (
	"fmt"
	"time"

	"github.com/jdon/coffeechat/internal/pkg/apperrors"
)

// Event is a lifecycle event fired against a chat
type Event string

const (
	EventApply    Event = "APPLY"
	EventConfirm  Event = "CONFIRM"
	EventReject   Event = "REJECT"
	EventCancel   Event = "CANCEL"
	EventComplete Event = "COMPLETE"
	EventReopen   Event = "REOPEN"
	EventEdit     Event = "EDIT"
)

// role is who may fire an edge
type role int

const (
	roleApplicant role = iota // any member except the host
	roleHost
	roleParticipant // host or bound guest
)

type edge struct {
	to         Status
	allowed    role
	clearGuest bool
}

// transitions lists every legal edge. Anything missing is rejected.
var transitions = map[Status]map[Event]edge{
	StatusOpen: {
		EventApply:  {to: StatusApplied, allowed: roleApplicant},
		EventCancel: {to: StatusCancelled, allowed: roleParticipant, clearGuest: true},
	},
	StatusApplied: {
		EventConfirm: {to: StatusConfirmed, allowed: roleHost},
		EventReject:  {to: StatusOpen, allowed: roleHost, clearGuest: true},
		EventCancel:  {to: StatusOpen, allowed: roleParticipant, clearGuest: true},
	},
	StatusConfirmed: {
		EventComplete: {to: StatusCompleted, allowed: roleParticipant},
		EventCancel:   {to: StatusCancelled, allowed: roleParticipant, clearGuest: true},
	},
	StatusCancelled: {
		EventReopen: {to: StatusOpen, allowed: roleHost, clearGuest: true},
	},
}

// TransitionError reports an event fired from a status lacking that edge, or a failed guard.
type TransitionError struct {
	From   Status
	Event  Event
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s coffee chat in status %s: %s", e.Event, e.From, e.Reason)
	}
	return fmt.Sprintf("cannot %s coffee chat in status %s", e.Event, e.From)
}

// Unwrap lets callers match with errors.Is(err, apperrors.ErrInvalidTransition)
func (e *TransitionError) Unwrap() error {
	return apperrors.ErrInvalidTransition
}

// Apply binds guestID to an OPEN chat.
func (c *CoffeeChat) Apply(guestID int64, now time.Time) error {
	if guestID == c.HostID {
		return &TransitionError{From: c.Status, Event: EventApply, Reason: "host cannot apply to own coffee chat"}
	}
	if c.GuestID != nil {
		return apperrors.ErrAlreadyApplied
	}
	if err := c.fire(EventApply, guestID, now); err != nil {
		return err
	}
	guest := guestID
	c.GuestID = &guest
	return nil
}

// Confirm accepts the pending applicant; host only.
func (c *CoffeeChat) Confirm(actorID int64, now time.Time) error {
	return c.fire(EventConfirm, actorID, now)
}

// Reject turns the pending applicant away and reopens the slot; host only.
func (c *CoffeeChat) Reject(actorID int64, now time.Time) error {
	return c.fire(EventReject, actorID, now)
}

// Cancel withdraws an application (APPLIED goes back to OPEN) or cancels the slot.
func (c *CoffeeChat) Cancel(actorID int64, now time.Time) error {
	return c.fire(EventCancel, actorID, now)
}

// Complete marks a confirmed chat as held. COMPLETED is terminal.
func (c *CoffeeChat) Complete(actorID int64, now time.Time) error {
	return c.fire(EventComplete, actorID, now)
}

// Reopen puts a cancelled slot back on offer; host only.
func (c *CoffeeChat) Reopen(actorID int64, now time.Time) error {
	return c.fire(EventReopen, actorID, now)
}

// Edit replaces the host-editable fields. Allowed in every status but COMPLETED.
func (c *CoffeeChat) Edit(actorID int64, fields Fields, now time.Time) error {
	if c.Status == StatusCompleted {
		return &TransitionError{From: c.Status, Event: EventEdit}
	}
	if !c.IsHost(actorID) {
		return apperrors.NewForbiddenError("only the host can edit a coffee chat")
	}
	fields.apply(c)
	c.UpdatedAt = now
	return nil
}

// Fire dispatches ev by name. actorID is the guest for EventApply.
func (c *CoffeeChat) Fire(ev Event, actorID int64, now time.Time) error {
	switch ev {
	case EventApply:
		return c.Apply(actorID, now)
	case EventConfirm:
		return c.Confirm(actorID, now)
	case EventReject:
		return c.Reject(actorID, now)
	case EventCancel:
		return c.Cancel(actorID, now)
	case EventComplete:
		return c.Complete(actorID, now)
	case EventReopen:
		return c.Reopen(actorID, now)
	default:
		return &TransitionError{From: c.Status, Event: ev, Reason: "unknown event"}
	}
}

func (c *CoffeeChat) fire(ev Event, actorID int64, now time.Time) error {
	e, ok := transitions[c.Status][ev]
	if !ok {
		return &TransitionError{From: c.Status, Event: ev}
	}
	if !c.allows(e.allowed, actorID) {
		return apperrors.NewForbiddenError(fmt.Sprintf("member %d may not %s this coffee chat", actorID, ev))
	}

	c.Status = e.to
	if e.clearGuest {
		c.GuestID = nil
	}
	c.UpdatedAt = now
	return nil
}

func (c *CoffeeChat) allows(r role, actorID int64) bool {
	switch r {
	case roleApplicant:
		return !c.IsHost(actorID)
	case roleHost:
		return c.IsHost(actorID)
	case roleParticipant:
		return c.IsParticipant(actorID)
	}
	return false
}
