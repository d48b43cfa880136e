// Package coffeechat holds the coffee-chat slot entity, its matching state machine
// and the listing filter model shared by every store backend.
package coffeechat

import "time"

// Status is the lifecycle state of a coffee chat slot
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusApplied   Status = "APPLIED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusApplied, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// HasGuest reports whether a chat in this status must have a bound guest.
func (s Status) HasGuest() bool {
	return s == StatusApplied || s == StatusConfirmed || s == StatusCompleted
}

// Deletable reports whether a chat in this status may be hard-deleted.
func (s Status) Deletable() bool {
	return s == StatusOpen || s == StatusCancelled
}

// CoffeeChat is a scheduling slot offered by a host member
type CoffeeChat struct {
	ID            int64     `db:"id" json:"id"`
	HostID        int64     `db:"host_id" json:"hostId"`
	GuestID       *int64    `db:"guest_id" json:"guestId,omitempty"`
	JobCategoryID int64     `db:"job_category_id" json:"jobCategoryId"`
	Status        Status    `db:"status" json:"status"`
	Title         string    `db:"title" json:"title"`
	Content       string    `db:"content" json:"content"`
	MeetDate      time.Time `db:"meet_date" json:"meetDate"`
	OpenChatURL   string    `db:"open_chat_url" json:"openChatUrl"`
	ViewCount     int64     `db:"view_count" json:"viewCount"`
	Version       int64     `db:"version" json:"version"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// NewCoffeeChat builds an OPEN slot owned by hostID.
func NewCoffeeChat(hostID int64, fields Fields) *CoffeeChat {
	chat := &CoffeeChat{
		HostID: hostID,
		Status: StatusOpen,
	}
	fields.apply(chat)
	return chat
}

// Fields are the host-editable attributes of a chat
type Fields struct {
	Title         string
	Content       string
	JobCategoryID int64
	MeetDate      time.Time
	OpenChatURL   string
}

func (f Fields) apply(c *CoffeeChat) {
	c.Title = f.Title
	c.Content = f.Content
	c.JobCategoryID = f.JobCategoryID
	c.MeetDate = f.MeetDate
	c.OpenChatURL = f.OpenChatURL
}

// Clone returns a deep copy, so a store mutator never aliases stored state.
func (c *CoffeeChat) Clone() *CoffeeChat {
	if c == nil {
		return nil
	}
	cp := *c
	if c.GuestID != nil {
		guest := *c.GuestID
		cp.GuestID = &guest
	}
	return &cp
}

// IsHost reports whether memberID owns the chat
func (c *CoffeeChat) IsHost(memberID int64) bool {
	return c.HostID == memberID
}

// IsGuest reports whether memberID is the bound guest
func (c *CoffeeChat) IsGuest(memberID int64) bool {
	return c.GuestID != nil && *c.GuestID == memberID
}

// IsParticipant reports whether memberID is the host or the bound guest
func (c *CoffeeChat) IsParticipant(memberID int64) bool {
	return c.IsHost(memberID) || c.IsGuest(memberID)
}

// CheckInvariants verifies the guest/status and host/guest invariants.
func (c *CoffeeChat) CheckInvariants() error {
	if !c.Status.Valid() {
		return &InvariantError{Reason: "unknown status " + string(c.Status)}
	}
	if c.Status.HasGuest() != (c.GuestID != nil) {
		return &InvariantError{Reason: "guest binding does not match status " + string(c.Status)}
	}
	if c.GuestID != nil && *c.GuestID == c.HostID {
		return &InvariantError{Reason: "host and guest are the same member"}
	}
	return nil
}

// InvariantError reports a record that violates the chat invariants
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "coffee chat invariant violated: " + e.Reason
}
