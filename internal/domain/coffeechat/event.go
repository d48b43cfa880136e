package coffeechat

import "time"

// ChatEvent describes a successful lifecycle transition. GuestID is the guest bound before
// the transition, so a rejected or withdrawn guest still hears about it.
type ChatEvent struct {
	ChatID     int64     `json:"chatId"`
	Event      Event     `json:"event"`
	Status     Status    `json:"status"`
	HostID     int64     `json:"hostId"`
	GuestID    *int64    `json:"guestId,omitempty"`
	ActorID    int64     `json:"actorId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewChatEvent builds the event for a transition from before to after
func NewChatEvent(ev Event, before, after *CoffeeChat, actorID int64) ChatEvent {
	guest := after.GuestID
	if before != nil && before.GuestID != nil {
		guest = before.GuestID
	}
	if guest != nil {
		g := *guest
		guest = &g
	}
	return ChatEvent{
		ChatID:     after.ID,
		Event:      ev,
		Status:     after.Status,
		HostID:     after.HostID,
		GuestID:    guest,
		ActorID:    actorID,
		OccurredAt: after.UpdatedAt,
	}
}

// Recipients lists the members that should receive the event
func (e ChatEvent) Recipients() []int64 {
	if e.GuestID == nil || *e.GuestID == e.HostID {
		return []int64{e.HostID}
	}
	return []int64{e.HostID, *e.GuestID}
}
