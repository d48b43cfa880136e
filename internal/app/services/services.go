// Package services holds the coffee chat application layer: it validates input, checks members and
// job categories, runs state machine transitions through the store's compare-and-swap update and
// publishes the resulting chat events.
package services

import "github.com/jdon/coffeechat/internal/domain/coffeechat"

// Notifier receives chat events after a successful write. Publish must not block.
type Notifier interface {
	Publish(event coffeechat.ChatEvent)
}

type nopNotifier struct{}

func (nopNotifier) Publish(coffeechat.ChatEvent) {}

// NewNopNotifier returns a Notifier that drops every event
func NewNopNotifier() Notifier {
	return nopNotifier{}
}
