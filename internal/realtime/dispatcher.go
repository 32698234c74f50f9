package realtime

import (
	"log/slog"

	"github.com/google/uuid"
)

// Dispatcher resolves recipients through the subscription index and
// hands events to the registry for delivery. No ordering is promised
// across distinct recipients; per recipient, events arrive in the
// order the dispatcher was invoked.
type Dispatcher struct {
	registry      *Registry
	subscriptions *SubscriptionIndex
	log           *slog.Logger
}

func NewDispatcher(registry *Registry, subscriptions *SubscriptionIndex, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry:      registry,
		subscriptions: subscriptions,
		log:           log,
	}
}

// BroadcastToConversation delivers the event to every subscriber of
// the conversation except excludeUserID. Pass uuid.Nil to exclude
// nobody. One undeliverable recipient never aborts the rest.
func (d *Dispatcher) BroadcastToConversation(conversationID uuid.UUID, event ServerEvent, excludeUserID uuid.UUID) {
	members := d.subscriptions.MembersOf(conversationID)
	for _, userID := range members {
		if userID == excludeUserID {
			continue
		}
		d.registry.SendToUser(userID, event)
	}
	d.log.Debug("broadcast dispatched",
		"conversation_id", conversationID, "event", event.Event, "recipients", len(members))
}

// NotifyNewMessage pushes a freshly persisted message to the
// conversation's subscribers. The message-creation flow calls this
// after committing the message and its unread counters; the dispatcher
// itself persists nothing.
func (d *Dispatcher) NotifyNewMessage(conversationID uuid.UUID, payload interface{}, excludeUserID uuid.UUID) {
	d.BroadcastToConversation(conversationID, NewMessageEvent(conversationID, payload), excludeUserID)
}

// SendToUser delivers an event to a single user directly.
func (d *Dispatcher) SendToUser(userID uuid.UUID, event ServerEvent) {
	d.registry.SendToUser(userID, event)
}
