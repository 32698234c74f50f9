package realtime

import "log/slog"

// Hub bundles the shared realtime state: the connection registry, the
// subscription index, the typing tracker and the dispatcher wired on
// top of them. One hub lives for the whole process and is injected
// into every session; nothing here is a package-level singleton.
type Hub struct {
	Registry      *Registry
	Subscriptions *SubscriptionIndex
	Typing        *TypingTracker
	Dispatcher    *Dispatcher
}

func NewHub(log *slog.Logger) *Hub {
	registry := NewRegistry(log)
	subscriptions := NewSubscriptionIndex()
	dispatcher := NewDispatcher(registry, subscriptions, log)

	return &Hub{
		Registry:      registry,
		Subscriptions: subscriptions,
		Typing:        NewTypingTracker(dispatcher),
		Dispatcher:    dispatcher,
	}
}

// Stats is the snapshot the health endpoint reports.
type Stats struct {
	Connections   int `json:"connections"`
	Conversations int `json:"conversations"`
}

func (h *Hub) Stats() Stats {
	return Stats{
		Connections:   h.Registry.Count(),
		Conversations: h.Subscriptions.ConversationCount(),
	}
}
