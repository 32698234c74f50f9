package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// TypingTracker keeps the ephemeral per-conversation set of users who
// are currently composing. State is best effort: nothing here is
// persisted or rate-limited, and losing it on disconnect is expected.
type TypingTracker struct {
	mu         sync.Mutex
	typing     map[uuid.UUID]map[uuid.UUID]struct{}
	dispatcher *Dispatcher
}

func NewTypingTracker(dispatcher *Dispatcher) *TypingTracker {
	return &TypingTracker{
		typing:     make(map[uuid.UUID]map[uuid.UUID]struct{}),
		dispatcher: dispatcher,
	}
}

// SetTyping records or clears the user's typing state and broadcasts a
// typing event to the conversation's subscribers, excluding the acting
// user. Both directions are idempotent.
func (t *TypingTracker) SetTyping(conversationID, userID uuid.UUID, userName string, isTyping bool) {
	t.mu.Lock()
	if isTyping {
		users := t.typing[conversationID]
		if users == nil {
			users = make(map[uuid.UUID]struct{})
			t.typing[conversationID] = users
		}
		users[userID] = struct{}{}
	} else if users, ok := t.typing[conversationID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.typing, conversationID)
		}
	}
	t.mu.Unlock()

	t.dispatcher.BroadcastToConversation(conversationID,
		NewTypingEvent(conversationID, userID, userName, isTyping), userID)
}

// TypingUsers returns a snapshot of who is typing in the conversation.
func (t *TypingTracker) TypingUsers(conversationID uuid.UUID) []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()

	users := t.typing[conversationID]
	out := make([]uuid.UUID, 0, len(users))
	for userID := range users {
		out = append(out, userID)
	}
	return out
}

// RemoveUserEverywhere clears the user's typing state in every
// conversation, pruning emptied entries. Invoked at disconnect time.
func (t *TypingTracker) RemoveUserEverywhere(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for conversationID, users := range t.typing {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.typing, conversationID)
		}
	}
}
