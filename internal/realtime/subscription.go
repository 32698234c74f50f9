package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// SubscriptionIndex tracks which users are listening to which
// conversation, independent of connection lifecycle. Entries are
// created lazily on the first subscribe and pruned as soon as their
// member set empties.
type SubscriptionIndex struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]map[uuid.UUID]struct{}
}

func NewSubscriptionIndex() *SubscriptionIndex {
	return &SubscriptionIndex{
		conversations: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Subscribe adds the user to the conversation's member set. Idempotent.
// Callers must have verified participation beforehand; the index does
// not authorize.
func (s *SubscriptionIndex) Subscribe(conversationID, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.conversations[conversationID]
	if members == nil {
		members = make(map[uuid.UUID]struct{})
		s.conversations[conversationID] = members
	}
	members[userID] = struct{}{}
}

// Unsubscribe removes the user from the conversation's member set,
// pruning the entry if it empties. Idempotent.
func (s *SubscriptionIndex) Unsubscribe(conversationID, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.conversations[conversationID]
	if !ok {
		return
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(s.conversations, conversationID)
	}
}

// MembersOf returns a snapshot of the conversation's subscribers;
// empty slice if none.
func (s *SubscriptionIndex) MembersOf(conversationID uuid.UUID) []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := s.conversations[conversationID]
	out := make([]uuid.UUID, 0, len(members))
	for userID := range members {
		out = append(out, userID)
	}
	return out
}

// IsSubscribed reports current membership for one (conversation, user) pair.
func (s *SubscriptionIndex) IsSubscribed(conversationID, userID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members, ok := s.conversations[conversationID]
	if !ok {
		return false
	}
	_, ok = members[userID]
	return ok
}

// RemoveUserEverywhere removes the user from every conversation's
// member set, pruning emptied entries. Invoked at disconnect time.
func (s *SubscriptionIndex) RemoveUserEverywhere(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conversationID, members := range s.conversations {
		delete(members, userID)
		if len(members) == 0 {
			delete(s.conversations, conversationID)
		}
	}
}

// ConversationCount reports the number of live subscription entries,
// for the health surface.
func (s *SubscriptionIndex) ConversationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
