package realtime

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func startSession(t *testing.T, hub *Hub, participants *fakeParticipants,
	presence PresenceStore, userID uuid.UUID, displayName string) (*fakeConn, chan struct{}) {
	t.Helper()

	conn := newFakeConn()
	session := NewSession(hub, conn, userID, displayName, participants, presence, discardLogger())
	done := make(chan struct{})
	go func() {
		session.Run(context.Background())
		close(done)
	}()
	return conn, done
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("session did not stop")
	}
}

func subscribeFrame(conversationID uuid.UUID) string {
	return fmt.Sprintf(`{"event":"subscribe","conversation_id":"%s"}`, conversationID)
}

func TestSessionSendsConnectedGreeting(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()

	conn, done := startSession(t, hub, newFakeParticipants(), nil, userID, "Alice")

	require.Eventually(t, func() bool {
		return hub.Registry.IsConnected(userID)
	}, waitFor, tick)

	conn.disconnect()
	waitDone(t, done)

	events := conn.recorded()
	require.NotEmpty(t, events)
	assert.Equal(t, EventConnected, events[0].Event)
	assert.Equal(t, "WebSocket connection established", events[0].Message)
}

func TestSessionLifecycleWithoutPresenceStore(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()

	// Presence is optional; a session wired without a store must start
	// and tear down cleanly rather than touch a nil store.
	conn, done := startSession(t, hub, newFakeParticipants(), nil, userID, "Alice")
	conn.feed(`{"event":"ping"}`)
	conn.disconnect()
	waitDone(t, done)

	assert.Equal(t, []string{EventConnected, EventPong}, conn.eventNames())
	assert.False(t, hub.Registry.IsConnected(userID))
	assert.True(t, conn.isClosed())
}

func TestSessionSubscribeAuthorized(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()
	conversationID := uuid.New()
	participants := newFakeParticipants()
	participants.allow(conversationID, userID)

	conn, done := startSession(t, hub, participants, nil, userID, "Alice")
	conn.feed(subscribeFrame(conversationID))

	require.Eventually(t, func() bool {
		return hub.Subscriptions.IsSubscribed(conversationID, userID)
	}, waitFor, tick)

	conn.disconnect()
	waitDone(t, done)

	assert.Equal(t, []string{EventConnected, EventSubscribed}, conn.eventNames())
	assert.Equal(t, conversationID.String(), conn.recorded()[1].ConversationID)
}

func TestSessionSubscribeUnauthorizedIsSilent(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()
	conversationID := uuid.New()
	participants := newFakeParticipants() // nothing allowed

	conn, done := startSession(t, hub, participants, nil, userID, "Alice")
	conn.feed(subscribeFrame(conversationID))
	conn.feed(`{"event":"ping"}`)

	require.Eventually(t, func() bool {
		for _, name := range conn.eventNames() {
			if name == EventPong {
				return true
			}
		}
		return false
	}, waitFor, tick)

	// No subscription, no error event: just connected + pong.
	assert.False(t, hub.Subscriptions.IsSubscribed(conversationID, userID))
	assert.Equal(t, []string{EventConnected, EventPong}, conn.eventNames())

	conn.disconnect()
	waitDone(t, done)
}

func TestSessionSubscribeMalformedConversationIDIgnored(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()
	participants := newFakeParticipants()

	conn, done := startSession(t, hub, participants, nil, userID, "Alice")
	conn.feed(`{"event":"subscribe","conversation_id":"not-a-uuid"}`)
	conn.feed(`{"event":"subscribe"}`)
	conn.feed(`{"event":"ping"}`)

	require.Eventually(t, func() bool {
		names := conn.eventNames()
		return len(names) == 2 && names[1] == EventPong
	}, waitFor, tick)

	assert.Zero(t, participants.calls, "participation must not be checked for unparseable ids")
	assert.Equal(t, 0, hub.Subscriptions.ConversationCount())

	conn.disconnect()
	waitDone(t, done)
}

func TestSessionSubscribeCheckerErrorIsSilent(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()
	conversationID := uuid.New()
	participants := newFakeParticipants()
	participants.err = errors.New("database down")

	conn, done := startSession(t, hub, participants, nil, userID, "Alice")
	conn.feed(subscribeFrame(conversationID))
	conn.feed(`{"event":"ping"}`)

	require.Eventually(t, func() bool {
		names := conn.eventNames()
		return len(names) == 2 && names[1] == EventPong
	}, waitFor, tick)

	assert.False(t, hub.Subscriptions.IsSubscribed(conversationID, userID))

	conn.disconnect()
	waitDone(t, done)
}

func TestSessionUnsubscribe(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()
	conversationID := uuid.New()
	participants := newFakeParticipants()
	participants.allow(conversationID, userID)

	conn, done := startSession(t, hub, participants, nil, userID, "Alice")
	conn.feed(subscribeFrame(conversationID))

	require.Eventually(t, func() bool {
		return hub.Subscriptions.IsSubscribed(conversationID, userID)
	}, waitFor, tick)

	conn.feed(fmt.Sprintf(`{"event":"unsubscribe","conversation_id":"%s"}`, conversationID))

	require.Eventually(t, func() bool {
		return !hub.Subscriptions.IsSubscribed(conversationID, userID)
	}, waitFor, tick)

	conn.disconnect()
	waitDone(t, done)
}

func TestSessionPingPongHasNoSideEffects(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()

	conn, done := startSession(t, hub, newFakeParticipants(), nil, userID, "Alice")
	conn.feed(`{"event":"ping"}`)
	conn.feed(`{"event":"ping"}`)
	conn.disconnect()
	waitDone(t, done)

	// Exactly one pong per ping, nothing else touched.
	assert.Equal(t, []string{EventConnected, EventPong, EventPong}, conn.eventNames())
	assert.Equal(t, 0, hub.Subscriptions.ConversationCount())
	assert.Empty(t, hub.Typing.TypingUsers(uuid.New()))
}

func TestSessionMalformedAndUnknownFramesAreIgnored(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()

	conn, done := startSession(t, hub, newFakeParticipants(), nil, userID, "Alice")
	conn.feed(`{not json`)
	conn.feed(`{"event":"presence","status":"online"}`)
	conn.feed(`{"event":"warp-drive"}`)
	conn.feed(`{"event":"ping"}`)
	conn.disconnect()
	waitDone(t, done)

	// The loop survives all of them and still answers the ping.
	assert.Equal(t, []string{EventConnected, EventPong}, conn.eventNames())
}

func TestSessionDisconnectCleansUpEverything(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()
	conversationID := uuid.New()
	participants := newFakeParticipants()
	participants.allow(conversationID, userID)
	presence := newFakePresence()

	conn, done := startSession(t, hub, participants, presence, userID, "Alice")
	conn.feed(subscribeFrame(conversationID))
	conn.feed(fmt.Sprintf(`{"event":"typing","conversation_id":"%s","is_typing":true}`, conversationID))

	require.Eventually(t, func() bool {
		return hub.Subscriptions.IsSubscribed(conversationID, userID) &&
			len(hub.Typing.TypingUsers(conversationID)) == 1
	}, waitFor, tick)
	assert.True(t, presence.isOnline(userID))

	conn.disconnect()
	waitDone(t, done)

	assert.False(t, hub.Registry.IsConnected(userID))
	assert.Equal(t, 0, hub.Subscriptions.ConversationCount())
	assert.Empty(t, hub.Typing.TypingUsers(conversationID))
	assert.False(t, presence.isOnline(userID))
	assert.True(t, conn.isClosed())
}

func TestSessionSecondConnectionSupersedesFirst(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()
	participants := newFakeParticipants()

	firstConn, firstDone := startSession(t, hub, participants, nil, userID, "Alice")
	require.Eventually(t, func() bool {
		return hub.Registry.IsConnected(userID)
	}, waitFor, tick)

	secondConn, secondDone := startSession(t, hub, participants, nil, userID, "Alice")

	// Registering the second connection closes the first handle, which
	// ends the first session without evicting the new registration.
	waitDone(t, firstDone)
	assert.True(t, firstConn.isClosed())
	assert.True(t, hub.Registry.IsConnected(userID))

	firstSeen := len(firstConn.recorded())
	hub.Registry.SendToUser(userID, NewPongEvent())

	require.Eventually(t, func() bool {
		names := secondConn.eventNames()
		return len(names) > 0 && names[len(names)-1] == EventPong
	}, waitFor, tick)
	assert.Len(t, firstConn.recorded(), firstSeen, "orphaned handle must receive nothing")

	secondConn.disconnect()
	waitDone(t, secondDone)
}

func TestSessionPanicClosesWithInternalErrorAndCleansUp(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()
	conversationID := uuid.New()
	participants := newFakeParticipants()
	participants.panics = true

	conn, done := startSession(t, hub, participants, nil, userID, "Alice")
	conn.feed(subscribeFrame(conversationID))
	waitDone(t, done)

	assert.Equal(t, websocket.CloseInternalServerErr, conn.closedWith())
	assert.False(t, hub.Registry.IsConnected(userID))
	assert.Equal(t, 0, hub.Subscriptions.ConversationCount())
}

func TestSessionTypingScenarioBetweenTwoUsers(t *testing.T) {
	hub := newTestHub()
	conversationID := uuid.New()
	userA := uuid.New()
	userB := uuid.New()
	participants := newFakeParticipants()
	participants.allow(conversationID, userA)
	participants.allow(conversationID, userB)

	connA, doneA := startSession(t, hub, participants, nil, userA, "Alice")
	connB, doneB := startSession(t, hub, participants, nil, userB, "Bob")

	connA.feed(subscribeFrame(conversationID))
	connB.feed(subscribeFrame(conversationID))
	require.Eventually(t, func() bool {
		return hub.Subscriptions.IsSubscribed(conversationID, userA) &&
			hub.Subscriptions.IsSubscribed(conversationID, userB)
	}, waitFor, tick)

	connA.feed(fmt.Sprintf(`{"event":"typing","conversation_id":"%s","is_typing":true}`, conversationID))

	var typing ServerEvent
	require.Eventually(t, func() bool {
		for _, event := range connB.recorded() {
			if event.Event == EventTyping {
				typing = event
				return true
			}
		}
		return false
	}, waitFor, tick)

	data, ok := typing.Data.(TypingData)
	require.True(t, ok)
	assert.Equal(t, userA.String(), data.UserID)
	assert.Equal(t, "Alice", data.UserName)
	assert.True(t, data.IsTyping)

	for _, event := range connA.recorded() {
		assert.NotEqual(t, EventTyping, event.Event, "typist must not receive their own indicator")
	}

	connA.disconnect()
	connB.disconnect()
	waitDone(t, doneA)
	waitDone(t, doneB)
}
