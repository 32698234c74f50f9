package realtime

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConn implements ClientConn for tests. Inbound frames are fed
// through a buffered channel; outbound events are recorded.
type fakeConn struct {
	mu        sync.Mutex
	events    []ServerEvent
	sendErr   error
	closed    bool
	closeCode int

	inbound chan []byte
	done    chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		done:    make(chan struct{}),
	}
}

func (c *fakeConn) Send(event ServerEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	if c.closed {
		return ErrClientDisconnected
	}
	c.events = append(c.events, event)
	return nil
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data, ok := <-c.inbound:
		if !ok {
			return nil, io.EOF
		}
		return data, nil
	case <-c.done:
		return nil, net.ErrClosed
	}
}

func (c *fakeConn) Close() error {
	return c.CloseWithStatus(websocket.CloseNormalClosure, "")
}

func (c *fakeConn) CloseWithStatus(code int, reason string) error {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.closeCode = code
		c.mu.Unlock()
		close(c.done)
	})
	return nil
}

// feed queues an inbound frame for the session loop.
func (c *fakeConn) feed(frame string) {
	c.inbound <- []byte(frame)
}

// disconnect simulates a clean client-side close once the queued
// frames have been consumed.
func (c *fakeConn) disconnect() {
	close(c.inbound)
}

func (c *fakeConn) recorded() []ServerEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ServerEvent, len(c.events))
	copy(out, c.events)
	return out
}

func (c *fakeConn) eventNames() []string {
	events := c.recorded()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Event
	}
	return names
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) closedWith() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode
}

type participantKey struct {
	conversationID uuid.UUID
	userID         uuid.UUID
}

// fakeParticipants is an in-memory ParticipantChecker.
type fakeParticipants struct {
	mu      sync.Mutex
	allowed map[participantKey]bool
	err     error
	panics  bool
	calls   int
}

func newFakeParticipants() *fakeParticipants {
	return &fakeParticipants{allowed: make(map[participantKey]bool)}
}

func (f *fakeParticipants) allow(conversationID, userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowed[participantKey{conversationID, userID}] = true
}

func (f *fakeParticipants) IsActiveParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.panics {
		panic("participant store exploded")
	}
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[participantKey{conversationID, userID}], nil
}

// fakePresence records online/offline transitions.
type fakePresence struct {
	mu     sync.Mutex
	online map[uuid.UUID]bool
}

func newFakePresence() *fakePresence {
	return &fakePresence{online: make(map[uuid.UUID]bool)}
}

func (f *fakePresence) SetUserOnline(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID] = true
	return nil
}

func (f *fakePresence) SetUserOffline(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID] = false
	return nil
}

func (f *fakePresence) isOnline(userID uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}
