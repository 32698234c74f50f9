package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ParticipantChecker verifies conversation membership against the
// persistence layer before a subscription is honored.
type ParticipantChecker interface {
	IsActiveParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
}

// PresenceStore records server-side online status. Optional; a nil
// store disables presence bookkeeping.
type PresenceStore interface {
	SetUserOnline(ctx context.Context, userID uuid.UUID) error
	SetUserOffline(ctx context.Context, userID uuid.UUID) error
}

// Session is the per-connection control loop. It registers the
// connection, dispatches inbound client events, and unwinds all
// registry/index/tracker state for the user on every exit path.
type Session struct {
	hub          *Hub
	conn         ClientConn
	userID       uuid.UUID
	displayName  string
	participants ParticipantChecker
	presence     PresenceStore
	log          *slog.Logger
}

func NewSession(hub *Hub, conn ClientConn, userID uuid.UUID, displayName string,
	participants ParticipantChecker, presence PresenceStore, log *slog.Logger) *Session {
	return &Session{
		hub:          hub,
		conn:         conn,
		userID:       userID,
		displayName:  displayName,
		participants: participants,
		presence:     presence,
		log:          log,
	}
}

// Run drives the connection until the client disconnects or the
// transport fails. Teardown is deferred so it runs exactly once on
// every exit path, panics included.
func (s *Session) Run(ctx context.Context) {
	defer s.teardown(ctx)
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("session panic", "user_id", s.userID, "panic", r)
			s.conn.CloseWithStatus(websocket.CloseInternalServerErr, "internal error")
		}
	}()

	s.hub.Registry.Register(s.userID, s.conn)
	if s.presence != nil {
		if err := s.presence.SetUserOnline(ctx, s.userID); err != nil {
			s.log.Warn("failed to set user online", "user_id", s.userID, "error", err)
		}
	}

	s.conn.Send(NewConnectedEvent())
	s.log.Info("session started", "user_id", s.userID)

	for {
		data, err := s.conn.ReadMessage()
		if err != nil {
			// Client close or transport error; either way the loop ends
			// and the deferred teardown cleans up.
			s.log.Debug("read loop ended", "user_id", s.userID, "error", err)
			return
		}

		var evt ClientEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			// Malformed payloads are a non-event, not a reason to drop
			// the connection.
			s.log.Debug("discarding malformed frame", "user_id", s.userID, "error", err)
			continue
		}

		s.handle(ctx, evt)
	}
}

func (s *Session) handle(ctx context.Context, evt ClientEvent) {
	switch evt.Event {
	case EventSubscribe:
		s.handleSubscribe(ctx, evt.ConversationID)

	case EventUnsubscribe:
		if conversationID, err := uuid.Parse(evt.ConversationID); err == nil {
			s.hub.Subscriptions.Unsubscribe(conversationID, s.userID)
		}

	case EventTyping:
		if conversationID, err := uuid.Parse(evt.ConversationID); err == nil {
			s.hub.Typing.SetTyping(conversationID, s.userID, s.displayName, evt.IsTyping)
		}

	case EventPresence:
		// Reserved for friend-presence broadcast.

	case EventPing:
		s.conn.Send(NewPongEvent())

	default:
		// Unknown events are ignored.
	}
}

func (s *Session) handleSubscribe(ctx context.Context, rawConversationID string) {
	conversationID, err := uuid.Parse(rawConversationID)
	if err != nil {
		return
	}

	ok, err := s.participants.IsActiveParticipant(ctx, conversationID, s.userID)
	if err != nil {
		s.log.Warn("participation check failed",
			"user_id", s.userID, "conversation_id", conversationID, "error", err)
		return
	}
	if !ok {
		// Silent no-op: no error event, so conversation existence is
		// not leaked to non-participants.
		return
	}

	s.hub.Subscriptions.Subscribe(conversationID, s.userID)
	s.conn.Send(NewSubscribedEvent(conversationID))
}

// teardown unconditionally unwinds every piece of shared state the
// session may have created, then releases the transport. The registry
// release is conn-scoped, but the subscription and typing sweeps are
// keyed by user id: a superseded session tearing down can clear entries
// a replacement session for the same user just created, and that
// replacement's client re-subscribes as it would after any reconnect.
func (s *Session) teardown(ctx context.Context) {
	s.hub.Registry.Release(s.userID, s.conn)
	s.hub.Subscriptions.RemoveUserEverywhere(s.userID)
	s.hub.Typing.RemoveUserEverywhere(s.userID)

	if s.presence != nil {
		if err := s.presence.SetUserOffline(context.WithoutCancel(ctx), s.userID); err != nil {
			s.log.Warn("failed to set user offline", "user_id", s.userID, "error", err)
		}
	}

	s.conn.Close()
	s.log.Info("session closed", "user_id", s.userID)
}
