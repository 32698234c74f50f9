package services

import (
	"context"
	"errors"
	"log/slog"

	"tribe-service/internal/models"
	"tribe-service/internal/realtime"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("user is not an active participant")
)

// ConversationStore is the persistence surface the send flow needs.
type ConversationStore interface {
	GetByID(ctx context.Context, conversationID uuid.UUID) (*models.Conversation, error)
	IsActiveParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	CreateMessage(ctx context.Context, message *models.Message) error
}

type UserStore interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// MessageEventPublisher feeds the out-of-process notification pipeline.
type MessageEventPublisher interface {
	PublishMessageCreated(ctx context.Context, payload *models.MessageResponse) error
}

// Broadcaster is the realtime hook invoked after a message commits.
type Broadcaster interface {
	NotifyNewMessage(conversationID uuid.UUID, payload interface{}, excludeUserID uuid.UUID)
}

// MessageService implements the message-send flow: authorize, persist
// atomically with the unread counters, then publish the notification
// event and push to connected subscribers excluding the sender.
type MessageService struct {
	conversations ConversationStore
	users         UserStore
	events        MessageEventPublisher
	broadcaster   Broadcaster
	log           *slog.Logger
}

// NewMessageService wires the send flow. events may be nil when Kafka
// is disabled.
func NewMessageService(conversations ConversationStore, users UserStore,
	events MessageEventPublisher, broadcaster Broadcaster, log *slog.Logger) *MessageService {
	return &MessageService{
		conversations: conversations,
		users:         users,
		events:        events,
		broadcaster:   broadcaster,
		log:           log,
	}
}

func (s *MessageService) SendMessage(ctx context.Context, senderID, conversationID uuid.UUID,
	req *models.SendMessageRequest) (*models.MessageResponse, error) {

	if _, err := s.conversations.GetByID(ctx, conversationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	ok, err := s.conversations.IsActiveParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = models.MessageTypeText
	}

	message := &models.Message{
		ConversationID:   conversationID,
		SenderID:         senderID,
		Content:          req.Content,
		MessageType:      messageType,
		ReplyToMessageID: req.ReplyToMessageID,
	}
	if err := s.conversations.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		// The message is committed; a missing sender profile only
		// degrades the payload.
		s.log.Warn("sender lookup failed after commit", "user_id", senderID, "error", err)
	}
	payload := models.NewMessageResponse(message, sender)

	if s.events != nil {
		if err := s.events.PublishMessageCreated(ctx, payload); err != nil {
			s.log.Warn("failed to publish message event",
				"message_id", message.ID, "conversation_id", conversationID, "error", err)
		}
	}

	s.broadcaster.NotifyNewMessage(conversationID, payload, senderID)

	return payload, nil
}

// compile-time check: the realtime dispatcher satisfies Broadcaster.
var _ Broadcaster = (*realtime.Dispatcher)(nil)
