package postgres

import (
	"context"
	"fmt"
	"time"

	"tribe-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) GetByID(ctx context.Context, conversationID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).First(&conversation, "id = ?", conversationID).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

// IsActiveParticipant reports whether the user belongs to the
// conversation and has not left it. The session loop consults this
// before honoring a subscribe event.
func (r *ConversationRepository) IsActiveParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ? AND left_at IS NULL", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("participation check: %w", err)
	}
	return count > 0, nil
}

// CreateMessage persists the message, bumps the conversation's
// last_message_at and increments the unread counter of every other
// active participant, all in one transaction. Realtime fan-out happens
// only after this commits.
func (r *ConversationRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("create message: %w", err)
		}

		now := time.Now().UTC()
		if err := tx.Model(&models.Conversation{}).
			Where("id = ?", message.ConversationID).
			Update("last_message_at", now).Error; err != nil {
			return fmt.Errorf("update last_message_at: %w", err)
		}

		if err := tx.Model(&models.ConversationParticipant{}).
			Where("conversation_id = ? AND user_id <> ? AND left_at IS NULL",
				message.ConversationID, message.SenderID).
			UpdateColumn("unread_count", gorm.Expr("unread_count + 1")).Error; err != nil {
			return fmt.Errorf("increment unread counters: %w", err)
		}

		return nil
	})
}
