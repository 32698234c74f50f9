package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// enum
type ConversationType string

const (
	ConversationTypeDirect ConversationType = "direct"
	ConversationTypeGroup  ConversationType = "group"
)

// enum
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeSystem MessageType = "system"
)

/** --------------------ENTITIES-------------------- */

// Conversation represents a direct or group conversation.
type Conversation struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationType ConversationType `gorm:"size:20;not null;default:direct" json:"conversation_type"`
	Name             *string          `gorm:"size:255" json:"name,omitempty"`
	ImageURL         *string          `json:"image_url,omitempty"`
	IsGroup          bool             `gorm:"default:false" json:"is_group"`
	LastMessageAt    *time.Time       `gorm:"index" json:"last_message_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID" json:"participants,omitempty"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ConversationParticipant relates a user to a conversation and carries the
// per-participant counters the message-send flow maintains. A participant
// with LeftAt set is no longer active and must not receive broadcasts.
type ConversationParticipant struct {
	ConversationID uuid.UUID  `gorm:"type:uuid;primaryKey" json:"conversation_id"`
	UserID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role           string     `gorm:"size:20;not null;default:member" json:"role"`
	UnreadCount    int        `gorm:"not null;default:0" json:"unread_count"`
	IsMuted        bool       `gorm:"default:false" json:"is_muted"`
	IsArchived     bool       `gorm:"default:false" json:"is_archived"`
	JoinedAt       time.Time  `gorm:"autoCreateTime" json:"joined_at"`
	LeftAt         *time.Time `json:"left_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// Message represents one persisted chat message.
type Message struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID   uuid.UUID   `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID         uuid.UUID   `gorm:"type:uuid;not null" json:"sender_id"`
	Content          string      `gorm:"type:text;not null" json:"content"`
	MessageType      MessageType `gorm:"size:20;not null;default:text" json:"message_type"`
	MediaURL         *string     `json:"media_url,omitempty"`
	ReplyToMessageID *uuid.UUID  `gorm:"type:uuid" json:"reply_to_message_id,omitempty"`
	IsEdited         bool        `gorm:"default:false" json:"is_edited"`
	IsDeleted        bool        `gorm:"default:false" json:"is_deleted"`
	CreatedAt        time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

/** -------------------- DTOs -------------------- */

// Request
type SendMessageRequest struct {
	Content          string      `json:"content" binding:"required,min=1,max=4000"`
	MessageType      MessageType `json:"message_type" binding:"omitempty,oneof=text image system"`
	ReplyToMessageID *uuid.UUID  `json:"reply_to_message_id,omitempty"`
}

// Response
type MessageResponse struct {
	ID               uuid.UUID           `json:"id"`
	ConversationID   uuid.UUID           `json:"conversation_id"`
	Sender           *UserPublicResponse `json:"sender,omitempty"`
	Content          string              `json:"content"`
	MessageType      MessageType         `json:"message_type"`
	MediaURL         *string             `json:"media_url,omitempty"`
	ReplyToMessageID *uuid.UUID          `json:"reply_to_message_id,omitempty"`
	IsEdited         bool                `json:"is_edited"`
	IsDeleted        bool                `json:"is_deleted"`
	CreatedAt        time.Time           `json:"created_at"`
}

func NewMessageResponse(m *Message, sender *User) *MessageResponse {
	return &MessageResponse{
		ID:               m.ID,
		ConversationID:   m.ConversationID,
		Sender:           NewUserPublicResponse(sender),
		Content:          m.Content,
		MessageType:      m.MessageType,
		MediaURL:         m.MediaURL,
		ReplyToMessageID: m.ReplyToMessageID,
		IsEdited:         m.IsEdited,
		IsDeleted:        m.IsDeleted,
		CreatedAt:        m.CreatedAt,
	}
}
