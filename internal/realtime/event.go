package realtime

import "github.com/google/uuid"

// Inbound event names accepted from clients.
const (
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
	EventTyping      = "typing"
	EventPresence    = "presence"
	EventPing        = "ping"
)

// Outbound event names emitted to clients.
const (
	EventConnected  = "connected"
	EventSubscribed = "subscribed"
	EventPong       = "pong"
	EventNewMessage = "message.new"
)

// ClientEvent is the envelope of every inbound frame. Unknown fields are
// ignored; missing fields are zero values and validated per event type.
type ClientEvent struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversation_id,omitempty"`
	IsTyping       bool   `json:"is_typing,omitempty"`
	Status         string `json:"status,omitempty"`
}

// ServerEvent is the envelope of every outbound frame.
type ServerEvent struct {
	Event          string      `json:"event"`
	Message        string      `json:"message,omitempty"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Data           interface{} `json:"data,omitempty"`
}

// TypingData is the payload of a typing broadcast.
type TypingData struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	IsTyping bool   `json:"is_typing"`
}

func NewConnectedEvent() ServerEvent {
	return ServerEvent{
		Event:   EventConnected,
		Message: "WebSocket connection established",
	}
}

func NewSubscribedEvent(conversationID uuid.UUID) ServerEvent {
	return ServerEvent{
		Event:          EventSubscribed,
		ConversationID: conversationID.String(),
	}
}

func NewTypingEvent(conversationID, userID uuid.UUID, userName string, isTyping bool) ServerEvent {
	return ServerEvent{
		Event:          EventTyping,
		ConversationID: conversationID.String(),
		Data: TypingData{
			UserID:   userID.String(),
			UserName: userName,
			IsTyping: isTyping,
		},
	}
}

func NewMessageEvent(conversationID uuid.UUID, payload interface{}) ServerEvent {
	return ServerEvent{
		Event:          EventNewMessage,
		ConversationID: conversationID.String(),
		Data:           payload,
	}
}

func NewPongEvent() ServerEvent {
	return ServerEvent{Event: EventPong}
}
