package websocket

import (
	"encoding/json"
	"time"

	"talentlink/pkg/logger"
)

// Outbound event types.
const (
	EventMessageNew     = "message:new"
	EventMessageDeleted = "message:deleted"
	EventTyping         = "typing"
	EventPresence       = "presence"
	EventRead           = "read"
	EventCallIncoming   = "call:incoming"
	EventCallStatus     = "call:status"
	EventPong           = "pong"
	EventError          = "error"
)

// Inbound frame types.
const (
	FrameTypePing      = "ping"
	FrameTypeJoinRoom  = "join_room"
	FrameTypeLeaveRoom = "leave_room"
	FrameTypeTyping    = "typing"
	FrameTypeMarkRead  = "mark_read"
)

// Event is the outbound envelope pushed to clients.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func NewEvent(eventType string, data interface{}) Event {
	return Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Marshal renders the event as JSON. Delivery is best-effort, so a marshal
// failure is logged and yields nil rather than an error.
func (e Event) Marshal() []byte {
	payload, err := json.Marshal(e)
	if err != nil {
		logger.Error("Failed to marshal %s event: %v", e.Type, err)
		return nil
	}
	return payload
}

// ClientFrame is an inbound message from a connected client.
type ClientFrame struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
}

type TypingPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}

type PresencePayload struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}

type ReadPayload struct {
	ConversationID string `json:"conversation_id"`
	ReaderID       string `json:"reader_id"`
}

type MessageDeletedPayload struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}
