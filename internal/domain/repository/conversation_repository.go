package repository

import (
	"context"

	"talentlink/internal/domain/entity"
)

// ConversationKey identifies a conversation by its unordered participant
// pair plus optional hiring context.
type ConversationKey struct {
	UserA         string
	UserB         string
	JobID         string
	ApplicationID string
}

type ConversationRepository interface {
	// FindOrCreate returns the conversation for key, creating it when absent.
	// When firstMessage is non-nil the conversation and the message are
	// committed atomically. Concurrent calls with the same key return the
	// same conversation.
	FindOrCreate(ctx context.Context, key ConversationKey, firstMessage *entity.Message) (*entity.Conversation, *entity.Message, error)

	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error)
	Update(ctx context.Context, conversation *entity.Conversation) error
	Deactivate(ctx context.Context, id string) error

	// AppendMessage inserts message and updates the conversation's last
	// message pointer and the recipient's unread counter in one transaction.
	AppendMessage(ctx context.Context, conversationID string, message *entity.Message) (*entity.Message, error)

	// ListMessages returns a newest-first page of the messages visible to
	// userID; messages the user hid are excluded before pagination, so pages
	// stay full and total counts only what the user can see.
	ListMessages(ctx context.Context, conversationID, userID string, limit, offset int) ([]*entity.Message, int64, error)
	GetMessageByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error)
	UpdateMessage(ctx context.Context, conversationID string, message *entity.Message) error

	// MarkConversationRead zeroes userID's unread counter and flags every
	// message not sent by userID as read, in one transaction.
	MarkConversationRead(ctx context.Context, conversationID, userID string) error

	// SoftDeleteConversation hides the conversation and all of its messages
	// for userID without touching the other participant's view.
	SoftDeleteConversation(ctx context.Context, conversationID, userID string) error

	CountUnread(ctx context.Context, userID string) (int, error)
}
