package usecase

import (
	"context"
	"io"

	"talentlink/internal/domain/entity"
	"talentlink/internal/domain/repository"
	"talentlink/internal/domain/service"
	"talentlink/internal/infrastructure/ratelimit"
	ws "talentlink/internal/infrastructure/websocket"
	"talentlink/pkg/errors"
	"talentlink/pkg/logger"
)

// ChatUseCase orchestrates conversation lookup/creation, message creation,
// read-state transitions and deletion semantics. It is the only component
// with write access to the conversation store. Persistence always happens
// first; realtime fan-out is best-effort and never fails the operation.
type ChatUseCase struct {
	conversationRepo repository.ConversationRepository
	uploader         service.AttachmentUploader
	wsManager        *ws.Manager
	rateLimiter      *ratelimit.RateLimiter
}

func NewChatUseCase(
	conversationRepo repository.ConversationRepository,
	uploader service.AttachmentUploader,
	wsManager *ws.Manager,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		conversationRepo: conversationRepo,
		uploader:         uploader,
		wsManager:        wsManager,
		rateLimiter:      rateLimiter,
	}
}

type StartConversationInput struct {
	RecipientID    string
	JobID          string
	ApplicationID  string
	InitialMessage string
}

// AttachmentUpload is a file handed to the attachment gateway on send.
type AttachmentUpload struct {
	File         io.Reader
	Size         int64
	MimeType     string
	OriginalName string
}

type SendMessageInput struct {
	ConversationID string
	Content        string
	Upload         *AttachmentUpload
}

// ConversationSummary is a conversation as seen by one participant: the
// other party, the last message preview and this user's unread count.
type ConversationSummary struct {
	*entity.Conversation
	OtherUserID string `json:"other_user_id"`
	Unread      int    `json:"unread"`
}

type StartConversationResult struct {
	Conversation *entity.Conversation `json:"conversation"`
	Message      *entity.Message      `json:"message,omitempty"`
}

func (uc *ChatUseCase) StartConversation(ctx context.Context, userID string, input StartConversationInput) (*StartConversationResult, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "start_conversation")
	if !allowed {
		logger.Warn("StartConversation rate limited: user %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before starting another conversation")
	}

	if userID == input.RecipientID {
		return nil, errors.BadRequest("You cannot start a conversation with yourself", nil)
	}
	if (input.JobID == "") != (input.ApplicationID == "") {
		return nil, errors.BadRequest("Job and application references must be provided together", nil)
	}

	var firstMessage *entity.Message
	if input.InitialMessage != "" {
		firstMessage = &entity.Message{
			SenderID: userID,
			Content:  input.InitialMessage,
		}
	}

	key := repository.ConversationKey{
		UserA:         userID,
		UserB:         input.RecipientID,
		JobID:         input.JobID,
		ApplicationID: input.ApplicationID,
	}

	conversation, message, err := uc.conversationRepo.FindOrCreate(ctx, key, firstMessage)
	if err != nil {
		logger.Error("StartConversation: find-or-create failed for user %s: %v", userID, err)
		return nil, err
	}

	if !conversation.IsActive {
		return nil, errors.Forbidden("Conversation is no longer active", nil)
	}

	if message != nil {
		uc.pushNewMessage(conversation, message)
	}

	return &StartConversationResult{
		Conversation: conversation,
		Message:      message,
	}, nil
}

func (uc *ChatUseCase) SendMessage(ctx context.Context, userID string, input SendMessageInput) (*entity.Message, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "send_message")
	if !allowed {
		logger.Warn("SendMessage rate limited: user %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message")
	}

	conversation, err := uc.conversationRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}

	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}
	if !conversation.IsActive {
		return nil, errors.Forbidden("Conversation is no longer active", nil)
	}
	if input.Content == "" && input.Upload == nil {
		return nil, errors.Validation("Message content is required when no attachment is present", nil)
	}

	var attachment *entity.Attachment
	if input.Upload != nil {
		// Gateway validation errors propagate to the caller unchanged.
		attachment, err = uc.uploader.Upload(ctx, input.Upload.File, input.Upload.Size, input.Upload.MimeType, input.Upload.OriginalName)
		if err != nil {
			return nil, err
		}
	}

	message, err := uc.conversationRepo.AppendMessage(ctx, conversation.ID, &entity.Message{
		SenderID:   userID,
		Content:    input.Content,
		Attachment: attachment,
	})
	if err != nil {
		logger.Error("SendMessage: append failed for conversation %s: %v", conversation.ID, err)
		return nil, err
	}

	uc.pushNewMessage(conversation, message)

	return message, nil
}

// pushNewMessage fans a persisted message out: to the conversation room for
// anyone viewing it, and to the recipient's personal channel when they are
// not in the room (toast/badge path). A delivery failure never rolls back
// the send; the durable unread counter is the signal of record.
func (uc *ChatUseCase) pushNewMessage(conversation *entity.Conversation, message *entity.Message) {
	payload := ws.NewEvent(ws.EventMessageNew, map[string]interface{}{
		"conversation_id": conversation.ID,
		"message":         message,
		"sender_id":       message.SenderID,
	}).Marshal()

	uc.wsManager.BroadcastToRoom(conversation.ID, payload, message.SenderID)

	recipient := conversation.OtherParticipant(message.SenderID)
	if recipient != "" && !uc.wsManager.IsUserInRoom(conversation.ID, recipient) {
		uc.wsManager.SendToUser(recipient, payload)
	}
}

func (uc *ChatUseCase) GetConversations(ctx context.Context, userID string, limit, offset int) ([]*ConversationSummary, int64, error) {
	conversations, total, err := uc.conversationRepo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		logger.Error("GetConversations: listing failed for user %s: %v", userID, err)
		return nil, 0, err
	}

	summaries := make([]*ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		summaries = append(summaries, &ConversationSummary{
			Conversation: conversation,
			OtherUserID:  conversation.OtherParticipant(userID),
			Unread:       conversation.UnreadCount[userID],
		})
	}

	return summaries, total, nil
}

func (uc *ChatUseCase) GetConversationByID(ctx context.Context, userID, conversationID string) (*ConversationSummary, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	return &ConversationSummary{
		Conversation: conversation,
		OtherUserID:  conversation.OtherParticipant(userID),
		Unread:       conversation.UnreadCount[userID],
	}, nil
}

// GetMessages returns a newest-first page of messages visible to userID and,
// as a side effect, marks the conversation read for them and notifies the
// other party with a read event.
func (uc *ChatUseCase) GetMessages(ctx context.Context, userID, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, 0, err
	}

	if !conversation.HasParticipant(userID) {
		return nil, 0, errors.Forbidden("User is not a participant in this conversation", nil)
	}

	messages, total, err := uc.conversationRepo.ListMessages(ctx, conversationID, userID, limit, offset)
	if err != nil {
		logger.Error("GetMessages: listing failed for conversation %s: %v", conversationID, err)
		return nil, 0, err
	}

	if err := uc.markRead(ctx, conversation, userID); err != nil {
		logger.Warn("GetMessages: failed to mark conversation %s read for %s: %v", conversationID, userID, err)
	}

	return messages, total, nil
}

func (uc *ChatUseCase) MarkConversationAsRead(ctx context.Context, userID, conversationID string) error {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	if !conversation.HasParticipant(userID) {
		return errors.Forbidden("User is not a participant in this conversation", nil)
	}

	return uc.markRead(ctx, conversation, userID)
}

func (uc *ChatUseCase) markRead(ctx context.Context, conversation *entity.Conversation, userID string) error {
	hadUnread := conversation.UnreadCount[userID] > 0

	if err := uc.conversationRepo.MarkConversationRead(ctx, conversation.ID, userID); err != nil {
		return err
	}

	if hadUnread {
		payload := ws.NewEvent(ws.EventRead, ws.ReadPayload{
			ConversationID: conversation.ID,
			ReaderID:       userID,
		}).Marshal()
		uc.wsManager.BroadcastToRoom(conversation.ID, payload, userID)
	}

	return nil
}

// DeleteMessage applies scope "me" (hide for the caller, idempotent) or
// scope "everyone" (sender only: content scrubbed, irreversible; repeated
// calls are a no-op).
func (uc *ChatUseCase) DeleteMessage(ctx context.Context, userID, conversationID, messageID, scope string) error {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(userID) {
		return errors.Forbidden("User is not a participant in this conversation", nil)
	}

	message, err := uc.conversationRepo.GetMessageByID(ctx, conversationID, messageID)
	if err != nil {
		return err
	}

	switch scope {
	case "me":
		if message.HiddenFor(userID) {
			return nil
		}
		message.DeletedFor = append(message.DeletedFor, userID)
		return uc.conversationRepo.UpdateMessage(ctx, conversationID, message)

	case "everyone":
		if message.SenderID != userID {
			return errors.Forbidden("Only the sender can delete a message for everyone", nil)
		}
		if message.IsDeleted {
			return nil
		}

		message.Scrub()
		if err := uc.conversationRepo.UpdateMessage(ctx, conversationID, message); err != nil {
			return err
		}

		if conversation.LastMessageID == message.ID {
			conversation.LastMessage = entity.DeletedPlaceholder
			if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
				logger.Warn("DeleteMessage: failed to refresh preview for conversation %s: %v", conversationID, err)
			}
		}

		payload := ws.NewEvent(ws.EventMessageDeleted, ws.MessageDeletedPayload{
			ConversationID: conversationID,
			MessageID:      messageID,
		}).Marshal()
		uc.wsManager.BroadcastToRoom(conversationID, payload, "")

		recipient := conversation.OtherParticipant(userID)
		if recipient != "" && !uc.wsManager.IsUserInRoom(conversationID, recipient) {
			uc.wsManager.SendToUser(recipient, payload)
		}

		return nil

	default:
		return errors.BadRequest("Scope must be one of: me, everyone", nil)
	}
}

// DeleteConversation hides the conversation and its messages for userID
// without affecting the other participant's view.
func (uc *ChatUseCase) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(userID) {
		return errors.Forbidden("User is not a participant in this conversation", nil)
	}

	return uc.conversationRepo.SoftDeleteConversation(ctx, conversationID, userID)
}

func (uc *ChatUseCase) GetTotalUnreadCount(ctx context.Context, userID string) (int, error) {
	return uc.conversationRepo.CountUnread(ctx, userID)
}

// HandleTyping relays an ephemeral typing signal to the conversation room.
// No persistence, no delivery guarantee.
func (uc *ChatUseCase) HandleTyping(ctx context.Context, userID, conversationID string, isTyping bool) {
	allowed, _ := uc.rateLimiter.Allow(userID, "typing")
	if !allowed {
		return
	}

	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil || !conversation.HasParticipant(userID) {
		return
	}

	payload := ws.NewEvent(ws.EventTyping, ws.TypingPayload{
		ConversationID: conversationID,
		UserID:         userID,
		IsTyping:       isTyping,
	}).Marshal()
	uc.wsManager.BroadcastToRoom(conversationID, payload, userID)
}

// CanAccessConversation authorizes room membership for the realtime layer.
func (uc *ChatUseCase) CanAccessConversation(ctx context.Context, userID, conversationID string) bool {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return false
	}
	return conversation.IsActive && conversation.HasParticipant(userID)
}
