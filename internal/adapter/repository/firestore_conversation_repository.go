package repository

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"talentlink/internal/domain/entity"
	"talentlink/internal/domain/repository"
	"talentlink/pkg/errors"
	"talentlink/pkg/logger"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

// conversationDocID derives a deterministic document ID from the unordered
// participant pair and the hiring context, so concurrent FindOrCreate calls
// with the same key land on the same document and cannot create duplicates.
func conversationDocID(key repository.ConversationKey) string {
	pair := []string{key.UserA, key.UserB}
	sort.Strings(pair)
	h := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%s|%s", pair[0], pair[1], key.JobID, key.ApplicationID)))
	return hex.EncodeToString(h[:])
}

func (r *firestoreConversationRepository) FindOrCreate(ctx context.Context, key repository.ConversationKey, firstMessage *entity.Message) (*entity.Conversation, *entity.Message, error) {
	docID := conversationDocID(key)
	docRef := r.client.Collection("conversations").Doc(docID)

	var conversation entity.Conversation
	var message *entity.Message

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		message = nil
		doc, err := tx.Get(docRef)

		switch {
		case err == nil:
			if err := doc.DataTo(&conversation); err != nil {
				return errors.Internal("Failed to parse conversation data", err)
			}
		case status.Code(err) == codes.NotFound:
			now := time.Now()
			conversation = entity.Conversation{
				ID:            docID,
				Participants:  []string{key.UserA, key.UserB},
				JobID:         key.JobID,
				ApplicationID: key.ApplicationID,
				UnreadCount:   map[string]int{key.UserA: 0, key.UserB: 0},
				IsActive:      true,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
		default:
			return errors.Internal("Failed to get conversation", err)
		}

		if firstMessage != nil {
			msg := *firstMessage
			if msg.ID == "" {
				msg.ID = uuid.New().String()
			}
			msg.ConversationID = docID
			msg.CreatedAt = time.Now()

			conversation.LastMessage = previewOf(&msg)
			conversation.LastMessageID = msg.ID
			conversation.LastMessageAt = msg.CreatedAt
			conversation.IncrementUnread(conversation.OtherParticipant(msg.SenderID))
			message = &msg

			msgRef := docRef.Collection("messages").Doc(msg.ID)
			if err := tx.Set(msgRef, &msg); err != nil {
				return errors.Internal("Failed to create message", err)
			}
		}

		conversation.UpdatedAt = time.Now()
		return tx.Set(docRef, &conversation)
	}, firestore.MaxAttempts(3))

	if err != nil {
		if status.Code(err) == codes.Aborted {
			return nil, nil, errors.Conflict("Conversation was modified concurrently", err)
		}
		return nil, nil, err
	}

	return &conversation, message, nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conversation, nil
}

func (r *firestoreConversationRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	query := r.client.Collection("conversations").
		Where("participants", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching conversations for user %s: %v", userID, err)
		return nil, 0, errors.Internal("Failed to fetch conversations", err)
	}

	var visible []*entity.Conversation
	for _, doc := range allDocs {
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			logger.Warn("Skipping malformed conversation %s: %v", doc.Ref.ID, err)
			continue
		}
		if !conversation.IsActive || conversation.DeletedForUser(userID) {
			continue
		}
		visible = append(visible, &conversation)
	}

	total := int64(len(visible))

	// Pagination applied in memory, after visibility filtering
	start := offset
	if start > len(visible) {
		start = len(visible)
	}
	end := len(visible)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return visible[start:end], total, nil
}

func (r *firestoreConversationRepository) Update(ctx context.Context, conversation *entity.Conversation) error {
	conversation.UpdatedAt = time.Now()

	_, err := r.client.Collection("conversations").Doc(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.Internal("Failed to update conversation", err)
	}

	return nil
}

// Deactivate retires a conversation (e.g. by moderation). It is excluded
// from all listings but never physically deleted.
func (r *firestoreConversationRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.client.Collection("conversations").Doc(id).Update(ctx, []firestore.Update{
		{Path: "isActive", Value: false},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to deactivate conversation", err)
	}
	return nil
}

func (r *firestoreConversationRepository) AppendMessage(ctx context.Context, conversationID string, message *entity.Message) (*entity.Message, error) {
	docRef := r.client.Collection("conversations").Doc(conversationID)

	msg := *message
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.ConversationID = conversationID

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Conversation", err)
			}
			return errors.Internal("Failed to get conversation", err)
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return errors.Internal("Failed to parse conversation data", err)
		}

		msg.CreatedAt = time.Now()

		conversation.LastMessage = previewOf(&msg)
		conversation.LastMessageID = msg.ID
		conversation.LastMessageAt = msg.CreatedAt
		conversation.UpdatedAt = msg.CreatedAt
		conversation.IncrementUnread(conversation.OtherParticipant(msg.SenderID))

		msgRef := docRef.Collection("messages").Doc(msg.ID)
		if err := tx.Set(msgRef, &msg); err != nil {
			return errors.Internal("Failed to create message", err)
		}

		return tx.Set(docRef, &conversation)
	}, firestore.MaxAttempts(3))

	if err != nil {
		if status.Code(err) == codes.Aborted {
			return nil, errors.Conflict("Conversation was modified concurrently", err)
		}
		return nil, err
	}

	return &msg, nil
}

func (r *firestoreConversationRepository) ListMessages(ctx context.Context, conversationID, userID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection("conversations").Doc(conversationID).Collection("messages").
		OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching messages for conversation %s: %v", conversationID, err)
		return nil, 0, errors.Internal("Failed to fetch messages", err)
	}

	// Visibility filtering happens before pagination so hidden messages do
	// not punch holes in pages or inflate the total.
	var visible []*entity.Message
	for _, doc := range allDocs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Warn("Skipping malformed message %s in conversation %s: %v", doc.Ref.ID, conversationID, err)
			continue
		}
		if message.HiddenFor(userID) {
			continue
		}
		visible = append(visible, &message)
	}

	total := int64(len(visible))

	start := offset
	if start > len(visible) {
		start = len(visible)
	}
	end := len(visible)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return visible[start:end], total, nil
}

func (r *firestoreConversationRepository) GetMessageByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	doc, err := r.client.Collection("conversations").Doc(conversationID).Collection("messages").Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

func (r *firestoreConversationRepository) UpdateMessage(ctx context.Context, conversationID string, message *entity.Message) error {
	_, err := r.client.Collection("conversations").Doc(conversationID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to update message", err)
	}
	return nil
}

func (r *firestoreConversationRepository) MarkConversationRead(ctx context.Context, conversationID, userID string) error {
	docRef := r.client.Collection("conversations").Doc(conversationID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Conversation", err)
			}
			return errors.Internal("Failed to get conversation", err)
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return errors.Internal("Failed to parse conversation data", err)
		}

		if conversation.UnreadCount == nil {
			conversation.UnreadCount = make(map[string]int)
		}
		conversation.UnreadCount[userID] = 0

		return tx.Set(docRef, &conversation)
	}, firestore.MaxAttempts(3))

	if err != nil {
		if status.Code(err) == codes.Aborted {
			return errors.Conflict("Conversation was modified concurrently", err)
		}
		return err
	}

	// Flag unread messages from the other participant. The counter above is
	// the durable signal of record; per-message flags trail it best-effort.
	unread := docRef.Collection("messages").Where("read", "==", false).Documents(ctx)
	for {
		doc, err := unread.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Internal("Failed to iterate unread messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Warn("Skipping malformed message %s in conversation %s: %v", doc.Ref.ID, conversationID, err)
			continue
		}
		if message.SenderID == userID {
			continue
		}

		if _, err := doc.Ref.Update(ctx, []firestore.Update{{Path: "read", Value: true}}); err != nil {
			logger.Warn("Failed to flag message %s as read: %v", doc.Ref.ID, err)
		}
	}

	return nil
}

func (r *firestoreConversationRepository) SoftDeleteConversation(ctx context.Context, conversationID, userID string) error {
	docRef := r.client.Collection("conversations").Doc(conversationID)

	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "deletedFor", Value: firestore.ArrayUnion(userID)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to delete conversation", err)
	}

	iter := docRef.Collection("messages").Documents(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Internal("Failed to iterate messages", err)
		}

		if _, err := doc.Ref.Update(ctx, []firestore.Update{
			{Path: "deletedFor", Value: firestore.ArrayUnion(userID)},
		}); err != nil {
			logger.Warn("Failed to hide message %s for user %s: %v", doc.Ref.ID, userID, err)
		}
	}

	return nil
}

func (r *firestoreConversationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	conversations, _, err := r.ListByUserID(ctx, userID, -1, 0)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, conversation := range conversations {
		total += conversation.UnreadCount[userID]
	}
	return total, nil
}

// previewOf is the conversation-list preview for a message.
func previewOf(message *entity.Message) string {
	if message.Content != "" {
		return message.Content
	}
	if message.Attachment != nil {
		return message.Attachment.OriginalName
	}
	return ""
}
