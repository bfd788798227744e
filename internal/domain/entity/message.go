package entity

import "time"

// DeletedPlaceholder replaces the content of a message deleted for everyone.
const DeletedPlaceholder = "This message was deleted"

// Attachment is a stored file reference returned by the attachment gateway.
type Attachment struct {
	URL          string `json:"url" firestore:"url"`
	MimeType     string `json:"mime_type" firestore:"mimeType"`
	OriginalName string `json:"original_name" firestore:"originalName"`
}

type Message struct {
	ID             string      `json:"id" firestore:"id"`
	ConversationID string      `json:"conversation_id" firestore:"conversationId"`
	SenderID       string      `json:"sender_id" firestore:"senderId"`
	Content        string      `json:"content" firestore:"content"`
	Attachment     *Attachment `json:"attachment,omitempty" firestore:"attachment,omitempty"`
	Read           bool        `json:"read" firestore:"read"`
	IsDeleted      bool        `json:"is_deleted" firestore:"isDeleted"`
	DeletedFor     []string    `json:"-" firestore:"deletedFor"` // Users for whom this message is hidden
	CreatedAt      time.Time   `json:"created_at" firestore:"createdAt"`
}

// Scrub irreversibly clears content and attachment for a message deleted
// for everyone. Calling it on an already scrubbed message is a no-op.
func (m *Message) Scrub() {
	if m.IsDeleted {
		return
	}
	m.IsDeleted = true
	m.Content = DeletedPlaceholder
	m.Attachment = nil
}

// HiddenFor reports whether userID soft deleted this message.
func (m *Message) HiddenFor(userID string) bool {
	for _, u := range m.DeletedFor {
		if u == userID {
			return true
		}
	}
	return false
}
