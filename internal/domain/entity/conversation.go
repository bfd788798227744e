package entity

import "time"

// Conversation is a durable two-party thread, optionally scoped to a
// job/application hiring context. The same pair of users can hold several
// conversations as long as the context differs.
type Conversation struct {
	ID            string         `json:"id" firestore:"id"`
	Participants  []string       `json:"participants" firestore:"participants"`
	JobID         string         `json:"job_id,omitempty" firestore:"jobId,omitempty"`
	ApplicationID string         `json:"application_id,omitempty" firestore:"applicationId,omitempty"`
	LastMessage   string         `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageID string         `json:"last_message_id,omitempty" firestore:"lastMessageId,omitempty"`
	LastMessageAt time.Time      `json:"last_message_at" firestore:"lastMessageAt"`
	UnreadCount   map[string]int `json:"unread_count" firestore:"unreadCount"` // Map of userID to unread count
	DeletedFor    []string       `json:"-" firestore:"deletedFor"`             // Users who hid this conversation
	IsActive      bool           `json:"is_active" firestore:"isActive"`
	CreatedAt     time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time      `json:"updated_at" firestore:"updatedAt"`
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// IncrementUnread bumps userID's unread counter, initializing the map for
// documents stored without one.
func (c *Conversation) IncrementUnread(userID string) {
	if c.UnreadCount == nil {
		c.UnreadCount = make(map[string]int)
	}
	c.UnreadCount[userID]++
}

// DeletedForUser reports whether userID has soft deleted this conversation.
func (c *Conversation) DeletedForUser(userID string) bool {
	for _, u := range c.DeletedFor {
		if u == userID {
			return true
		}
	}
	return false
}
