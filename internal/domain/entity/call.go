package entity

import "time"

// Call statuses. A call starts as initiated; declined, missed and ended
// are terminal.
const (
	CallStatusInitiated = "initiated"
	CallStatusAccepted  = "accepted"
	CallStatusDeclined  = "declined"
	CallStatusMissed    = "missed"
	CallStatusConnected = "connected"
	CallStatusEnded     = "ended"
)

const (
	CallTypeAudio = "audio"
	CallTypeVideo = "video"
)

// Call is one call attempt between the two participants of a conversation.
// Calls are retained indefinitely as call history.
type Call struct {
	ID             string     `json:"id" firestore:"id"`
	ConversationID string     `json:"conversation_id" firestore:"conversationId"`
	CallerID       string     `json:"caller_id" firestore:"callerId"`
	ReceiverID     string     `json:"receiver_id" firestore:"receiverId"`
	CallType       string     `json:"call_type" firestore:"callType"` // "audio", "video"
	Status         string     `json:"status" firestore:"status"`
	Duration       int        `json:"duration" firestore:"duration"` // seconds, 0 until ended
	InitiatedAt    time.Time  `json:"initiated_at" firestore:"initiatedAt"`
	AnsweredAt     *time.Time `json:"answered_at,omitempty" firestore:"answeredAt,omitempty"`
	EndedAt        *time.Time `json:"ended_at,omitempty" firestore:"endedAt,omitempty"`
}

// callTransitions is the legal transition graph.
var callTransitions = map[string][]string{
	CallStatusInitiated: {CallStatusAccepted, CallStatusDeclined, CallStatusMissed},
	CallStatusAccepted:  {CallStatusConnected},
	CallStatusConnected: {CallStatusEnded},
}

// CanTransition reports whether moving from the call's current status to
// newStatus is legal.
func (c *Call) CanTransition(newStatus string) bool {
	for _, s := range callTransitions[c.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// IsParticipant reports whether userID is the caller or the receiver.
func (c *Call) IsParticipant(userID string) bool {
	return userID == c.CallerID || userID == c.ReceiverID
}
