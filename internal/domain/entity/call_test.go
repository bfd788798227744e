package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallTransitions(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{CallStatusInitiated, CallStatusAccepted, true},
		{CallStatusInitiated, CallStatusDeclined, true},
		{CallStatusInitiated, CallStatusMissed, true},
		{CallStatusInitiated, CallStatusConnected, false},
		{CallStatusInitiated, CallStatusEnded, false},
		{CallStatusAccepted, CallStatusConnected, true},
		{CallStatusAccepted, CallStatusEnded, false},
		{CallStatusConnected, CallStatusEnded, true},
		{CallStatusDeclined, CallStatusAccepted, false},
		{CallStatusMissed, CallStatusAccepted, false},
		{CallStatusEnded, CallStatusConnected, false},
	}

	for _, tc := range cases {
		call := &Call{Status: tc.from}
		assert.Equal(t, tc.allowed, call.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCallIsParticipant(t *testing.T) {
	call := &Call{CallerID: "alice", ReceiverID: "bob"}
	assert.True(t, call.IsParticipant("alice"))
	assert.True(t, call.IsParticipant("bob"))
	assert.False(t, call.IsParticipant("mallory"))
}
