package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrubIsIrreversibleAndIdempotent(t *testing.T) {
	message := &Message{
		SenderID:   "alice",
		Content:    "secret offer",
		Attachment: &Attachment{URL: "https://storage.example.com/x", OriginalName: "offer.pdf"},
	}

	message.Scrub()
	assert.True(t, message.IsDeleted)
	assert.Equal(t, DeletedPlaceholder, message.Content)
	assert.Nil(t, message.Attachment)

	// Scrubbing again changes nothing.
	message.Scrub()
	assert.Equal(t, DeletedPlaceholder, message.Content)
}

func TestHiddenFor(t *testing.T) {
	message := &Message{DeletedFor: []string{"bob"}}
	assert.True(t, message.HiddenFor("bob"))
	assert.False(t, message.HiddenFor("alice"))
}
