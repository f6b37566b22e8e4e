// Package conversation persists chat history across turns.
package conversation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a conversation or message does not exist.
var ErrNotFound = errors.New("conversation not found")

// Conversation groups the messages of one ongoing chat.
type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one persisted chat message.
type Message struct {
	ID             string
	ConversationID string
	Role           string // "user" or "assistant"
	Content        string
	CreatedAt      time.Time
}

// NewConversation creates a conversation with a fresh ID.
func NewConversation(title string) Conversation {
	now := time.Now().UTC()
	return Conversation{
		ID:        "conv-" + uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewMessage creates a message with a fresh ID.
func NewMessage(conversationID, role, content string) Message {
	return Message{
		ID:             "msg-" + uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
}
