package conversation

import "context"

// Store persists conversations and their messages.
type Store interface {
	CreateConversation(ctx context.Context, c Conversation) error
	GetConversation(ctx context.Context, id string) (Conversation, error)
	ListConversations(ctx context.Context) ([]Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	// AppendMessages saves the given messages in order and bumps the
	// conversation's updated time.
	AppendMessages(ctx context.Context, conversationID string, msgs []Message) error
	// ListMessages returns all messages of a conversation, oldest first.
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)

	Close() error
}
