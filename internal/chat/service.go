// Package chat is the use-case layer tying conversations to agent turns.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/citypal/citypal/internal/agent"
	"github.com/citypal/citypal/internal/conversation"
)

// historyTurns is how many prior user/assistant exchanges are replayed as
// context for a new turn.
const historyTurns = 5

// Service runs agent turns inside persistent conversations.
type Service struct {
	store conversation.Store
	agent *agent.Agent
}

// NewService wires the store and the agent together.
func NewService(store conversation.Store, ag *agent.Agent) *Service {
	return &Service{store: store, agent: ag}
}

// StartConversation creates a new conversation. An empty title gets a
// default one.
func (s *Service) StartConversation(ctx context.Context, title string) (conversation.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		title = "New conversation"
	}
	c := conversation.NewConversation(title)
	if err := s.store.CreateConversation(ctx, c); err != nil {
		return conversation.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

// ListConversations returns all conversations, most recently updated first.
func (s *Service) ListConversations(ctx context.Context) ([]conversation.Conversation, error) {
	return s.store.ListConversations(ctx)
}

// DeleteConversation removes a conversation and its history.
func (s *Service) DeleteConversation(ctx context.Context, id string) error {
	return s.store.DeleteConversation(ctx, id)
}

// History returns the full persisted message list of a conversation.
func (s *Service) History(ctx context.Context, conversationID string) ([]conversation.Message, error) {
	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, conversationID)
}

// SendMessage runs one blocking agent turn in the conversation and persists
// the user message and the assistant answer. On abnormal termination the
// persisted answer is the agent's fixed apology and the error is returned
// for the caller's logs.
func (s *Service) SendMessage(ctx context.Context, conversationID, content string) (agent.TurnResult, error) {
	history, err := s.seedHistory(ctx, conversationID)
	if err != nil {
		return agent.TurnResult{}, err
	}

	res, runErr := s.agent.RunTurn(ctx, content, history)

	if err := s.persistExchange(ctx, conversationID, content, res.Response); err != nil {
		if runErr != nil {
			return res, runErr
		}
		return res, err
	}
	return res, runErr
}

// StreamMessage runs one streaming agent turn. The returned channel yields
// ordered progress events and closes when the turn ends; the exchange is
// persisted when the final (or error) event is produced.
func (s *Service) StreamMessage(ctx context.Context, conversationID, content string) (<-chan agent.Event, error) {
	history, err := s.seedHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	events := s.agent.RunTurnStream(ctx, content, history)

	out := make(chan agent.Event, 16)
	go func() {
		defer close(out)
		for ev := range events {
			if ev.Type == agent.EventFinal || ev.Type == agent.EventError {
				response, _ := ev.Data["response"].(string)
				// Persistence failures must not swallow the final event.
				_ = s.persistExchange(ctx, conversationID, content, response)
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// seedHistory loads the most recent exchanges of the conversation as agent
// history, verifying the conversation exists.
func (s *Service) seedHistory(ctx context.Context, conversationID string) ([]agent.HistoryEntry, error) {
	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	msgs, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	if max := historyTurns * 2; len(msgs) > max {
		msgs = msgs[len(msgs)-max:]
	}

	history := make([]agent.HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, agent.HistoryEntry{Role: m.Role, Content: m.Content})
	}
	return history, nil
}

func (s *Service) persistExchange(ctx context.Context, conversationID, userContent, assistantContent string) error {
	msgs := []conversation.Message{
		conversation.NewMessage(conversationID, "user", userContent),
		conversation.NewMessage(conversationID, "assistant", assistantContent),
	}
	if err := s.store.AppendMessages(ctx, conversationID, msgs); err != nil {
		return fmt.Errorf("persist exchange: %w", err)
	}
	return nil
}
