package conversation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// storeFactories lets every Store implementation run the same suite.
var storeFactories = map[string]func(t *testing.T) Store{
	"memory": func(t *testing.T) Store {
		return NewMemoryStore()
	},
	"sqlite": func(t *testing.T) Store {
		t.Helper()
		dbPath := filepath.Join(t.TempDir(), "conversations.db")
		s, err := NewSQLiteStore(context.Background(), dbPath)
		if err != nil {
			t.Fatalf("NewSQLiteStore() error = %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	},
}

func TestStoreConversationLifecycle(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			c := NewConversation("Trip planning")
			if err := s.CreateConversation(ctx, c); err != nil {
				t.Fatalf("CreateConversation() error = %v", err)
			}

			got, err := s.GetConversation(ctx, c.ID)
			if err != nil {
				t.Fatalf("GetConversation() error = %v", err)
			}
			if got.ID != c.ID || got.Title != "Trip planning" {
				t.Errorf("GetConversation() = %+v", got)
			}

			if _, err := s.GetConversation(ctx, "conv-missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetConversation(missing) error = %v, want ErrNotFound", err)
			}

			list, err := s.ListConversations(ctx)
			if err != nil {
				t.Fatalf("ListConversations() error = %v", err)
			}
			if len(list) != 1 {
				t.Errorf("ListConversations() len = %d, want 1", len(list))
			}

			if err := s.DeleteConversation(ctx, c.ID); err != nil {
				t.Fatalf("DeleteConversation() error = %v", err)
			}
			if _, err := s.GetConversation(ctx, c.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetConversation(deleted) error = %v, want ErrNotFound", err)
			}
			if err := s.DeleteConversation(ctx, c.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("DeleteConversation(deleted) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreMessagesKeepOrder(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			c := NewConversation("ordering")
			if err := s.CreateConversation(ctx, c); err != nil {
				t.Fatalf("CreateConversation() error = %v", err)
			}

			first := []Message{
				NewMessage(c.ID, "user", "weather in Tokyo?"),
				NewMessage(c.ID, "assistant", "Sunny, 25C."),
			}
			second := []Message{
				NewMessage(c.ID, "user", "and the local time?"),
				NewMessage(c.ID, "assistant", "14:30 JST."),
			}
			if err := s.AppendMessages(ctx, c.ID, first); err != nil {
				t.Fatalf("AppendMessages() error = %v", err)
			}
			if err := s.AppendMessages(ctx, c.ID, second); err != nil {
				t.Fatalf("AppendMessages() error = %v", err)
			}

			msgs, err := s.ListMessages(ctx, c.ID)
			if err != nil {
				t.Fatalf("ListMessages() error = %v", err)
			}
			if len(msgs) != 4 {
				t.Fatalf("ListMessages() len = %d, want 4", len(msgs))
			}
			wantContents := []string{"weather in Tokyo?", "Sunny, 25C.", "and the local time?", "14:30 JST."}
			for i, want := range wantContents {
				if msgs[i].Content != want {
					t.Errorf("msgs[%d].Content = %q, want %q", i, msgs[i].Content, want)
				}
			}
			wantRoles := []string{"user", "assistant", "user", "assistant"}
			for i, want := range wantRoles {
				if msgs[i].Role != want {
					t.Errorf("msgs[%d].Role = %q, want %q", i, msgs[i].Role, want)
				}
			}
		})
	}
}

func TestAppendMessagesUnknownConversation(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			msg := NewMessage("conv-missing", "user", "hello")
			if err := s.AppendMessages(ctx, "conv-missing", []Message{msg}); !errors.Is(err, ErrNotFound) {
				t.Errorf("AppendMessages(missing) error = %v, want ErrNotFound", err)
			}
		})
	}
}
