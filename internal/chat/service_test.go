package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/citypal/citypal/internal/agent"
	"github.com/citypal/citypal/internal/conversation"
)

// fakeGateway answers every turn as small talk, echoing how many prior
// messages it saw so history seeding can be asserted.
type fakeGateway struct {
	mu           sync.Mutex
	composeSeen  []agent.ChatMessage
	composeText  string
	analyzeErr   error
	composeCalls int
}

func (g *fakeGateway) Analyze(ctx context.Context, systemPrompt, userText string) (string, error) {
	if g.analyzeErr != nil {
		return "", g.analyzeErr
	}
	return `{"city":"","needs_info":false,"confirmed":false}`, nil
}

func (g *fakeGateway) InvokeWithTools(ctx context.Context, systemPrompt string, messages []agent.ChatMessage, tools []agent.ToolSchema) (agent.ModelReply, error) {
	return agent.ModelReply{Text: "done"}, nil
}

func (g *fakeGateway) Compose(ctx context.Context, systemPrompt string, messages []agent.ChatMessage) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.composeCalls++
	g.composeSeen = append([]agent.ChatMessage(nil), messages...)
	if g.composeText != "" {
		return g.composeText, nil
	}
	return fmt.Sprintf("reply #%d", g.composeCalls), nil
}

func newTestService(g *fakeGateway) (*Service, conversation.Store) {
	store := conversation.NewMemoryStore()
	ag := agent.New(g, agent.ToolRegistry{}, nil, agent.Config{})
	return NewService(store, ag), store
}

func TestSendMessagePersistsExchange(t *testing.T) {
	ctx := context.Background()
	g := &fakeGateway{composeText: "Hello there!"}
	svc, store := newTestService(g)

	c, err := svc.StartConversation(ctx, "greeting")
	if err != nil {
		t.Fatalf("StartConversation() error = %v", err)
	}

	res, err := svc.SendMessage(ctx, c.ID, "hi")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if res.Response != "Hello there!" {
		t.Errorf("Response = %q, want %q", res.Response, "Hello there!")
	}

	msgs, err := store.ListMessages(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("persisted messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "hi" {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
	if msgs[1].Role != "assistant" || msgs[1].Content != "Hello there!" {
		t.Errorf("msgs[1] = %+v", msgs[1])
	}
}

func TestSendMessageUnknownConversation(t *testing.T) {
	svc, _ := newTestService(&fakeGateway{})
	if _, err := svc.SendMessage(context.Background(), "conv-missing", "hi"); !errors.Is(err, conversation.ErrNotFound) {
		t.Errorf("SendMessage(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSendMessagePersistsApologyOnModelFailure(t *testing.T) {
	ctx := context.Background()
	g := &fakeGateway{analyzeErr: errors.New("upstream down")}
	svc, store := newTestService(g)

	c, err := svc.StartConversation(ctx, "")
	if err != nil {
		t.Fatalf("StartConversation() error = %v", err)
	}

	res, err := svc.SendMessage(ctx, c.ID, "weather in Tokyo?")
	if err == nil {
		t.Fatal("SendMessage() error = nil, want model failure")
	}
	if !strings.Contains(res.Response, "sorry") {
		t.Errorf("Response = %q, want apology", res.Response)
	}

	msgs, err := store.ListMessages(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("persisted messages = %d, want 2", len(msgs))
	}
	if msgs[1].Content != res.Response {
		t.Errorf("persisted assistant content = %q, want %q", msgs[1].Content, res.Response)
	}
}

func TestSeedHistoryReplaysRecentExchangesOnly(t *testing.T) {
	ctx := context.Background()
	g := &fakeGateway{}
	svc, store := newTestService(g)

	c, err := svc.StartConversation(ctx, "long chat")
	if err != nil {
		t.Fatalf("StartConversation() error = %v", err)
	}

	// Eight prior exchanges; only the last historyTurns should be replayed.
	var seed []conversation.Message
	for i := 0; i < 8; i++ {
		seed = append(seed,
			conversation.NewMessage(c.ID, "user", fmt.Sprintf("question %d", i)),
			conversation.NewMessage(c.ID, "assistant", fmt.Sprintf("answer %d", i)),
		)
	}
	if err := store.AppendMessages(ctx, c.ID, seed); err != nil {
		t.Fatalf("AppendMessages() error = %v", err)
	}

	if _, err := svc.SendMessage(ctx, c.ID, "one more"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	g.mu.Lock()
	seen := g.composeSeen
	g.mu.Unlock()

	var replayed int
	var sawOldest, sawNewest bool
	for _, m := range seen {
		if strings.HasPrefix(m.Content, "question ") || strings.HasPrefix(m.Content, "answer ") {
			replayed++
		}
		if m.Content == "question 0" {
			sawOldest = true
		}
		if m.Content == "answer 7" {
			sawNewest = true
		}
	}
	if replayed != historyTurns*2 {
		t.Errorf("replayed history messages = %d, want %d", replayed, historyTurns*2)
	}
	if sawOldest {
		t.Error("oldest exchange replayed, want it truncated")
	}
	if !sawNewest {
		t.Error("newest exchange missing from replay")
	}
}

func TestStreamMessagePersistsOnFinalEvent(t *testing.T) {
	ctx := context.Background()
	g := &fakeGateway{composeText: "Streamed answer."}
	svc, store := newTestService(g)

	c, err := svc.StartConversation(ctx, "streaming")
	if err != nil {
		t.Fatalf("StartConversation() error = %v", err)
	}

	events, err := svc.StreamMessage(ctx, c.ID, "hello")
	if err != nil {
		t.Fatalf("StreamMessage() error = %v", err)
	}

	var final *agent.Event
	deadline := time.After(5 * time.Second)
	for open := true; open; {
		select {
		case ev, ok := <-events:
			if !ok {
				open = false
				break
			}
			if ev.Type == agent.EventFinal {
				final = &ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for stream to close")
		}
	}
	if final == nil {
		t.Fatal("no final event received")
	}
	if got, _ := final.Data["response"].(string); got != "Streamed answer." {
		t.Errorf("final response = %q, want %q", got, "Streamed answer.")
	}

	msgs, err := store.ListMessages(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("persisted messages = %d, want 2", len(msgs))
	}
	if msgs[1].Content != "Streamed answer." {
		t.Errorf("persisted assistant content = %q", msgs[1].Content)
	}
}
