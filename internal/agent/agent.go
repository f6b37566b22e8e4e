package agent

import (
	"context"
)

// HistoryEntry is one prior message supplied by the caller. The caller owns
// history truncation; the agent replays entries as-is.
type HistoryEntry struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// TurnResult is the blocking-form result of one orchestration run.
type TurnResult struct {
	Response      string         `json:"response"`
	Thinking      string         `json:"thinking"`
	FunctionCalls []FunctionCall `json:"function_calls"`
}

// apologyResponse is the fixed answer for abnormal termination
// (model unavailable, step budget exceeded). No partial state is surfaced.
const apologyResponse = "I'm sorry, something went wrong while answering your question. Please try again."

// Agent runs one orchestration pass per user message. It is safe for
// concurrent turns: the gateway, registry and classifier are read-only after
// construction and every run gets a fresh TurnState.
type Agent struct {
	gateway    ModelGateway
	tools      ToolRegistry
	classifier *Classifier
	cfg        Config
	hooks      Hooks
}

// New creates an agent. A nil classifier gets the default indicator lists;
// unset config fields get defaults.
func New(gateway ModelGateway, tools ToolRegistry, classifier *Classifier, cfg Config, hooks ...Hook) *Agent {
	if classifier == nil {
		classifier = NewClassifier(DefaultClassifierConfig())
	}
	return &Agent{
		gateway:    gateway,
		tools:      tools,
		classifier: classifier,
		cfg:        cfg.withDefaults(),
		hooks:      Hooks(hooks),
	}
}

// RunTurn executes one turn and blocks until the final answer is ready.
// On abnormal termination the result carries the fixed apology and an empty
// trace, alongside the error for the caller's logs.
func (a *Agent) RunTurn(ctx context.Context, message string, history []HistoryEntry) (TurnResult, error) {
	st := NewTurnState(message, seedMessages(history))
	m := newMachine(a.gateway, a.tools, a.classifier, a.cfg, a.hooks)

	if err := m.run(ctx, st); err != nil {
		return TurnResult{Response: apologyResponse, FunctionCalls: []FunctionCall{}}, err
	}
	return turnResult(st), nil
}

// RunTurnStream executes one turn, yielding ordered progress events and a
// final event carrying {response, thinking, function_calls}. The channel is
// closed when the run ends; abandoning the consumer (cancelling ctx) stops
// event production without side effects.
func (a *Agent) RunTurnStream(ctx context.Context, message string, history []HistoryEntry) <-chan Event {
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)

		st := NewTurnState(message, seedMessages(history))
		hooks := append(Hooks{streamHook{ch: ch}}, a.hooks...)
		m := newMachine(a.gateway, a.tools, a.classifier, a.cfg, hooks)

		if err := m.run(ctx, st); err != nil {
			emit(ctx, ch, Event{
				Type:    EventError,
				Status:  "error",
				Message: apologyResponse,
				Data: map[string]any{
					"response":       apologyResponse,
					"thinking":       "",
					"function_calls": []FunctionCall{},
				},
			})
			return
		}

		res := turnResult(st)
		emit(ctx, ch, Event{
			Type:    EventFinal,
			Status:  "done",
			Message: "turn complete",
			Data: map[string]any{
				"response":       res.Response,
				"thinking":       res.Thinking,
				"function_calls": res.FunctionCalls,
			},
		})
	}()
	return ch
}

func emit(ctx context.Context, ch chan<- Event, ev Event) {
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}

func turnResult(st *TurnState) TurnResult {
	calls := make([]FunctionCall, len(st.FunctionCalls))
	copy(calls, st.FunctionCalls)
	return TurnResult{
		Response:      st.Response,
		Thinking:      st.Thinking,
		FunctionCalls: calls,
	}
}

// seedMessages converts caller history into conversation messages, dropping
// entries with roles the conversation log cannot hold.
func seedMessages(history []HistoryEntry) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(history))
	for _, h := range history {
		role := MessageRole(h.Role)
		if role != RoleUser && role != RoleAssistant {
			continue
		}
		msgs = append(msgs, ChatMessage{Role: role, Content: h.Content})
	}
	return msgs
}
