package agent

import (
	"context"
	"errors"
	"testing"
	"time"
)

func collectEvents(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for event channel to close")
		}
	}
}

func TestRunTurnStreamEmitsOrderedEventsAndFinal(t *testing.T) {
	g := &fakeGateway{
		analyzeText: analyzeTokyo,
		invokeReplies: []ModelReply{
			{ToolCalls: []ToolCall{{Name: "get_weather", Args: map[string]any{"city": "Tokyo"}}}},
		},
		composeText: "Sunny and 25C in Tokyo.",
	}
	reg := ToolRegistry{
		"get_weather": staticTool("get_weather", `{"city":"Tokyo","temperature_c":25}`),
	}
	a := newTestAgent(g, reg)

	events := collectEvents(t, a.RunTurnStream(context.Background(), "weather in Tokyo?", nil))
	if len(events) == 0 {
		t.Fatal("no events emitted")
	}

	first := events[0]
	if first.Type != EventNode || first.Node != NodeAnalyze || first.Status != "start" {
		t.Errorf("first event = %+v, want analyze start", first)
	}

	last := events[len(events)-1]
	if last.Type != EventFinal {
		t.Fatalf("last event type = %s, want final", last.Type)
	}
	if got, _ := last.Data["response"].(string); got != g.composeText {
		t.Errorf("final response = %q, want compose output", got)
	}
	if _, ok := last.Data["thinking"]; !ok {
		t.Error("final event missing thinking")
	}
	calls, ok := last.Data["function_calls"].([]FunctionCall)
	if !ok || len(calls) != 1 {
		t.Errorf("final function_calls = %v, want one recorded call", last.Data["function_calls"])
	}

	var sawTool bool
	for i, ev := range events {
		if ev.Type == EventTool {
			sawTool = true
		}
		if ev.Type == EventFinal && i != len(events)-1 {
			t.Error("final event emitted before the end")
		}
	}
	if !sawTool {
		t.Error("no tool event emitted")
	}
}

func TestRunTurnStreamErrorEventCarriesApology(t *testing.T) {
	g := &fakeGateway{analyzeErr: errors.New("dial tcp: connection refused")}
	a := newTestAgent(g, nil)

	events := collectEvents(t, a.RunTurnStream(context.Background(), "weather in Tokyo?", nil))
	if len(events) == 0 {
		t.Fatal("no events emitted")
	}
	last := events[len(events)-1]
	if last.Type != EventError {
		t.Fatalf("last event type = %s, want error", last.Type)
	}
	if got, _ := last.Data["response"].(string); got != apologyResponse {
		t.Errorf("error response = %q, want fixed apology", got)
	}
}

func TestRunTurnStreamAbandonedConsumer(t *testing.T) {
	g := &fakeGateway{analyzeText: analyzeSmallTalk, composeText: "hello!"}
	a := newTestAgent(g, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ch := a.RunTurnStream(ctx, "hi", nil)
	cancel()

	// The producer must terminate and close the channel even though nobody
	// drains events.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("stream did not close after context cancellation")
		}
	}
}

func TestSeedMessagesDropsUnknownRoles(t *testing.T) {
	history := []HistoryEntry{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "system", Content: "should be dropped"},
		{Role: "tool", Content: "should be dropped"},
	}
	msgs := seedMessages(history)
	if len(msgs) != 2 {
		t.Fatalf("seedMessages() kept %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Errorf("seedMessages() roles = %v, %v", msgs[0].Role, msgs[1].Role)
	}
}
