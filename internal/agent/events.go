package agent

import (
	"context"
	"fmt"
	"strings"
)

// EventType categorizes a progress event.
type EventType string

const (
	EventNode  EventType = "node"
	EventTool  EventType = "tool"
	EventRetry EventType = "retry"
	EventFinal EventType = "final"
	EventError EventType = "error"
)

// Event is one progress notification re-emitted from a state transition.
// Data carries a JSON-safe projection of partial state, never live objects.
type Event struct {
	Type    EventType      `json:"event_type"`
	Node    Node           `json:"node_name,omitempty"`
	Status  string         `json:"status,omitempty"` // "start" | "done" | "error"
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// streamHook bridges orchestration callbacks onto an event channel.
// Sends race against ctx so an abandoned consumer cannot wedge the run.
type streamHook struct {
	NopHook
	ch chan<- Event
}

func (h streamHook) emit(ctx context.Context, ev Event) {
	select {
	case h.ch <- ev:
	case <-ctx.Done():
	}
}

func (h streamHook) OnNodeStart(ctx context.Context, st *TurnState, node Node) {
	h.emit(ctx, Event{
		Type:    EventNode,
		Node:    node,
		Status:  "start",
		Message: nodeStartMessage(st, node),
	})
}

func (h streamHook) OnNodeDone(ctx context.Context, st *TurnState, node Node, next Node) {
	h.emit(ctx, Event{
		Type:    EventNode,
		Node:    node,
		Status:  "done",
		Message: nodeDoneMessage(st, node, next),
		Data:    nodeData(st, node),
	})
}

func (h streamHook) OnToolCall(ctx context.Context, st *TurnState, call ToolCall) {
	h.emit(ctx, Event{
		Type:    EventTool,
		Node:    NodeInvokeTools,
		Status:  "start",
		Message: fmt.Sprintf("invoking %s", call.Name),
		Data:    map[string]any{"tool": call.Name, "parameters": call.Args},
	})
}

func (h streamHook) OnRetry(ctx context.Context, st *TurnState, attempt int, cause string) {
	h.emit(ctx, Event{
		Type:    EventRetry,
		Node:    NodeClassifyResults,
		Status:  "start",
		Message: fmt.Sprintf("retrying information gathering (attempt %d): %s", attempt, cause),
		Data:    map[string]any{"attempt": attempt, "cause": cause},
	})
}

// nodeStartMessage derives a human-readable progress line for a node entry.
func nodeStartMessage(st *TurnState, node Node) string {
	switch node {
	case NodeAnalyze:
		return "analyzing your question"
	case NodeAskCity:
		return "asking which city you mean"
	case NodeGatherInfo:
		return "deciding which information to gather"
	case NodeInvokeTools:
		return fmt.Sprintf("calling %d tool(s)", len(st.cycleCalls))
	case NodeClassifyResults:
		return "checking tool results"
	case NodeCompose:
		return "composing the answer"
	}
	return string(node)
}

func nodeDoneMessage(st *TurnState, node Node, next Node) string {
	switch node {
	case NodeAnalyze:
		if st.TargetCity != "" {
			return fmt.Sprintf("resolved city %q", st.TargetCity)
		}
		return "no city resolved"
	case NodeInvokeTools:
		names := make([]string, 0, len(st.cycleCalls))
		for _, c := range st.cycleCalls {
			names = append(names, c.Name)
		}
		return "invoked " + strings.Join(names, ", ")
	case NodeClassifyResults:
		if next == NodeGatherInfo {
			return "retry scheduled"
		}
		return "results classified"
	}
	return string(node) + " finished"
}

// nodeData projects the node's relevant partial state into plain records.
func nodeData(st *TurnState, node Node) map[string]any {
	switch node {
	case NodeAnalyze:
		return map[string]any{
			"city":       st.TargetCity,
			"confirmed":  st.CityConfirmed,
			"needs_info": st.NeedsExternalInfo,
		}
	case NodeClassifyResults:
		outcomes := make([]map[string]any, 0, len(st.ToolResults))
		for _, r := range st.ToolResults {
			outcomes = append(outcomes, map[string]any{
				"tool_name":     r.ToolName,
				"success":       r.Success,
				"error_kind":    string(r.ErrorKind),
				"error_message": r.ErrorMessage,
			})
		}
		return map[string]any{"tool_results": outcomes, "retry_count": st.RetryCount}
	}
	return nil
}
