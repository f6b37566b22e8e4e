package agent

import "context"

// Hook receives orchestration lifecycle callbacks. Implementations must not
// mutate the state they are handed.
type Hook interface {
	OnNodeStart(ctx context.Context, st *TurnState, node Node)
	OnNodeDone(ctx context.Context, st *TurnState, node Node, next Node)
	OnToolCall(ctx context.Context, st *TurnState, call ToolCall)
	OnToolResult(ctx context.Context, st *TurnState, call ToolCall, raw string, err error)
	OnRetry(ctx context.Context, st *TurnState, attempt int, cause string)
	OnDone(ctx context.Context, st *TurnState)
}

// NopHook lets you implement only the hooks you need.
type NopHook struct{}

func (NopHook) OnNodeStart(context.Context, *TurnState, Node)                     {}
func (NopHook) OnNodeDone(context.Context, *TurnState, Node, Node)                {}
func (NopHook) OnToolCall(context.Context, *TurnState, ToolCall)                  {}
func (NopHook) OnToolResult(context.Context, *TurnState, ToolCall, string, error) {}
func (NopHook) OnRetry(context.Context, *TurnState, int, string)                  {}
func (NopHook) OnDone(context.Context, *TurnState)                                {}

// Hooks fans callbacks out to multiple hooks in order.
type Hooks []Hook

func (hs Hooks) OnNodeStart(ctx context.Context, st *TurnState, node Node) {
	for _, h := range hs {
		h.OnNodeStart(ctx, st, node)
	}
}

func (hs Hooks) OnNodeDone(ctx context.Context, st *TurnState, node Node, next Node) {
	for _, h := range hs {
		h.OnNodeDone(ctx, st, node, next)
	}
}

func (hs Hooks) OnToolCall(ctx context.Context, st *TurnState, call ToolCall) {
	for _, h := range hs {
		h.OnToolCall(ctx, st, call)
	}
}

func (hs Hooks) OnToolResult(ctx context.Context, st *TurnState, call ToolCall, raw string, err error) {
	for _, h := range hs {
		h.OnToolResult(ctx, st, call, raw, err)
	}
}

func (hs Hooks) OnRetry(ctx context.Context, st *TurnState, attempt int, cause string) {
	for _, h := range hs {
		h.OnRetry(ctx, st, attempt, cause)
	}
}

func (hs Hooks) OnDone(ctx context.Context, st *TurnState) {
	for _, h := range hs {
		h.OnDone(ctx, st)
	}
}
