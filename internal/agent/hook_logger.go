package agent

import (
	"context"
	"log"
)

// LoggerHook logs node transitions, tool activity and retries.
type LoggerHook struct{ L *log.Logger }

func (h LoggerHook) OnNodeStart(_ context.Context, st *TurnState, node Node) {
	h.L.Printf("node=%s step=%d start", node, st.Steps)
}
func (h LoggerHook) OnNodeDone(_ context.Context, st *TurnState, node Node, next Node) {
	h.L.Printf("node=%s -> %s", node, next)
}
func (h LoggerHook) OnToolCall(_ context.Context, _ *TurnState, call ToolCall) {
	h.L.Printf("tool=%s invoking", call.Name)
}
func (h LoggerHook) OnToolResult(_ context.Context, _ *TurnState, call ToolCall, raw string, err error) {
	if err != nil {
		h.L.Printf("tool=%s fatal error: %v", call.Name, err)
		return
	}
	h.L.Printf("tool=%s returned %d bytes", call.Name, len(raw))
}
func (h LoggerHook) OnRetry(_ context.Context, st *TurnState, attempt int, cause string) {
	h.L.Printf("retry attempt=%d cause=%q", attempt, cause)
}
func (h LoggerHook) OnDone(_ context.Context, st *TurnState) {
	h.L.Printf("turn done steps=%d tools=%d retries=%d", st.Steps, len(st.ToolResults), st.RetryCount)
}
