package agent

import (
	"context"
	"encoding/json"
	"fmt"
)

// MessageRole represents the role of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ChatMessage is the provider-agnostic message we pass around.
type ChatMessage struct {
	Role    MessageRole // Role of the message sender
	Content string      // Message content
	Name    string      // Optional: tool name for tool messages
}

// Validate checks if the ChatMessage is valid.
func (m ChatMessage) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		// Valid roles
	default:
		return fmt.Errorf("invalid message role: %s", m.Role)
	}
	if m.Role == RoleTool && m.Name == "" {
		return fmt.Errorf("tool messages must have a Name field")
	}
	return nil
}

// ToolCall represents a tool the model requested.
type ToolCall struct {
	Name string
	Args map[string]any
}

// Key returns a stable identity for deduplication.
// encoding/json sorts map keys, so identical arguments produce identical keys.
func (c ToolCall) Key() string {
	args, err := json.Marshal(c.Args)
	if err != nil {
		return c.Name
	}
	return c.Name + ":" + string(args)
}

// ToolSchema describes a tool in the catalog handed to the model.
type ToolSchema struct {
	Name        string
	Description string
	JSONSchema  string // raw JSON schema string
}

// ModelReply is a normalized result of one tool-enabled model call.
// Text may be empty when the model only requests tools.
type ModelReply struct {
	Text      string
	ToolCalls []ToolCall // zero or more tool calls requested by the model
}

// ModelGateway abstracts the text-generation model (OpenAI, Anthropic, etc.).
// All three operations fail only with a ModelUnavailableError; malformed text
// from Analyze is not an error and is handled by the analysis parser.
type ModelGateway interface {
	// Analyze is a single-shot call with no tool access, used for
	// intent/entity extraction. The returned text is best-effort structured.
	Analyze(ctx context.Context, systemPrompt, userText string) (string, error)

	// InvokeWithTools may return zero or more requested tool calls
	// alongside (possibly empty) text.
	InvokeWithTools(ctx context.Context, systemPrompt string, messages []ChatMessage, tools []ToolSchema) (ModelReply, error)

	// Compose generates free text from the accumulated context, no tool access.
	Compose(ctx context.Context, systemPrompt string, messages []ChatMessage) (string, error)
}
