package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/citypal/citypal/internal/agent"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// AnthropicGateway implements agent.ModelGateway by calling the Anthropic
// Messages API directly.
type AnthropicGateway struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewAnthropicGateway creates a gateway for the given model.
func NewAnthropicGateway(apiKey, modelName string) *AnthropicGateway {
	return &AnthropicGateway{
		client:      anthropic.NewClient(apiKey),
		model:       modelName,
		maxTokens:   1024,
		temperature: 0.1,
	}
}

// Analyze runs a single-shot extraction call with no tool access.
func (g *AnthropicGateway) Analyze(ctx context.Context, systemPrompt, userText string) (string, error) {
	reply, err := g.chat(ctx, systemPrompt, []agent.ChatMessage{
		{Role: agent.RoleUser, Content: userText},
	}, nil)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// InvokeWithTools runs a tool-enabled call over the conversation so far.
func (g *AnthropicGateway) InvokeWithTools(ctx context.Context, systemPrompt string, messages []agent.ChatMessage, tools []agent.ToolSchema) (agent.ModelReply, error) {
	return g.chat(ctx, systemPrompt, messages, tools)
}

// Compose generates the final free-text answer, no tool access.
func (g *AnthropicGateway) Compose(ctx context.Context, systemPrompt string, messages []agent.ChatMessage) (string, error) {
	reply, err := g.chat(ctx, systemPrompt, messages, nil)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

func (g *AnthropicGateway) chat(ctx context.Context, systemPrompt string, messages []agent.ChatMessage, toolSchemas []agent.ToolSchema) (agent.ModelReply, error) {
	var systemParts []anthropic.MessageSystemPart
	if systemPrompt != "" {
		systemParts = append(systemParts, anthropic.MessageSystemPart{
			Type: "text",
			Text: systemPrompt,
		})
	}

	anthropicMsgs := convertToAnthropic(messages, &systemParts)

	var toolDefs []anthropic.ToolDefinition
	for _, ts := range toolSchemas {
		var schemaObj map[string]any
		if err := json.Unmarshal([]byte(ts.JSONSchema), &schemaObj); err != nil {
			return agent.ModelReply{}, fmt.Errorf("invalid tool schema JSON for %s: %w", ts.Name, err)
		}
		toolDefs = append(toolDefs, anthropic.ToolDefinition{
			Name:        ts.Name,
			Description: ts.Description,
			InputSchema: schemaObj,
		})
	}

	temperature := g.temperature
	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(g.model),
		Messages:    anthropicMsgs,
		MaxTokens:   g.maxTokens,
		Temperature: &temperature,
	}
	if len(systemParts) > 0 {
		req.MultiSystem = systemParts
	}
	if len(toolDefs) > 0 {
		req.Tools = toolDefs
	}

	resp, err := g.client.CreateMessages(ctx, req)
	if err != nil {
		return agent.ModelReply{}, agent.WrapModelError(err)
	}

	var reply agent.ModelReply
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				reply.Text += *block.Text
			}
		case "tool_use":
			if block.MessageContentToolUse == nil || block.Name == "" {
				continue
			}
			args := make(map[string]any)
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					args = make(map[string]any)
				}
			}
			reply.ToolCalls = append(reply.ToolCalls, agent.ToolCall{
				Name: block.Name,
				Args: args,
			})
		}
	}

	return reply, nil
}

// convertToAnthropic maps the conversation log to Anthropic messages.
// System entries are hoisted into the system parts; tool results become
// labeled user text because the log keeps no tool_use IDs to pair with.
// Anthropic requires strict user/assistant alternation, so consecutive
// same-role messages are merged into one message with multiple blocks.
func convertToAnthropic(messages []agent.ChatMessage, systemParts *[]anthropic.MessageSystemPart) []anthropic.Message {
	var out []anthropic.Message

	push := func(role anthropic.ChatRole, text string) {
		if text == "" {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, anthropic.NewTextMessageContent(text))
			return
		}
		out = append(out, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(text)},
		})
	}

	for _, msg := range messages {
		switch msg.Role {
		case agent.RoleSystem:
			*systemParts = append(*systemParts, anthropic.MessageSystemPart{
				Type: "text",
				Text: msg.Content,
			})
		case agent.RoleUser:
			push(anthropic.RoleUser, msg.Content)
		case agent.RoleAssistant:
			push(anthropic.RoleAssistant, msg.Content)
		case agent.RoleTool:
			push(anthropic.RoleUser, toolResultText(msg.Name, msg.Content))
		}
	}
	return out
}
