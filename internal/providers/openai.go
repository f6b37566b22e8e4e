package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/citypal/citypal/internal/agent"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAIGateway implements agent.ModelGateway against the OpenAI chat
// completions API. With a custom base URL it also serves the many
// OpenAI-compatible endpoints (Kimi, DeepSeek, Groq, local servers).
type OpenAIGateway struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIGateway creates a gateway for the given model. baseURL may be
// empty for the official API.
func NewOpenAIGateway(apiKey, modelName, baseURL string) *OpenAIGateway {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIGateway{
		client:      openai.NewClientWithConfig(config),
		model:       modelName,
		maxTokens:   1024,
		temperature: 0.1,
	}
}

// Analyze runs a single-shot extraction call with no tool access.
func (g *OpenAIGateway) Analyze(ctx context.Context, systemPrompt, userText string) (string, error) {
	reply, err := g.chat(ctx, systemPrompt, []agent.ChatMessage{
		{Role: agent.RoleUser, Content: userText},
	}, nil)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// InvokeWithTools runs a tool-enabled call over the conversation so far.
func (g *OpenAIGateway) InvokeWithTools(ctx context.Context, systemPrompt string, messages []agent.ChatMessage, tools []agent.ToolSchema) (agent.ModelReply, error) {
	return g.chat(ctx, systemPrompt, messages, tools)
}

// Compose generates the final free-text answer, no tool access.
func (g *OpenAIGateway) Compose(ctx context.Context, systemPrompt string, messages []agent.ChatMessage) (string, error) {
	reply, err := g.chat(ctx, systemPrompt, messages, nil)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

func (g *OpenAIGateway) chat(ctx context.Context, systemPrompt string, messages []agent.ChatMessage, toolSchemas []agent.ToolSchema) (agent.ModelReply, error) {
	openaiMsgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		openaiMsgs = append(openaiMsgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	openaiMsgs = append(openaiMsgs, convertToOpenAI(messages)...)

	tools, err := convertOpenAITools(toolSchemas)
	if err != nil {
		return agent.ModelReply{}, err
	}

	req := openai.ChatCompletionRequest{
		Model:     g.model,
		Messages:  openaiMsgs,
		MaxTokens: g.maxTokens,
	}
	temperature := g.temperature
	req.Temperature = &temperature
	if len(tools) > 0 {
		req.Tools = tools
		// The model decides when to use tools; small talk should pass through.
		req.ToolChoice = "auto"
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return agent.ModelReply{}, agent.WrapModelError(err)
	}
	if len(resp.Choices) == 0 {
		return agent.ModelReply{}, agent.WrapModelError(fmt.Errorf("empty response from provider"))
	}

	choice := resp.Choices[0]
	reply := agent.ModelReply{Text: choice.Message.Content}

	for _, tc := range choice.Message.ToolCalls {
		args := make(map[string]any)
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				args = make(map[string]any)
			}
		}
		reply.ToolCalls = append(reply.ToolCalls, agent.ToolCall{
			Name: tc.Function.Name,
			Args: args,
		})
	}

	return reply, nil
}

// convertToOpenAI maps the conversation log to OpenAI roles. Tool results
// are carried as labeled user messages: the log keeps no provider call IDs,
// so the tool role's tool_call_id pairing cannot be reconstructed.
func convertToOpenAI(messages []agent.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case agent.RoleSystem:
			out = append(out, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: msg.Content,
			})
		case agent.RoleUser:
			out = append(out, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: msg.Content,
			})
		case agent.RoleAssistant:
			content := msg.Content
			if content == "" {
				// The SDK serializes "" as null, which the API rejects.
				content = " "
			}
			out = append(out, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: content,
			})
		case agent.RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: toolResultText(msg.Name, msg.Content),
			})
		}
	}
	return out
}

func convertOpenAITools(toolSchemas []agent.ToolSchema) ([]openai.Tool, error) {
	var tools []openai.Tool
	for _, ts := range toolSchemas {
		var schemaObj map[string]any
		if err := json.Unmarshal([]byte(ts.JSONSchema), &schemaObj); err != nil {
			return nil, fmt.Errorf("invalid tool schema JSON for %s: %w", ts.Name, err)
		}
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ts.Name,
				Description: ts.Description,
				Parameters:  schemaObj,
			},
		})
	}
	return tools, nil
}

func toolResultText(name, content string) string {
	if content == "" {
		content = "{}"
	}
	return fmt.Sprintf("[tool %s returned]\n%s", name, content)
}
