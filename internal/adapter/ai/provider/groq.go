package provider

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fairyhunter13/lead-agent/internal/domain"
)

// Groq talks to the OpenAI-compatible chat completions endpoint. The whole
// transcript is resent on every call.
type Groq struct {
	t    *transport
	opts Options
}

// groqState is the Turn.State carried between calls.
type groqState struct {
	messages []chatMessage
	tools    []chatTool
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatMessage struct {
	Role       string          `json:"role"`
	Content    string          `json:"content"`
	ToolCalls  json.RawMessage `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Name       string          `json:"name,omitempty"`
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	Tools               []chatTool    `json:"tools"`
	ToolChoice          string        `json:"tool_choice"`
	MaxCompletionTokens int           `json:"max_completion_tokens"`
}

// NewGroq constructs the Groq adapter.
func NewGroq(o Options) *Groq {
	return &Groq{
		t:    newTransport(domain.ProviderGroq, "Groq", "Missing GROQ_API_KEY. Set it in your environment to enable Groq for the chat agent.", o),
		opts: o,
	}
}

// Name implements domain.Provider.
func (p *Groq) Name() domain.ProviderName { return domain.ProviderGroq }

// Configured implements domain.Provider.
func (p *Groq) Configured() bool { return p.t.configured() }

// Send implements domain.Provider.
func (p *Groq) Send(ctx context.Context, conv []domain.ChatMessage, defs []domain.ToolDefinition) (domain.Turn, error) {
	tools := make([]chatTool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, chatTool{Type: "function", Function: chatFunction{Name: d.Name, Description: d.Description, Parameters: d.Parameters}})
	}
	msgs := make([]chatMessage, 0, len(conv)+1)
	msgs = append(msgs, chatMessage{Role: "system", Content: p.opts.SystemPrompt})
	for _, m := range conv {
		msgs = append(msgs, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	observePrompt(ctx, p.opts.Counter, p.Name(), p.opts.SystemPrompt, conv, p.opts.Model)
	return p.call(ctx, "send", msgs, tools)
}

// Continue implements domain.Provider.
func (p *Groq) Continue(ctx context.Context, prev domain.Turn, results []domain.ToolResult) (domain.Turn, error) {
	st, _ := prev.State.(groqState)
	msgs := make([]chatMessage, 0, len(st.messages)+len(results))
	msgs = append(msgs, st.messages...)
	for _, r := range results {
		msgs = append(msgs, chatMessage{Role: "tool", ToolCallID: r.CallID, Name: r.Name, Content: r.Output})
	}
	return p.call(ctx, "continue", msgs, st.tools)
}

func (p *Groq) call(ctx context.Context, op string, msgs []chatMessage, tools []chatTool) (domain.Turn, error) {
	res, err := p.t.post(ctx, "/chat/completions", op, chatRequest{
		Model:               p.opts.Model,
		Messages:            msgs,
		Tools:               tools,
		ToolChoice:          "auto",
		MaxCompletionTokens: p.opts.MaxOutputTokens,
	})
	if err != nil {
		return domain.Turn{}, err
	}

	msg := res.Get("choices.0.message")
	if !msg.IsObject() {
		return domain.Turn{}, p.t.fail(domain.NewProviderError(p.Name(), 200, domain.ErrUpstreamProtocol, "Groq API error: missing assistant message."))
	}

	var text string
	if c := msg.Get("content"); c.Type == gjson.String {
		text = strings.TrimSpace(c.String())
	}

	var calls []domain.ToolCall
	echo := chatMessage{Role: "assistant", Content: text}
	if raw := msg.Get("tool_calls"); raw.IsArray() {
		items := raw.Array()
		if len(items) > 0 {
			echo.ToolCalls = json.RawMessage(raw.Raw)
		}
		for _, tc := range items {
			if c, ok := toolCall(tc.Get("id"), tc.Get("function.name"), tc.Get("function.arguments")); ok {
				calls = append(calls, c)
			}
		}
	}

	next := make([]chatMessage, 0, len(msgs)+1)
	next = append(next, msgs...)
	next = append(next, echo)
	return domain.Turn{
		Text:      text,
		ToolCalls: calls,
		State:     groqState{messages: next, tools: tools},
	}, nil
}
