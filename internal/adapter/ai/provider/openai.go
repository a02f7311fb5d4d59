package provider

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fairyhunter13/lead-agent/internal/domain"
)

// OpenAI talks to the Responses API. Continuations chain on previous_response_id.
type OpenAI struct {
	t    *transport
	opts Options
}

// openAIState is the Turn.State carried between calls.
type openAIState struct {
	responseID string
	tools      []responsesTool
}

type responsesTool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type responsesContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responsesMessage struct {
	Role    string             `json:"role"`
	Content []responsesContent `json:"content"`
}

type functionCallOutput struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

type responsesRequest struct {
	Model              string          `json:"model"`
	Instructions       string          `json:"instructions"`
	PreviousResponseID string          `json:"previous_response_id,omitempty"`
	Input              any             `json:"input"`
	Tools              []responsesTool `json:"tools"`
	ToolChoice         string          `json:"tool_choice"`
	MaxOutputTokens    int             `json:"max_output_tokens"`
}

// NewOpenAI constructs the OpenAI adapter.
func NewOpenAI(o Options) *OpenAI {
	return &OpenAI{
		t:    newTransport(domain.ProviderOpenAI, "OpenAI", "Missing OPENAI_API_KEY. Set it in your environment to enable the chat agent.", o),
		opts: o,
	}
}

// Name implements domain.Provider.
func (p *OpenAI) Name() domain.ProviderName { return domain.ProviderOpenAI }

// Configured implements domain.Provider.
func (p *OpenAI) Configured() bool { return p.t.configured() }

// Send implements domain.Provider.
func (p *OpenAI) Send(ctx context.Context, conv []domain.ChatMessage, defs []domain.ToolDefinition) (domain.Turn, error) {
	tools := make([]responsesTool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, responsesTool{Type: "function", Name: d.Name, Description: d.Description, Parameters: d.Parameters})
	}
	input := make([]responsesMessage, 0, len(conv))
	for _, m := range conv {
		blockType := "input_text"
		if m.Role == domain.RoleAssistant {
			blockType = "output_text"
		}
		input = append(input, responsesMessage{Role: string(m.Role), Content: []responsesContent{{Type: blockType, Text: m.Content}}})
	}
	observePrompt(ctx, p.opts.Counter, p.Name(), p.opts.SystemPrompt, conv, p.opts.Model)
	return p.call(ctx, "send", responsesRequest{Input: input}, tools)
}

// Continue implements domain.Provider.
func (p *OpenAI) Continue(ctx context.Context, prev domain.Turn, results []domain.ToolResult) (domain.Turn, error) {
	st, _ := prev.State.(openAIState)
	outputs := make([]functionCallOutput, 0, len(results))
	for _, r := range results {
		outputs = append(outputs, functionCallOutput{Type: "function_call_output", CallID: r.CallID, Output: r.Output})
	}
	return p.call(ctx, "continue", responsesRequest{PreviousResponseID: st.responseID, Input: outputs}, st.tools)
}

func (p *OpenAI) call(ctx context.Context, op string, req responsesRequest, tools []responsesTool) (domain.Turn, error) {
	req.Model = p.opts.Model
	req.Instructions = p.opts.SystemPrompt
	req.Tools = tools
	req.ToolChoice = "auto"
	req.MaxOutputTokens = p.opts.MaxOutputTokens

	res, err := p.t.post(ctx, "/responses", op, req)
	if err != nil {
		return domain.Turn{}, err
	}
	return domain.Turn{
		Text:      responsesText(res),
		ToolCalls: responsesToolCalls(res),
		State:     openAIState{responseID: res.Get("id").String(), tools: tools},
	}, nil
}

func responsesToolCalls(res gjson.Result) []domain.ToolCall {
	var calls []domain.ToolCall
	for _, item := range res.Get("output").Array() {
		if item.Get("type").String() != "function_call" {
			continue
		}
		if c, ok := toolCall(item.Get("call_id"), item.Get("name"), item.Get("arguments")); ok {
			calls = append(calls, c)
		}
	}
	return calls
}

// responsesText prefers the aggregated output_text, then the first non-empty
// output_text block of a message item.
func responsesText(res gjson.Result) string {
	if v := res.Get("output_text"); v.Type == gjson.String {
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	for _, item := range res.Get("output").Array() {
		if item.Get("type").String() != "message" {
			continue
		}
		for _, block := range item.Get("content").Array() {
			if block.Get("type").String() != "output_text" {
				continue
			}
			if v := block.Get("text"); v.Type == gjson.String {
				if s := strings.TrimSpace(v.String()); s != "" {
					return s
				}
			}
		}
	}
	return ""
}
