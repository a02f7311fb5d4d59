// Package domain holds the provider-agnostic entities, ports and error
// taxonomy of the lead-qualification agent.
package domain

import (
	"context"
	"time"
)

// Role of a chat message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single sanitized conversation entry.
// Invariants: Role in {user, assistant}; Content trimmed, non-empty and length-bounded.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ProviderName identifies a hosted language-model provider.
type ProviderName string

const (
	ProviderOpenAI ProviderName = "openai"
	ProviderGroq   ProviderName = "groq"
)

// ProviderMode pins a provider or lets availability decide.
type ProviderMode string

const (
	ModeOpenAI ProviderMode = "openai"
	ModeGroq   ProviderMode = "groq"
	ModeAuto   ProviderMode = "auto"
)

// ToolDefinition describes one invokable business operation.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a tool invocation requested by a provider. Arguments is raw JSON
// text as emitted and must be parsed defensively.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolResult is the serialized output of an executed ToolCall.
type ToolResult struct {
	CallID string
	Name   string
	Output string
}

// TurnKind tags the validated shape of a provider response.
type TurnKind int

const (
	// TurnText carries a candidate final reply (possibly empty).
	TurnText TurnKind = iota
	// TurnToolCalls carries at least one tool invocation to execute.
	TurnToolCalls
)

// Turn is a provider response already validated by its adapter. State is
// opaque adapter data needed to continue the exchange.
type Turn struct {
	Text      string
	ToolCalls []ToolCall
	State     any
}

// Kind reports which variant the turn is.
func (t Turn) Kind() TurnKind {
	if len(t.ToolCalls) > 0 {
		return TurnToolCalls
	}
	return TurnText
}

// Contact is the studio's fixed contact record.
type Contact struct {
	Email            string `json:"email" yaml:"email"`
	Phone            string `json:"phone" yaml:"phone"`
	WhatsApp         string `json:"whatsapp" yaml:"whatsapp"`
	PreferredContact string `json:"preferredContact" yaml:"preferred_contact"`
	Calendar         string `json:"calendar" yaml:"calendar"`
	WorkingHours     string `json:"workingHours" yaml:"working_hours"`
	Booking          string `json:"booking" yaml:"booking"`
}

// Service is one entry of the studio's service catalog.
type Service struct {
	Name    string `json:"name" yaml:"name"`
	Summary string `json:"summary" yaml:"summary"`
}

// QuotePayload is the captured lead. The first six fields are required.
type QuotePayload struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	BusinessType     string `json:"businessType"`
	Budget           string `json:"budget"`
	Timeline         string `json:"timeline"`
	RequiredFeatures string `json:"requiredFeatures"`
	Organization     string `json:"organization,omitempty"`
	ProjectType      string `json:"projectType,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// QuoteSubmission is an append-only record of a successful quote request.
type QuoteSubmission struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"createdAt"`
	Payload   QuotePayload `json:"payload"`
}

// Context is an alias to allow decoupling from std context in domain.
type Context = context.Context
