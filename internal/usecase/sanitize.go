// Package usecase contains the chat orchestration logic of the lead agent.
package usecase

import (
	"strconv"

	"github.com/fairyhunter13/lead-agent/internal/domain"
	"github.com/fairyhunter13/lead-agent/pkg/textx"
)

// Conversation bounds applied before any message reaches a provider.
const (
	MaxMessages     = 14
	MaxMessageChars = 1200
)

// SanitizeMessages turns untrusted decoded JSON into a bounded conversation.
// Non-array input yields an empty slice. Entries that are not objects or whose
// content is empty after cleaning are dropped; only the trailing MaxMessages
// entries are kept.
func SanitizeMessages(raw any) []domain.ChatMessage {
	items, ok := raw.([]any)
	if !ok {
		return []domain.ChatMessage{}
	}
	out := make([]domain.ChatMessage, 0, len(items))
	for _, it := range items {
		entry, ok := it.(map[string]any)
		if !ok {
			continue
		}
		role := domain.RoleUser
		if r, _ := entry["role"].(string); r == string(domain.RoleAssistant) {
			role = domain.RoleAssistant
		}
		content := textx.Clamp(textx.SanitizeText(contentString(entry["content"])), MaxMessageChars)
		if content == "" {
			continue
		}
		out = append(out, domain.ChatMessage{Role: role, Content: content})
	}
	if len(out) > MaxMessages {
		out = out[len(out)-MaxMessages:]
	}
	return out
}

// contentString coerces scalar JSON values to text; objects, arrays and null become "".
func contentString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return ""
	}
}

// LatestUserMessage returns the content of the last user-authored message, or "".
func LatestUserMessage(conv []domain.ChatMessage) string {
	for i := len(conv) - 1; i >= 0; i-- {
		if conv[i].Role == domain.RoleUser {
			return conv[i].Content
		}
	}
	return ""
}
