package tokencount

import (
	"errors"
	"testing"

	tiktoken "github.com/pkoukk/tiktoken-go"
	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/lead-agent/internal/domain"
)

func offlineCounter() *Counter {
	c := NewCounter()
	c.loader = func(string) (*tiktoken.Tiktoken, error) { return nil, errors.New("offline") }
	return c
}

func TestNormalizeModelName(t *testing.T) {
	tests := map[string]string{
		"gpt-5-mini":                            "gpt-4",
		"GPT-3.5-turbo":                         "gpt-3.5-turbo",
		"llama-3.1-8b-instant":                  "gpt-4",
		"meta-llama/llama-3.1-8b-instruct:free": "gpt-4",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeModelName(in), in)
	}
}

func TestEstimateChars(t *testing.T) {
	assert.Equal(t, 0, EstimateChars())
	assert.Equal(t, 1, EstimateChars("abc"))
	assert.Equal(t, 2, EstimateChars("abcd", "e"))
	assert.Equal(t, 1, EstimateChars("££££"))
}

func TestCounter_FallsBackWhenOffline(t *testing.T) {
	c := offlineCounter()
	assert.Equal(t, 2, c.CountTokens("12345678", "gpt-5-mini"))

	conv := []domain.ChatMessage{{Role: domain.RoleUser, Content: "abcd"}}
	// 2 chars-estimate tokens + 2 framed messages + reply priming
	assert.Equal(t, 2+2*(tokensPerMessage+tokensPerRole)+replyPriming, c.CountConversation("abcd", conv, "gpt-5-mini"))
}
