// Package tokencount estimates prompt sizes for provider calls.
//
// It uses tiktoken-go, a Go port of OpenAI's tiktoken library, with the BPE
// ranks embedded through tiktoken-go-loader so no download happens at runtime.
// When no encoding can be loaded the counter falls back to a
// four-characters-per-token estimate.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/fairyhunter13/lead-agent/internal/domain"
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Per-message framing overhead used by OpenAI-compatible chat formats.
const (
	tokensPerMessage = 3
	tokensPerRole    = 1
	replyPriming     = 3
)

// Counter provides thread-safe token counting.
type Counter struct {
	mu            sync.RWMutex
	encodingCache map[string]*tiktoken.Tiktoken
	loader        func(model string) (*tiktoken.Tiktoken, error)
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{
		encodingCache: make(map[string]*tiktoken.Tiktoken),
		loader:        loadEncoding,
	}
}

// DefaultCounter is a shared counter instance.
var DefaultCounter = NewCounter()

func loadEncoding(model string) (*tiktoken.Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err == nil {
		return enc, nil
	}
	slog.Debug("falling back to cl100k_base encoding", slog.String("model", model), slog.Any("error", err))
	return tiktoken.GetEncoding("cl100k_base")
}

func (c *Counter) encoding(model string) (*tiktoken.Tiktoken, error) {
	key := normalizeModelName(model)

	c.mu.RLock()
	if enc, ok := c.encodingCache[key]; ok {
		c.mu.RUnlock()
		return enc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodingCache[key]; ok {
		return enc, nil
	}
	enc, err := c.loader(key)
	if err != nil {
		return nil, err
	}
	c.encodingCache[key] = enc
	return enc, nil
}

// normalizeModelName maps provider model ids to a tiktoken-known model.
func normalizeModelName(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	switch {
	case strings.Contains(model, "gpt-3.5"):
		return "gpt-3.5-turbo"
	default:
		// gpt-4+, gpt-5 and the llama family all tokenize close enough to cl100k
		return "gpt-4"
	}
}

// EstimateChars is the coarse fallback: about four characters per token.
func EstimateChars(texts ...string) int {
	n := 0
	for _, t := range texts {
		n += utf8.RuneCountInString(t)
	}
	return (n + 3) / 4
}

// CountTokens counts tokens in text, falling back to EstimateChars.
func (c *Counter) CountTokens(text, model string) int {
	enc, err := c.encoding(model)
	if err != nil {
		return EstimateChars(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// CountConversation estimates the prompt tokens of a system prompt plus conversation.
func (c *Counter) CountConversation(system string, conv []domain.ChatMessage, model string) int {
	enc, err := c.encoding(model)
	if err != nil {
		texts := make([]string, 0, len(conv)+1)
		texts = append(texts, system)
		for _, m := range conv {
			texts = append(texts, m.Content)
		}
		return EstimateChars(texts...) + (len(conv)+1)*(tokensPerMessage+tokensPerRole) + replyPriming
	}
	count := func(s string) int { return len(enc.Encode(s, nil, nil)) }

	n := tokensPerMessage + count("system") + count(system) + tokensPerRole
	for _, m := range conv {
		n += tokensPerMessage + count(string(m.Role)) + count(m.Content) + tokensPerRole
	}
	return n + replyPriming
}
