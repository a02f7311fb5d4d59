// Package provider implements the hosted model adapters behind domain.Provider.
//
// Both adapters share one HTTP transport: bearer auth, bounded retries on
// network errors and 5xx, and a single error classification. Response bodies
// are read with gjson so missing or oddly typed fields never abort parsing.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/lead-agent/internal/adapter/observability"
	"github.com/fairyhunter13/lead-agent/internal/config"
	"github.com/fairyhunter13/lead-agent/internal/domain"
	obsctx "github.com/fairyhunter13/lead-agent/internal/observability"
)

const (
	// errorBodyLimit bounds the upstream body quoted in ProviderError messages.
	errorBodyLimit = 500
	// logBodyLimit bounds the upstream body written to logs.
	logBodyLimit = 512
	maxBodyBytes = 4 << 20
)

// TokenCounter estimates prompt tokens for metrics.
type TokenCounter interface {
	CountConversation(system string, conv []domain.ChatMessage, model string) int
}

// Options configures an adapter.
type Options struct {
	BaseURL         string
	APIKey          string
	Model           string
	SystemPrompt    string
	MaxOutputTokens int
	Timeout         time.Duration
	Retry           config.RetryConfig
	// HTTPClient overrides the instrumented default client.
	HTTPClient *http.Client
	Counter    TokenCounter
}

// OpenAIOptions builds adapter options from configuration.
func OpenAIOptions(cfg config.Config, systemPrompt string) Options {
	return Options{
		BaseURL:         cfg.OpenAIBaseURL,
		APIKey:          cfg.OpenAIAPIKey,
		Model:           cfg.OpenAIModel,
		SystemPrompt:    systemPrompt,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Timeout:         cfg.ProviderTimeout,
		Retry:           cfg.GetRetryConfig(),
	}
}

// GroqOptions builds adapter options from configuration.
func GroqOptions(cfg config.Config, systemPrompt string) Options {
	return Options{
		BaseURL:         cfg.GroqBaseURL,
		APIKey:          cfg.GroqAPIKey,
		Model:           cfg.GroqModel,
		SystemPrompt:    systemPrompt,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Timeout:         cfg.ProviderTimeout,
		Retry:           cfg.GetRetryConfig(),
	}
}

// transport posts JSON to one provider and classifies failures.
type transport struct {
	name       domain.ProviderName
	label      string
	missingKey string
	baseURL    string
	apiKey     string
	hc         *http.Client
	retry      config.RetryConfig
}

func newTransport(name domain.ProviderName, label, missingKey string, o Options) *transport {
	hc := o.HTTPClient
	if hc == nil {
		timeout := o.Timeout
		if timeout <= 0 {
			timeout = 25 * time.Second
		}
		hc = &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &transport{
		name:       name,
		label:      label,
		missingKey: missingKey,
		baseURL:    strings.TrimRight(o.BaseURL, "/"),
		apiKey:     strings.TrimSpace(o.APIKey),
		hc:         hc,
		retry:      o.Retry,
	}
}

func (t *transport) configured() bool { return t.apiKey != "" }

// statusError carries a non-2xx response through the retry loop.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string { return fmt.Sprintf("status %d", e.status) }

func (t *transport) backoff(ctx context.Context) backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime = 0
	if t.retry.InitialInterval > 0 {
		expo.InitialInterval = t.retry.InitialInterval
	}
	if t.retry.MaxInterval > 0 {
		expo.MaxInterval = t.retry.MaxInterval
	}
	if t.retry.Multiplier > 0 {
		expo.Multiplier = t.retry.Multiplier
	}
	retries := t.retry.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(expo, uint64(retries)), ctx)
}

// post sends payload to path and returns the parsed body. op labels metrics.
func (t *transport) post(ctx context.Context, path, op string, payload any) (gjson.Result, error) {
	lg := obsctx.LoggerFromContext(ctx)
	if !t.configured() {
		return gjson.Result{}, t.fail(domain.NewProviderError(t.name, 0, domain.ErrProviderNotConfigured, "%s", t.missingKey))
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("op=provider.post: marshal: %w", err)
	}
	endpoint := t.baseURL + path

	var body []byte
	attempt := 0
	call := func() error {
		attempt++
		start := time.Now()
		// Recreate request each attempt to avoid reusing consumed bodies
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
		req.Header.Set("Content-Type", "application/json")
		resp, err := t.hc.Do(req)
		observability.ObserveAIRequest(string(t.name), op, time.Since(start))
		if err != nil {
			lg.Warn("ai provider request failed",
				slog.String("provider", string(t.name)),
				slog.String("op", op),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet := string(raw)
			if len(snippet) > logBodyLimit {
				snippet = snippet[:logBodyLimit]
			}
			lg.Warn("ai provider non-2xx",
				slog.String("provider", string(t.name)),
				slog.String("op", op),
				slog.Int("status", resp.StatusCode),
				slog.String("endpoint", endpoint),
				slog.String("x_request_id", resp.Header.Get("X-Request-Id")),
				slog.String("body", snippet))
			se := &statusError{status: resp.StatusCode, body: string(raw)}
			if resp.StatusCode >= 500 {
				// 5xx is retryable
				return se
			}
			return backoff.Permanent(se)
		}
		body = raw
		return nil
	}

	if err := backoff.Retry(call, t.backoff(ctx)); err != nil {
		return gjson.Result{}, t.fail(t.classify(err))
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, t.fail(domain.NewProviderError(t.name, 200, domain.ErrUpstreamProtocol, "%s API error: invalid JSON response.", t.label))
	}
	return gjson.ParseBytes(body), nil
}

// classify maps a transport failure to a ProviderError.
func (t *transport) classify(err error) *domain.ProviderError {
	var se *statusError
	if errors.As(err, &se) {
		body := se.body
		if len(body) > errorBodyLimit {
			body = body[:errorBodyLimit]
		}
		kind := domain.ErrUpstreamUnavailable
		switch {
		case se.status == http.StatusUnauthorized || se.status == http.StatusForbidden:
			kind = domain.ErrUpstreamAuth
		case se.status == http.StatusTooManyRequests || strings.Contains(se.body, "insufficient_quota"):
			kind = domain.ErrUpstreamQuota
		case se.status < 500:
			kind = domain.ErrUpstreamProtocol
		}
		return domain.NewProviderError(t.name, se.status, kind, "%s API error (%d): %s", t.label, se.status, body)
	}
	return domain.NewProviderError(t.name, 0, domain.ErrUpstreamUnavailable, "%s API error: %v", t.label, err)
}

// fail records the error metric and returns pe.
func (t *transport) fail(pe *domain.ProviderError) *domain.ProviderError {
	observability.RecordAIError(string(t.name), kindLabel(pe.Kind))
	return pe
}

func kindLabel(kind error) string {
	switch {
	case errors.Is(kind, domain.ErrUpstreamAuth):
		return "auth"
	case errors.Is(kind, domain.ErrUpstreamQuota):
		return "quota"
	case errors.Is(kind, domain.ErrUpstreamProtocol):
		return "protocol"
	case errors.Is(kind, domain.ErrProviderNotConfigured):
		return "not_configured"
	default:
		return "unavailable"
	}
}

// toolCall converts a gjson tool call into a domain.ToolCall; ok is false
// when the id or name is missing.
func toolCall(id, name, args gjson.Result) (domain.ToolCall, bool) {
	c := domain.ToolCall{ID: id.String(), Name: name.String(), Arguments: "{}"}
	if args.Type == gjson.String && args.String() != "" {
		c.Arguments = args.String()
	}
	if c.ID == "" || c.Name == "" || id.Type != gjson.String || name.Type != gjson.String {
		return domain.ToolCall{}, false
	}
	return c, true
}

func observePrompt(ctx context.Context, c TokenCounter, name domain.ProviderName, system string, conv []domain.ChatMessage, model string) {
	if c == nil {
		return
	}
	n := c.CountConversation(system, conv, model)
	observability.ObservePromptTokens(string(name), n)
	obsctx.LoggerFromContext(ctx).Debug("prompt token estimate",
		slog.String("provider", string(name)),
		slog.String("model", model),
		slog.Int("tokens", n))
}
