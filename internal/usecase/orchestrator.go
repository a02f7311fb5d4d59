package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fairyhunter13/lead-agent/internal/adapter/observability"
	"github.com/fairyhunter13/lead-agent/internal/domain"
	obsctx "github.com/fairyhunter13/lead-agent/internal/observability"
	"github.com/fairyhunter13/lead-agent/internal/usecase/tools"
)

// GenericReply is returned whenever a provider produces no usable text.
const GenericReply = "I can help with services, pricing, and next steps. Tell me your project type, timeline, and goals."

// DefaultMaxToolRounds bounds tool execution rounds per exchange.
const DefaultMaxToolRounds = 4

// ToolExecutor exposes the tool catalog and structured execution.
type ToolExecutor interface {
	Definitions() []domain.ToolDefinition
	Execute(ctx context.Context, call domain.ToolCall, source string) domain.ToolResult
}

// OrchestratorConfig tunes provider selection and the round loop.
type OrchestratorConfig struct {
	Mode          domain.ProviderMode
	MaxToolRounds int
	// PermissiveFallback retries on any primary failure instead of auth/quota only.
	PermissiveFallback bool
}

// Orchestrator drives the tool-calling exchange against one provider, with a
// single fallback from OpenAI to Groq under auto mode.
type Orchestrator struct {
	cfg      OrchestratorConfig
	openai   domain.Provider
	groq     domain.Provider
	tools    ToolExecutor
	resolver *InlineResolver
}

// Reply is a successful orchestration result.
type Reply struct {
	Text     string
	Provider domain.ProviderName
	FellBack bool
	Inline   bool
}

// NewOrchestrator wires providers and tools. Either provider may be nil.
func NewOrchestrator(cfg OrchestratorConfig, openai, groq domain.Provider, t ToolExecutor, resolver *InlineResolver) *Orchestrator {
	if cfg.MaxToolRounds < 0 {
		cfg.MaxToolRounds = 0
	}
	if cfg.Mode == "" {
		cfg.Mode = domain.ModeAuto
	}
	return &Orchestrator{cfg: cfg, openai: openai, groq: groq, tools: t, resolver: resolver}
}

func configured(p domain.Provider) bool { return p != nil && p.Configured() }

// selectProvider applies the mode. Pinned modes fail closed; auto prefers OpenAI.
func (o *Orchestrator) selectProvider() (domain.Provider, error) {
	switch o.cfg.Mode {
	case domain.ModeOpenAI:
		if configured(o.openai) {
			return o.openai, nil
		}
		return nil, &domain.SetupError{Mode: o.cfg.Mode, Message: "Assistant setup incomplete. Add OPENAI_API_KEY and redeploy."}
	case domain.ModeGroq:
		if configured(o.groq) {
			return o.groq, nil
		}
		return nil, &domain.SetupError{Mode: o.cfg.Mode, Message: "Assistant setup incomplete. Add GROQ_API_KEY and redeploy."}
	default:
		if configured(o.openai) {
			return o.openai, nil
		}
		if configured(o.groq) {
			return o.groq, nil
		}
		return nil, &domain.SetupError{Mode: domain.ModeAuto, Message: "Assistant setup incomplete. Add OPENAI_API_KEY or GROQ_API_KEY and redeploy."}
	}
}

// shouldFallback reports whether a failed OpenAI exchange may be retried on Groq.
func (o *Orchestrator) shouldFallback(primary domain.Provider, err error) bool {
	if primary.Name() != domain.ProviderOpenAI || o.cfg.Mode != domain.ModeAuto || !configured(o.groq) {
		return false
	}
	if o.cfg.PermissiveFallback {
		return true
	}
	return errors.Is(err, domain.ErrUpstreamAuth) || errors.Is(err, domain.ErrUpstreamQuota)
}

// Run produces a reply for conv. Errors are *domain.SetupError when no provider
// is usable, otherwise the primary provider's error.
func (o *Orchestrator) Run(ctx context.Context, conv []domain.ChatMessage) (Reply, error) {
	lg := obsctx.LoggerFromContext(ctx)
	primary, err := o.selectProvider()
	if err != nil {
		lg.Warn("no provider configured", slog.String("mode", string(o.cfg.Mode)))
		return Reply{}, err
	}

	text, err := o.exchange(ctx, primary, conv)
	if err == nil {
		return o.finish(ctx, text, primary.Name(), false), nil
	}
	lg.Warn("provider exchange failed",
		slog.String("provider", string(primary.Name())),
		slog.Any("error", err))

	if !o.shouldFallback(primary, err) {
		return Reply{}, err
	}
	observability.RecordFallback(string(primary.Name()), string(o.groq.Name()))
	text, fbErr := o.exchange(ctx, o.groq, conv)
	if fbErr != nil {
		lg.Warn("fallback exchange failed",
			slog.String("provider", string(o.groq.Name())),
			slog.Any("error", fbErr))
		return Reply{}, err
	}
	return o.finish(ctx, text, o.groq.Name(), true), nil
}

// exchange runs Send then at most MaxToolRounds tool rounds. Whatever text the
// last turn carries is accepted, even when it still requested tools.
func (o *Orchestrator) exchange(ctx context.Context, p domain.Provider, conv []domain.ChatMessage) (string, error) {
	ctx, span := observability.Tracer().Start(ctx, "agent.exchange")
	defer span.End()
	span.SetAttributes(attribute.String("agent.provider", string(p.Name())))
	start := time.Now()

	turn, err := p.Send(ctx, conv, o.tools.Definitions())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return "", fmt.Errorf("op=orchestrator.exchange provider=%s: %w", p.Name(), err)
	}
	rounds := 0
	for ; rounds < o.cfg.MaxToolRounds && turn.Kind() == domain.TurnToolCalls; rounds++ {
		results := make([]domain.ToolResult, 0, len(turn.ToolCalls))
		for _, call := range turn.ToolCalls {
			results = append(results, o.tools.Execute(ctx, call, tools.SourceStructured))
		}
		turn, err = p.Continue(ctx, turn, results)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "continue failed")
			return "", fmt.Errorf("op=orchestrator.exchange provider=%s round=%d: %w", p.Name(), rounds+1, err)
		}
	}
	span.SetAttributes(attribute.Int("agent.tool_rounds", rounds))
	obsctx.LoggerFromContext(ctx).Info("provider exchange completed",
		slog.String("provider", string(p.Name())),
		slog.Int("tool_rounds", rounds),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return turn.Text, nil
}

// finish applies the generic sentence and the inline resolver.
func (o *Orchestrator) finish(ctx context.Context, text string, name domain.ProviderName, fellBack bool) Reply {
	text = strings.TrimSpace(text)
	if text == "" {
		text = GenericReply
	}
	r := Reply{Text: text, Provider: name, FellBack: fellBack}
	if o.resolver != nil {
		if resolved, ok := o.resolver.Resolve(ctx, text); ok {
			r.Text = resolved
			r.Inline = true
		}
	}
	return r
}
