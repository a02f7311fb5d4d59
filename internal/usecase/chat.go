package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fairyhunter13/lead-agent/internal/adapter/observability"
	"github.com/fairyhunter13/lead-agent/internal/domain"
	obsctx "github.com/fairyhunter13/lead-agent/internal/observability"
)

// Reply sources.
const (
	SourceStatic   = "static"
	SourceProvider = "provider"
)

// ChatResult is the reply for one chat request.
type ChatResult struct {
	Reply    string
	Source   string
	Rule     string
	Provider domain.ProviderName
}

// ChatService answers a sanitized conversation from static rules or a provider.
type ChatService struct {
	Static       *StaticResponder
	Orchestrator *Orchestrator
}

// NewChatService constructs a ChatService with its dependencies.
func NewChatService(s *StaticResponder, o *Orchestrator) ChatService {
	return ChatService{Static: s, Orchestrator: o}
}

// Reply answers conv. The conversation must already be sanitized and non-empty.
func (s ChatService) Reply(ctx context.Context, conv []domain.ChatMessage) (ChatResult, error) {
	if len(conv) == 0 {
		return ChatResult{}, fmt.Errorf("%w: at least one message required", domain.ErrInvalidArgument)
	}
	lg := obsctx.LoggerFromContext(ctx)

	if s.Static != nil {
		if reply, rule, ok := s.Static.Respond(LatestUserMessage(conv), conv); ok {
			observability.RecordStaticReply(rule)
			lg.Info("static reply", slog.String("rule", rule))
			return ChatResult{Reply: reply, Source: SourceStatic, Rule: rule}, nil
		}
	}

	res, err := s.Orchestrator.Run(ctx, conv)
	if err != nil {
		return ChatResult{}, err
	}
	lg.Info("provider reply",
		slog.String("provider", string(res.Provider)),
		slog.Bool("fallback", res.FellBack),
		slog.Bool("inline_tools", res.Inline))
	return ChatResult{Reply: res.Text, Source: SourceProvider, Provider: res.Provider}, nil
}
