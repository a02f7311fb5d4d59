package httpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fairyhunter13/lead-agent/internal/adapter/observability"
	"github.com/fairyhunter13/lead-agent/internal/domain"
	obsctx "github.com/fairyhunter13/lead-agent/internal/observability"
	"github.com/fairyhunter13/lead-agent/internal/usecase"
)

// Fixed user-facing messages of the chat endpoint.
const (
	MsgThrottled      = "Too many requests right now. Please wait a moment and try again."
	MsgInvalidBody    = "Invalid JSON body."
	MsgNoMessages     = "Provide at least one chat message."
	MsgUnavailable    = "The assistant is temporarily unavailable. Please use Book a call to continue."
	MsgUnknownFailure = "Unknown provider error."
)

// UnknownClient is the shared bucket for callers without a forwarded address.
const UnknownClient = "unknown"

// ClientKey derives the rate-limit identity from the first X-Forwarded-For
// entry. The header is caller-controlled, so this only throttles casual abuse.
func ClientKey(r *http.Request) string {
	fwd := r.Header.Get("X-Forwarded-For")
	if fwd == "" {
		return UnknownClient
	}
	first, _, _ := strings.Cut(fwd, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return UnknownClient
}

// AgentHandler serves POST /api/agent. Admission runs before the body is read.
func (s *Server) AgentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := ClientKey(r)
		ctx := obsctx.ContextWithClientKey(r.Context(), key)
		ctx = obsctx.WithAttrs(ctx, slog.String("client_key", key))
		lg := obsctx.LoggerFromContext(ctx)

		if s.Limiter != nil {
			allowed, err := s.Limiter.Admit(ctx, key)
			if err != nil {
				lg.Warn("rate limiter error, admitting request", slog.Any("error", err))
			}
			if !allowed {
				observability.RecordChatOutcome("throttled")
				writeJSON(w, http.StatusTooManyRequests, replyEnvelope{Reply: MsgThrottled})
				return
			}
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
		if err != nil || !gjson.ValidBytes(body) {
			observability.RecordChatOutcome("invalid")
			writeJSON(w, http.StatusBadRequest, errorBody{Error: MsgInvalidBody})
			return
		}

		conv := usecase.SanitizeMessages(gjson.GetBytes(body, "messages").Value())
		if len(conv) == 0 {
			observability.RecordChatOutcome("invalid")
			writeJSON(w, http.StatusBadRequest, errorBody{Error: MsgNoMessages})
			return
		}

		res, err := s.Chat.Reply(ctx, conv)
		if err != nil {
			writeChatError(ctx, w, err)
			return
		}
		observability.RecordChatOutcome(res.Source)
		writeJSON(w, http.StatusOK, replyEnvelope{Reply: res.Reply})
	}
}

func writeChatError(ctx context.Context, w http.ResponseWriter, err error) {
	lg := obsctx.LoggerFromContext(ctx)

	var setup *domain.SetupError
	if errors.As(err, &setup) {
		observability.RecordChatOutcome("setup_error")
		lg.Error("no provider configured", slog.String("mode", string(setup.Mode)))
		writeJSON(w, http.StatusBadGateway, replyEnvelope{Reply: setup.Message})
		return
	}

	diag := MsgUnknownFailure
	var pe *domain.ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		diag = pe.Message
	}
	observability.RecordChatOutcome("provider_error")
	lg.Error("chat reply failed", slog.Any("error", err))
	writeJSON(w, http.StatusBadGateway, replyEnvelope{Reply: MsgUnavailable, Error: diag})
}
