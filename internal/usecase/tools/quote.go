package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/lead-agent/internal/adapter/observability"
	"github.com/fairyhunter13/lead-agent/internal/domain"
	obsctx "github.com/fairyhunter13/lead-agent/internal/observability"
	"github.com/fairyhunter13/lead-agent/internal/usecase/qualify"
	"github.com/fairyhunter13/lead-agent/pkg/textx"
)

const (
	quoteAccepted = "Your quote request has been captured. Please use the Book a call button on this webpage to discuss further and confirm the project scope."
	quoteNotSaved = "We could not record your request right now. Please use Book a call to continue."
)

// QuoteResult is the submit_quote_request output.
type QuoteResult struct {
	OK      bool           `json:"ok"`
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
	Contact domain.Contact `json:"contact"`
}

// QuotePayloadFromArgs clamps every field and applies the organization/notes fallbacks.
func QuotePayloadFromArgs(args Args) domain.QuotePayload {
	clamp := func(key string) string { return textx.Clamp(args.String(key), qualify.MaxFieldChars) }
	p := domain.QuotePayload{
		Name:             clamp("name"),
		Email:            clamp("email"),
		BusinessType:     clamp("businessType"),
		Budget:           clamp("budget"),
		Timeline:         clamp("timeline"),
		RequiredFeatures: clamp("requiredFeatures"),
		Organization:     clamp("organization"),
		ProjectType:      clamp("projectType"),
		Notes:            clamp("notes"),
	}
	if p.BusinessType == "" {
		p.BusinessType = p.Organization
	}
	if p.RequiredFeatures == "" {
		p.RequiredFeatures = p.Notes
	}
	return p
}

// MissingQuoteFields lists the empty required fields of p in reporting order.
func MissingQuoteFields(p domain.QuotePayload) []string {
	return qualify.MissingFields(qualify.State{
		Name:             p.Name,
		Email:            p.Email,
		BusinessType:     p.BusinessType,
		Budget:           p.Budget,
		Timeline:         p.Timeline,
		RequiredFeatures: p.RequiredFeatures,
	})
}

func (r *Registry) submitQuote(ctx context.Context, args Args) QuoteResult {
	lg := obsctx.LoggerFromContext(ctx)
	payload := QuotePayloadFromArgs(args)
	if missing := MissingQuoteFields(payload); len(missing) > 0 {
		observability.RecordQuoteSubmission("incomplete")
		return QuoteResult{
			Error:   fmt.Sprintf("Please share %s before we quote the upper range. Book a call.", strings.Join(missing, ", ")),
			Contact: r.profile.Contact,
		}
	}

	sub := domain.QuoteSubmission{ID: r.newID(), CreatedAt: r.now(), Payload: payload}
	if err := r.sink.Append(ctx, sub); err != nil {
		observability.RecordQuoteSubmission("failed")
		lg.Error("quote append failed", slog.String("quote_id", sub.ID), slog.Any("error", err))
		return QuoteResult{Error: quoteNotSaved, Contact: r.profile.Contact}
	}
	observability.RecordQuoteSubmission("accepted")
	lg.Info("quote request captured", slog.String("quote_id", sub.ID))

	for _, m := range r.mirrors {
		if err := m.Append(ctx, sub); err != nil {
			observability.RecordLeadEvent("mirror", "error")
			lg.Warn("quote mirror failed", slog.String("quote_id", sub.ID), slog.Any("error", err))
			continue
		}
		observability.RecordLeadEvent("mirror", "ok")
	}
	if r.publisher != nil {
		if err := r.publisher.PublishQuote(ctx, sub); err != nil {
			observability.RecordLeadEvent("publisher", "error")
			lg.Warn("quote publish failed", slog.String("quote_id", sub.ID), slog.Any("error", err))
		} else {
			observability.RecordLeadEvent("publisher", "ok")
		}
	}

	return QuoteResult{OK: true, Message: quoteAccepted, Contact: r.profile.Contact}
}
