package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/fairyhunter13/lead-agent/internal/adapter/observability"
	"github.com/fairyhunter13/lead-agent/internal/domain"
	"github.com/fairyhunter13/lead-agent/internal/usecase/tools"
)

// inlineToolPattern matches pseudo-tags some models emit instead of structured calls.
var inlineToolPattern = regexp.MustCompile(`(?i)<(submit_quote_request|get_booking_details)>([\s\S]*?)</function>`)

// ToolRunner executes tools by name with loose arguments.
type ToolRunner interface {
	Run(ctx context.Context, name string, args tools.Args) any
	Contact() domain.Contact
}

// InlineResolver replaces inline tool markup in a reply with the tool's real output.
type InlineResolver struct {
	tools ToolRunner
}

// NewInlineResolver returns a resolver executing through t.
func NewInlineResolver(t ToolRunner) *InlineResolver {
	return &InlineResolver{tools: t}
}

// Resolve runs every inline invocation in text and joins the rendered results
// with spaces. ok is false when text holds no invocation.
func (r *InlineResolver) Resolve(ctx context.Context, text string) (string, bool) {
	matches := inlineToolPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", false
	}
	replies := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.ToLower(m[1])
		observability.RecordToolInvocation(name, tools.SourceInline)
		out := r.tools.Run(ctx, name, tools.ParseArgs(m[2]))

		switch res := out.(type) {
		case tools.QuoteResult:
			switch {
			case res.OK && res.Message != "":
				replies = append(replies, res.Message)
			case res.Error != "":
				replies = append(replies, res.Error)
			}
		case tools.BookingResult:
			replies = append(replies, r.renderBooking(res.Contact))
		default:
			replies = append(replies, r.renderBooking(domain.Contact{}))
		}
	}
	return strings.Join(replies, " "), true
}

// renderBooking formats a contact block, filling blanks from the fixed record.
func (r *InlineResolver) renderBooking(c domain.Contact) string {
	def := r.tools.Contact()
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	return fmt.Sprintf("Contact: %s | %s (WhatsApp: %s). Working hours: %s Calendar: %s %s",
		pick(c.Email, def.Email),
		pick(c.Phone, def.Phone),
		pick(c.WhatsApp, def.WhatsApp),
		pick(c.WorkingHours, def.WorkingHours),
		pick(c.Calendar, def.Calendar),
		pick(c.Booking, def.Booking),
	)
}
