package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/lead-agent/internal/domain"
	"github.com/fairyhunter13/lead-agent/internal/usecase/qualify"
	"github.com/fairyhunter13/lead-agent/pkg/textx"
)

// Static rule names, also used as metric labels.
const (
	RuleToolSyntax = "tool_syntax"
	RuleTechStack  = "tech_stack"
	RuleAIRole     = "ai_role"
	RulePricing    = "pricing"
	RuleTimeline   = "timeline"
	RuleServices   = "services"
	RuleContact    = "contact"
)

const (
	replyToolSyntax = "That is internal tool syntax, not something you need to type. Just write your request normally and I will handle it. Book a call."
	replyTechStack  = "We build websites in React and Next.js. For apps, we use Swift, React Native, and Flutter depending on the product. We use modern coding tools for strong performance and scalable quality."
	replyAIRole     = "The AI agent handles light questions plus booking and scheduling calls/meetings. It does not do coding work."
	replyPricing    = "Pricing guide: basic 1-page site is GBP 600-1000. Advanced websites are GBP 1000-3000+ depending on features and timeline. App MVPs are GBP 1000-2000. Full native apps with database + APIs are usually GBP 3000-8000+. For exact upper-range pricing, Book a call."
	replyTimeline   = "Typical timelines: basic website around 1 week. Advanced websites usually 2-4 weeks, sometimes longer for complex features. App MVPs are often 2-8 weeks. Native apps usually take longer than cross-platform. Book a call to lock the scope and timeline."
	replyServices   = "We build websites (React/Next.js), mobile apps (Swift/React Native/Flutter), API + database setups, AI agents for bookings/scheduling, and MVP prototypes. Book a call and we can recommend the best setup for your project."
)

// StaticRule answers one intent without a provider call.
type StaticRule struct {
	Name    string
	Matches func(lower string) bool
	Reply   func(conv []domain.ChatMessage) string
}

// StaticResponder evaluates rules in priority order; the first match wins.
type StaticResponder struct {
	rules []StaticRule
}

func fixed(s string) func([]domain.ChatMessage) string {
	return func([]domain.ChatMessage) string { return s }
}

func containsAnyOf(fragments ...string) func(string) bool {
	return func(lower string) bool { return textx.ContainsAny(lower, fragments...) }
}

// NewStaticResponder builds the standard rule set around the contact record.
func NewStaticResponder(contact domain.Contact) *StaticResponder {
	contactReply := fmt.Sprintf("Contact: %s | %s (WhatsApp preferred). Working hours: %s Calendar: %s Book a call.",
		contact.Email, contact.Phone, contact.WorkingHours, contact.Calendar)

	return &StaticResponder{rules: []StaticRule{
		{
			Name:    RuleToolSyntax,
			Matches: containsAnyOf("<submit_quote_request>", "<get_booking_details>", "</function>"),
			Reply:   fixed(replyToolSyntax),
		},
		{
			Name:    RuleTechStack,
			Matches: containsAnyOf("tech stack", "what stack", "what do you use", "built with", "which framework", "which tech"),
			Reply:   fixed(replyTechStack),
		},
		{
			Name: RuleAIRole,
			Matches: func(lower string) bool {
				return textx.ContainsAny(lower, "ai agent", "assistant") &&
					textx.ContainsAny(lower, "code", "coding", "build", "develop")
			},
			Reply: fixed(replyAIRole),
		},
		{
			Name:    RulePricing,
			Matches: containsAnyOf("price", "pricing", "cost", "quote", "how much"),
			Reply:   pricingReply,
		},
		{
			Name:    RuleTimeline,
			Matches: containsAnyOf("how long", "turnaround", "delivery time", "timeframe", "how many weeks", "how quick"),
			Reply:   fixed(replyTimeline),
		},
		{
			Name:    RuleServices,
			Matches: containsAnyOf("services", "what do you do", "what can you build", "what do you offer"),
			Reply:   fixed(replyServices),
		},
		{
			Name: RuleContact,
			Matches: containsAnyOf("contact", "whatsapp", "book a call", "booking", "schedule", "meeting",
				"calendar", "phone number", "email address", "your email", "reach you"),
			Reply: fixed(contactReply),
		},
	}}
}

// pricingReply asks for missing qualification fields before showing the price guide.
func pricingReply(conv []domain.ChatMessage) string {
	if missing := qualify.MissingFields(qualify.Extract(conv)); len(missing) > 0 {
		return fmt.Sprintf("For an upper-range quote, please share: %s. Then Book a call.", strings.Join(missing, ", "))
	}
	return replyPricing
}

// Respond returns a canned reply for latest, or ok=false when no rule matches.
func (s *StaticResponder) Respond(latest string, conv []domain.ChatMessage) (reply, rule string, ok bool) {
	lower := strings.ToLower(latest)
	for _, r := range s.rules {
		if r.Matches(lower) {
			return r.Reply(conv), r.Name, true
		}
	}
	return "", "", false
}
