package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/lead-agent/internal/config"
	"github.com/fairyhunter13/lead-agent/internal/domain"
	"github.com/fairyhunter13/lead-agent/internal/usecase"
)

const askAll = "For an upper-range quote, please share: name, email, business type, budget, timeline, required features. Then Book a call."

func responder() *usecase.StaticResponder {
	return usecase.NewStaticResponder(config.DefaultProfile().Contact)
}

func TestStaticResponder_Rules(t *testing.T) {
	tests := []struct {
		msg  string
		rule string
	}{
		{"why does <get_booking_details> show up?", usecase.RuleToolSyntax},
		{"What tech stack do you use?", usecase.RuleTechStack},
		{"Can the AI agent write code for me?", usecase.RuleAIRole},
		{"How much is a site?", usecase.RulePricing},
		{"How long does a website take?", usecase.RuleTimeline},
		{"What services are available?", usecase.RuleServices},
		{"What's your WhatsApp?", usecase.RuleContact},
	}
	for _, tc := range tests {
		t.Run(tc.rule, func(t *testing.T) {
			_, rule, ok := responder().Respond(tc.msg, []domain.ChatMessage{user(tc.msg)})
			assert.True(t, ok)
			assert.Equal(t, tc.rule, rule)
		})
	}
}

func TestStaticResponder_NoMatch(t *testing.T) {
	reply, rule, ok := responder().Respond("I run a bakery in Leeds", nil)
	assert.False(t, ok)
	assert.Empty(t, reply)
	assert.Empty(t, rule)
}

func TestStaticResponder_PricingBeforeContact(t *testing.T) {
	for _, msg := range []string{"how much to book a call?", "book a call: how much?"} {
		reply, rule, ok := responder().Respond(msg, []domain.ChatMessage{user(msg)})
		assert.True(t, ok)
		assert.Equal(t, usecase.RulePricing, rule, msg)
		assert.Equal(t, askAll, reply)
	}
}

func TestStaticResponder_PricingWithFullQualification(t *testing.T) {
	conv := []domain.ChatMessage{
		user("My name is Alex. alex@example.com. We're a local business."),
		user("budget: £2000, timeline: 4 weeks, features: booking page"),
		user("so what's the price?"),
	}
	reply, _, ok := responder().Respond("so what's the price?", conv)
	assert.True(t, ok)
	assert.Contains(t, reply, "Pricing guide: basic 1-page site is GBP 600-1000.")
}

func TestStaticResponder_ContactReply(t *testing.T) {
	reply, _, _ := responder().Respond("how can I reach you", nil)
	c := config.DefaultProfile().Contact
	assert.Equal(t, "Contact: manager@nathansomevi.com | +44 7846 677463 (WhatsApp preferred). Working hours: "+
		c.WorkingHours+" Calendar: "+c.Calendar+" Book a call.", reply)
}

func TestStaticResponder_NoHiddenState(t *testing.T) {
	r := responder()
	q := "how much does a website cost"
	first, _, _ := r.Respond(q, []domain.ChatMessage{user(q)})
	second, _, _ := r.Respond(q, []domain.ChatMessage{user(q), {Role: domain.RoleAssistant, Content: first}, user(q)})
	assert.Equal(t, askAll, first)
	assert.Equal(t, first, second)
}
