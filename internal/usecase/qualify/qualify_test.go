package qualify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/lead-agent/internal/domain"
)

func user(s string) domain.ChatMessage { return domain.ChatMessage{Role: domain.RoleUser, Content: s} }
func assistant(s string) domain.ChatMessage {
	return domain.ChatMessage{Role: domain.RoleAssistant, Content: s}
}

func TestExtract_LabelledMessage(t *testing.T) {
	st := Extract([]domain.ChatMessage{
		user("My name is Alex, budget: £2000-£3000, timeline: 4 weeks, I need a database and API"),
	})
	assert.Equal(t, "Alex", st.Name)
	assert.Equal(t, "£2000-£3000", st.Budget)
	assert.Equal(t, "4 weeks", st.Timeline)
	assert.True(t, strings.Contains(st.RequiredFeatures, "API integration, database"), st.RequiredFeatures)
	assert.Empty(t, st.Email)
	assert.Empty(t, st.BusinessType)
	assert.Equal(t, []string{"email", "business type"}, MissingFields(st))
}

func TestExtract_IgnoresAssistantText(t *testing.T) {
	st := Extract([]domain.ChatMessage{
		assistant("Please send your email like me@example.com and budget: £5000"),
		user("hello"),
	})
	assert.Equal(t, State{}, st)
}

func TestExtract_JoinsUserMessages(t *testing.T) {
	st := Extract([]domain.ChatMessage{
		user("I'm Sam"),
		assistant("Nice to meet you"),
		user("sam@studio.co.uk"),
		user("We're a charity"),
	})
	assert.Equal(t, "Sam", st.Name)
	assert.Equal(t, "sam@studio.co.uk", st.Email)
	assert.Equal(t, "charity organisation", st.BusinessType)
}

func TestRules(t *testing.T) {
	tests := []struct {
		name string
		in   string
		get  func(State) string
		want string
	}{
		{"business label wins", "Business type: florist, but also a band", func(s State) string { return s.BusinessType }, "florist"},
		{"band keyword", "our band needs a site", func(s State) string { return s.BusinessType }, "band/music"},
		{"local business keyword", "a small business site", func(s State) string { return s.BusinessType }, "local business"},
		{"currency range", "somewhere around £1,500 to £2,500 I think", func(s State) string { return s.Budget }, "£1,500 to £2,500"},
		{"duration range", "need it in 6 weeks to 2 months", func(s State) string { return s.Timeline }, "6 weeks to 2 months"},
		{"duration range keeps plurals", "ready in 3 days - 10 days please", func(s State) string { return s.Timeline }, "3 days - 10 days"},
		{"duration range singular end", "1 week to 1 month", func(s State) string { return s.Timeline }, "1 week to 1 month"},
		{"duration without range", "about 2 months overall", func(s State) string { return s.Timeline }, "2 months"},
		{"asap", "we need this asap", func(s State) string { return s.Timeline }, "ASAP"},
		{"features label", "features: blog, gallery, contact form", func(s State) string { return s.RequiredFeatures }, "blog, gallery, contact form"},
		{"feature scan order", "shop with booking and a cms", func(s State) string { return s.RequiredFeatures }, "editable content workflow, booking/scheduling, ecommerce"},
		{"no name", "hello there", func(s State) string { return s.Name }, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.get(ExtractText(tc.in)))
		})
	}
}

func TestExtract_NameIsBounded(t *testing.T) {
	st := ExtractText("my name is " + strings.Repeat("a", 100))
	assert.Len(t, st.Name, 48)
}

func TestMissingFields(t *testing.T) {
	all := MissingFields(State{})
	assert.Equal(t, []string{"name", "email", "business type", "budget", "timeline", "required features"}, all)

	full := State{Name: "a", Email: "b", BusinessType: "c", Budget: "d", Timeline: "e", RequiredFeatures: "f"}
	require.Empty(t, MissingFields(full))
}

func TestExtract_PricingQuestionHasNothing(t *testing.T) {
	st := Extract([]domain.ChatMessage{user("how much does a website cost")})
	assert.Len(t, MissingFields(st), 6)
}
