// Package qualify derives lead qualification fields from conversation text.
//
// Every field is produced by a named rule over the concatenated user-authored
// text. Assistant text is never scanned so the model cannot echo fields into
// existence.
package qualify

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/lead-agent/internal/domain"
	"github.com/fairyhunter13/lead-agent/pkg/textx"
)

// MaxFieldChars bounds every extracted or submitted field.
const MaxFieldChars = 1200

// State is the best-effort qualification snapshot of a conversation.
// Field order is the order missing fields are reported in.
type State struct {
	Name             string `json:"name" validate:"required" label:"name"`
	Email            string `json:"email" validate:"required" label:"email"`
	BusinessType     string `json:"businessType" validate:"required" label:"business type"`
	Budget           string `json:"budget" validate:"required" label:"budget"`
	Timeline         string `json:"timeline" validate:"required" label:"timeline"`
	RequiredFeatures string `json:"requiredFeatures" validate:"required" label:"required features"`
}

// Rule extracts one field. raw is the joined user text, lower its lowercase form.
type Rule struct {
	Field string
	Apply func(raw, lower string) string
}

// Rules lists the extraction rules in evaluation order.
var Rules = []Rule{
	{Field: "email", Apply: extractEmail},
	{Field: "name", Apply: extractName},
	{Field: "businessType", Apply: extractBusinessType},
	{Field: "budget", Apply: extractBudget},
	{Field: "timeline", Apply: extractTimeline},
	{Field: "requiredFeatures", Apply: extractFeatures},
}

// Extract scans the user messages of conv and fills a State.
func Extract(conv []domain.ChatMessage) State {
	parts := make([]string, 0, len(conv))
	for _, m := range conv {
		if m.Role == domain.RoleUser {
			parts = append(parts, m.Content)
		}
	}
	return ExtractText(strings.Join(parts, "\n"))
}

// ExtractText applies every rule to already-joined user text.
func ExtractText(raw string) State {
	lower := strings.ToLower(raw)
	var st State
	for _, r := range Rules {
		v := textx.Clamp(r.Apply(raw, lower), MaxFieldChars)
		switch r.Field {
		case "email":
			st.Email = v
		case "name":
			st.Name = v
		case "businessType":
			st.BusinessType = v
		case "budget":
			st.Budget = v
		case "timeline":
			st.Timeline = v
		case "requiredFeatures":
			st.RequiredFeatures = v
		}
	}
	return st
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() {
		vld = validator.New()
		vld.RegisterTagNameFunc(func(f reflect.StructField) string {
			return f.Tag.Get("label")
		})
	})
	return vld
}

// MissingFields returns the labels of empty fields in fixed order:
// name, email, business type, budget, timeline, required features.
func MissingFields(s State) []string {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}
	var missing []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
	}
	return missing
}

var (
	reEmail         = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	reName          = regexp.MustCompile(`(?i)\b(?:my name is|i am|i'm)\s+([a-z][a-z' -]{1,47})`)
	reBusinessLabel = regexp.MustCompile(`(?i)\b(?:business type|organisation type|organization type)\s*[:\-]\s*([^\n,.]+)`)
	reBudgetLabel   = regexp.MustCompile(`(?i)\b(?:budget|price range|cost range)\s*[:\-]?\s*([^\n.;]+?)\s*(?:,\s|[.;\n]|$)`)
	reCurrency      = regexp.MustCompile(`(?i)£\s?\d[\d,]*(?:\s*(?:to|-)\s*£?\s?\d[\d,]*)?`)
	reTimelineLabel = regexp.MustCompile(`(?i)\b(?:timeline|deadline|delivery)\s*[:\-]?\s*([^\n.;]+?)\s*(?:,\s|[.;\n]|$)`)
	reDuration      = regexp.MustCompile(`(?i)\b\d+\s*(?:days?|weeks?|months?)\b(?:\s*(?:to|-)\s*\d+\s*(?:days?|weeks?|months?)\b)?`)
	reFeaturesLabel = regexp.MustCompile(`(?i)\b(?:required features|features|scope)\s*[:\-]?\s*([^\n]+)`)
)

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func extractEmail(raw, _ string) string { return reEmail.FindString(raw) }

func extractName(raw, _ string) string { return firstGroup(reName, raw) }

func extractBusinessType(raw, lower string) string {
	if v := strings.TrimSpace(firstGroup(reBusinessLabel, raw)); v != "" {
		return v
	}
	switch {
	case textx.ContainsAny(lower, "charity", "non-profit", "nonprofit"):
		return "charity organisation"
	case textx.ContainsAny(lower, "band", "music"):
		return "band/music"
	case textx.ContainsAny(lower, "local business", "small business", "business"):
		return "local business"
	}
	return ""
}

func extractBudget(raw, _ string) string {
	if v := strings.TrimSpace(firstGroup(reBudgetLabel, raw)); v != "" {
		return v
	}
	return reCurrency.FindString(raw)
}

func extractTimeline(raw, lower string) string {
	if v := strings.TrimSpace(firstGroup(reTimelineLabel, raw)); v != "" {
		return v
	}
	if v := reDuration.FindString(raw); v != "" {
		return v
	}
	if strings.Contains(lower, "asap") {
		return "ASAP"
	}
	return ""
}

// featureKeywords is scanned in order; the first fragment list hit adds its label.
var featureKeywords = []struct {
	label     string
	fragments []string
}{
	{"API integration", []string{"api", "apis"}},
	{"database", []string{"database", "db"}},
	{"AI agent", []string{"ai agent", "assistant"}},
	{"editable content workflow", []string{"cms", "crud", "editable"}},
	{"booking/scheduling", []string{"booking", "calendar", "scheduling"}},
	{"ecommerce", []string{"ecommerce", "payments", "shop"}},
}

func extractFeatures(raw, lower string) string {
	if v := strings.TrimSpace(firstGroup(reFeaturesLabel, raw)); v != "" {
		return v
	}
	var found []string
	for _, fk := range featureKeywords {
		if textx.ContainsAny(lower, fk.fragments...) {
			found = append(found, fk.label)
		}
	}
	return strings.Join(found, ", ")
}
