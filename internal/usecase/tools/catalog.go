package tools

import "github.com/fairyhunter13/lead-agent/internal/domain"

// ServicesResult is the get_services output.
type ServicesResult struct {
	Services []domain.Service `json:"services"`
	Start    string           `json:"start"`
}

// BookingResult is the get_booking_details output.
type BookingResult struct {
	Contact domain.Contact `json:"contact"`
	Steps   []string       `json:"steps"`
}

func (r *Registry) services() ServicesResult {
	return ServicesResult{Services: r.profile.Services, Start: r.profile.StartHint}
}

func (r *Registry) bookingDetails() BookingResult {
	return BookingResult{Contact: r.profile.Contact, Steps: r.profile.BookingSteps}
}

func objectSchema(props map[string]any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

var (
	str  = map[string]any{"type": "string"}
	num  = map[string]any{"type": "number"}
	flag = map[string]any{"type": "boolean"}
)

var definitions = []domain.ToolDefinition{
	{
		Name:        GetServices,
		Description: "Get studio services and the fastest way to start a project.",
		Parameters:  objectSchema(map[string]any{}),
	},
	{
		Name:        EstimatePriceRange,
		Description: "Estimate directional project price range and timeline in GBP based on scope.",
		Parameters: objectSchema(map[string]any{
			"projectType":            str,
			"pageCount":              num,
			"includesCms":            flag,
			"includesBranding":       flag,
			"includesApiIntegration": flag,
			"includesAiAgent":        flag,
			"platform":               map[string]any{"type": "string", "enum": []string{"web", "cross-platform", "native"}},
			"isMvp":                  flag,
			"urgency":                map[string]any{"type": "string", "enum": []string{"normal", "fast", "rush"}},
		}),
	},
	{
		Name:        GetBookingDetails,
		Description: "Return email, phone, WhatsApp preference, calendar link, and booking instructions.",
		Parameters:  objectSchema(map[string]any{}),
	},
	{
		Name:        SubmitQuoteRequest,
		Description: "Capture quote request details. Requires name, email, business type, budget, timeline, and required features.",
		Parameters: objectSchema(map[string]any{
			"name":             str,
			"email":            str,
			"businessType":     str,
			"organization":     str,
			"projectType":      str,
			"budget":           str,
			"timeline":         str,
			"requiredFeatures": str,
			"notes":            str,
		}),
	},
}
