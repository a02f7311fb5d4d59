// Package tools implements the deterministic business operations the model may call.
package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/fairyhunter13/lead-agent/internal/adapter/observability"
	"github.com/fairyhunter13/lead-agent/internal/config"
	"github.com/fairyhunter13/lead-agent/internal/domain"
	obsctx "github.com/fairyhunter13/lead-agent/internal/observability"
)

// Tool names.
const (
	GetServices        = "get_services"
	EstimatePriceRange = "estimate_price_range"
	GetBookingDetails  = "get_booking_details"
	SubmitQuoteRequest = "submit_quote_request"
)

// Invocation sources used in metrics.
const (
	SourceStructured = "structured"
	SourceInline     = "inline"
)

// Args is a loosely typed argument object decoded from provider JSON.
type Args map[string]any

// ErrorResult is returned for unknown tool names.
type ErrorResult struct {
	Error string `json:"error"`
}

// Registry executes tools by name. It is safe for concurrent use when its sinks are.
type Registry struct {
	profile   config.Profile
	sink      domain.QuoteSink
	mirrors   []domain.QuoteSink
	publisher domain.LeadPublisher
	now       func() time.Time
	newID     func() string
}

// Option customizes a Registry.
type Option func(*Registry)

// WithMirror adds a best-effort secondary sink for accepted quotes.
func WithMirror(s domain.QuoteSink) Option {
	return func(r *Registry) {
		if s != nil {
			r.mirrors = append(r.mirrors, s)
		}
	}
}

// WithPublisher announces accepted quotes to downstream systems, best effort.
func WithPublisher(p domain.LeadPublisher) Option {
	return func(r *Registry) { r.publisher = p }
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator overrides the submission id source.
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) { r.newID = fn }
}

// NewRegistry builds a Registry over the site profile. sink is the
// authoritative quote log and must not be nil.
func NewRegistry(p config.Profile, sink domain.QuoteSink, opts ...Option) *Registry {
	r := &Registry{
		profile: p,
		sink:    sink,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Contact returns the fixed contact record.
func (r *Registry) Contact() domain.Contact { return r.profile.Contact }

// Definitions returns the static tool catalog.
func (r *Registry) Definitions() []domain.ToolDefinition { return definitions }

// Run executes a tool and returns its JSON-serializable result. It never fails.
func (r *Registry) Run(ctx context.Context, name string, args Args) any {
	if args == nil {
		args = Args{}
	}
	switch name {
	case GetServices:
		return r.services()
	case EstimatePriceRange:
		return Estimate(args)
	case GetBookingDetails:
		return r.bookingDetails()
	case SubmitQuoteRequest:
		return r.submitQuote(ctx, args)
	default:
		return ErrorResult{Error: "Unknown tool: " + name}
	}
}

// Execute runs a provider-requested call and serializes its output.
func (r *Registry) Execute(ctx context.Context, call domain.ToolCall, source string) domain.ToolResult {
	observability.RecordToolInvocation(call.Name, source)
	out := r.Run(ctx, call.Name, ParseArgs(call.Arguments))
	b, err := json.Marshal(out)
	if err != nil {
		obsctx.LoggerFromContext(ctx).Error("tool output marshal failed",
			slog.String("tool", call.Name), slog.Any("error", err))
		b = []byte(`{"error":"Tool output unavailable."}`)
	}
	obsctx.LoggerFromContext(ctx).Debug("tool executed",
		slog.String("tool", call.Name),
		slog.String("call_id", call.ID),
		slog.String("source", source))
	return domain.ToolResult{CallID: call.ID, Name: call.Name, Output: string(b)}
}

// ParseArgs decodes raw JSON arguments. Empty, invalid or non-object input yields an empty map.
func ParseArgs(raw string) Args {
	raw = strings.TrimSpace(raw)
	if raw == "" || !gjson.Valid(raw) {
		return Args{}
	}
	res := gjson.Parse(raw)
	if !res.IsObject() {
		return Args{}
	}
	m, ok := res.Value().(map[string]any)
	if !ok {
		return Args{}
	}
	return Args(m)
}

// String returns the value for key when it is a string, else "".
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Bool applies loose truthiness: false, 0, "", "false" and absent are false.
func (a Args) Bool(key string) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != "" && !strings.EqualFold(v, "false")
	case nil:
		return false
	default:
		return true
	}
}

// Number returns a numeric value (number or numeric string) and whether one was present.
func (a Args) Number(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
