package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and operation",
		},
		[]string{"provider", "operation"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "operation"},
	)
	AIRequestErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_request_errors_total",
			Help: "Failed AI requests by provider and failure class",
		},
		[]string{"provider", "kind"},
	)
	AIPromptTokens = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_prompt_tokens_estimate",
			Help:    "Estimated prompt tokens sent on the opening call of an exchange",
			Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000},
		},
		[]string{"provider"},
	)
	ProviderFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_provider_fallbacks_total",
			Help: "Exchanges retried against the secondary provider",
		},
		[]string{"from", "to"},
	)

	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_chat_requests_total",
			Help: "Chat requests by outcome",
		},
		[]string{"outcome"},
	)
	StaticRepliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_static_replies_total",
			Help: "Replies answered from static rules, by rule",
		},
		[]string{"rule"},
	)
	ToolInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_tool_invocations_total",
			Help: "Tool executions by tool name and source",
		},
		[]string{"tool", "source"},
	)
	QuoteSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_quote_submissions_total",
			Help: "Quote submissions by result (accepted, incomplete, failed)",
		},
		[]string{"result"},
	)
	LeadEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_lead_events_total",
			Help: "Lead notifications by sink and result",
		},
		[]string{"sink", "result"},
	)
)

// InitMetrics registers every collector with the default registry.
func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(AIRequestErrorsTotal)
	prometheus.MustRegister(AIPromptTokens)
	prometheus.MustRegister(ProviderFallbacksTotal)
	prometheus.MustRegister(ChatRequestsTotal)
	prometheus.MustRegister(StaticRepliesTotal)
	prometheus.MustRegister(ToolInvocationsTotal)
	prometheus.MustRegister(QuoteSubmissionsTotal)
	prometheus.MustRegister(LeadEventsTotal)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// ObserveAIRequest records one provider round trip.
func ObserveAIRequest(provider, operation string, d time.Duration) {
	AIRequestsTotal.WithLabelValues(provider, operation).Inc()
	AIRequestDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
}

// RecordAIError counts a failed provider call by failure class.
func RecordAIError(provider, kind string) {
	AIRequestErrorsTotal.WithLabelValues(provider, kind).Inc()
}

// ObservePromptTokens records an estimated prompt size.
func ObservePromptTokens(provider string, n int) {
	if n > 0 {
		AIPromptTokens.WithLabelValues(provider).Observe(float64(n))
	}
}

// RecordFallback counts a switch from the primary to the secondary provider.
func RecordFallback(from, to string) {
	ProviderFallbacksTotal.WithLabelValues(from, to).Inc()
}

// RecordChatOutcome counts a finished chat request.
func RecordChatOutcome(outcome string) {
	ChatRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordStaticReply counts a reply served by a static rule.
func RecordStaticReply(rule string) {
	StaticRepliesTotal.WithLabelValues(rule).Inc()
}

// RecordToolInvocation counts a tool execution. source is "structured" or "inline".
func RecordToolInvocation(tool, source string) {
	ToolInvocationsTotal.WithLabelValues(tool, source).Inc()
}

// RecordQuoteSubmission counts a submit_quote_request outcome.
func RecordQuoteSubmission(result string) {
	QuoteSubmissionsTotal.WithLabelValues(result).Inc()
}

// RecordLeadEvent counts a mirror or publish attempt for an accepted quote.
func RecordLeadEvent(sink, result string) {
	LeadEventsTotal.WithLabelValues(sink, result).Inc()
}
