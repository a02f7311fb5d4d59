package domain

// Provider is a hosted language model reached through its proprietary wire
// format. Send opens an exchange; Continue feeds tool results back into it.
// Implementations never panic on malformed responses: they return either a
// validated Turn or a *ProviderError.
type Provider interface {
	Name() ProviderName
	// Configured reports whether the credential is present. Evaluated per request.
	Configured() bool
	Send(ctx Context, conv []ChatMessage, tools []ToolDefinition) (Turn, error)
	Continue(ctx Context, prev Turn, results []ToolResult) (Turn, error)
}

// Limiter admits or denies a request for a client key.
type Limiter interface {
	Admit(ctx Context, key string) (bool, error)
}

// QuoteSink receives accepted quote submissions.
type QuoteSink interface {
	Append(ctx Context, q QuoteSubmission) error
}

// LeadPublisher announces accepted quote submissions to downstream systems.
type LeadPublisher interface {
	PublishQuote(ctx Context, q QuoteSubmission) error
}
