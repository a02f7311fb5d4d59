package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrNotFound              = errors.New("not found")
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrUpstreamAuth          = errors.New("upstream auth failure")
	ErrUpstreamQuota         = errors.New("upstream quota exhausted")
	ErrUpstreamUnavailable   = errors.New("upstream unavailable")
	ErrUpstreamProtocol      = errors.New("upstream protocol error")
)

// ProviderError is a failed provider call. Message is the operator-facing
// diagnostic; Kind is one of the ErrUpstream* sentinels.
type ProviderError struct {
	Provider ProviderName
	Status   int
	Message  string
	Kind     error
}

func (e *ProviderError) Error() string { return e.Message }

// Unwrap exposes the classification sentinel to errors.Is.
func (e *ProviderError) Unwrap() error { return e.Kind }

// NewProviderError builds a ProviderError with a formatted message.
func NewProviderError(p ProviderName, status int, kind error, format string, args ...any) *ProviderError {
	return &ProviderError{Provider: p, Status: status, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// SetupError reports that no usable provider credential exists for a mode.
// Retrying cannot help; Message tells the operator what to configure.
type SetupError struct {
	Mode    ProviderMode
	Message string
}

func (e *SetupError) Error() string { return e.Message }

// Unwrap returns ErrProviderNotConfigured.
func (e *SetupError) Unwrap() error { return ErrProviderNotConfigured }
