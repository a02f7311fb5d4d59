package config

import (
	"time"
)

// RetryConfig holds the transport retry policy for provider calls.
type RetryConfig struct {
	// MaxRetries is the number of extra attempts after the first call.
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// GetRetryConfig returns retry configuration appropriate for the current environment.
// In test environments the intervals are shortened so failing fakes return quickly.
func (c Config) GetRetryConfig() RetryConfig {
	rc := RetryConfig{
		MaxRetries:      c.ProviderMaxRetries,
		InitialInterval: c.AIBackoffInitialInterval,
		MaxInterval:     c.AIBackoffMaxInterval,
		Multiplier:      c.AIBackoffMultiplier,
	}
	if rc.MaxRetries < 0 {
		rc.MaxRetries = 0
	}
	if c.IsTest() {
		rc.InitialInterval = 5 * time.Millisecond
		rc.MaxInterval = 20 * time.Millisecond
	}
	return rc
}
