// Package ratelimiter admits chat requests per client key using a fixed
// window: the first request of a window opens it, at most Max requests are
// admitted until it closes.
//
// FixedWindow deliberately departs from a never-discarded bucket map: expired
// buckets are pruned once the map grows past sweepThreshold, which bounds
// memory without changing who is admitted.
package ratelimiter

import (
	"context"
	"sync"
	"time"

	"github.com/fairyhunter13/lead-agent/internal/config"
	"github.com/fairyhunter13/lead-agent/internal/domain"
)

const (
	// DefaultMax is the number of requests admitted per window.
	DefaultMax = 20
	// DefaultWindow is the fixed window length.
	DefaultWindow = 60 * time.Second

	// sweepThreshold is the bucket count above which expired buckets are
	// pruned on the next admission.
	sweepThreshold = 4096
)

// WindowConfig is the admission budget of one key.
type WindowConfig struct {
	Max    int
	Window time.Duration
}

// WindowConfigFrom reads the chat admission budget from configuration and
// substitutes defaults for non-positive values.
func WindowConfigFrom(cfg config.Config) WindowConfig {
	return WindowConfig{Max: cfg.RateLimitPerWindow, Window: cfg.RateLimitWindow}.normalized()
}

func (w WindowConfig) normalized() WindowConfig {
	if w.Max <= 0 {
		w.Max = DefaultMax
	}
	if w.Window <= 0 {
		w.Window = DefaultWindow
	}
	return w
}

type bucket struct {
	count   int
	resetAt time.Time
}

// FixedWindow is the process-local limiter. Buckets live as long as the
// process; expired ones are pruned once the map grows past sweepThreshold.
type FixedWindow struct {
	mu      sync.Mutex
	cfg     WindowConfig
	buckets map[string]*bucket
	now     func() time.Time
}

var _ domain.Limiter = (*FixedWindow)(nil)

// NewFixedWindow builds an in-memory limiter.
func NewFixedWindow(cfg WindowConfig) *FixedWindow {
	return &FixedWindow{cfg: cfg.normalized(), buckets: map[string]*bucket{}, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (l *FixedWindow) WithClock(now func() time.Time) *FixedWindow {
	l.now = now
	return l
}

// Admit implements domain.Limiter. It never fails.
func (l *FixedWindow) Admit(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.buckets) > sweepThreshold {
		l.sweep(now)
	}
	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		l.buckets[key] = &bucket{count: 1, resetAt: now.Add(l.cfg.Window)}
		return true, nil
	}
	if b.count >= l.cfg.Max {
		return false, nil
	}
	b.count++
	return true, nil
}

func (l *FixedWindow) sweep(now time.Time) {
	for k, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, k)
		}
	}
}

// Len reports the number of tracked keys.
func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
