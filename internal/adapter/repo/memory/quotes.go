// Package memory holds process-local stores.
//
// Contents are volatile and lost on restart. Durable copies belong in an
// external store such as the postgres mirror.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fairyhunter13/lead-agent/internal/domain"
)

// QuoteLog is an append-only list of accepted quote submissions.
type QuoteLog struct {
	mu    sync.Mutex
	items []domain.QuoteSubmission
}

// NewQuoteLog returns an empty log.
func NewQuoteLog() *QuoteLog { return &QuoteLog{} }

// Append records q. Submissions without an id are rejected.
func (l *QuoteLog) Append(_ context.Context, q domain.QuoteSubmission) error {
	if q.ID == "" {
		return fmt.Errorf("op=memory.Append: %w: id required", domain.ErrInvalidArgument)
	}
	l.mu.Lock()
	l.items = append(l.items, q)
	l.mu.Unlock()
	return nil
}

// Len returns the number of stored submissions.
func (l *QuoteLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Snapshot returns a copy of the stored submissions in append order.
func (l *QuoteLog) Snapshot() []domain.QuoteSubmission {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.QuoteSubmission, len(l.items))
	copy(out, l.items)
	return out
}
