package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupService_DeletesBeforeCutoff(t *testing.T) {
	pool := &poolStub{tag: pgconn.NewCommandTag("DELETE 4")}
	svc := NewCleanupService(pool, 30)
	svc.now = func() time.Time { return time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC) }

	n, err := svc.CleanupOldData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	calls := pool.calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].sql, "DELETE FROM quote_requests")
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), calls[0].args[0])
}

func TestCleanupService_DefaultRetention(t *testing.T) {
	assert.Equal(t, 90, NewCleanupService(&poolStub{}, 0).RetentionDays)
}

func TestCleanupService_Error(t *testing.T) {
	svc := NewCleanupService(&poolStub{execErr: assert.AnError}, 7)
	_, err := svc.CleanupOldData(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "op=quote.cleanup")
}

func TestCleanupService_RunPeriodicStopsOnCancel(t *testing.T) {
	pool := &poolStub{}
	svc := NewCleanupService(pool, 7)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunPeriodic(ctx, 5*time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool { return len(pool.calls()) >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodic did not stop")
	}
}
