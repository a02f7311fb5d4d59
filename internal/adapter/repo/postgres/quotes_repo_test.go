package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/lead-agent/internal/domain"
)

func sampleQuote() domain.QuoteSubmission {
	return domain.QuoteSubmission{
		ID:        "7d1f7a52-0a7e-4b8e-9c1e-0d6a2b1f0c11",
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600)),
		Payload: domain.QuotePayload{
			Name: "Alex", Email: "alex@example.com", BusinessType: "bakery",
			Budget: "£2000", Timeline: "4 weeks", RequiredFeatures: "booking",
			Organization: "Alex Bakes",
		},
	}
}

func TestQuoteRepo_Append(t *testing.T) {
	pool := &poolStub{}
	repo := NewQuoteRepo(pool)
	q := sampleQuote()

	require.NoError(t, repo.Append(context.Background(), q))
	calls := pool.calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].sql, "INSERT INTO quote_requests")
	assert.Contains(t, calls[0].sql, "ON CONFLICT (id) DO NOTHING")
	require.Len(t, calls[0].args, 11)
	assert.Equal(t, q.ID, calls[0].args[0])
	assert.Equal(t, time.UTC, calls[0].args[1].(time.Time).Location())
	assert.Equal(t, "alex@example.com", calls[0].args[3])
	assert.Equal(t, "Alex Bakes", calls[0].args[8])
	assert.Equal(t, "", calls[0].args[10])
}

func TestQuoteRepo_AppendRequiresID(t *testing.T) {
	pool := &poolStub{}
	err := NewQuoteRepo(pool).Append(context.Background(), domain.QuoteSubmission{})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Empty(t, pool.calls())
}

func TestQuoteRepo_AppendDBError(t *testing.T) {
	pool := &poolStub{execErr: assert.AnError}
	err := NewQuoteRepo(pool).Append(context.Background(), sampleQuote())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=quote.append")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestQuoteRepo_EnsureSchema(t *testing.T) {
	pool := &poolStub{}
	require.NoError(t, NewQuoteRepo(pool).EnsureSchema(context.Background()))
	assert.Equal(t, Schema, pool.calls()[0].sql)

	pool.execErr = errors.New("permission denied")
	err := NewQuoteRepo(pool).EnsureSchema(context.Background())
	assert.Contains(t, err.Error(), "op=quote.ensure_schema")
}

func TestQuoteRepo_Get(t *testing.T) {
	want := sampleQuote()
	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*(dest[0].(*string)) = want.ID
		*(dest[1].(*time.Time)) = want.CreatedAt
		*(dest[2].(*string)) = want.Payload.Name
		*(dest[3].(*string)) = want.Payload.Email
		*(dest[4].(*string)) = want.Payload.BusinessType
		*(dest[5].(*string)) = want.Payload.Budget
		*(dest[6].(*string)) = want.Payload.Timeline
		*(dest[7].(*string)) = want.Payload.RequiredFeatures
		*(dest[8].(*string)) = want.Payload.Organization
		*(dest[9].(*string)) = want.Payload.ProjectType
		*(dest[10].(*string)) = want.Payload.Notes
		return nil
	}}}
	got, err := NewQuoteRepo(pool).Get(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestQuoteRepo_GetNotFound(t *testing.T) {
	pool := &poolStub{row: rowStub{scan: func(...any) error { return pgx.ErrNoRows }}}
	_, err := NewQuoteRepo(pool).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuoteRepo_Count(t *testing.T) {
	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*(dest[0].(*int64)) = 3
		return nil
	}}}
	n, err := NewQuoteRepo(pool).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestNewPool_InvalidDSN(t *testing.T) {
	_, err := NewPool(context.Background(), "postgres://%zz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=postgres.new_pool")
}
