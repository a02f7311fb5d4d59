package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/lead-agent/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool the repositories use.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Schema creates the mirror table. Safe to run on every start.
const Schema = `CREATE TABLE IF NOT EXISTS quote_requests (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	business_type TEXT NOT NULL,
	budget TEXT NOT NULL,
	timeline TEXT NOT NULL,
	required_features TEXT NOT NULL,
	organization TEXT NOT NULL DEFAULT '',
	project_type TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS quote_requests_created_at_idx ON quote_requests (created_at)`

// QuoteRepo is a durable copy of the in-memory quote log. It implements
// domain.QuoteSink.
type QuoteRepo struct{ Pool PgxPool }

var _ domain.QuoteSink = (*QuoteRepo)(nil)

// NewQuoteRepo constructs a QuoteRepo with the given pool.
func NewQuoteRepo(p PgxPool) *QuoteRepo { return &QuoteRepo{Pool: p} }

// EnsureSchema creates the table and index when missing.
func (r *QuoteRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("op=quote.ensure_schema: %w", err)
	}
	return nil
}

// Append inserts q. Replays of the same id are ignored.
func (r *QuoteRepo) Append(ctx domain.Context, q domain.QuoteSubmission) error {
	tracer := otel.Tracer("repo.quotes")
	ctx, span := tracer.Start(ctx, "quotes.Append")
	defer span.End()
	if q.ID == "" {
		return fmt.Errorf("%w: quote id required", domain.ErrInvalidArgument)
	}
	p := q.Payload
	sql := `INSERT INTO quote_requests (id, created_at, name, email, business_type, budget, timeline, required_features, organization, project_type, notes)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	ON CONFLICT (id) DO NOTHING`
	_, err := r.Pool.Exec(ctx, sql, q.ID, q.CreatedAt.UTC(), p.Name, p.Email, p.BusinessType, p.Budget, p.Timeline, p.RequiredFeatures, p.Organization, p.ProjectType, p.Notes)
	if err != nil {
		return fmt.Errorf("op=quote.append: %w", err)
	}
	return nil
}

// Get loads a submission by id.
func (r *QuoteRepo) Get(ctx domain.Context, id string) (domain.QuoteSubmission, error) {
	tracer := otel.Tracer("repo.quotes")
	ctx, span := tracer.Start(ctx, "quotes.Get")
	defer span.End()
	sql := `SELECT id, created_at, name, email, business_type, budget, timeline, required_features, organization, project_type, notes FROM quote_requests WHERE id=$1`
	var q domain.QuoteSubmission
	p := &q.Payload
	if err := r.Pool.QueryRow(ctx, sql, id).Scan(&q.ID, &q.CreatedAt, &p.Name, &p.Email, &p.BusinessType, &p.Budget, &p.Timeline, &p.RequiredFeatures, &p.Organization, &p.ProjectType, &p.Notes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.QuoteSubmission{}, fmt.Errorf("%w: quote %s", domain.ErrNotFound, id)
		}
		return domain.QuoteSubmission{}, fmt.Errorf("op=quote.get: %w", err)
	}
	return q, nil
}

// Count returns the number of mirrored submissions.
func (r *QuoteRepo) Count(ctx domain.Context) (int64, error) {
	var n int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM quote_requests`).Scan(&n); err != nil {
		return 0, fmt.Errorf("op=quote.count: %w", err)
	}
	return n, nil
}
