//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestQuoteRepo_Postgres(t *testing.T) {
	ctx := context.Background()
	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		Env:          map[string]string{"POSTGRES_PASSWORD": "postgres", "POSTGRES_USER": "postgres", "POSTGRES_DB": "app"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(90 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: pgReq, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := "postgres://postgres:postgres@" + host + ":" + port.Port() + "/app?sslmode=disable"

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.Eventually(t, func() bool { return pool.Ping(ctx) == nil }, 30*time.Second, time.Second)

	repo := NewQuoteRepo(pool)
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx))

	q := sampleQuote()
	q.CreatedAt = time.Now().Truncate(time.Microsecond)
	require.NoError(t, repo.Append(ctx, q))
	require.NoError(t, repo.Append(ctx, q), "replay is ignored")

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Payload, got.Payload)
	assert.True(t, q.CreatedAt.Equal(got.CreatedAt))

	old := sampleQuote()
	old.ID = "0b8f7c4e-2d7e-4d3c-8a43-54a0e3c6f1aa"
	old.CreatedAt = time.Now().AddDate(0, 0, -120)
	require.NoError(t, repo.Append(ctx, old))
	deleted, err := NewCleanupService(pool, 90).CleanupOldData(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
