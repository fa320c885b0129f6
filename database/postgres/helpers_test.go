package postgres_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/linhsuan/shortstack/database/postgres"
)

var (
	testPool     *pgxpool.Pool
	testPoolOnce sync.Once
)

// getSharedTestDatabase returns a shared, migrated database pool for all
// tests. Reusing one container keeps the suite fast.
func getSharedTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testPoolOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = testcontainers.TerminateContainer(pgContainer)
			t.Fatalf("failed to get connection string: %v", err)
		}

		pool, err := pgxpool.New(ctx, connectionStr)
		if err != nil {
			_ = testcontainers.TerminateContainer(pgContainer)
			t.Fatalf("could not connect to database: %v", err)
		}

		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			_ = testcontainers.TerminateContainer(pgContainer)
			t.Fatalf("failed to migrate: %v", err)
		}

		testPool = pool
	})

	return testPool
}

// setupTestRepo returns a repo over the shared database with empty tables.
func setupTestRepo(t *testing.T) *postgres.Repo {
	t.Helper()

	pool := getSharedTestDatabase(t)
	truncateAll(t, pool)
	return postgres.NewRepo(pool)
}

func truncateAll(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE shortener_analytics, shortener_data,
			site_analytics, site_data,
			session, kv_data CASCADE
	`)
	assert.NoError(t, err, "truncate tables")
}
