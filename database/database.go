// Package database connects to the configured relational backend and hands
// out the repositories the platform core consumes.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linhsuan/shortstack"
	"github.com/linhsuan/shortstack/database/postgres"
	"github.com/linhsuan/shortstack/database/sqlite"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config holds the configuration for connecting to a database backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required"`
}

// Repos bundles the repository interfaces backed by one connection.
type Repos struct {
	Links     shortstack.LinkRepo
	Sites     shortstack.SiteRepo
	Analytics shortstack.AnalyticsRepo
	Sessions  shortstack.SessionRepo
	KV        shortstack.KVRepo
}

// Connect establishes a connection to the configured backend, runs
// migrations, and returns the repositories. The returned cleanup function
// should be called to close the connection.
func Connect(ctx context.Context, cfg Config) (Repos, func(), error) {
	switch cfg.Type {
	case "sqlite":
		return connectSQLite(ctx, cfg.DSN)
	case "postgres":
		return connectPostgres(ctx, cfg.DSN)
	default:
		return Repos{}, nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

func connectSQLite(ctx context.Context, dsn string) (Repos, func(), error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return Repos{}, nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return Repos{}, nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err = sqlite.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return Repos{}, nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return reposFrom(sqlite.NewRepo(db)), cleanup, nil
}

func connectPostgres(ctx context.Context, dsn string) (Repos, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return Repos{}, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return Repos{}, nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err = postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return Repos{}, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	return reposFrom(postgres.NewRepo(pool)), pool.Close, nil
}

type fullRepo interface {
	shortstack.LinkRepo
	shortstack.SiteRepo
	shortstack.AnalyticsRepo
	shortstack.SessionRepo
	shortstack.KVRepo
}

func reposFrom(r fullRepo) Repos {
	return Repos{Links: r, Sites: r, Analytics: r, Sessions: r, KV: r}
}
