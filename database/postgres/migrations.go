package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the platform tables if they do not exist. Analytics rows
// are removed with their parent through ON DELETE CASCADE, so repo deletes
// stay single statements.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sql := `
		CREATE TABLE IF NOT EXISTS shortener_data (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			destination TEXT NOT NULL,
			created_by TEXT NOT NULL DEFAULT '',
			updated_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS shortener_analytics (
			id TEXT PRIMARY KEY,
			shortener_id TEXT NOT NULL REFERENCES shortener_data (id) ON DELETE CASCADE,
			ip TEXT NOT NULL,
			ip_region TEXT NOT NULL,
			user_agent TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_shortener_analytics_shortener_id
		ON shortener_analytics (shortener_id);

		CREATE TABLE IF NOT EXISTS site_data (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			fs_path TEXT NOT NULL,
			created_by TEXT NOT NULL DEFAULT '',
			updated_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS site_analytics (
			id TEXT PRIMARY KEY,
			site_id TEXT NOT NULL REFERENCES site_data (id) ON DELETE CASCADE,
			ip TEXT NOT NULL,
			ip_region TEXT NOT NULL,
			user_agent TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_site_analytics_site_id
		ON site_analytics (site_id);

		CREATE TABLE IF NOT EXISTS session (
			id TEXT PRIMARY KEY,
			token TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS kv_data (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
