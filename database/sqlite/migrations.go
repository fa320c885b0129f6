package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the platform tables if they do not exist. SQLite only
// enforces foreign keys when a per-connection pragma is on, so the repo
// deletes analytics rows explicitly instead of relying on cascades.
func Migrate(ctx context.Context, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS shortener_data (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			destination TEXT NOT NULL,
			created_by TEXT NOT NULL DEFAULT '',
			updated_by TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS shortener_analytics (
			id TEXT PRIMARY KEY,
			shortener_id TEXT NOT NULL,
			ip TEXT NOT NULL,
			ip_region TEXT NOT NULL,
			user_agent TEXT NOT NULL,
			created_at TEXT NOT NULL
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
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS site_analytics (
			id TEXT PRIMARY KEY,
			site_id TEXT NOT NULL,
			ip TEXT NOT NULL,
			ip_region TEXT NOT NULL,
			user_agent TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_site_analytics_site_id
		ON site_analytics (site_id);

		CREATE TABLE IF NOT EXISTS session (
			id TEXT PRIMARY KEY,
			token TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			expires_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS kv_data (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
