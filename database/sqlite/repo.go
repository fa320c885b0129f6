// Package sqlite implements the repositories over database/sql with the
// modernc SQLite driver. Timestamps are stored as RFC3339Nano strings.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/linhsuan/shortstack"
)

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

const linkColumns = "id, name, slug, destination, created_by, updated_by, created_at, updated_at"

func scanLink(row rowScanner) (shortstack.ShortLink, error) {
	var l shortstack.ShortLink
	var createdAt, updatedAt string

	err := row.Scan(
		&l.ID, &l.Name, &l.Slug, &l.Destination,
		&l.CreatedBy, &l.UpdatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return shortstack.ShortLink{}, err
	}

	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return shortstack.ShortLink{}, fmt.Errorf("parse created_at: %w", err)
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return shortstack.ShortLink{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return l, nil
}

func (r *Repo) GetLink(ctx context.Context, id string) (shortstack.ShortLink, error) {
	query := fmt.Sprintf(`SELECT %s FROM shortener_data WHERE id = ?`, linkColumns)

	l, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shortstack.ShortLink{}, shortstack.ErrNotFound
		}
		return shortstack.ShortLink{}, fmt.Errorf("get link: %w", err)
	}

	return l, nil
}

func (r *Repo) GetLinkBySlug(ctx context.Context, slug string) (shortstack.ShortLink, error) {
	query := fmt.Sprintf(`SELECT %s FROM shortener_data WHERE slug = ?`, linkColumns)

	l, err := scanLink(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shortstack.ShortLink{}, shortstack.ErrNotFound
		}
		return shortstack.ShortLink{}, fmt.Errorf("get link by slug: %w", err)
	}

	return l, nil
}

func (r *Repo) ListLinks(ctx context.Context, p shortstack.ListParams) ([]shortstack.ShortLink, int, error) {
	pattern := "%" + shortstack.EscapeLikePattern(p.Search) + "%"

	var total int
	countQuery := `
		SELECT COUNT(*) FROM shortener_data
		WHERE name LIKE ?1 ESCAPE '\' OR slug LIKE ?1 ESCAPE '\' OR destination LIKE ?1 ESCAPE '\'
	`
	if err := r.db.QueryRowContext(ctx, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("list links: count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM shortener_data
		WHERE name LIKE ?1 ESCAPE '\' OR slug LIKE ?1 ESCAPE '\' OR destination LIKE ?1 ESCAPE '\'
		ORDER BY created_at DESC
		LIMIT ?2 OFFSET ?3
	`, linkColumns)

	rows, err := r.db.QueryContext(ctx, query, pattern, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	links := make([]shortstack.ShortLink, 0, p.Limit)
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list links: scan: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list links: rows: %w", err)
	}

	return links, total, nil
}

func (r *Repo) CreateLink(ctx context.Context, link shortstack.ShortLink) (shortstack.ShortLink, error) {
	now := formatTime(time.Now())

	query := `
		INSERT INTO shortener_data (id, name, slug, destination, created_by, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		link.ID, link.Name, link.Slug, link.Destination,
		link.CreatedBy, link.CreatedBy, now, now,
	)
	if err != nil {
		return shortstack.ShortLink{}, fmt.Errorf("create link: %w", err)
	}

	return r.GetLink(ctx, link.ID)
}

func (r *Repo) UpdateLink(ctx context.Context, link shortstack.ShortLink) (shortstack.ShortLink, error) {
	query := `
		UPDATE shortener_data
		SET name = COALESCE(NULLIF(?, ''), name),
			slug = COALESCE(NULLIF(?, ''), slug),
			destination = COALESCE(NULLIF(?, ''), destination),
			updated_by = COALESCE(NULLIF(?, ''), updated_by),
			updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		link.Name, link.Slug, link.Destination, link.UpdatedBy,
		formatTime(time.Now()), link.ID,
	)
	if err != nil {
		return shortstack.ShortLink{}, fmt.Errorf("update link: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return shortstack.ShortLink{}, shortstack.ErrNotFound
	}

	return r.GetLink(ctx, link.ID)
}

func (r *Repo) DeleteLink(ctx context.Context, id string) error {
	return r.deleteWithAnalytics(ctx, "delete link",
		`DELETE FROM shortener_analytics WHERE shortener_id = ?`,
		`DELETE FROM shortener_data WHERE id = ?`,
		id,
	)
}

// deleteWithAnalytics removes a parent row and its analytics rows in one
// transaction, standing in for the cascade the postgres backend gets from DDL.
func (r *Repo) deleteWithAnalytics(ctx context.Context, opName, analyticsQuery, parentQuery, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", opName, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, analyticsQuery, id); err != nil {
		return fmt.Errorf("%s: analytics: %w", opName, err)
	}

	result, err := tx.ExecContext(ctx, parentQuery, id)
	if err != nil {
		return fmt.Errorf("%s: %w", opName, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", opName, shortstack.ErrNotFound)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", opName, err)
	}
	return nil
}

const siteColumns = "id, name, slug, fs_path, created_by, updated_by, created_at, updated_at"

func scanSite(row rowScanner) (shortstack.Site, error) {
	var s shortstack.Site
	var createdAt, updatedAt string

	err := row.Scan(
		&s.ID, &s.Name, &s.Slug, &s.FSPath,
		&s.CreatedBy, &s.UpdatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return shortstack.Site{}, err
	}

	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return shortstack.Site{}, fmt.Errorf("parse created_at: %w", err)
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return shortstack.Site{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return s, nil
}

func (r *Repo) GetSite(ctx context.Context, id string) (shortstack.Site, error) {
	query := fmt.Sprintf(`SELECT %s FROM site_data WHERE id = ?`, siteColumns)

	s, err := scanSite(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shortstack.Site{}, shortstack.ErrNotFound
		}
		return shortstack.Site{}, fmt.Errorf("get site: %w", err)
	}

	return s, nil
}

func (r *Repo) GetSiteBySlug(ctx context.Context, slug string) (shortstack.Site, error) {
	query := fmt.Sprintf(`SELECT %s FROM site_data WHERE slug = ?`, siteColumns)

	s, err := scanSite(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shortstack.Site{}, shortstack.ErrNotFound
		}
		return shortstack.Site{}, fmt.Errorf("get site by slug: %w", err)
	}

	return s, nil
}

func (r *Repo) ListSites(ctx context.Context, p shortstack.ListParams) ([]shortstack.Site, int, error) {
	pattern := "%" + shortstack.EscapeLikePattern(p.Search) + "%"

	var total int
	countQuery := `
		SELECT COUNT(*) FROM site_data
		WHERE name LIKE ?1 ESCAPE '\' OR slug LIKE ?1 ESCAPE '\'
	`
	if err := r.db.QueryRowContext(ctx, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("list sites: count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM site_data
		WHERE name LIKE ?1 ESCAPE '\' OR slug LIKE ?1 ESCAPE '\'
		ORDER BY created_at DESC
		LIMIT ?2 OFFSET ?3
	`, siteColumns)

	rows, err := r.db.QueryContext(ctx, query, pattern, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	sites := make([]shortstack.Site, 0, p.Limit)
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list sites: scan: %w", err)
		}
		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list sites: rows: %w", err)
	}

	return sites, total, nil
}

func (r *Repo) CreateSite(ctx context.Context, site shortstack.Site) (shortstack.Site, error) {
	now := formatTime(time.Now())

	query := `
		INSERT INTO site_data (id, name, slug, fs_path, created_by, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		site.ID, site.Name, site.Slug, site.FSPath,
		site.CreatedBy, site.CreatedBy, now, now,
	)
	if err != nil {
		return shortstack.Site{}, fmt.Errorf("create site: %w", err)
	}

	return r.GetSite(ctx, site.ID)
}

func (r *Repo) UpdateSite(ctx context.Context, site shortstack.Site) (shortstack.Site, error) {
	query := `
		UPDATE site_data
		SET name = COALESCE(NULLIF(?, ''), name),
			slug = COALESCE(NULLIF(?, ''), slug),
			updated_by = COALESCE(NULLIF(?, ''), updated_by),
			updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		site.Name, site.Slug, site.UpdatedBy,
		formatTime(time.Now()), site.ID,
	)
	if err != nil {
		return shortstack.Site{}, fmt.Errorf("update site: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return shortstack.Site{}, shortstack.ErrNotFound
	}

	return r.GetSite(ctx, site.ID)
}

func (r *Repo) DeleteSite(ctx context.Context, id string) error {
	return r.deleteWithAnalytics(ctx, "delete site",
		`DELETE FROM site_analytics WHERE site_id = ?`,
		`DELETE FROM site_data WHERE id = ?`,
		id,
	)
}

func (r *Repo) InsertClick(ctx context.Context, e shortstack.Event) error {
	query := `
		INSERT INTO shortener_analytics (id, shortener_id, ip, ip_region, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.RefID, e.IP, e.IPRegion, e.UserAgent, formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert click: %w", err)
	}
	return nil
}

func (r *Repo) InsertVisit(ctx context.Context, e shortstack.Event) error {
	query := `
		INSERT INTO site_analytics (id, site_id, ip, ip_region, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.RefID, e.IP, e.IPRegion, e.UserAgent, formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

func (r *Repo) CountClicks(ctx context.Context, linkID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shortener_analytics WHERE shortener_id = ?`, linkID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count clicks: %w", err)
	}
	return n, nil
}

func (r *Repo) CountVisits(ctx context.Context, siteID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM site_analytics WHERE site_id = ?`, siteID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return n, nil
}

func (r *Repo) GetSessionByToken(ctx context.Context, token string) (shortstack.Session, error) {
	var s shortstack.Session
	var expiresAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, token, user_id, expires_at FROM session WHERE token = ?`, token,
	).Scan(&s.ID, &s.Token, &s.UserID, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shortstack.Session{}, shortstack.ErrNotFound
		}
		return shortstack.Session{}, fmt.Errorf("get session: %w", err)
	}

	if s.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return shortstack.Session{}, fmt.Errorf("get session: parse expires_at: %w", err)
	}

	return s, nil
}

func (r *Repo) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *Repo) GetValue(ctx context.Context, key string) (json.RawMessage, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM kv_data WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shortstack.ErrNotFound
		}
		return nil, fmt.Errorf("get value: %w", err)
	}
	return json.RawMessage(value), nil
}

func (r *Repo) SetValue(ctx context.Context, key string, value json.RawMessage) error {
	query := `
		INSERT INTO kv_data (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, key, string(value), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return nil
}
