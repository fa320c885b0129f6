// Package postgres implements the repositories over a pgx connection pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linhsuan/shortstack"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const linkColumns = "id, name, slug, destination, created_by, updated_by, created_at, updated_at"

func scanLink(row pgx.Row) (shortstack.ShortLink, error) {
	var l shortstack.ShortLink
	err := row.Scan(
		&l.ID, &l.Name, &l.Slug, &l.Destination,
		&l.CreatedBy, &l.UpdatedBy, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func (r *Repo) GetLink(ctx context.Context, id string) (shortstack.ShortLink, error) {
	query := fmt.Sprintf(`SELECT %s FROM shortener_data WHERE id = $1`, linkColumns)

	l, err := scanLink(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shortstack.ShortLink{}, shortstack.ErrNotFound
		}
		return shortstack.ShortLink{}, fmt.Errorf("get link: %w", err)
	}

	return l, nil
}

func (r *Repo) GetLinkBySlug(ctx context.Context, slug string) (shortstack.ShortLink, error) {
	query := fmt.Sprintf(`SELECT %s FROM shortener_data WHERE slug = $1`, linkColumns)

	l, err := scanLink(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
		WHERE name ILIKE $1 OR slug ILIKE $1 OR destination ILIKE $1
	`
	if err := r.pool.QueryRow(ctx, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("list links: count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM shortener_data
		WHERE name ILIKE $1 OR slug ILIKE $1 OR destination ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, linkColumns)

	rows, err := r.pool.Query(ctx, query, pattern, p.Limit, p.Offset())
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
	query := fmt.Sprintf(`
		INSERT INTO shortener_data (id, name, slug, destination, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING %s
	`, linkColumns)

	l, err := scanLink(r.pool.QueryRow(ctx, query,
		link.ID, link.Name, link.Slug, link.Destination, link.CreatedBy,
	))
	if err != nil {
		return shortstack.ShortLink{}, fmt.Errorf("create link: %w", err)
	}

	return l, nil
}

func (r *Repo) UpdateLink(ctx context.Context, link shortstack.ShortLink) (shortstack.ShortLink, error) {
	query := fmt.Sprintf(`
		UPDATE shortener_data
		SET name = COALESCE(NULLIF($2, ''), name),
			slug = COALESCE(NULLIF($3, ''), slug),
			destination = COALESCE(NULLIF($4, ''), destination),
			updated_by = COALESCE(NULLIF($5, ''), updated_by),
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, linkColumns)

	l, err := scanLink(r.pool.QueryRow(ctx, query,
		link.ID, link.Name, link.Slug, link.Destination, link.UpdatedBy,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shortstack.ShortLink{}, shortstack.ErrNotFound
		}
		return shortstack.ShortLink{}, fmt.Errorf("update link: %w", err)
	}

	return l, nil
}

func (r *Repo) DeleteLink(ctx context.Context, id string) error {
	// shortener_analytics rows go with the parent via ON DELETE CASCADE.
	result, err := r.pool.Exec(ctx, `DELETE FROM shortener_data WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete link: %w", shortstack.ErrNotFound)
	}
	return nil
}

const siteColumns = "id, name, slug, fs_path, created_by, updated_by, created_at, updated_at"

func scanSite(row pgx.Row) (shortstack.Site, error) {
	var s shortstack.Site
	err := row.Scan(
		&s.ID, &s.Name, &s.Slug, &s.FSPath,
		&s.CreatedBy, &s.UpdatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *Repo) GetSite(ctx context.Context, id string) (shortstack.Site, error) {
	query := fmt.Sprintf(`SELECT %s FROM site_data WHERE id = $1`, siteColumns)

	s, err := scanSite(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shortstack.Site{}, shortstack.ErrNotFound
		}
		return shortstack.Site{}, fmt.Errorf("get site: %w", err)
	}

	return s, nil
}

func (r *Repo) GetSiteBySlug(ctx context.Context, slug string) (shortstack.Site, error) {
	query := fmt.Sprintf(`SELECT %s FROM site_data WHERE slug = $1`, siteColumns)

	s, err := scanSite(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
		WHERE name ILIKE $1 OR slug ILIKE $1
	`
	if err := r.pool.QueryRow(ctx, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("list sites: count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM site_data
		WHERE name ILIKE $1 OR slug ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, siteColumns)

	rows, err := r.pool.Query(ctx, query, pattern, p.Limit, p.Offset())
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
	query := fmt.Sprintf(`
		INSERT INTO site_data (id, name, slug, fs_path, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING %s
	`, siteColumns)

	s, err := scanSite(r.pool.QueryRow(ctx, query,
		site.ID, site.Name, site.Slug, site.FSPath, site.CreatedBy,
	))
	if err != nil {
		return shortstack.Site{}, fmt.Errorf("create site: %w", err)
	}

	return s, nil
}

func (r *Repo) UpdateSite(ctx context.Context, site shortstack.Site) (shortstack.Site, error) {
	query := fmt.Sprintf(`
		UPDATE site_data
		SET name = COALESCE(NULLIF($2, ''), name),
			slug = COALESCE(NULLIF($3, ''), slug),
			updated_by = COALESCE(NULLIF($4, ''), updated_by),
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, siteColumns)

	s, err := scanSite(r.pool.QueryRow(ctx, query,
		site.ID, site.Name, site.Slug, site.UpdatedBy,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shortstack.Site{}, shortstack.ErrNotFound
		}
		return shortstack.Site{}, fmt.Errorf("update site: %w", err)
	}

	return s, nil
}

func (r *Repo) DeleteSite(ctx context.Context, id string) error {
	// site_analytics rows go with the parent via ON DELETE CASCADE.
	result, err := r.pool.Exec(ctx, `DELETE FROM site_data WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete site: %w", shortstack.ErrNotFound)
	}
	return nil
}

func (r *Repo) InsertClick(ctx context.Context, e shortstack.Event) error {
	query := `
		INSERT INTO shortener_analytics (id, shortener_id, ip, ip_region, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.pool.Exec(ctx, query, e.ID, e.RefID, e.IP, e.IPRegion, e.UserAgent, e.CreatedAt); err != nil {
		return fmt.Errorf("insert click: %w", err)
	}
	return nil
}

func (r *Repo) InsertVisit(ctx context.Context, e shortstack.Event) error {
	query := `
		INSERT INTO site_analytics (id, site_id, ip, ip_region, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.pool.Exec(ctx, query, e.ID, e.RefID, e.IP, e.IPRegion, e.UserAgent, e.CreatedAt); err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

func (r *Repo) CountClicks(ctx context.Context, linkID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM shortener_analytics WHERE shortener_id = $1`, linkID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count clicks: %w", err)
	}
	return n, nil
}

func (r *Repo) CountVisits(ctx context.Context, siteID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM site_analytics WHERE site_id = $1`, siteID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return n, nil
}

func (r *Repo) GetSessionByToken(ctx context.Context, token string) (shortstack.Session, error) {
	var s shortstack.Session
	err := r.pool.QueryRow(ctx,
		`SELECT id, token, user_id, expires_at FROM session WHERE token = $1`, token,
	).Scan(&s.ID, &s.Token, &s.UserID, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shortstack.Session{}, shortstack.ErrNotFound
		}
		return shortstack.Session{}, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

func (r *Repo) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM session WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *Repo) GetValue(ctx context.Context, key string) (json.RawMessage, error) {
	var value json.RawMessage
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM kv_data WHERE key = $1`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortstack.ErrNotFound
		}
		return nil, fmt.Errorf("get value: %w", err)
	}
	return value, nil
}

func (r *Repo) SetValue(ctx context.Context, key string, value json.RawMessage) error {
	query := `
		INSERT INTO kv_data (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return nil
}
