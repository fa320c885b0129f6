package shortstack

import (
	"context"
	"encoding/json"
	"io"
	"time"
)

// LinkRepo persists ShortLink records.
//
// All methods accept a context for cancellation and timeout control and
// return ErrNotFound when the requested record does not exist.
type LinkRepo interface {
	// GetLink retrieves a link by id.
	GetLink(ctx context.Context, id string) (ShortLink, error)

	// GetLinkBySlug retrieves a link by its unique slug. This is the hot
	// path of the redirect surface.
	GetLinkBySlug(ctx context.Context, slug string) (ShortLink, error)

	// ListLinks returns one page of links ordered by creation time
	// descending, plus the total row count matching the search.
	ListLinks(ctx context.Context, p ListParams) ([]ShortLink, int, error)

	// CreateLink inserts a new link and returns the stored row.
	CreateLink(ctx context.Context, link ShortLink) (ShortLink, error)

	// UpdateLink applies the non-zero fields of link to the row with its id.
	UpdateLink(ctx context.Context, link ShortLink) (ShortLink, error)

	// DeleteLink removes a link together with its analytics rows.
	DeleteLink(ctx context.Context, id string) error
}

// SiteRepo persists Site records.
type SiteRepo interface {
	GetSite(ctx context.Context, id string) (Site, error)

	// GetSiteBySlug retrieves a site by its unique slug. This is the hot
	// path of the static hosting surface.
	GetSiteBySlug(ctx context.Context, slug string) (Site, error)

	ListSites(ctx context.Context, p ListParams) ([]Site, int, error)
	CreateSite(ctx context.Context, site Site) (Site, error)
	UpdateSite(ctx context.Context, site Site) (Site, error)

	// DeleteSite removes a site together with its analytics rows. Object
	// storage cleanup is sequenced by the caller, not here.
	DeleteSite(ctx context.Context, id string) error
}

// AnalyticsRepo persists visit and click events. Writes are issued from
// detached background tasks; implementations only need plain inserts.
type AnalyticsRepo interface {
	InsertClick(ctx context.Context, e Event) error
	InsertVisit(ctx context.Context, e Event) error
	CountClicks(ctx context.Context, linkID string) (int, error)
	CountVisits(ctx context.Context, siteID string) (int, error)
}

// SessionRepo reads and revokes admin sessions. Session creation belongs to
// the external auth provider, not this layer.
type SessionRepo interface {
	// GetSessionByToken retrieves a session by its opaque token.
	// Expiry is checked by the caller.
	GetSessionByToken(ctx context.Context, token string) (Session, error)

	// DeleteSession revokes a session by token. Deleting an unknown token
	// is not an error.
	DeleteSession(ctx context.Context, token string) error
}

// KVRepo reads and writes free-form configuration records.
type KVRepo interface {
	GetValue(ctx context.Context, key string) (json.RawMessage, error)
	SetValue(ctx context.Context, key string, value json.RawMessage) error
}

// ObjectStore is the capability surface over a blob store shared by the
// static hosting, file management, and import paths.
//
// Implementations can use S3 or the local filesystem; see the s3store and
// filesystem packages.
type ObjectStore interface {
	// Get retrieves an object for streaming. Returns ErrNotFound when the
	// key does not exist. The caller closes the returned body.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Put stores content under key, overwriting any existing object.
	Put(ctx context.Context, key, contentType string, content io.Reader) error

	// Delete removes a single object.
	Delete(ctx context.Context, key string) error

	// DeleteBatch removes the given keys, chunking internally to the
	// store's per-call limit. Chunks are issued sequentially. An empty
	// list is a no-op. Returns the number of keys submitted for deletion.
	DeleteBatch(ctx context.Context, keys []string) (int, error)

	// List returns every object under prefix, transparently draining
	// pagination cursors until exhausted. Callers never see partial pages.
	List(ctx context.Context, prefix string) ([]ObjectRecord, error)

	// Exists probes a key. Only "not found" produces false; any other
	// error propagates.
	Exists(ctx context.Context, key string) (bool, error)

	// DeleteFolder removes everything under prefix and returns the number
	// of objects deleted. A prefix with no matches is a no-op returning
	// zero, issuing no delete call.
	DeleteFolder(ctx context.Context, prefix string) (int, error)
}

// NewEvent builds an analytics Event from request metadata, filling absent
// fields with "unknown".
func NewEvent(id, refID string, meta RequestMeta, now time.Time) Event {
	return Event{
		ID:        id,
		RefID:     refID,
		IP:        orUnknown(meta.IP),
		IPRegion:  orUnknown(meta.IPRegion),
		UserAgent: orUnknown(meta.UserAgent),
		CreatedAt: now,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
