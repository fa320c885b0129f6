package shortstack

import (
	"fmt"
	"time"
)

// ShortLink maps a slug to a destination URL. Rows are created through the
// admin API and read-only from the resolver's perspective.
type ShortLink struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Destination string    `json:"destination"`
	CreatedBy   string    `json:"created_by"`
	UpdatedBy   string    `json:"updated_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Site is a hosted static site. It owns the object-store subtree rooted at
// FSPath + "/"; prefixes of distinct sites never overlap because FSPath is
// derived from a fresh opaque id at creation.
type Site struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	FSPath    string    `json:"fs_path"`
	CreatedBy string    `json:"created_by"`
	UpdatedBy string    `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is an authenticated admin session, identified by an opaque token.
type Session struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Valid reports whether the session has not expired at the given time.
func (s Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Event is a single visit or click record. Writes are fire-and-forget: they
// must never delay or fail the response that triggered them.
type Event struct {
	ID        string
	RefID     string
	IP        string
	IPRegion  string
	UserAgent string
	CreatedAt time.Time
}

// RequestMeta carries the client metadata an Event is built from.
type RequestMeta struct {
	IP        string
	IPRegion  string
	UserAgent string
}

// ObjectRecord is one entry from an object-store listing.
type ObjectRecord struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// ObjectInfo describes a retrieved object. Size is -1 when the backend does
// not report a length.
type ObjectInfo struct {
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// FileTreeNode is a transient, derived view over object keys under a prefix.
// Files carry size and last-modified; folders carry ordered children.
type FileTreeNode struct {
	Name         string          `json:"name"`
	Path         string          `json:"path"`
	Type         NodeType        `json:"type"`
	Size         int64           `json:"size,omitempty"`
	LastModified *time.Time      `json:"last_modified,omitempty"`
	Children     []*FileTreeNode `json:"children,omitempty"`
}

type NodeType string

const (
	NodeFile   NodeType = "file"
	NodeFolder NodeType = "folder"
)

// ImportMode controls how a ZIP import treats existing objects under the
// site prefix.
type ImportMode string

const (
	// ModeMerge uploads archive entries over whatever already exists.
	ModeMerge ImportMode = "merge"
	// ModeReplace clears the site prefix before uploading.
	ModeReplace ImportMode = "replace"
)

func (m ImportMode) IsValid() bool {
	switch m {
	case ModeMerge, ModeReplace:
		return true
	default:
		return false
	}
}

// ParseImportMode parses s into an ImportMode. An empty string defaults to
// merge.
func ParseImportMode(s string) (ImportMode, error) {
	if s == "" {
		return ModeMerge, nil
	}
	mode := ImportMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid import mode: %s (valid modes: merge, replace)", s)
	}
	return mode, nil
}

// ImportResult reports the outcome of a ZIP import. One bad entry does not
// void the rest of the archive; failed entry paths are listed instead.
type ImportResult struct {
	Uploaded   []string `json:"uploaded"`
	Errors     []string `json:"errors"`
	Count      int      `json:"count"`
	ErrorCount int      `json:"errorCount"`
}

// ListParams is pagination and search input for admin listings.
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

// Offset returns the row offset for the current page.
func (p ListParams) Offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.Limit
}
