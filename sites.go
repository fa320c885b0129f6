package shortstack

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jaevor/go-nanoid"
)

// siteIDLength is the length of generated site and link ids. The fsPath
// prefix of every site is derived from its id, so fresh ids keep site
// namespaces disjoint.
const siteIDLength = 21

// SiteService owns the static hosting surface: asset resolution, file
// management, ZIP import, and site lifecycle sequencing.
type SiteService struct {
	sites    SiteRepo
	store    ObjectStore
	recorder *Recorder
	newID    func() string
}

func NewSiteService(sites SiteRepo, store ObjectStore, recorder *Recorder) (*SiteService, error) {
	gen, err := nanoid.Standard(siteIDLength)
	if err != nil {
		return nil, fmt.Errorf("new site service: %w", err)
	}
	return &SiteService{
		sites:    sites,
		store:    store,
		recorder: recorder,
		newID:    gen,
	}, nil
}

// ResolvedAsset is the outcome of resolving a request path against a site.
type ResolvedAsset struct {
	Site         Site
	Key          string
	ContentType  string
	CacheControl string
}

// ResolveAsset maps (site slug, request path) to an object key and derives
// the response headers from it. Resolution policy, in order:
//
//  1. Empty path or trailing "/" appends index.html.
//  2. A last segment without a dot probes <path>/index.html; when present it
//     wins, otherwise the literal path is used.
//  3. Anything else is used literally.
//
// A visit event is scheduled on success. Unknown site returns ErrNotFound;
// whether the final key exists is decided later when the object is fetched.
func (s *SiteService) ResolveAsset(ctx context.Context, slug, path string, meta RequestMeta) (ResolvedAsset, error) {
	site, err := s.sites.GetSiteBySlug(ctx, slug)
	if err != nil {
		return ResolvedAsset{}, fmt.Errorf("resolve asset %q: %w", slug, err)
	}

	rel := strings.TrimPrefix(path, "/")
	switch {
	case rel == "" || strings.HasSuffix(rel, "/"):
		rel += "index.html"
	case !strings.Contains(lastSegment(rel), "."):
		probe := NormalizeKey(site.FSPath + "/" + rel + "/index.html")
		ok, existsErr := s.store.Exists(ctx, probe)
		if existsErr != nil {
			return ResolvedAsset{}, fmt.Errorf("resolve asset %q: %w", slug, existsErr)
		}
		if ok {
			rel += "/index.html"
		}
	}

	key := NormalizeKey(site.FSPath + "/" + rel)

	s.recorder.RecordVisit(site.ID, meta)

	return ResolvedAsset{
		Site:         site,
		Key:          key,
		ContentType:  MIMEType(key),
		CacheControl: CacheControl(key),
	}, nil
}

// Fetch streams an object from storage. The caller closes the body.
func (s *SiteService) Fetch(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	return s.store.Get(ctx, key)
}

// Create generates a fresh id and object-store prefix for a new site.
func (s *SiteService) Create(ctx context.Context, name, slug, by string) (Site, error) {
	id := s.newID()
	site := Site{
		ID:        id,
		Name:      name,
		Slug:      slug,
		FSPath:    "sites/" + id,
		CreatedBy: by,
		UpdatedBy: by,
	}

	created, err := s.sites.CreateSite(ctx, site)
	if err != nil {
		return Site{}, fmt.Errorf("create site: %w", err)
	}
	return created, nil
}

// Delete removes a site, its object-store subtree, and its analytics rows.
// Object deletion is best-effort: a storage failure is logged and must not
// block the database delete.
func (s *SiteService) Delete(ctx context.Context, id string) error {
	site, err := s.sites.GetSite(ctx, id)
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}

	if _, delErr := s.store.DeleteFolder(ctx, site.FSPath+"/"); delErr != nil {
		slog.Error("failed to delete site objects",
			"site_id", id,
			"prefix", site.FSPath,
			"err", delErr,
		)
	}

	if err = s.sites.DeleteSite(ctx, id); err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	return nil
}

// FileEntry is one row of the flat file listing.
type FileEntry struct {
	Key          string `json:"key"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified,omitempty"`
}

// FileListing is the response of the files endpoint: the derived tree, the
// flat listing, and the site prefix both are relative to.
type FileListing struct {
	Tree   []*FileTreeNode `json:"tree"`
	Files  []FileEntry     `json:"files"`
	Prefix string          `json:"prefix"`
}

// Files lists everything under the site prefix and derives the file tree.
// The tree is rebuilt on every call, never cached.
func (s *SiteService) Files(ctx context.Context, id string) (FileListing, error) {
	site, err := s.sites.GetSite(ctx, id)
	if err != nil {
		return FileListing{}, fmt.Errorf("list files: %w", err)
	}

	prefix := site.FSPath + "/"
	objects, err := s.store.List(ctx, prefix)
	if err != nil {
		return FileListing{}, fmt.Errorf("list files: %w", err)
	}

	files := make([]FileEntry, 0, len(objects))
	for _, obj := range objects {
		entry := FileEntry{
			Key:  obj.Key,
			Path: strings.TrimPrefix(obj.Key, prefix),
			Size: obj.Size,
		}
		if !obj.LastModified.IsZero() {
			entry.LastModified = obj.LastModified.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		files = append(files, entry)
	}

	return FileListing{
		Tree:   BuildFileTree(objects, prefix),
		Files:  files,
		Prefix: prefix,
	}, nil
}

// UploadFile is one incoming file for Upload.
type UploadFile struct {
	Name    string
	Content io.Reader
}

// Upload stores the given files under the site prefix, optionally below dir.
// Returns the stored keys in input order; the first failure aborts the rest.
func (s *SiteService) Upload(ctx context.Context, id, dir string, files []UploadFile) ([]string, error) {
	site, err := s.sites.GetSite(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("upload files: %w", err)
	}

	uploaded := make([]string, 0, len(files))
	for _, f := range files {
		key := site.FSPath + "/" + f.Name
		if dir != "" {
			key = site.FSPath + "/" + dir + "/" + f.Name
		}
		key = NormalizeKey(key)

		if err = s.store.Put(ctx, key, MIMEType(f.Name), f.Content); err != nil {
			return uploaded, fmt.Errorf("upload %q: %w", f.Name, err)
		}
		uploaded = append(uploaded, key)
	}

	return uploaded, nil
}

// DeleteFile removes a single object below the site prefix.
func (s *SiteService) DeleteFile(ctx context.Context, id, path string) error {
	site, err := s.sites.GetSite(ctx, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	key := NormalizeKey(site.FSPath + "/" + path)
	if err = s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete file %q: %w", key, err)
	}
	return nil
}

// DeleteDir removes every object below the given folder path of a site and
// returns the number deleted.
func (s *SiteService) DeleteDir(ctx context.Context, id, path string) (int, error) {
	site, err := s.sites.GetSite(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete folder: %w", err)
	}

	prefix := NormalizeKey(site.FSPath + "/" + path + "/")
	deleted, err := s.store.DeleteFolder(ctx, prefix)
	if err != nil {
		return deleted, fmt.Errorf("delete folder %q: %w", prefix, err)
	}
	return deleted, nil
}

// Open fetches a single file below the site prefix for download.
func (s *SiteService) Open(ctx context.Context, id, path string) (io.ReadCloser, ObjectInfo, error) {
	site, err := s.sites.GetSite(ctx, id)
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("open file: %w", err)
	}

	key := NormalizeKey(site.FSPath + "/" + path)
	body, info, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("open file %q: %w", key, err)
	}
	return body, info, nil
}

func lastSegment(p string) string {
	if idx := strings.LastIndexByte(p, '/'); idx >= 0 {
		return p[idx+1:]
	}
	return p
}
