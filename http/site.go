package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/linhsuan/shortstack"
)

// AssetServer resolves and streams static site assets.
type AssetServer interface {
	ResolveAsset(ctx context.Context, slug, path string, meta shortstack.RequestMeta) (shortstack.ResolvedAsset, error)
	Fetch(ctx context.Context, key string) (io.ReadCloser, shortstack.ObjectInfo, error)
}

// SiteHandler serves hosted static sites. The first path segment selects the
// site; the remainder addresses an asset inside its prefix.
type SiteHandler struct {
	assets AssetServer
}

func NewSiteHandler(assets AssetServer) *SiteHandler {
	return &SiteHandler{assets: assets}
}

func (h *SiteHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/*", h.handleGet)
	r.Head("/*", h.handleGet)
	return r
}

func (h *SiteHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	// keep the trailing slash, resolution treats it as a folder request
	raw := strings.TrimPrefix(r.URL.Path, "/")
	slug, path, _ := strings.Cut(raw, "/")
	if slug == "" {
		writeNotFoundPage(w)
		return
	}

	asset, err := h.assets.ResolveAsset(r.Context(), slug, path, MetaFromRequest(r))
	if err != nil {
		if errors.Is(err, shortstack.ErrNotFound) {
			writeNotFoundPage(w)
			return
		}
		id := shortstack.RandomString(8)
		slog.Error("site resolution failed", "slug", slug, "path", path, "error", err, "error_id", id)
		writeServerError(w, id)
		return
	}

	content, info, err := h.assets.Fetch(r.Context(), asset.Key)
	if err != nil {
		if errors.Is(err, shortstack.ErrNotFound) {
			writeNotFoundPage(w)
			return
		}
		id := shortstack.RandomString(8)
		slog.Error("asset fetch failed", "key", asset.Key, "error", err, "error_id", id)
		writeServerError(w, id)
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Cache-Control", asset.CacheControl)
	if info.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if info.ETag != "" {
		w.Header().Set("ETag", `"`+info.ETag+`"`)
	}

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, content); err != nil {
		slog.Error("asset stream interrupted", "key", asset.Key, "error", err)
	}
}

const notFoundHTML = `<html>
<head><title>404 Not Found</title></head>
<body>
<center><h1>404 Not Found</h1></center>
<hr><center>shortstack</center>
</body>
</html>`

// writeServerError returns a 500 carrying the correlation id, so the caller
// can quote it when reporting the failure.
func writeServerError(w http.ResponseWriter, id string) {
	http.Error(w, "internal server error (ref: "+id+")", http.StatusInternalServerError)
}

func writeNotFoundPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, notFoundHTML)
}
