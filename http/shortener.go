package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/linhsuan/shortstack"
)

// Resolver maps request path segments to a short link.
type Resolver interface {
	Resolve(ctx context.Context, segments []string, meta shortstack.RequestMeta) (shortstack.ShortLink, error)
}

// ShortenerHandler serves the public redirect surface. Every method and path
// funnels into the resolver; failures land on the typed error pages.
type ShortenerHandler struct {
	resolver   Resolver
	publicBase string
}

// NewShortenerHandler creates the redirect handler. publicBase prefixes
// error-page redirects; leave it empty to keep them host-relative.
func NewShortenerHandler(resolver Resolver, publicBase string) *ShortenerHandler {
	return &ShortenerHandler{resolver: resolver, publicBase: strings.TrimSuffix(publicBase, "/")}
}

func (h *ShortenerHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.HandleFunc("/err", HandleErrorPage)
	r.HandleFunc("/*", h.handleResolve)
	return r
}

func (h *ShortenerHandler) handleResolve(w http.ResponseWriter, r *http.Request) {
	var segments []string
	if path := strings.Trim(r.URL.Path, "/"); path != "" {
		segments = strings.Split(path, "/")
	}

	link, err := h.resolver.Resolve(r.Context(), segments, MetaFromRequest(r))
	if err != nil {
		switch {
		case errors.Is(err, shortstack.ErrIllegalPath):
			redirectErrorPage(w, r, h.publicBase, ErrTypeIllegalPath, "")
		case errors.Is(err, shortstack.ErrNotFound):
			redirectErrorPage(w, r, h.publicBase, ErrTypeNotFound, "")
		default:
			id := shortstack.RandomString(8)
			slog.Error("short link resolution failed", "path", r.URL.Path, "error", err, "error_id", id)
			redirectErrorPage(w, r, h.publicBase, ErrTypeServerSide, id)
		}
		return
	}

	http.Redirect(w, r, link.Destination, http.StatusTemporaryRedirect)
}
