package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/linhsuan/shortstack"
)

// SiteManager is the site lifecycle and file management surface consumed by
// the admin API.
type SiteManager interface {
	Create(ctx context.Context, name, slug, by string) (shortstack.Site, error)
	Delete(ctx context.Context, id string) error
	Files(ctx context.Context, id string) (shortstack.FileListing, error)
	Upload(ctx context.Context, id, dir string, files []shortstack.UploadFile) ([]string, error)
	DeleteFile(ctx context.Context, id, path string) error
	DeleteDir(ctx context.Context, id, path string) (int, error)
	ImportZip(ctx context.Context, id string, archive io.ReaderAt, size int64, mode shortstack.ImportMode) (shortstack.ImportResult, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// AdminHandler serves the session-gated management API on the admin domain.
type AdminHandler struct {
	links     shortstack.LinkRepo
	sites     shortstack.SiteRepo
	analytics shortstack.AnalyticsRepo
	manager   SiteManager
	sessions  SessionStore
	kv        shortstack.KVRepo
	cors      CORSConfig
}

type AdminConfig struct {
	Links     shortstack.LinkRepo
	Sites     shortstack.SiteRepo
	Analytics shortstack.AnalyticsRepo
	Manager   SiteManager
	Sessions  SessionStore
	KV        shortstack.KVRepo
	CORS      CORSConfig
}

func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	return &AdminHandler{
		links:     cfg.Links,
		sites:     cfg.Sites,
		analytics: cfg.Analytics,
		manager:   cfg.Manager,
		sessions:  cfg.Sessions,
		kv:        cfg.KV,
		cors:      cfg.CORS,
	}
}

func (h *AdminHandler) Router() http.Handler {
	r := chi.NewRouter()

	if h.cors.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.cors.AllowedOrigins,
			AllowedMethods:   h.cors.AllowedMethods,
			AllowedHeaders:   h.cors.AllowedHeaders,
			AllowCredentials: h.cors.AllowCredentials,
			MaxAge:           h.cors.MaxAge,
		}))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(RedirectAuthenticated(h.sessions))
		r.Get("/login", h.handleLoginPage)
		r.HandleFunc("/logout", h.handleLogout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(APIAuth(h.sessions))
		r.NotFound(apiNotFound(h.sessions))

		r.Get("/urls", h.handleListURLs)
		r.Post("/urls", h.handleCreateURL)
		r.Get("/urls/{id}", h.handleGetURL)
		r.Patch("/urls/{id}", h.handleUpdateURL)
		r.Delete("/urls/{id}", h.handleDeleteURL)

		r.Get("/sites", h.handleListSites)
		r.Post("/sites", h.handleCreateSite)
		r.Get("/sites/{id}", h.handleGetSite)
		r.Patch("/sites/{id}", h.handleUpdateSite)
		r.Delete("/sites/{id}", h.handleDeleteSite)

		r.Get("/sites/{id}/files", h.handleListFiles)
		r.Post("/sites/{id}/files", h.handleUploadFiles)
		r.Delete("/sites/{id}/files/*", h.handleDeleteFiles)
		r.Post("/sites/{id}/upload-zip", h.handleUploadZip)

		r.Get("/settings/{key}", h.handleGetSetting)
		r.Put("/settings/{key}", h.handleSetSetting)
	})

	r.Group(func(r chi.Router) {
		r.Use(PageAuth(h.sessions))
		r.Get("/", h.handleDashboard)
	})

	// Unmatched paths on the admin domain hit the session gate before a
	// 404, so unauthenticated visitors always land on the login page.
	r.NotFound(PageAuth(h.sessions)(http.NotFoundHandler()).ServeHTTP)

	return r
}

// apiNotFound keeps unmatched API paths inside the JSON contract: missing
// session → 401, valid session → 404.
func apiNotFound(sessions SessionStore) http.HandlerFunc {
	return APIAuth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found")
	})).ServeHTTP
}

// The dashboard and login UI ship separately; these pages only anchor the
// session gate semantics.
func (h *AdminHandler) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, "<html><body><h1>shortstack admin</h1></body></html>")
}

func (h *AdminHandler) handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, "<html><body><h1>Sign in</h1><p>Sign-in is handled by the configured auth provider.</p></body></html>")
}

func (h *AdminHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if err := h.sessions.DeleteSession(r.Context(), cookie.Value); err != nil {
			HandleError(w, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/auth/login", http.StatusTemporaryRedirect)
}

func listParams(r *http.Request) shortstack.ListParams {
	q := r.URL.Query()

	page := 1
	if parsed, err := strconv.Atoi(q.Get("page")); err == nil && parsed > 0 {
		page = parsed
	}

	limit := 10
	if parsed, err := strconv.Atoi(q.Get("limit")); err == nil {
		limit = max(1, min(100, parsed))
	}

	return shortstack.ListParams{Page: page, Limit: limit, Search: q.Get("search")}
}

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func sessionUser(ctx context.Context) string {
	if session, ok := SessionFrom(ctx); ok {
		return session.UserID
	}
	return ""
}

func (h *AdminHandler) handleListURLs(w http.ResponseWriter, r *http.Request) {
	p := listParams(r)

	links, total, err := h.links.ListLinks(r.Context(), p)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, listResponse[shortstack.ShortLink]{
		Data: links, Total: total, Page: p.Page, Limit: p.Limit,
	})
}

type linkInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Destination string `json:"destination"`
}

func validDestination(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (h *AdminHandler) handleCreateURL(w http.ResponseWriter, r *http.Request) {
	var in linkInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if in.Name == "" || in.Slug == "" || in.Destination == "" {
		WriteError(w, http.StatusBadRequest, "Name, slug, and destination are required.")
		return
	}
	if !shortstack.IsValidSlug(in.Slug) {
		WriteError(w, http.StatusBadRequest, shortstack.SlugErrorMessage)
		return
	}
	if !validDestination(in.Destination) {
		WriteError(w, http.StatusBadRequest, "Destination must be a valid http or https URL.")
		return
	}

	if taken, err := h.slugTaken(r.Context(), in.Slug, ""); err != nil {
		HandleError(w, err)
		return
	} else if taken {
		WriteError(w, http.StatusConflict, "Slug already exists.")
		return
	}

	link, err := h.links.CreateLink(r.Context(), shortstack.ShortLink{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Slug:        in.Slug,
		Destination: in.Destination,
		CreatedBy:   sessionUser(r.Context()),
	})
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, link)
}

func (h *AdminHandler) slugTaken(ctx context.Context, slug, selfID string) (bool, error) {
	existing, err := h.links.GetLinkBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, shortstack.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != selfID, nil
}

type linkDetail struct {
	shortstack.ShortLink
	VisitCount int `json:"visitCount"`
}

func (h *AdminHandler) handleGetURL(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	link, err := h.links.GetLink(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	count, err := h.analytics.CountClicks(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, linkDetail{ShortLink: link, VisitCount: count})
}

func (h *AdminHandler) handleUpdateURL(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in linkInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if in.Slug != "" {
		if !shortstack.IsValidSlug(in.Slug) {
			WriteError(w, http.StatusBadRequest, shortstack.SlugErrorMessage)
			return
		}
		if taken, err := h.slugTaken(r.Context(), in.Slug, id); err != nil {
			HandleError(w, err)
			return
		} else if taken {
			WriteError(w, http.StatusConflict, "Slug already exists.")
			return
		}
	}
	if in.Destination != "" && !validDestination(in.Destination) {
		WriteError(w, http.StatusBadRequest, "Destination must be a valid http or https URL.")
		return
	}

	link, err := h.links.UpdateLink(r.Context(), shortstack.ShortLink{
		ID:          id,
		Name:        in.Name,
		Slug:        in.Slug,
		Destination: in.Destination,
		UpdatedBy:   sessionUser(r.Context()),
	})
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, link)
}

func (h *AdminHandler) handleDeleteURL(w http.ResponseWriter, r *http.Request) {
	if err := h.links.DeleteLink(r.Context(), chi.URLParam(r, "id")); err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) handleListSites(w http.ResponseWriter, r *http.Request) {
	p := listParams(r)

	sites, total, err := h.sites.ListSites(r.Context(), p)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, listResponse[shortstack.Site]{
		Data: sites, Total: total, Page: p.Page, Limit: p.Limit,
	})
}

type siteInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *AdminHandler) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var in siteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if in.Name == "" || in.Slug == "" {
		WriteError(w, http.StatusBadRequest, "Name and slug are required.")
		return
	}
	if !shortstack.IsValidSlug(in.Slug) {
		WriteError(w, http.StatusBadRequest, shortstack.SlugErrorMessage)
		return
	}

	if _, err := h.sites.GetSiteBySlug(r.Context(), in.Slug); err == nil {
		WriteError(w, http.StatusConflict, "Slug already exists.")
		return
	} else if !errors.Is(err, shortstack.ErrNotFound) {
		HandleError(w, err)
		return
	}

	site, err := h.manager.Create(r.Context(), in.Name, in.Slug, sessionUser(r.Context()))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, site)
}

type siteDetail struct {
	shortstack.Site
	VisitCount int `json:"visitCount"`
	FileCount  int `json:"fileCount"`
}

func (h *AdminHandler) handleGetSite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	site, err := h.sites.GetSite(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	count, err := h.analytics.CountVisits(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	// file count is a best-effort listing, a storage hiccup should not
	// break the detail page
	fileCount := 0
	if listing, err := h.manager.Files(r.Context(), id); err == nil {
		fileCount = len(listing.Files)
	}

	_ = WriteJSON(w, http.StatusOK, siteDetail{Site: site, VisitCount: count, FileCount: fileCount})
}

func (h *AdminHandler) handleUpdateSite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in siteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if in.Slug != "" {
		if !shortstack.IsValidSlug(in.Slug) {
			WriteError(w, http.StatusBadRequest, shortstack.SlugErrorMessage)
			return
		}
		if existing, err := h.sites.GetSiteBySlug(r.Context(), in.Slug); err == nil && existing.ID != id {
			WriteError(w, http.StatusConflict, "Slug already exists.")
			return
		} else if err != nil && !errors.Is(err, shortstack.ErrNotFound) {
			HandleError(w, err)
			return
		}
	}

	site, err := h.sites.UpdateSite(r.Context(), shortstack.Site{
		ID:        id,
		Name:      in.Name,
		Slug:      in.Slug,
		UpdatedBy: sessionUser(r.Context()),
	})
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, site)
}

func (h *AdminHandler) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	value, err := h.kv.GetValue(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(value)
}

func (h *AdminHandler) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		HandleError(w, err)
		return
	}
	if !json.Valid(body) {
		WriteError(w, http.StatusBadRequest, "Value must be valid JSON.")
		return
	}

	if err := h.kv.SetValue(r.Context(), chi.URLParam(r, "key"), body); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
