package http

import (
	"net"
	"net/http"
	"strings"
)

// Domains holds the hostnames the router classifies on.
type Domains struct {
	SiteHosting string
	Admin       string
}

// HostRouter dispatches each request by its Host header: the site hosting
// domain serves static sites, the admin domain serves the management API,
// and everything else resolves short links.
type HostRouter struct {
	domains   Domains
	site      http.Handler
	admin     http.Handler
	shortener http.Handler
}

func NewHostRouter(domains Domains, site, admin, shortener http.Handler) *HostRouter {
	return &HostRouter{
		domains:   Domains{SiteHosting: strings.ToLower(domains.SiteHosting), Admin: strings.ToLower(domains.Admin)},
		site:      site,
		admin:     admin,
		shortener: shortener,
	}
}

func (h *HostRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch hostname(r.Host) {
	case h.domains.SiteHosting:
		h.site.ServeHTTP(w, r)
	case h.domains.Admin:
		h.admin.ServeHTTP(w, r)
	default:
		h.shortener.ServeHTTP(w, r)
	}
}

func hostname(host string) string {
	if stripped, _, err := net.SplitHostPort(host); err == nil {
		host = stripped
	}
	return strings.ToLower(host)
}
