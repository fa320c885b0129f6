package http_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	shorthttp "github.com/linhsuan/shortstack/http"
)

func namedHandler(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, name)
	})
}

func TestHostRouter(t *testing.T) {
	router := shorthttp.NewHostRouter(
		shorthttp.Domains{SiteHosting: "sites.example.com", Admin: "admin.example.com"},
		namedHandler("site"),
		namedHandler("admin"),
		namedHandler("shortener"),
	)

	tests := []struct {
		host string
		want string
	}{
		{"sites.example.com", "site"},
		{"sites.example.com:8080", "site"},
		{"SITES.EXAMPLE.COM", "site"},
		{"admin.example.com", "admin"},
		{"admin.example.com:443", "admin"},
		{"go.example.com", "shortener"},
		{"anything.else", "shortener"},
		{"", "shortener"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Host = tt.host

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, tt.want, rec.Body.String(), "host %q", tt.host)
	}
}
