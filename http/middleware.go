package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/linhsuan/shortstack"
)

// SessionCookie is the cookie carrying the opaque session token. Sessions
// are created by the external auth provider; this package only reads and
// revokes them.
const SessionCookie = "session_token"

// SessionStore is the session surface the gate middleware consumes.
type SessionStore interface {
	GetSessionByToken(ctx context.Context, token string) (shortstack.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFrom returns the authenticated session stored by the gate
// middleware, if any.
func SessionFrom(ctx context.Context) (shortstack.Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(shortstack.Session)
	return s, ok
}

func sessionFromRequest(r *http.Request, store SessionStore) (shortstack.Session, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return shortstack.Session{}, false
	}

	session, err := store.GetSessionByToken(r.Context(), cookie.Value)
	if err != nil || !session.Valid(time.Now()) {
		return shortstack.Session{}, false
	}

	return session, true
}

// APIAuth rejects requests without a valid session with a JSON 401.
func APIAuth(store SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := sessionFromRequest(r, store)
			if !ok {
				WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PageAuth redirects requests without a valid session to the login page.
func PageAuth(store SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := sessionFromRequest(r, store)
			if !ok {
				http.Redirect(w, r, "/auth/login", http.StatusTemporaryRedirect)
				return
			}
			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectAuthenticated sends already-authenticated visitors of the auth
// pages back to the dashboard. Logout is exempt, it has to stay reachable
// with a session.
func RedirectAuthenticated(store SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/logout") {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := sessionFromRequest(r, store); ok {
				http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MetaFromRequest extracts the client metadata an analytics event is built
// from. Absent values stay empty here; the event constructor substitutes
// "unknown".
func MetaFromRequest(r *http.Request) shortstack.RequestMeta {
	return shortstack.RequestMeta{
		IP:        clientIP(r),
		IPRegion:  clientRegion(r),
		UserAgent: r.UserAgent(),
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return r.Header.Get("X-Real-Ip")
}

func clientRegion(r *http.Request) string {
	if region := r.Header.Get("X-Vercel-Ip-Country"); region != "" {
		return region
	}
	return r.Header.Get("Cf-Ipcountry")
}
