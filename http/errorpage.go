package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
)

// Error page types understood by the /err handler.
const (
	ErrTypeIllegalPath = "ERR_ILLEGAL_PATH"
	ErrTypeNotFound    = "ERR_NOT_FOUND"
	ErrTypeServerSide  = "SERVER_SIDE_ERR"
)

var errorPageTemplate = template.Must(template.New("errorpage").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<center><h1>{{.Title}}</h1></center>
<center><p>{{.Message}}</p></center>
{{if .ID}}<center><p>Reference: {{.ID}}</p></center>{{end}}
<hr><center>shortstack</center>
</body>
</html>`))

type errorPageData struct {
	Title   string
	Message string
	ID      string
	Status  int
}

func errorPageFor(errType string) errorPageData {
	switch errType {
	case ErrTypeIllegalPath:
		return errorPageData{
			Title:   "Invalid link",
			Message: "The requested link contains characters that are not allowed.",
			Status:  http.StatusBadRequest,
		}
	case ErrTypeServerSide:
		return errorPageData{
			Title:   "Something went wrong",
			Message: "An unexpected error occurred while handling this link.",
			Status:  http.StatusInternalServerError,
		}
	default:
		return errorPageData{
			Title:   "Link not found",
			Message: "The requested link does not exist.",
			Status:  http.StatusNotFound,
		}
	}
}

// HandleErrorPage renders the typed error page addressed by
// /err?type=...&id=... Unknown types fall back to the not-found page.
func HandleErrorPage(w http.ResponseWriter, r *http.Request) {
	data := errorPageFor(r.URL.Query().Get("type"))
	data.ID = r.URL.Query().Get("id")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(data.Status)
	if err := errorPageTemplate.Execute(w, data); err != nil {
		slog.Error("failed to render error page", "error", err)
	}
}

// redirectErrorPage sends the client to the typed error page. An empty base
// keeps the redirect relative to the current host.
func redirectErrorPage(w http.ResponseWriter, r *http.Request, base, errType, id string) {
	q := url.Values{"type": []string{errType}}
	if id != "" {
		q.Set("id", id)
	}
	http.Redirect(w, r, base+"/err?"+q.Encode(), http.StatusTemporaryRedirect)
}
