package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/linhsuan/shortstack"
)

// uploads are buffered to disk past this threshold
const maxUploadMemory = 32 << 20

func (h *AdminHandler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	listing, err := h.manager.Files(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, listing)
}

func (h *AdminHandler) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		WriteError(w, http.StatusBadRequest, "No files provided.")
		return
	}

	files := make([]shortstack.UploadFile, 0, len(headers))
	for _, header := range headers {
		content, err := header.Open()
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Unreadable file: "+header.Filename)
			return
		}
		defer func() { _ = content.Close() }()

		files = append(files, shortstack.UploadFile{Name: header.Filename, Content: content})
	}

	uploaded, err := h.manager.Upload(r.Context(), chi.URLParam(r, "id"), r.FormValue("path"), files)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"uploaded": uploaded,
		"count":    len(uploaded),
	})
}

func (h *AdminHandler) handleDeleteFiles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	path := chi.URLParam(r, "*")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "File path is required.")
		return
	}

	if r.URL.Query().Get("folder") == "true" {
		deleted, err := h.manager.DeleteDir(r.Context(), id, path)
		if err != nil {
			HandleError(w, err)
			return
		}
		_ = WriteJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": deleted})
		return
	}

	if err := h.manager.DeleteFile(r.Context(), id, path); err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func isZipUpload(contentType, filename string) bool {
	switch contentType {
	case "application/zip", "application/x-zip-compressed":
		return true
	}
	return strings.HasSuffix(strings.ToLower(filename), ".zip")
}

func (h *AdminHandler) handleUploadZip(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "No file provided.")
		return
	}
	defer func() { _ = file.Close() }()

	if !isZipUpload(header.Header.Get("Content-Type"), header.Filename) {
		WriteError(w, http.StatusBadRequest, "Only ZIP files are allowed.")
		return
	}

	mode, err := shortstack.ParseImportMode(r.FormValue("mode"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.manager.ImportZip(r.Context(), chi.URLParam(r, "id"), file, header.Size, mode)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}
