package shortstack

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ImportZip extracts an uploaded archive into the site's object-store
// namespace. In replace mode every existing object under the prefix is
// removed first (best-effort: a delete failure is logged and the import
// proceeds).
//
// Directory markers, __MACOSX resource forks, and .DS_Store metadata entries
// are skipped. Entries fail individually: a bad entry is recorded in the
// error list and does not abort the remaining entries.
func (s *SiteService) ImportZip(ctx context.Context, id string, archive io.ReaderAt, size int64, mode ImportMode) (ImportResult, error) {
	site, err := s.sites.GetSite(ctx, id)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import zip: %w", err)
	}

	prefix := site.FSPath + "/"

	if mode == ModeReplace {
		if _, delErr := s.store.DeleteFolder(ctx, prefix); delErr != nil {
			slog.Error("failed to clear site prefix before import",
				"site_id", id,
				"prefix", prefix,
				"err", delErr,
			)
		}
	}

	zr, err := zip.NewReader(archive, size)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import zip: %w: %v", ErrInvalidInput, err)
	}

	result := ImportResult{
		Uploaded: []string{},
		Errors:   []string{},
	}

	for _, entry := range zr.File {
		if skipZipEntry(entry) {
			continue
		}

		if err = s.importEntry(ctx, prefix, entry); err != nil {
			slog.Error("failed to extract archive entry",
				"site_id", id,
				"entry", entry.Name,
				"err", err,
			)
			result.Errors = append(result.Errors, entry.Name)
			continue
		}
		result.Uploaded = append(result.Uploaded, entry.Name)
	}

	result.Count = len(result.Uploaded)
	result.ErrorCount = len(result.Errors)
	return result, nil
}

func (s *SiteService) importEntry(ctx context.Context, prefix string, entry *zip.File) error {
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open entry: %w", err)
	}
	defer func() { _ = rc.Close() }()

	key := NormalizeKey(prefix + entry.Name)
	if err = s.store.Put(ctx, key, MIMEType(entry.Name), rc); err != nil {
		return fmt.Errorf("upload entry: %w", err)
	}
	return nil
}

func skipZipEntry(entry *zip.File) bool {
	if entry.FileInfo().IsDir() {
		return true
	}
	if strings.HasPrefix(entry.Name, "__MACOSX") {
		return true
	}
	return strings.Contains(entry.Name, ".DS_Store")
}
