// Package filesystem provides a local object storage backend used for
// development and tests. It supports atomic writes using temp files and
// sandboxed paths via os.Root, and mirrors the batching and listing
// semantics of the S3 backend.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/linhsuan/shortstack"
)

// batchLimit matches the S3 per-call limit so either backend exercises the
// same chunking behavior.
const batchLimit = 1000

// Store implements shortstack.ObjectStore over a local directory.
type Store struct {
	root *os.Root
}

// New creates a Store rooted at the given directory. The root provides
// sandboxed file operations preventing path traversal.
func New(root *os.Root) *Store {
	return &Store{root: root}
}

// Get opens an object for reading. Returns shortstack.ErrNotFound when the
// key does not exist. Content type is derived from the key extension since
// the filesystem stores no object metadata.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, shortstack.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, shortstack.ObjectInfo{}, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, shortstack.ObjectInfo{}, fmt.Errorf("get %q: %w", key, shortstack.ErrNotFound)
		}
		return nil, shortstack.ObjectInfo{}, fmt.Errorf("get %q: %w", key, err)
	}

	info := shortstack.ObjectInfo{
		Size:        -1,
		ContentType: shortstack.MIMEType(key),
	}
	if stat, statErr := f.Stat(); statErr == nil {
		info.Size = stat.Size()
		info.LastModified = stat.ModTime()
	}

	return f, info, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes content to key using a temp file and rename,
// creating intermediate directories as needed. contentType is accepted for
// interface parity and ignored; the filesystem keeps no metadata.
func (s *Store) Put(ctx context.Context, key, contentType string, content io.Reader) error {
	_ = contentType

	if err := ctx.Err(); err != nil {
		return err
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return fmt.Errorf("put %q: could not open temp file: %w", key, createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(t.Name()); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := io.Copy(t, &ctxReader{ctx: ctx, r: content}); err != nil {
		return fmt.Errorf("put %q: could not copy contents: %w", key, err)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("put %q: could not sync written file: %w", key, err)
	}

	destDir := filepath.Dir(key)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("put %q: could not create intermediate directories: %w", key, err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, key); renameErr != nil {
		return fmt.Errorf("put %q: failed to rename file: %w", key, renameErr)
	}

	success = true
	return nil
}

// Delete removes an object. Deleting an absent key succeeds, matching the
// idempotent semantics of the S3 backend.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.root.Remove(key)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// DeleteBatch removes the given keys in sequential chunks. An empty list is
// a no-op.
func (s *Store) DeleteBatch(ctx context.Context, keys []string) (int, error) {
	deleted := 0

	for start := 0; start < len(keys); start += batchLimit {
		end := min(start+batchLimit, len(keys))
		for _, key := range keys[start:end] {
			if err := s.Delete(ctx, key); err != nil {
				return deleted, fmt.Errorf("delete batch: %w", err)
			}
			deleted++
		}
	}

	return deleted, nil
}

// List walks the root and returns every object whose key starts with
// prefix. The listing is fully materialized; there is no pagination to
// drain locally.
func (s *Store) List(ctx context.Context, prefix string) ([]shortstack.ObjectRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []shortstack.ObjectRecord

	err := fs.WalkDir(s.root.FS(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		key := filepath.ToSlash(path)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}

		records = append(records, shortstack.ObjectRecord{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}

	return records, nil
}

// Exists probes a key. Only "not found" maps to false.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.root.Stat(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %q: %w", key, err)
	}
	return true, nil
}

// DeleteFolder removes everything under prefix. Empty directories left
// behind are not pruned; listings skip them anyway.
func (s *Store) DeleteFolder(ctx context.Context, prefix string) (int, error) {
	records, err := s.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("delete folder %q: %w", prefix, err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	keys := make([]string, len(records))
	for i, rec := range records {
		keys[i] = rec.Key
	}

	deleted, err := s.DeleteBatch(ctx, keys)
	if err != nil {
		return deleted, fmt.Errorf("delete folder %q: %w", prefix, err)
	}
	return deleted, nil
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
