package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gezy-backend/internal/shared/storage/object"
)

// Notices and letters carry personal data; nothing is group or world readable.
const (
	dirPerm  fs.FileMode = 0o700
	filePerm fs.FileMode = 0o600
)

// Store keeps objects as files below root. It backs development setups and
// tests; content types are sniffed again on read by the callers that care.
type Store struct {
	root string
}

func New(root string) object.ObjectStore {
	return &Store{root: root}
}

func (s *Store) Save(ctx context.Context, ownerID, fileName string, r io.Reader) (string, int64, string, error) {
	key, err := object.UploadKey(ownerID, fileName)
	if err != nil {
		return "", 0, "", err
	}
	mimeType, body, err := object.Sniff(r)
	if err != nil {
		return "", 0, "", err
	}
	n, err := s.SaveWithKey(ctx, key, mimeType, body)
	if err != nil {
		return "", 0, "", err
	}
	return key, n, mimeType, nil
}

// SaveWithKey writes to a synced temporary file next to the target and
// renames it, so a crash never leaves a truncated notice behind.
func (s *Store) SaveWithKey(ctx context.Context, storageKey, _ string, r io.Reader) (int64, error) {
	target, err := s.path(ctx, storageKey)
	if err != nil {
		return 0, err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return 0, fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := copyAndSync(tmp, r)
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", storageKey, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, fmt.Errorf("publish %s: %w", storageKey, err)
	}
	return n, nil
}

func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	p, err := s.path(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", object.ErrNotFound, storageKey)
	case err != nil:
		return nil, err
	}
	return f, nil
}

// Delete treats a missing file as already deleted.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	p, err := s.path(ctx, storageKey)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// path maps a storage key below root and refuses keys that would escape it.
func (s *Store) path(ctx context.Context, storageKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel := filepath.Clean(filepath.FromSlash(storageKey))
	if rel == "." || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage key %q leaves the store", storageKey)
	}
	return filepath.Join(s.root, rel), nil
}

func copyAndSync(f *os.File, r io.Reader) (int64, error) {
	n, err := io.Copy(f, r)
	if err == nil {
		err = f.Chmod(filePerm)
	}
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return n, err
}

var _ object.ObjectStore = (*Store)(nil)
