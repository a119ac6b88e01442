package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const lockFileName = ".strang.lock"

// ErrLocked is returned by Lock when another process holds the data directory.
var ErrLocked = errors.New("storage: data directory is locked by another process")

// FileStore keeps small JSON documents in a local directory. Every write
// replaces the whole document through a temp file and rename, so readers see
// either the previous or the new content.
type FileStore struct {
	basePath string
	lock     *flock.Flock
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{
		basePath: basePath,
		lock:     flock.New(filepath.Join(basePath, lockFileName)),
	}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Lock takes an exclusive advisory lock on the directory. Only the process
// holding it should write documents.
func (s *FileStore) Lock() error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("storage: acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// Unlock releases the directory lock if held.
func (s *FileStore) Unlock() error {
	if s == nil || s.lock == nil || !s.lock.Locked() {
		return nil
	}
	return s.lock.Unlock()
}

// ReadJSON decodes the document stored at key into v. A missing document
// yields an error matching os.ErrNotExist.
func (s *FileStore) ReadJSON(key string, v any) error {
	if s == nil {
		return errors.New("storage: no store configured")
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(s.path(cleanKey))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("storage: %s is empty", cleanKey)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: parse %s: %w", cleanKey, err)
	}
	return nil
}

// WriteJSON encodes v as indented JSON and atomically replaces the document at key.
func (s *FileStore) WriteJSON(ctx context.Context, key string, v any) error {
	if s == nil {
		return errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", cleanKey, err)
	}
	fullPath := s.path(cleanKey)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("storage: ensure directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), filepath.Base(fullPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage: close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage: rename temp file: %w", err)
	}
	return nil
}

func (s *FileStore) path(cleanKey string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
