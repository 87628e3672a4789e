package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrz1836/seqeth/internal/fileutil"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

const cacheFilePerm = 0o600

// ErrCorruptCache indicates the cache file is not valid JSON. The bad
// file is moved aside and an empty cache is returned with it.
//
//nolint:gochecknoglobals // sentinel
var ErrCorruptCache = &seqerr.SequenceError{
	Kind:     seqerr.KindParseError,
	Message:  "balance cache is corrupted",
	ExitCode: seqerr.ExitGeneral,
}

// FileStorage persists a BalanceCache as JSON.
type FileStorage struct {
	path string
}

// NewFileStorage creates storage at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the cache file path.
func (s *FileStorage) Path() string {
	return s.path
}

// Save writes the cache atomically.
func (s *FileStorage) Save(c *BalanceCache) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(c, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}
	return fileutil.WriteAtomic(s.path, data, cacheFilePerm)
}

// Load reads the cache. A missing file yields an empty cache.
func (s *FileStorage) Load() (*BalanceCache, error) {
	data, err := os.ReadFile(s.path) //nolint:gosec // G304: path from config home
	if errors.Is(err, os.ErrNotExist) {
		return NewBalanceCache(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	c := NewBalanceCache()
	if err := json.Unmarshal(data, c); err != nil {
		aside := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().UTC().UnixNano())
		details := map[string]string{"path": s.path}
		if renameErr := os.Rename(s.path, aside); renameErr == nil {
			details["moved_to"] = aside
		}
		wrapped := &seqerr.SequenceError{
			Kind:     ErrCorruptCache.Kind,
			Message:  ErrCorruptCache.Message,
			Cause:    err,
			ExitCode: ErrCorruptCache.ExitCode,
		}
		return NewBalanceCache(), seqerr.WithDetails(wrapped, details)
	}
	if c.Entries == nil {
		c.Entries = make(map[string]Entry)
	}
	return c, nil
}

// Delete removes the cache file.
func (s *FileStorage) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}

// Exists reports whether the cache file exists.
func (s *FileStorage) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
