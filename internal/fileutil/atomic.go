// Package fileutil writes seqeth's state files: config, key files, and
// the balance cache.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// ErrEmptyPath indicates an empty file path was provided.
//
//nolint:gochecknoglobals // sentinel
var ErrEmptyPath = &seqerr.SequenceError{
	Kind:     seqerr.KindInvalidInput,
	Message:  "path is empty",
	ExitCode: seqerr.ExitInput,
}

// WriteAtomic replaces path with data. A crash leaves either the old or
// the new contents, never a mix: data goes to a synced temp file in the
// same directory which is then renamed over path.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := writeSynced(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil { //nolint:gosec // G703: callers pass config-derived paths
		return fmt.Errorf("renaming temp file: %w", err)
	}
	syncDir(dir)
	return nil
}

// WriteExclusive creates path with data and fails with INVALID_INPUT when
// it already exists. Key files are written this way so an existing key is
// never clobbered.
func WriteExclusive(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	// #nosec G304 -- path chosen by the user
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if errors.Is(err, os.ErrExist) {
		return seqerr.WithDetails(
			seqerr.New(seqerr.KindInvalidInput, "file already exists"),
			map[string]string{"path": path},
		)
	}
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := writeSynced(f, data, perm); err != nil {
		_ = os.Remove(path)
		return err
	}
	syncDir(filepath.Dir(path))
	return nil
}

func writeSynced(f *os.File, data []byte, perm os.FileMode) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", f.Name(), err)
	}
	if err := f.Chmod(perm); err != nil {
		_ = f.Close()
		return fmt.Errorf("setting permissions on %s: %w", f.Name(), err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("syncing %s: %w", f.Name(), err)
	}
	return f.Close()
}

// syncDir makes a rename or create durable. Best effort.
func syncDir(dir string) {
	if d, err := os.Open(dir); err == nil { //nolint:gosec // G304: dir is derived from the target path
		_ = d.Sync()
		_ = d.Close()
	}
}
