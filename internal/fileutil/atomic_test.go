package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

func TestWriteAtomic_ReplacesContents(t *testing.T) {
	t.Parallel()
	target := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, os.WriteFile(target, []byte("version: 1"), 0o644)) //nolint:gosec // G306: test file
	require.NoError(t, WriteAtomic(target, []byte("version: 2"), 0o600))

	data, err := os.ReadFile(target) //nolint:gosec // G304: test path
	require.NoError(t, err)
	assert.Equal(t, "version: 2", string(data))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is cleaned up")
}

func TestWriteAtomic_FailureLeavesOriginalFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "cache.json")
	require.NoError(t, os.WriteFile(target, []byte("original"), 0o644)) //nolint:gosec // G306: test file

	require.NoError(t, os.Chmod(dir, 0o500)) //nolint:gosec // G302: intentionally read-only
	defer func() {
		_ = os.Chmod(dir, 0o700) //nolint:gosec // G302: restore for cleanup
	}()

	require.Error(t, WriteAtomic(target, []byte("replacement"), 0o600))

	data, err := os.ReadFile(target) //nolint:gosec // G304: test path
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestWriteExclusive(t *testing.T) {
	t.Parallel()
	target := filepath.Join(t.TempDir(), "key.age")

	require.NoError(t, WriteExclusive(target, []byte("sealed"), 0o600))

	err := WriteExclusive(target, []byte("other"), 0o600)
	require.ErrorIs(t, err, seqerr.ErrInvalidInput)

	data, readErr := os.ReadFile(target) //nolint:gosec // G304: test path
	require.NoError(t, readErr)
	assert.Equal(t, "sealed", string(data))

	info, statErr := os.Stat(target)
	require.NoError(t, statErr)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEmptyPath(t *testing.T) {
	t.Parallel()
	require.ErrorIs(t, WriteAtomic("", []byte("data"), 0o600), ErrEmptyPath)
	require.ErrorIs(t, WriteExclusive("", []byte("data"), 0o600), ErrEmptyPath)
}
