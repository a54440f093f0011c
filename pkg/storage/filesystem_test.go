package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), 0)
	require.NoError(t, err)

	path, err := store.SaveStream("user-1/portfolio.pdf", bytes.NewBufferString("%PDF-1.4"))
	require.NoError(t, err)
	require.Equal(t, "user-1/portfolio.pdf", path)

	file, err := store.Open(path)
	require.NoError(t, err)
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	require.Equal(t, "%PDF-1.4", string(content))

	require.NoError(t, store.Delete(path))
	require.NoError(t, store.Delete(path))
}

func TestLocalStorageRejectsOversizedStream(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, 4)
	require.NoError(t, err)

	_, err = store.SaveStream("big.bin", bytes.NewBufferString("0123456789"))
	require.True(t, errors.Is(err, ErrTooLarge))
	_, statErr := os.Stat(filepath.Join(dir, "big.bin"))
	require.True(t, os.IsNotExist(statErr))

	_, err = store.Save("big.bin", []byte("0123456789"))
	require.True(t, errors.Is(err, ErrTooLarge))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = store.Save("../escape.txt", []byte("x"))
	require.Error(t, err)
	_, err = store.Open("/etc/passwd")
	require.Error(t, err)
}

func TestLocalStorageCleanup(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), 0)
	require.NoError(t, err)
	_, err = store.Save("certificates/old.pdf", []byte("pdf"))
	require.NoError(t, err)

	deleted, err := store.CleanupOlderThan(-1)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join("certificates", "old.pdf")}, deleted)
}
