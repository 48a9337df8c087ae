package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	s := &Storage{}
	path := filepath.Join(t.TempDir(), "book.txt")
	require.NoError(t, os.WriteFile(path, []byte("call me ishmael"), 0600))

	src, err := s.Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, path, src.Stats.Path)
	assert.Equal(t, int64(15), src.Stats.SizeBytes)
	assert.False(t, src.Stats.ModTime.IsZero())

	data, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, "call me ishmael", string(data))
}

func TestOpen_Errors(t *testing.T) {
	s := &Storage{}
	dir := t.TempDir()

	_, err := s.Open(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = s.Open(dir)
	assert.ErrorContains(t, err, "is a directory")
}

func TestSaveFile(t *testing.T) {
	s := &Storage{}
	path := filepath.Join(t.TempDir(), "reports", "out.json")

	require.NoError(t, s.SaveFile(path, []byte(`{"ok":true}`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))

	src, err := s.Open(path)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, int64(11), src.Stats.SizeBytes)
}
