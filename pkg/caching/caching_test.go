package caching

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dtnitsch/text-analyzer/pkg/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := NewCache(filepath.Join(t.TempDir(), "cache", "results.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func sample() analytics.Result {
	res := analytics.NewResult()
	res.SourceName = "book.txt"
	for i, w := range []string{"the", "Cat", "sat", "on", "the", "MAT", "42"} {
		res.AddWord(w, int64(i*4))
	}
	return res
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(t, time.Hour)
	key := Key("/tmp/book.txt", 23, time.Unix(1700000000, 0), "text")

	_, ok := c.Get(key)
	assert.False(t, ok)

	want := sample()
	require.NoError(t, c.Set(key, want))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.True(t, want.Equal(got))
	assert.Equal(t, "book.txt", got.SourceName)
	assert.Equal(t, 2, got.LetterFrequency['a'])
}

func TestCache_Expired(t *testing.T) {
	c := newTestCache(t, time.Nanosecond)
	key := Key("/tmp/book.txt", 23, time.Unix(1700000000, 0), "text")

	require.NoError(t, c.Set(key, sample()))
	time.Sleep(time.Millisecond)

	_, ok := c.Get(key)
	assert.False(t, ok)

	removed, err := c.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestCache_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	key := Key("/tmp/book.txt", 23, time.Unix(1700000000, 0), "text")

	c, err := NewCache(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.Set(key, sample()))
	require.NoError(t, c.Close())

	c, err = NewCache(path, time.Hour)
	require.NoError(t, err)
	defer c.Close()

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, 7, got.TotalWords)
}

func TestKey(t *testing.T) {
	mod := time.Unix(1700000000, 0)
	base := Key("/tmp/book.txt", 23, mod, "text")

	assert.Len(t, base, 64)
	assert.Equal(t, base, Key("/tmp/book.txt", 23, mod, "text"))
	assert.NotEqual(t, base, Key("/tmp/book.txt", 24, mod, "text"))
	assert.NotEqual(t, base, Key("/tmp/book.txt", 23, mod.Add(time.Second), "text"))
	assert.NotEqual(t, base, Key("/tmp/book.txt", 23, mod, "html"))
	assert.NotEqual(t, base, Key("/tmp/other.txt", 23, mod, "text"))
}
