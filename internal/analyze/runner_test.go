package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/text-analyzer/models"
	"github.com/dtnitsch/text-analyzer/pkg/caching"
	"github.com/dtnitsch/text-analyzer/pkg/db"
	"github.com/dtnitsch/text-analyzer/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestRunner(t *testing.T, source string) (*Runner, *bytes.Buffer) {
	t.Helper()
	cfg := models.DefaultConfig()
	cfg.Source = source
	cfg.Workers = 3
	cfg.BlockSize = 4
	cfg.Format = report.FormatJSON

	var out bytes.Buffer
	return NewRunner(cfg, nil, &out), &out
}

func decode(t *testing.T, out *bytes.Buffer) report.Report {
	t.Helper()
	var rep report.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	return rep
}

func TestRun_TextFile(t *testing.T) {
	path := writeFile(t, "cat.txt", "the Cat sat on the MAT")
	r, out := newTestRunner(t, path)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	got := decode(t, out)
	assert.Equal(t, 6, got.TotalWords)
	assert.Equal(t, 17, got.TotalLetters)
	assert.Equal(t, "the", got.LongestWord)
	assert.Equal(t, "the", got.TopWords[0].Key)
	assert.Equal(t, 2, got.TopWords[0].Count)
	assert.Equal(t, path, got.Source)
	require.NotNil(t, got.Run)
	assert.Equal(t, 3, got.Run.Workers)
	assert.Equal(t, int64(22), got.Run.BytesRead)
	assert.False(t, got.Run.Cached)
	assert.Equal(t, rep.TotalWords, got.TotalWords)
}

func TestRun_Progress(t *testing.T) {
	path := writeFile(t, "cat.txt", "the Cat sat on the MAT")
	r, _ := newTestRunner(t, path)

	var progress bytes.Buffer
	r.Progress = &progress

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, progress.String(), "Analyzed 100.00% of file")

	progress.Reset()
	r.Config.NoProgress = true
	_, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, progress.String())
}

func TestRun_Cache(t *testing.T) {
	path := writeFile(t, "cat.txt", "the Cat sat on the MAT")
	cache, err := caching.NewCache(filepath.Join(t.TempDir(), "results.db"), time.Hour)
	require.NoError(t, err)
	defer cache.Close()

	r, out := newTestRunner(t, path)
	r.Cache = cache

	first, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, first.Run.Cached)
	assert.Equal(t, r.Config.Workers, first.Run.Workers)

	out.Reset()
	second, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Run.Cached)
	assert.Zero(t, second.Run.Workers)
	assert.Zero(t, second.Run.BlockSize)
	assert.NotContains(t, out.String(), `"workers"`)
	assert.Equal(t, first.TotalWords, second.TotalWords)
	assert.Equal(t, first.TopWords, second.TopWords)

	// a changed file misses the cache
	require.NoError(t, os.WriteFile(path, []byte("a different text entirely"), 0644))
	third, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, third.Run.Cached)
	assert.Equal(t, 4, third.TotalWords)
}

func TestRun_HTMLFile(t *testing.T) {
	path := writeFile(t, "page.html", `<html><head><script>var hidden = 1;</script></head>
<body><p>Alpha beta</p><p>gamma</p></body></html>`)
	r, out := newTestRunner(t, path)

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	got := decode(t, out)
	assert.Equal(t, 3, got.TotalWords)
	assert.Equal(t, "alpha", got.LongestWord)
}

func TestRun_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("call me ishmael"))
	}))
	defer srv.Close()

	r, out := newTestRunner(t, srv.URL+"/moby.txt")
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	got := decode(t, out)
	assert.Equal(t, 3, got.TotalWords)
	assert.Equal(t, "ishmael", got.LongestWord)
	assert.Equal(t, srv.URL+"/moby.txt", got.Source)
}

func TestRun_SaveAndOutputFile(t *testing.T) {
	path := writeFile(t, "cat.txt", "the Cat sat on the MAT")
	database, err := db.OpenPath(":memory:")
	require.NoError(t, err)
	defer database.Close()

	r, _ := newTestRunner(t, path)
	r.DB = database
	r.Config.Save = true
	r.Config.Format = report.FormatYAML
	r.Config.Output = filepath.Join(t.TempDir(), "reports", "cat.yaml")

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Positive(t, rep.Run.ScanID)

	saved, err := database.GetScan(rep.Run.ScanID)
	require.NoError(t, err)
	assert.Equal(t, 6, saved.TotalWords)
	assert.Equal(t, path, saved.SourceName)
	assert.Equal(t, "the:2", saved.TopKeywords[0])

	words, err := database.GetScanWords(rep.Run.ScanID, 0)
	require.NoError(t, err)
	assert.Len(t, words, 5)

	written, err := os.ReadFile(r.Config.Output)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(written), "total_words: 6"))
}

func TestRun_Errors(t *testing.T) {
	r, _ := newTestRunner(t, filepath.Join(t.TempDir(), "missing.txt"))
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	r, _ = newTestRunner(t, "")
	_, err = r.Run(context.Background())
	assert.ErrorContains(t, err, "no source provided")

	r, _ = newTestRunner(t, writeFile(t, "cat.txt", "cat"))
	r.Config.Workers = 0
	_, err = r.Run(context.Background())
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}

func TestRun_Cancelled(t *testing.T) {
	r, _ := newTestRunner(t, writeFile(t, "cat.txt", strings.Repeat("the cat sat ", 1000)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
