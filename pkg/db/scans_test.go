package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dtnitsch/text-analyzer/pkg/mapreduce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database := &DB{path: ":memory:"}
	var err error
	database.DB, err = openDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	t.Cleanup(func() { database.Close() })
	return database
}

func sampleScan(source string, at time.Time) ScanRecord {
	return ScanRecord{
		SourceName:   source,
		ScannedAt:    at,
		TotalWords:   6,
		TotalLetters: 17,
		UniqueWords:  5,
		LongestWord:  "the",
		Workers:      4,
		BlockSize:    1024,
		BytesRead:    23,
		Duration:     1500 * time.Millisecond,
		Language:     "english",
		TopKeywords:  []string{"the:2", "cat:1", "mat:1"},
		Words:        map[string]int{"the": 2, "cat": 1, "sat": 1, "on": 1, "mat": 1},
		Letters:      map[rune]int{'t': 4, 'a': 3, 'h': 2, 'e': 2, 'c': 1, 's': 1, 'o': 1, 'n': 1, 'm': 1},
	}
}

func TestInsertAndGetScan(t *testing.T) {
	db := setupTestDB(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := db.InsertScan(sampleScan("book.txt", at))
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := db.GetScan(id)
	require.NoError(t, err)

	assert.Equal(t, id, got.ScanID)
	assert.Equal(t, "book.txt", got.SourceName)
	assert.True(t, at.Equal(got.ScannedAt), "scanned_at = %v", got.ScannedAt)
	assert.Equal(t, 6, got.TotalWords)
	assert.Equal(t, 17, got.TotalLetters)
	assert.Equal(t, 5, got.UniqueWords)
	assert.Equal(t, "the", got.LongestWord)
	assert.Equal(t, int64(23), got.BytesRead)
	assert.Equal(t, 4, got.Workers)
	assert.Equal(t, 1024, got.BlockSize)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, "english", got.Language)
	assert.Equal(t, []string{"the:2", "cat:1", "mat:1"}, got.TopKeywords)
	assert.Nil(t, got.Words)
}

func TestGetScan_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetScan(42)
	if !errors.Is(err, ErrScanNotFound) {
		t.Fatalf("GetScan(42) error = %v, want ErrScanNotFound", err)
	}
}

func TestGetScanHistograms(t *testing.T) {
	db := setupTestDB(t)

	id, err := db.InsertScan(sampleScan("book.txt", time.Now()))
	require.NoError(t, err)

	words, err := db.GetScanWords(id, 3)
	require.NoError(t, err)
	assert.Equal(t, []mapreduce.Entry{{Key: "the", Count: 2}, {Key: "cat", Count: 1}, {Key: "mat", Count: 1}}, words)

	all, err := db.GetScanWords(id, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	letters, err := db.GetScanLetters(id, 2)
	require.NoError(t, err)
	assert.Equal(t, []mapreduce.Entry{{Key: "t", Count: 4}, {Key: "a", Count: 3}}, letters)

	none, err := db.GetScanWords(id+1, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListScans(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"a.txt", "b.txt", "c.txt"} {
		_, err := db.InsertScan(sampleScan(name, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	scans, err := db.ListScans(0)
	require.NoError(t, err)
	require.Len(t, scans, 3)
	assert.Equal(t, "c.txt", scans[0].SourceName)
	assert.Equal(t, "a.txt", scans[2].SourceName)

	scans, err = db.ListScans(2)
	require.NoError(t, err)
	assert.Len(t, scans, 2)
}

func TestDeleteScan(t *testing.T) {
	db := setupTestDB(t)

	id, err := db.InsertScan(sampleScan("book.txt", time.Now()))
	require.NoError(t, err)

	require.NoError(t, db.DeleteScan(id))

	_, err = db.GetScan(id)
	assert.ErrorIs(t, err, ErrScanNotFound)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM scan_words WHERE scan_id = ?", id).Scan(&count))
	assert.Zero(t, count, "word histogram should cascade")

	assert.ErrorIs(t, db.DeleteScan(id), ErrScanNotFound)
}

func TestInsertScan_EmptyHistograms(t *testing.T) {
	db := setupTestDB(t)

	id, err := db.InsertScan(ScanRecord{SourceName: "empty.txt", ScannedAt: time.Now()})
	require.NoError(t, err)

	got, err := db.GetScan(id)
	require.NoError(t, err)
	assert.Empty(t, got.Language)
	assert.Empty(t, got.TopKeywords)
}

func TestOpenPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "history.db")

	db, err := OpenPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())

	_, err = db.InsertScan(sampleScan("book.txt", time.Now()))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenPath(path)
	require.NoError(t, err)
	defer db.Close()

	scans, err := db.ListScans(10)
	require.NoError(t, err)
	assert.Len(t, scans, 1)
}

func TestOpenPath_Memory(t *testing.T) {
	db, err := OpenPath(":memory:")
	require.NoError(t, err)
	defer db.Close()

	// the schema check must see tables created on the single connection
	require.NoError(t, db.ensureSchema())

	_, err = db.InsertScan(sampleScan("book.txt", time.Now()))
	require.NoError(t, err)

	scans, err := db.ListScans(0)
	require.NoError(t, err)
	assert.Len(t, scans, 1)
}

func TestKeywordNames(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		limit    int
		want     []string
	}{
		{"empty", nil, 3, []string{}},
		{"under limit", []string{"the:2", "cat:1"}, 3, []string{"the", "cat"}},
		{"over limit", []string{"the:2", "cat:1", "mat:1"}, 2, []string{"the", "cat"}},
		{"malformed entry", []string{"nocount", "cat:1"}, 5, []string{"cat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeywordNames(tt.keywords, tt.limit); !assert.Equal(t, tt.want, got) {
				t.Logf("keywords = %v", tt.keywords)
			}
		})
	}
}
