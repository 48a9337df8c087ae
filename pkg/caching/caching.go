package caching

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dtnitsch/text-analyzer/pkg/analytics"
	bolt "go.etcd.io/bbolt"
)

var bucketResults = []byte("results")

// Cache stores finished analysis results in a bbolt file. Entries older
// than ttl are treated as misses.
type Cache struct {
	db  *bolt.DB
	ttl time.Duration
}

type entry struct {
	StoredAt time.Time        `json:"stored_at"`
	Result   analytics.Result `json:"result"`
}

// NewCache opens (or creates) the cache database at path.
// The parent directory will be created if it doesn't exist.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketResults)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &Cache{db: db, ttl: ttl}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Key identifies one version of a source. Any change to size, modification
// time or extraction mode produces a different key.
func Key(path string, size int64, modTime time.Time, mode string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d|%s", path, size, modTime.UnixNano(), mode)))
	return fmt.Sprintf("%x", hash)
}

// Get retrieves a result from the cache.
// It returns the result and true if the entry is found and not expired.
func (c *Cache) Get(key string) (analytics.Result, bool) {
	var data []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketResults).Get([]byte(key)); v != nil {
			// bbolt slices are only valid inside the transaction
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil || data == nil {
		return analytics.Result{}, false // Cache miss
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return analytics.Result{}, false // Cache miss (corrupt entry)
	}

	if c.ttl > 0 && time.Since(e.StoredAt) > c.ttl {
		return analytics.Result{}, false // Cache miss (expired)
	}

	if e.Result.WordFrequency == nil {
		e.Result.WordFrequency = make(map[string]int)
	}
	if e.Result.LetterFrequency == nil {
		e.Result.LetterFrequency = make(map[rune]int)
	}
	return e.Result, true
}

// Set adds a result to the cache, replacing any previous entry for key.
func (c *Cache) Set(key string, res analytics.Result) error {
	data, err := json.Marshal(entry{StoredAt: time.Now(), Result: res})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResults).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Prune deletes every expired entry and returns how many were removed.
func (c *Cache) Prune() (int, error) {
	if c.ttl <= 0 {
		return 0, nil
	}

	removed := 0
	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResults)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var e entry
			if json.Unmarshal(v, &e) != nil || time.Since(e.StoredAt) > c.ttl {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return removed, nil
}
