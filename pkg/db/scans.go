package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dtnitsch/text-analyzer/pkg/mapreduce"
)

// ErrScanNotFound is returned when a scan ID has no row.
var ErrScanNotFound = errors.New("scan not found")

// ScanRecord is one stored analysis. Words and Letters are written by
// InsertScan but not loaded by ListScans or GetScan; use GetScanWords and
// GetScanLetters to read the histograms back.
type ScanRecord struct {
	ScanID         int64
	SourceName     string
	ScannedAt      time.Time
	TotalWords     int
	TotalLetters   int
	UniqueWords    int
	LongestWord    string
	SkippedWords   int
	MalformedWords int
	BytesRead      int64
	Workers        int
	BlockSize      int
	Duration       time.Duration
	Language       string
	TopKeywords    []string

	Words   map[string]int
	Letters map[rune]int
}

// InsertScan stores a scan and its histograms in one transaction and returns
// the new scan_id.
func (db *DB) InsertScan(rec ScanRecord) (int64, error) {
	keywords, err := json.Marshal(rec.TopKeywords)
	if err != nil {
		return 0, fmt.Errorf("failed to encode top keywords: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after Commit

	result, err := tx.Exec(`
		INSERT INTO scans (source_name, scanned_at, total_words, total_letters, unique_words,
		                   longest_word, skipped_words, malformed_words, bytes_read,
		                   workers, block_size, duration_ms, language, top_keywords)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.SourceName, rec.ScannedAt.UTC(), rec.TotalWords, rec.TotalLetters, rec.UniqueWords,
		rec.LongestWord, rec.SkippedWords, rec.MalformedWords, rec.BytesRead,
		rec.Workers, rec.BlockSize, rec.Duration.Milliseconds(), nullString(rec.Language), string(keywords))
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan: %w", err)
	}

	scanID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get scan ID: %w", err)
	}

	if len(rec.Words) > 0 {
		stmt, err := tx.Prepare("INSERT INTO scan_words (scan_id, word, count) VALUES (?, ?, ?)")
		if err != nil {
			return 0, fmt.Errorf("failed to prepare word insert: %w", err)
		}
		defer stmt.Close()
		for word, count := range rec.Words {
			if _, err := stmt.Exec(scanID, word, count); err != nil {
				return 0, fmt.Errorf("failed to insert word %q: %w", word, err)
			}
		}
	}

	if len(rec.Letters) > 0 {
		stmt, err := tx.Prepare("INSERT INTO scan_letters (scan_id, letter, count) VALUES (?, ?, ?)")
		if err != nil {
			return 0, fmt.Errorf("failed to prepare letter insert: %w", err)
		}
		defer stmt.Close()
		for letter, count := range rec.Letters {
			if _, err := stmt.Exec(scanID, string(letter), count); err != nil {
				return 0, fmt.Errorf("failed to insert letter %q: %w", letter, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scan: %w", err)
	}
	return scanID, nil
}

const scanColumns = `
	scan_id, source_name, scanned_at, total_words, total_letters, unique_words,
	longest_word, skipped_words, malformed_words, bytes_read,
	workers, block_size, duration_ms, language, top_keywords`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (ScanRecord, error) {
	var rec ScanRecord
	var durationMS int64
	var language, keywords sql.NullString

	err := row.Scan(&rec.ScanID, &rec.SourceName, &rec.ScannedAt, &rec.TotalWords,
		&rec.TotalLetters, &rec.UniqueWords, &rec.LongestWord, &rec.SkippedWords,
		&rec.MalformedWords, &rec.BytesRead, &rec.Workers, &rec.BlockSize,
		&durationMS, &language, &keywords)
	if err != nil {
		return rec, err
	}

	rec.Duration = time.Duration(durationMS) * time.Millisecond
	if language.Valid {
		rec.Language = language.String
	}
	if keywords.Valid && keywords.String != "" {
		if err := json.Unmarshal([]byte(keywords.String), &rec.TopKeywords); err != nil {
			return rec, fmt.Errorf("failed to decode top keywords: %w", err)
		}
	}
	return rec, nil
}

// ListScans retrieves scans ordered by most recent first
func (db *DB) ListScans(limit int) ([]ScanRecord, error) {
	query := "SELECT" + scanColumns + `
		FROM scans
		ORDER BY scanned_at DESC, scan_id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []ScanRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		scans = append(scans, rec)
	}

	return scans, rows.Err()
}

// GetScan retrieves a scan by its ID
func (db *DB) GetScan(scanID int64) (*ScanRecord, error) {
	row := db.QueryRow("SELECT"+scanColumns+" FROM scans WHERE scan_id = ?", scanID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scan %d: %w", scanID, ErrScanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}
	return &rec, nil
}

// GetScanWords returns the most frequent words of a scan. limit <= 0 returns
// all of them.
func (db *DB) GetScanWords(scanID int64, limit int) ([]mapreduce.Entry, error) {
	return db.histogram(`
		SELECT word, count FROM scan_words
		WHERE scan_id = ?
		ORDER BY count DESC, word ASC
	`, scanID, limit)
}

// GetScanLetters returns the most frequent letters of a scan.
func (db *DB) GetScanLetters(scanID int64, limit int) ([]mapreduce.Entry, error) {
	return db.histogram(`
		SELECT letter, count FROM scan_letters
		WHERE scan_id = ?
		ORDER BY count DESC, letter ASC
	`, scanID, limit)
}

func (db *DB) histogram(query string, scanID int64, limit int) ([]mapreduce.Entry, error) {
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query histogram: %w", err)
	}
	defer rows.Close()

	entries := []mapreduce.Entry{}
	for rows.Next() {
		var e mapreduce.Entry
		if err := rows.Scan(&e.Key, &e.Count); err != nil {
			return nil, fmt.Errorf("failed to scan histogram row: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// DeleteScan removes a scan and, through the cascade, its histograms.
func (db *DB) DeleteScan(scanID int64) error {
	result, err := db.Exec("DELETE FROM scans WHERE scan_id = ?", scanID)
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("scan %d: %w", scanID, ErrScanNotFound)
	}
	return nil
}

// KeywordNames extracts the word part of the first limit "word:count"
// keywords.
func KeywordNames(keywords []string, limit int) []string {
	names := []string{}
	for i, kw := range keywords {
		if i >= limit {
			break
		}
		if idx := strings.LastIndex(kw, ":"); idx > 0 {
			names = append(names, kw[:idx])
		}
	}
	return names
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
