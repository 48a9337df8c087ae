// Package db keeps the scan history: one row per saved analysis plus its
// word and letter histograms.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultDBName is the history file created beside the executable when no
// --db path is given.
const DefaultDBName = "text-analyzer.db"

const memoryPath = ":memory:"

// DB is the scan history handle. It embeds *sql.DB so callers can run ad hoc
// queries against the scans tables.
type DB struct {
	*sql.DB
	path string
}

func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan history: %w", err)
	}

	// each pooled connection would get its own empty in-memory database
	if dbPath == memoryPath {
		sqlDB.SetMaxOpenConns(1)
	}

	// histograms cascade when their scan is forgotten
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return sqlDB, nil
}

// Open uses the history file beside the running binary, so every working
// directory shares one history.
func Open() (*DB, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	return OpenPath(filepath.Join(filepath.Dir(execPath), DefaultDBName))
}

// OpenPath opens the history at dbPath, creating the file, its directory and
// the scans tables on first use. ":memory:" gives a throwaway history.
func OpenPath(dbPath string) (*DB, error) {
	if dbPath != memoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	sqlDB, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	db := &DB{DB: sqlDB, path: dbPath}
	if err := db.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ensureSchema creates the tables unless the scans table is already there.
func (db *DB) ensureSchema() error {
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'scans'").Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return db.InitSchema()
	case err != nil:
		return fmt.Errorf("failed to inspect scan history: %w", err)
	}
	return nil
}

func (db *DB) Path() string {
	return db.path
}

// InitSchema creates the scans, scan_words and scan_letters tables.
func (db *DB) InitSchema() error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create scan history tables: %w", err)
	}
	return nil
}
