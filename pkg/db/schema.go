package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Scans table: one row per finished analysis
CREATE TABLE IF NOT EXISTS scans (
    scan_id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_name TEXT NOT NULL,
    scanned_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

    total_words INTEGER NOT NULL DEFAULT 0,
    total_letters INTEGER NOT NULL DEFAULT 0,
    unique_words INTEGER NOT NULL DEFAULT 0,
    longest_word TEXT NOT NULL DEFAULT '',
    skipped_words INTEGER NOT NULL DEFAULT 0,
    malformed_words INTEGER NOT NULL DEFAULT 0,
    bytes_read INTEGER NOT NULL DEFAULT 0,

    -- How the scan was run
    workers INTEGER NOT NULL DEFAULT 0,
    block_size INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    language TEXT,

    -- Top keywords as JSON array: ["word1:count1", "word2:count2", ...]
    top_keywords TEXT
);

CREATE INDEX IF NOT EXISTS idx_scans_source ON scans(source_name);
CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scans(scanned_at);

-- Full word histogram for each scan
CREATE TABLE IF NOT EXISTS scan_words (
    scan_id INTEGER NOT NULL,
    word TEXT NOT NULL,
    count INTEGER NOT NULL,
    FOREIGN KEY (scan_id) REFERENCES scans(scan_id) ON DELETE CASCADE,
    PRIMARY KEY (scan_id, word)
);

CREATE INDEX IF NOT EXISTS idx_scan_words_count ON scan_words(scan_id, count DESC);

-- Full letter histogram for each scan
CREATE TABLE IF NOT EXISTS scan_letters (
    scan_id INTEGER NOT NULL,
    letter TEXT NOT NULL,
    count INTEGER NOT NULL,
    FOREIGN KEY (scan_id) REFERENCES scans(scan_id) ON DELETE CASCADE,
    PRIMARY KEY (scan_id, letter)
);
`
