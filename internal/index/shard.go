// Package index persists and queries the per-source inverted index: a
// SQLite FTS5 virtual table over heading-aware fields, scored with BM25
// and field boosts.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// CurrentVersion is bumped whenever the schema or analyzer configuration
// changes incompatibly; an on-disk shard with a different version forces
// a rebuild rather than querying against a stale schema.
const CurrentVersion = 1

// Field boosts applied via the bm25() weight vector: heading_path and
// heading_title outrank content at 3x and 2x.
const (
	headingPathBoost  = 3.0
	headingTitleBoost = 2.0
	contentBoost      = 1.0
)

// Shard is one source's on-disk FTS5 index.
type Shard struct {
	db *sql.DB
}

// Block is one heading block's indexed fields.
type Block struct {
	BlockID      string
	HeadingPath  string
	HeadingTitle string
	Content      string
	Level        int
	LineStart    int
	LineEnd      int
}

const schemaDDL = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;

CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS blocks USING fts5(
	heading_path,
	heading_title,
	content,
	level UNINDEXED,
	line_start UNINDEXED,
	line_end UNINDEXED,
	block_id UNINDEXED,
	tokenize = 'unicode61 remove_diacritics 2'
);
`

// Build creates a fresh shard at dir (typically a staging directory that
// the caller swaps into place atomically) and populates it from blocks.
// It is deterministic: the same blocks always produce the same rows in
// the same order.
func Build(dir string, blocks []Block) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("index: create shard dir: %w", err)
	}
	dbPath := filepath.Join(dir, "shard.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("index: open shard: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("index: init schema: %w", err)
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('version', ?)`, fmt.Sprintf("%d", CurrentVersion)); err != nil {
		return fmt.Errorf("index: stamp version: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO blocks (heading_path, heading_title, content, level, line_start, line_end, block_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range blocks {
		if _, err := stmt.Exec(b.HeadingPath, b.HeadingTitle, b.Content, b.Level, b.LineStart, b.LineEnd, b.BlockID); err != nil {
			return fmt.Errorf("index: insert block %s: %w", b.BlockID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}

// Open opens an existing shard for querying. It returns ErrVersionMismatch
// if the on-disk schema version doesn't match CurrentVersion, so the
// caller can trigger a rebuild instead of serving stale results.
func Open(dir string) (*Shard, error) {
	dbPath := filepath.Join(dir, "shard.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("index: open shard: %w", err)
	}

	var versionStr string
	err = db.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&versionStr)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("index: read shard version: %w", err)
	}
	if versionStr != fmt.Sprintf("%d", CurrentVersion) {
		db.Close()
		return nil, ErrVersionMismatch
	}

	return &Shard{db: db}, nil
}

// Close releases the shard's database handle.
func (s *Shard) Close() error {
	return s.db.Close()
}

// ErrVersionMismatch indicates the on-disk shard was built with a
// different index schema version and must be rebuilt before querying.
var ErrVersionMismatch = fmt.Errorf("index: shard schema version mismatch")

// StampVersionForTest overwrites an open shard's stored schema version,
// for tests that need to simulate an on-disk shard built by an older
// version of blz without waiting on a real CurrentVersion bump.
func StampVersionForTest(s *Shard, version int) error {
	_, err := s.db.Exec(`UPDATE meta SET value = ? WHERE key = 'version'`, fmt.Sprintf("%d", version))
	return err
}
