package catalog

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Cache persists probe results keyed by (path, size, mtime) so unchanged
// files skip metadata extraction across restarts.
type Cache struct {
	db *sql.DB
}

func OpenCache(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS probed_assets (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mtime INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		fps REAL NOT NULL,
		duration REAL NOT NULL
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Lookup returns the cached metadata for path when size and mtime still
// match the stored row.
func (c *Cache) Lookup(path string, size, mtime int64) (Metadata, bool) {
	var (
		meta             Metadata
		gotSize, gotTime int64
	)
	row := c.db.QueryRow(
		`SELECT size, mtime, width, height, fps, duration FROM probed_assets WHERE path = ?`, path)
	if err := row.Scan(&gotSize, &gotTime, &meta.Width, &meta.Height, &meta.FPS, &meta.Duration); err != nil {
		return Metadata{}, false
	}
	if gotSize != size || gotTime != mtime {
		return Metadata{}, false
	}
	return meta, true
}

// Store upserts the probe result for path.
func (c *Cache) Store(path string, size, mtime int64, meta Metadata) error {
	_, err := c.db.Exec(
		`INSERT INTO probed_assets (path, size, mtime, width, height, fps, duration)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   size = excluded.size, mtime = excluded.mtime,
		   width = excluded.width, height = excluded.height,
		   fps = excluded.fps, duration = excluded.duration`,
		path, size, mtime, meta.Width, meta.Height, meta.FPS, meta.Duration)
	return err
}

func (c *Cache) Close() error {
	return c.db.Close()
}
