// Database schema and initialization for newswatch.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const Schema = `
-- Tracked keyword queries
CREATE TABLE IF NOT EXISTS keywords (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    keyword TEXT UNIQUE NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Ingested articles, deduplicated by link
CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    link TEXT UNIQUE NOT NULL,
    source TEXT,
    keyword TEXT NOT NULL,
    published_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Bookmarked articles, at most one per article
CREATE TABLE IF NOT EXISTS saved_articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    article_id INTEGER UNIQUE NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE
);

-- Daily trend snapshots, one row per (title, date)
CREATE TABLE IF NOT EXISTS trends (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    traffic TEXT,
    related_queries TEXT,
    source TEXT,
    date TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(title, date)
);

-- Singleton scan statistics row (id = 1)
CREATE TABLE IF NOT EXISTS scan_stats (
    id INTEGER PRIMARY KEY DEFAULT 1,
    scan_count INTEGER NOT NULL DEFAULT 0,
    last_scan_time TIMESTAMP,
    is_scanning INTEGER NOT NULL DEFAULT 0,
    scan_interval INTEGER NOT NULL DEFAULT 10
);`

const Indexes = `
CREATE INDEX IF NOT EXISTS idx_articles_keyword ON articles(keyword);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);
CREATE INDEX IF NOT EXISTS idx_articles_created ON articles(created_at);
CREATE INDEX IF NOT EXISTS idx_trends_date ON trends(date);
CREATE INDEX IF NOT EXISTS idx_saved_created ON saved_articles(created_at DESC);`

// DB wraps the sql connection with typed query methods.
type DB struct {
	*sql.DB
}

// Config holds connection pool settings.
type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns the default database configuration.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// NewDB opens the database, applies pragmas and creates the schema.
func NewDB(dbPath string, cfg Config) (*DB, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=ON&_synchronous=NORMAL",
		dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating schema: %w", err)
	}

	return &DB{db}, nil
}

func createSchema(db *sql.DB) error {
	if _, err := db.Exec(`
        PRAGMA journal_mode=WAL;
        PRAGMA synchronous=NORMAL;
        PRAGMA cache_size=10000;
        PRAGMA temp_store=MEMORY;
    `); err != nil {
		return fmt.Errorf("error setting pragmas: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing schema: %w", err)
	}

	if _, err := db.Exec(Indexes); err != nil {
		return fmt.Errorf("error creating indexes: %w", err)
	}

	// The scan_stats singleton must exist before the first cycle runs.
	if err := initScanStats(db); err != nil {
		return fmt.Errorf("error initializing scan stats: %w", err)
	}

	return nil
}

func initScanStats(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM scan_stats WHERE id = 1").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		_, err := db.Exec(
			"INSERT INTO scan_stats (id, scan_count, is_scanning, scan_interval) VALUES (1, 0, 0, 10)")
		return err
	}
	return nil
}

// SeedKeywords inserts the given keywords if the keywords table is empty.
// Used at startup so a fresh install has something to scan.
func (db *DB) SeedKeywords(ctx context.Context, keywords []string) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM keywords").Scan(&count); err != nil {
		return err
	}
	if count > 0 || len(keywords) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO keywords (keyword) VALUES (?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, kw := range keywords {
		if _, err := stmt.ExecContext(ctx, NormalizeKeyword(kw)); err != nil {
			return fmt.Errorf("error seeding keyword %q: %w", kw, err)
		}
	}

	return tx.Commit()
}
