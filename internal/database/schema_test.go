package database

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := newTestDB(t)

	tables := []string{"keywords", "articles", "saved_articles", "trends", "scan_stats"}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not created: %v", table, err)
		}
	}
}

func TestScanStatsSingleton(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	stats, err := db.GetScanStats(ctx)
	if err != nil {
		t.Fatalf("GetScanStats failed on fresh database: %v", err)
	}
	if stats.ScanCount != 0 {
		t.Errorf("Expected scan_count 0, got %d", stats.ScanCount)
	}
	if stats.IsScanning {
		t.Error("Expected is_scanning false on fresh database")
	}
	if stats.ScanInterval != 10 {
		t.Errorf("Expected default scan_interval 10, got %d", stats.ScanInterval)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM scan_stats").Scan(&count); err != nil {
		t.Fatalf("Counting scan_stats rows failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly one scan_stats row, got %d", count)
	}
}

func TestSeedKeywords(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SeedKeywords(ctx, []string{"Deprem ", "HISSE"}); err != nil {
		t.Fatalf("SeedKeywords failed: %v", err)
	}

	texts, err := db.KeywordTexts(ctx)
	if err != nil {
		t.Fatalf("KeywordTexts failed: %v", err)
	}
	if len(texts) != 2 {
		t.Fatalf("Expected 2 seeded keywords, got %d", len(texts))
	}
	if texts[0] != "deprem" || texts[1] != "hisse" {
		t.Errorf("Seeded keywords not normalized: %v", texts)
	}

	// A non-empty table must not be reseeded.
	if err := db.SeedKeywords(ctx, []string{"toki"}); err != nil {
		t.Fatalf("Second SeedKeywords failed: %v", err)
	}
	texts, _ = db.KeywordTexts(ctx)
	if len(texts) != 2 {
		t.Errorf("Seeding a non-empty table changed it: %v", texts)
	}
}
