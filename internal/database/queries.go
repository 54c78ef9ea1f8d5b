package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Error definitions
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Keyword is a tracked search query.
type Keyword struct {
	ID        int64     `json:"id"`
	Keyword   string    `json:"keyword"`
	CreatedAt time.Time `json:"createdAt"`
}

// Article is a deduplicated feed item surfaced by a keyword query.
type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	Keyword     string    `json:"keyword"`
	PublishedAt time.Time `json:"publishedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SavedArticle is a bookmarked article joined with its article row.
type SavedArticle struct {
	Article
	SavedAt time.Time `json:"savedAt"`
}

// TrendSnapshot is one trending topic tied to a calendar date.
type TrendSnapshot struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Traffic        string    `json:"traffic"`
	RelatedQueries string    `json:"relatedQueries"`
	Source         string    `json:"source"`
	Date           string    `json:"date"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ScanStats is the singleton scan progress row.
type ScanStats struct {
	ScanCount    int       `json:"scanCount"`
	LastScanTime time.Time `json:"lastScanTime"`
	IsScanning   bool      `json:"isScanning"`
	ScanInterval int       `json:"scanInterval"`
}

// KeywordStat aggregates article counts per keyword.
type KeywordStat struct {
	Keyword    string    `json:"keyword"`
	NewsCount  int       `json:"newsCount"`
	LatestNews time.Time `json:"latestNews"`
}

// CountRow is a generic label/count aggregate.
type CountRow struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ArticleStats bundles the aggregate queries behind the stats endpoint.
type ArticleStats struct {
	Total     int        `json:"total"`
	LastHour  int        `json:"lastHour"`
	ByKeyword []CountRow `json:"byKeyword"`
	BySource  []CountRow `json:"bySource"`
	Hourly    []CountRow `json:"hourly"`
	Daily     []CountRow `json:"daily"`
}

const timestampFormat = "2006-01-02 15:04:05"

// NormalizeKeyword applies the canonical keyword form: trimmed and lowercased.
// Suggestion mining must use the same normalization for exclusion to work.
func NormalizeKeyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// AddKeyword inserts a normalized keyword. Returns ErrDuplicate if the
// keyword is already tracked.
func (db *DB) AddKeyword(ctx context.Context, text string) (Keyword, error) {
	normalized := NormalizeKeyword(text)
	if normalized == "" {
		return Keyword{}, errors.New("keyword is empty")
	}

	result, err := db.ExecContext(ctx,
		"INSERT INTO keywords (keyword) VALUES (?)", normalized)
	if err != nil {
		if isUniqueViolation(err) {
			return Keyword{}, ErrDuplicate
		}
		return Keyword{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Keyword{}, err
	}
	return Keyword{ID: id, Keyword: normalized, CreatedAt: time.Now().UTC()}, nil
}

// DeleteKeyword removes a keyword by id.
func (db *DB) DeleteKeyword(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx, "DELETE FROM keywords WHERE id = ?", id)
	return err
}

// GetKeywords returns all keywords, most recent first.
func (db *DB) GetKeywords(ctx context.Context) ([]Keyword, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, keyword, created_at FROM keywords ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keywords []Keyword
	for rows.Next() {
		var k Keyword
		if err := rows.Scan(&k.ID, &k.Keyword, &k.CreatedAt); err != nil {
			return nil, err
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// KeywordTexts returns just the keyword strings, in insertion order.
func (db *DB) KeywordTexts(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT keyword FROM keywords ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

// InsertArticleIfAbsent inserts an article keyed by link. The returned bool
// reports whether a row was actually created; a link collision is a no-op.
func (db *DB) InsertArticleIfAbsent(ctx context.Context, a Article) (bool, error) {
	result, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO articles (title, link, source, keyword, published_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.Title, a.Link, a.Source, a.Keyword, a.PublishedAt.UTC().Format(timestampFormat))
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// InsertArticles inserts a batch of articles in one transaction and returns
// how many rows were actually created after link deduplication.
func (db *DB) InsertArticles(ctx context.Context, articles []Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO articles (title, link, source, keyword, published_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	added := 0
	for _, a := range articles {
		result, err := stmt.ExecContext(ctx,
			a.Title, a.Link, a.Source, a.Keyword, a.PublishedAt.UTC().Format(timestampFormat))
		if err != nil {
			return 0, err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		if rows > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// GetArticles returns articles ordered by publish date, optionally filtered
// by keyword.
func (db *DB) GetArticles(ctx context.Context, keyword string, limit int) ([]Article, error) {
	query := `SELECT id, title, link, source, keyword, published_at, created_at
		FROM articles`
	args := []any{}
	if keyword != "" {
		query += " WHERE keyword = ?"
		args = append(args, keyword)
	}
	query += " ORDER BY published_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Link, &a.Source, &a.Keyword,
			&a.PublishedAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// RecentTitles returns titles of articles created after the given time.
// This is the input window for suggestion mining.
func (db *DB) RecentTitles(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT title FROM articles WHERE created_at > ?",
		since.UTC().Format(timestampFormat))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// SaveArticle bookmarks an article. Returns ErrDuplicate when already saved.
func (db *DB) SaveArticle(ctx context.Context, articleID int64) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO saved_articles (article_id) VALUES (?)", articleID)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// UnsaveArticle removes a bookmark.
func (db *DB) UnsaveArticle(ctx context.Context, articleID int64) error {
	_, err := db.ExecContext(ctx,
		"DELETE FROM saved_articles WHERE article_id = ?", articleID)
	return err
}

// GetSavedArticles returns bookmarked articles, most recently saved first.
func (db *DB) GetSavedArticles(ctx context.Context) ([]SavedArticle, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT a.id, a.title, a.link, a.source, a.keyword, a.published_at,
		        a.created_at, s.created_at
		FROM articles a
		JOIN saved_articles s ON a.id = s.article_id
		ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var saved []SavedArticle
	for rows.Next() {
		var sa SavedArticle
		if err := rows.Scan(&sa.ID, &sa.Title, &sa.Link, &sa.Source, &sa.Keyword,
			&sa.PublishedAt, &sa.CreatedAt, &sa.SavedAt); err != nil {
			return nil, err
		}
		saved = append(saved, sa)
	}
	return saved, rows.Err()
}

// GetTrendsByDate returns trend snapshots for a calendar day (2006-01-02).
func (db *DB) GetTrendsByDate(ctx context.Context, date string) ([]TrendSnapshot, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, title, traffic, related_queries, source, date, created_at
		FROM trends WHERE date = ? ORDER BY created_at DESC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trends []TrendSnapshot
	for rows.Next() {
		var t TrendSnapshot
		if err := rows.Scan(&t.ID, &t.Title, &t.Traffic, &t.RelatedQueries,
			&t.Source, &t.Date, &t.CreatedAt); err != nil {
			return nil, err
		}
		trends = append(trends, t)
	}
	return trends, rows.Err()
}

// UpsertTrends writes a batch of snapshots in one transaction, replacing
// prior rows with the same (title, date).
func (db *DB) UpsertTrends(ctx context.Context, trends []TrendSnapshot) error {
	if len(trends) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trends (title, traffic, related_queries, source, date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(title, date) DO UPDATE SET
		traffic = excluded.traffic,
		related_queries = excluded.related_queries,
		source = excluded.source,
		created_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range trends {
		if _, err := stmt.ExecContext(ctx,
			t.Title, t.Traffic, t.RelatedQueries, t.Source, t.Date); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetScanStats returns the singleton scan statistics row.
func (db *DB) GetScanStats(ctx context.Context) (ScanStats, error) {
	var stats ScanStats
	var isScanning int
	var lastScan sql.NullTime
	err := db.QueryRowContext(ctx,
		`SELECT scan_count, last_scan_time, is_scanning, scan_interval
		FROM scan_stats WHERE id = 1`).
		Scan(&stats.ScanCount, &lastScan, &isScanning, &stats.ScanInterval)
	if err == sql.ErrNoRows {
		return ScanStats{}, ErrNotFound
	}
	if err != nil {
		return ScanStats{}, err
	}
	if lastScan.Valid {
		stats.LastScanTime = lastScan.Time
	}
	stats.IsScanning = isScanning != 0
	return stats, nil
}

// SetScanning flips the in-progress flag on the stats row.
func (db *DB) SetScanning(ctx context.Context, scanning bool) error {
	v := 0
	if scanning {
		v = 1
	}
	_, err := db.ExecContext(ctx,
		"UPDATE scan_stats SET is_scanning = ? WHERE id = 1", v)
	return err
}

// FinishScan clears the flag, increments the cycle count and stamps the
// completion time in a single statement.
func (db *DB) FinishScan(ctx context.Context) error {
	_, err := db.ExecContext(ctx,
		`UPDATE scan_stats SET
		scan_count = scan_count + 1,
		last_scan_time = CURRENT_TIMESTAMP,
		is_scanning = 0
		WHERE id = 1`)
	return err
}

// KeywordStats returns per-keyword article counts with the most recent
// publish timestamp, highest count first.
func (db *DB) KeywordStats(ctx context.Context) ([]KeywordStat, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT keyword, COUNT(*) AS news_count, MAX(published_at) AS latest_news
		FROM articles GROUP BY keyword ORDER BY news_count DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []KeywordStat
	for rows.Next() {
		var s KeywordStat
		// MAX() strips the column's declared type, so the driver hands the
		// timestamp back as a string.
		var latest sql.NullString
		if err := rows.Scan(&s.Keyword, &s.NewsCount, &latest); err != nil {
			return nil, err
		}
		if latest.Valid {
			if t, err := time.Parse(timestampFormat, latest.String); err == nil {
				s.LatestNews = t.UTC()
			}
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// ArticleStats computes the aggregate counters behind the stats endpoint.
func (db *DB) ArticleStats(ctx context.Context) (*ArticleStats, error) {
	stats := &ArticleStats{}

	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&stats.Total)
	if err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM articles WHERE created_at > datetime('now', '-1 hour')").
		Scan(&stats.LastHour)
	if err != nil {
		return nil, err
	}

	stats.ByKeyword, err = db.countRows(ctx,
		`SELECT keyword, COUNT(*) AS count FROM articles
		GROUP BY keyword ORDER BY count DESC`)
	if err != nil {
		return nil, err
	}

	stats.BySource, err = db.countRows(ctx,
		`SELECT source, COUNT(*) AS count FROM articles
		GROUP BY source ORDER BY count DESC LIMIT 15`)
	if err != nil {
		return nil, err
	}

	stats.Hourly, err = db.countRows(ctx,
		`SELECT strftime('%H', published_at) AS hour, COUNT(*) AS count
		FROM articles WHERE published_at > datetime('now', '-24 hours')
		GROUP BY hour ORDER BY hour`)
	if err != nil {
		return nil, err
	}

	stats.Daily, err = db.countRows(ctx,
		`SELECT date(published_at) AS day, COUNT(*) AS count
		FROM articles WHERE published_at > datetime('now', '-7 days')
		GROUP BY day ORDER BY day`)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (db *DB) countRows(ctx context.Context, query string) ([]CountRow, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CountRow, 0)
	for rows.Next() {
		var r CountRow
		if err := rows.Scan(&r.Label, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
