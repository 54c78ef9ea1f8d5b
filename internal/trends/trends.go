// Daily-trends cache with date-based invalidation. Snapshots for the current
// calendar day are served from the store; a miss triggers a refresh from the
// trend client.
package trends

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"newswatch/internal/database"
)

const dateFormat = "2006-01-02"

// interestWindow is the fixed trailing span for interest/related lookups.
const interestWindow = 7 * 24 * time.Hour

// Options controls the refresh schedule and region.
type Options struct {
	Geo          string
	Interval     time.Duration // cadence of scheduled refreshes
	FetchTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Geo:          "TR",
		Interval:     30 * time.Minute,
		FetchTimeout: 30 * time.Second,
	}
}

// Service caches daily trend snapshots and proxies interest queries.
type Service struct {
	db     *database.DB
	logger *log.Logger
	client Client
	opts   Options

	mu   sync.Mutex // serializes refreshes
	done chan struct{}
}

func NewService(db *database.DB, logger *log.Logger, client Client, opts Options) *Service {
	if opts.Interval <= 0 {
		opts.Interval = DefaultOptions().Interval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultOptions().FetchTimeout
	}
	return &Service{
		db:     db,
		logger: logger,
		client: client,
		opts:   opts,
		done:   make(chan struct{}),
	}
}

// Start launches the periodic refresh loop.
func (s *Service) Start() {
	go s.refreshLoop()
}

// Stop shuts the loop down.
func (s *Service) Stop() {
	close(s.done)
}

func (s *Service) refreshLoop() {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Refresh(context.Background())
		case <-s.done:
			s.logger.Printf("Trends service shutting down")
			return
		}
	}
}

// GetDaily returns today's trend snapshots, refreshing from the client only
// when no same-day snapshot exists. A snapshot dated yesterday is stale.
func (s *Service) GetDaily(ctx context.Context) ([]database.TrendSnapshot, error) {
	today := time.Now().Format(dateFormat)
	cached, err := s.db.GetTrendsByDate(ctx, today)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		return cached, nil
	}
	return s.Refresh(ctx), nil
}

// Refresh fetches daily trends for the configured region and upserts each
// entry keyed by (title, date). On any failure it logs and returns an empty
// list; the previous cache stays authoritative until the next success. A
// refresh already in flight makes this call return the current cache.
func (s *Service) Refresh(ctx context.Context) []database.TrendSnapshot {
	if !s.mu.TryLock() {
		today := time.Now().Format(dateFormat)
		cached, err := s.db.GetTrendsByDate(ctx, today)
		if err != nil {
			s.logger.Printf("Trends cache read failed: %v", err)
			return []database.TrendSnapshot{}
		}
		return cached
	}
	defer s.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	days, err := s.client.DailyTrends(fetchCtx, s.opts.Geo)
	if err != nil {
		s.logger.Printf("Trends refresh failed: %v", err)
		return []database.TrendSnapshot{}
	}

	today := time.Now().Format(dateFormat)
	snapshots := make([]database.TrendSnapshot, 0)
	for _, day := range days {
		date := normalizeDate(day.Date, today)
		for _, search := range day.Searches {
			source := ""
			if len(search.Articles) > 0 {
				source = search.Articles[0].Source
			}
			snapshots = append(snapshots, database.TrendSnapshot{
				Title:          search.Title,
				Traffic:        search.Traffic,
				RelatedQueries: strings.Join(search.RelatedQueries, ", "),
				Source:         source,
				Date:           date,
			})
		}
	}

	if err := s.db.UpsertTrends(ctx, snapshots); err != nil {
		s.logger.Printf("Error storing trend snapshots: %v", err)
		return []database.TrendSnapshot{}
	}

	s.logger.Printf("Trends refreshed: %d snapshots for %s", len(snapshots), s.opts.Geo)
	return snapshots
}

// Interest proxies interest-over-time for a keyword across the fixed
// trailing 7-day window. Failures yield an empty timeline, never an error.
func (s *Service) Interest(ctx context.Context, keyword string) []TimelinePoint {
	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	points, err := s.client.InterestOverTime(fetchCtx, keyword, s.opts.Geo, interestWindow)
	if err != nil {
		s.logger.Printf("Interest lookup failed for %q: %v", keyword, err)
		return []TimelinePoint{}
	}
	return points
}

// Related proxies related-queries for a keyword. Failures yield an empty
// structure, never an error.
func (s *Service) Related(ctx context.Context, keyword string) *RelatedQueries {
	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	related, err := s.client.RelatedQueries(fetchCtx, keyword, s.opts.Geo)
	if err != nil {
		s.logger.Printf("Related queries lookup failed for %q: %v", keyword, err)
		return &RelatedQueries{}
	}
	return related
}

// normalizeDate converts the upstream YYYYMMDD day bucket to 2006-01-02,
// falling back to today when absent or unparseable.
func normalizeDate(raw, today string) string {
	if raw == "" {
		return today
	}
	if t, err := time.Parse("20060102", raw); err == nil {
		return t.Format(dateFormat)
	}
	if _, err := time.Parse(dateFormat, raw); err == nil {
		return raw
	}
	return today
}
