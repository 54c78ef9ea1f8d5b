// Scan engine: one sequential pass over all tracked keywords per cycle,
// with link-based deduplication and scan statistics bookkeeping.
package scanner

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"newswatch/internal/database"
)

// ErrScanInProgress is returned when a cycle is requested while another one
// is still running. Cycles are strictly serialized.
var ErrScanInProgress = errors.New("scan already in progress")

// Options controls cycle cadence and throttling.
type Options struct {
	Interval     time.Duration // cadence of scheduled cycles
	KeywordDelay time.Duration // pause between keyword fetches
	FetchTimeout time.Duration // per-keyword fetch deadline
}

// DefaultOptions mirrors the production cadence: a cycle every 10 minutes,
// 500 ms between keyword calls.
func DefaultOptions() Options {
	return Options{
		Interval:     10 * time.Minute,
		KeywordDelay: 500 * time.Millisecond,
		FetchTimeout: 30 * time.Second,
	}
}

// Service owns the scan cycle and its schedule.
type Service struct {
	db     *database.DB
	logger *log.Logger
	client FeedClient
	opts   Options

	mu   sync.Mutex // serializes cycles
	done chan struct{}
}

func NewService(db *database.DB, logger *log.Logger, client FeedClient, opts Options) *Service {
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

// Start launches the periodic scan loop.
func (s *Service) Start() {
	go s.scanLoop()
}

// Stop shuts the loop down. A cycle in flight finishes first.
func (s *Service) Stop() {
	close(s.done)
}

func (s *Service) scanLoop() {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunCycle(context.Background()); err != nil {
				if errors.Is(err, ErrScanInProgress) {
					s.logger.Printf("Skipping scheduled scan: previous cycle still running")
				} else {
					s.logger.Printf("Scheduled scan failed: %v", err)
				}
			}
		case <-s.done:
			s.logger.Printf("Scan service shutting down")
			return
		}
	}
}

// RunCycle performs one full pass over all tracked keywords. A keyword fetch
// failure is recorded in its result and never aborts the cycle. Returns
// ErrScanInProgress when another cycle holds the lock.
func (s *Service) RunCycle(ctx context.Context) (*CycleResult, error) {
	if !s.mu.TryLock() {
		return nil, ErrScanInProgress
	}
	defer s.mu.Unlock()

	keywords, err := s.db.KeywordTexts(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.db.SetScanning(ctx, true); err != nil {
		return nil, err
	}

	result := &CycleResult{Results: make([]KeywordResult, 0, len(keywords))}
	for i, kw := range keywords {
		if i > 0 && s.opts.KeywordDelay > 0 {
			// Deliberate throttle between keyword calls to avoid
			// upstream rate limiting.
			select {
			case <-time.After(s.opts.KeywordDelay):
			case <-ctx.Done():
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		r := s.scanKeyword(ctx, kw)
		result.Results = append(result.Results, r)
		result.TotalAdded += r.Added
	}

	// The closing bookkeeping runs on its own context so a caller that went
	// away mid-cycle cannot leave is_scanning set.
	finishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.db.FinishScan(finishCtx); err != nil {
		return nil, err
	}

	s.logger.Printf("Scan complete: %d keywords, %d new articles", len(keywords), result.TotalAdded)
	return result, nil
}

func (s *Service) scanKeyword(ctx context.Context, keyword string) KeywordResult {
	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	items, err := s.client.Fetch(fetchCtx, keyword)
	if err != nil {
		s.logger.Printf("Scan error for %q: %v", keyword, err)
		return KeywordResult{Keyword: keyword, Error: err.Error()}
	}

	now := time.Now()
	articles := make([]database.Article, 0, len(items))
	for _, item := range items {
		title, source := ParseTitle(item.Title)
		published := now
		if item.Published != nil {
			published = *item.Published
		}
		articles = append(articles, database.Article{
			Title:       title,
			Link:        item.Link,
			Source:      source,
			Keyword:     keyword,
			PublishedAt: published,
		})
	}

	added, err := s.db.InsertArticles(ctx, articles)
	if err != nil {
		s.logger.Printf("Error storing articles for %q: %v", keyword, err)
		return KeywordResult{Keyword: keyword, Found: len(items), Error: err.Error()}
	}

	return KeywordResult{Keyword: keyword, Found: len(items), Added: added}
}
