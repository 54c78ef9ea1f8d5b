package suggest

import (
	"context"
	"log"
	"time"

	"newswatch/internal/database"
)

// Result bundles mined candidates with per-keyword article aggregates.
type Result struct {
	Suggestions  []Suggestion           `json:"suggestions"`
	KeywordStats []database.KeywordStat `json:"keywordStats"`
}

// Service runs the miner against the store.
type Service struct {
	db     *database.DB
	logger *log.Logger
	cfg    Config
}

func NewService(db *database.DB, logger *log.Logger, cfg Config) *Service {
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultConfig().TopN
	}
	return &Service{db: db, logger: logger, cfg: cfg}
}

// Suggest mines candidates from titles created within the configured window
// and returns them alongside the per-keyword aggregates.
func (s *Service) Suggest(ctx context.Context) (*Result, error) {
	texts, err := s.db.KeywordTexts(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(texts))
	for _, t := range texts {
		existing[database.NormalizeKeyword(t)] = struct{}{}
	}

	titles, err := s.db.RecentTitles(ctx, time.Now().Add(-s.cfg.Window))
	if err != nil {
		return nil, err
	}

	stats, err := s.db.KeywordStats(ctx)
	if err != nil {
		return nil, err
	}

	return &Result{
		Suggestions:  Mine(titles, existing, s.cfg),
		KeywordStats: stats,
	}, nil
}
