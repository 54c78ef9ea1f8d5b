package scanner

import (
	"context"
	"time"
)

// Item is a single feed entry returned by a keyword query.
type Item struct {
	Title     string
	Link      string
	Published *time.Time // nil when the feed carried no parseable date
}

// FeedClient fetches feed items for a keyword query.
type FeedClient interface {
	Fetch(ctx context.Context, keyword string) ([]Item, error)
}

// KeywordResult reports the outcome of scanning one keyword.
type KeywordResult struct {
	Keyword string `json:"keyword"`
	Found   int    `json:"found"`
	Added   int    `json:"added"`
	Error   string `json:"error,omitempty"`
}

// CycleResult aggregates one full pass over all keywords.
type CycleResult struct {
	Results    []KeywordResult `json:"results"`
	TotalAdded int             `json:"totalAdded"`
}
