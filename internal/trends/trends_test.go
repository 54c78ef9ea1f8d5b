package trends

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"newswatch/internal/database"
)

type fakeClient struct {
	days    []TrendingDay
	err     error
	calls   int
	points  []TimelinePoint
	related *RelatedQueries
}

func (f *fakeClient) DailyTrends(ctx context.Context, geo string) ([]TrendingDay, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.days, nil
}

func (f *fakeClient) InterestOverTime(ctx context.Context, keyword, geo string, window time.Duration) ([]TimelinePoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.points, nil
}

func (f *fakeClient) RelatedQueries(ctx context.Context, keyword, geo string) (*RelatedQueries, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.related, nil
}

func newTestService(t *testing.T, client Client) (*Service, *database.DB) {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), database.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := log.New(io.Discard, "", 0)
	return NewService(db, logger, client, DefaultOptions()), db
}

func sampleDays(date string) []TrendingDay {
	return []TrendingDay{{
		Date: date,
		Searches: []TrendingSearch{
			{
				Title:          "deprem",
				Traffic:        "200K+",
				RelatedQueries: []string{"son depremler", "afad"},
				Articles:       []TrendingArticle{{Title: "Quake hits", Source: "Wire Agency"}},
			},
			{Title: "maç sonucu", Traffic: "50K+"},
		},
	}}
}

func TestGetDailyRefreshesOnEmptyCache(t *testing.T) {
	client := &fakeClient{days: sampleDays(time.Now().Format("20060102"))}
	svc, _ := newTestService(t, client)
	ctx := context.Background()

	got, err := svc.GetDaily(ctx)
	if err != nil {
		t.Fatalf("GetDaily failed: %v", err)
	}
	if client.calls != 1 {
		t.Errorf("Expected 1 client call, got %d", client.calls)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(got))
	}
	if got[0].Title != "deprem" || got[0].Source != "Wire Agency" {
		t.Errorf("First snapshot not mapped: %+v", got[0])
	}
	if got[0].RelatedQueries != "son depremler, afad" {
		t.Errorf("Related queries not joined: %q", got[0].RelatedQueries)
	}
	if got[0].Date != time.Now().Format(dateFormat) {
		t.Errorf("Snapshot date not normalized: %q", got[0].Date)
	}
}

func TestGetDailyServesSameDayFromCache(t *testing.T) {
	client := &fakeClient{days: sampleDays(time.Now().Format("20060102"))}
	svc, _ := newTestService(t, client)
	ctx := context.Background()

	if _, err := svc.GetDaily(ctx); err != nil {
		t.Fatal(err)
	}
	got, err := svc.GetDaily(ctx)
	if err != nil {
		t.Fatalf("Second GetDaily failed: %v", err)
	}
	if client.calls != 1 {
		t.Errorf("Cache hit still called the client: %d calls", client.calls)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 cached snapshots, got %d", len(got))
	}
}

func TestGetDailyYesterdayIsStale(t *testing.T) {
	client := &fakeClient{days: sampleDays(time.Now().Format("20060102"))}
	svc, db := newTestService(t, client)
	ctx := context.Background()

	yesterday := time.Now().AddDate(0, 0, -1).Format(dateFormat)
	err := db.UpsertTrends(ctx, []database.TrendSnapshot{
		{Title: "old topic", Traffic: "10K+", Date: yesterday},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetDaily(ctx)
	if err != nil {
		t.Fatalf("GetDaily failed: %v", err)
	}
	if client.calls != 1 {
		t.Errorf("Stale snapshot did not trigger a refresh: %d calls", client.calls)
	}
	for _, s := range got {
		if s.Title == "old topic" {
			t.Error("Yesterday's snapshot served as today's")
		}
	}
}

func TestRefreshFailureKeepsExistingCache(t *testing.T) {
	client := &fakeClient{err: errors.New("upstream unavailable")}
	svc, db := newTestService(t, client)
	ctx := context.Background()

	today := time.Now().Format(dateFormat)
	err := db.UpsertTrends(ctx, []database.TrendSnapshot{
		{Title: "kept topic", Traffic: "30K+", Date: today},
	})
	if err != nil {
		t.Fatal(err)
	}

	got := svc.Refresh(ctx)
	if len(got) != 0 {
		t.Errorf("Failed refresh returned %d snapshots, want 0", len(got))
	}

	cached, err := db.GetTrendsByDate(ctx, today)
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 1 || cached[0].Title != "kept topic" {
		t.Errorf("Failure disturbed the stored cache: %+v", cached)
	}
}

func TestInterestAndRelatedSwallowErrors(t *testing.T) {
	client := &fakeClient{err: errors.New("quota exceeded")}
	svc, _ := newTestService(t, client)
	ctx := context.Background()

	if points := svc.Interest(ctx, "deprem"); len(points) != 0 {
		t.Errorf("Expected empty timeline on failure, got %d points", len(points))
	}
	related := svc.Related(ctx, "deprem")
	if related == nil || len(related.Top) != 0 || len(related.Rising) != 0 {
		t.Errorf("Expected empty related queries on failure, got %+v", related)
	}
}

func TestNormalizeDate(t *testing.T) {
	today := "2025-03-10"
	tests := []struct {
		raw  string
		want string
	}{
		{"20250309", "2025-03-09"},
		{"2025-03-09", "2025-03-09"},
		{"", today},
		{"not-a-date", today},
	}
	for _, tt := range tests {
		if got := normalizeDate(tt.raw, today); got != tt.want {
			t.Errorf("normalizeDate(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
