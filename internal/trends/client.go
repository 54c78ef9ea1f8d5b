// Google Trends client speaking the unofficial JSON API. Responses carry a
// ")]}'" anti-hijacking prefix that must be stripped before decoding.
package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TrendingArticle is a news article attached to a trending search.
type TrendingArticle struct {
	Title  string `json:"title"`
	Source string `json:"source"`
	URL    string `json:"url"`
}

// TrendingSearch is one ranked trending topic.
type TrendingSearch struct {
	Title          string
	Traffic        string
	RelatedQueries []string
	Articles       []TrendingArticle
}

// TrendingDay buckets trending searches by calendar day.
type TrendingDay struct {
	Date     string // YYYYMMDD as reported upstream
	Searches []TrendingSearch
}

// TimelinePoint is one sample of search interest over time.
type TimelinePoint struct {
	Time          string `json:"time"`
	FormattedTime string `json:"formattedTime"`
	Value         []int  `json:"value"`
}

// RankedQuery is a related query with its relative score.
type RankedQuery struct {
	Query string `json:"query"`
	Value int    `json:"value"`
}

// RelatedQueries groups top and rising related queries for a keyword.
type RelatedQueries struct {
	Top    []RankedQuery `json:"top"`
	Rising []RankedQuery `json:"rising"`
}

// Client is the trend data collaborator. Each call fails independently.
type Client interface {
	DailyTrends(ctx context.Context, geo string) ([]TrendingDay, error)
	InterestOverTime(ctx context.Context, keyword, geo string, window time.Duration) ([]TimelinePoint, error)
	RelatedQueries(ctx context.Context, keyword, geo string) (*RelatedQueries, error)
}

const trendsBaseURL = "https://trends.google.com/trends/api"

// GoogleClient implements Client against trends.google.com.
type GoogleClient struct {
	client   *http.Client
	language string
}

func NewGoogleClient(language string) *GoogleClient {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
	}
	return &GoogleClient{
		client:   &http.Client{Timeout: 30 * time.Second, Transport: transport},
		language: language,
	}
}

// getJSON fetches a trends API endpoint, strips the anti-hijacking prefix and
// decodes the remaining JSON into out.
func (c *GoogleClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Newswatch/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error fetching trends: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	// Strip everything before the first brace; the prefix length varies
	// between endpoints ()]}' vs )]}',).
	if idx := strings.IndexByte(string(body), '{'); idx > 0 {
		body = body[idx:]
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error decoding trends payload: %w", err)
	}
	return nil
}

// DailyTrends returns the ranked daily trending searches for a region.
func (c *GoogleClient) DailyTrends(ctx context.Context, geo string) ([]TrendingDay, error) {
	q := url.Values{}
	q.Set("hl", c.language)
	q.Set("tz", "0")
	q.Set("geo", geo)
	q.Set("ns", "15")

	var payload struct {
		Default struct {
			TrendingSearchesDays []struct {
				Date             string `json:"date"`
				TrendingSearches []struct {
					Title struct {
						Query string `json:"query"`
					} `json:"title"`
					FormattedTraffic string `json:"formattedTraffic"`
					RelatedQueries   []struct {
						Query string `json:"query"`
					} `json:"relatedQueries"`
					Articles []TrendingArticle `json:"articles"`
				} `json:"trendingSearches"`
			} `json:"trendingSearchesDays"`
		} `json:"default"`
	}

	if err := c.getJSON(ctx, trendsBaseURL+"/dailytrends?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	days := make([]TrendingDay, 0, len(payload.Default.TrendingSearchesDays))
	for _, d := range payload.Default.TrendingSearchesDays {
		day := TrendingDay{Date: d.Date}
		for _, ts := range d.TrendingSearches {
			search := TrendingSearch{
				Title:    ts.Title.Query,
				Traffic:  ts.FormattedTraffic,
				Articles: ts.Articles,
			}
			for _, rq := range ts.RelatedQueries {
				search.RelatedQueries = append(search.RelatedQueries, rq.Query)
			}
			day.Searches = append(day.Searches, search)
		}
		days = append(days, day)
	}
	return days, nil
}

// exploreWidget carries the per-widget token required by widgetdata calls.
type exploreWidget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

// explore resolves the widget tokens for a keyword. Every widgetdata request
// must present a token minted by this endpoint.
func (c *GoogleClient) explore(ctx context.Context, keyword, geo string, window time.Duration) ([]exploreWidget, error) {
	end := time.Now()
	start := end.Add(-window)
	reqPayload := map[string]any{
		"comparisonItem": []map[string]any{{
			"keyword": keyword,
			"geo":     geo,
			"time":    start.Format("2006-01-02") + " " + end.Format("2006-01-02"),
		}},
		"category": 0,
		"property": "",
	}
	reqJSON, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("hl", c.language)
	q.Set("tz", "0")
	q.Set("req", string(reqJSON))

	var payload struct {
		Widgets []exploreWidget `json:"widgets"`
	}
	if err := c.getJSON(ctx, trendsBaseURL+"/explore?"+q.Encode(), &payload); err != nil {
		return nil, err
	}
	return payload.Widgets, nil
}

func findWidget(widgets []exploreWidget, id string) (exploreWidget, error) {
	for _, w := range widgets {
		if w.ID == id {
			return w, nil
		}
	}
	return exploreWidget{}, fmt.Errorf("widget %s not found", id)
}

// InterestOverTime returns the interest timeline for a keyword over the
// trailing window.
func (c *GoogleClient) InterestOverTime(ctx context.Context, keyword, geo string, window time.Duration) ([]TimelinePoint, error) {
	widgets, err := c.explore(ctx, keyword, geo, window)
	if err != nil {
		return nil, err
	}
	widget, err := findWidget(widgets, "TIMESERIES")
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("hl", c.language)
	q.Set("tz", "0")
	q.Set("req", string(widget.Request))
	q.Set("token", widget.Token)

	var payload struct {
		Default struct {
			TimelineData []TimelinePoint `json:"timelineData"`
		} `json:"default"`
	}
	if err := c.getJSON(ctx, trendsBaseURL+"/widgetdata/multiline?"+q.Encode(), &payload); err != nil {
		return nil, err
	}
	return payload.Default.TimelineData, nil
}

// RelatedQueries returns top and rising related queries for a keyword.
func (c *GoogleClient) RelatedQueries(ctx context.Context, keyword, geo string) (*RelatedQueries, error) {
	widgets, err := c.explore(ctx, keyword, geo, 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	widget, err := findWidget(widgets, "RELATED_QUERIES")
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("hl", c.language)
	q.Set("tz", "0")
	q.Set("req", string(widget.Request))
	q.Set("token", widget.Token)

	var payload struct {
		Default struct {
			RankedList []struct {
				RankedKeyword []struct {
					Query string `json:"query"`
					Value int    `json:"value"`
				} `json:"rankedKeyword"`
			} `json:"rankedList"`
		} `json:"default"`
	}
	if err := c.getJSON(ctx, trendsBaseURL+"/widgetdata/relatedsearches?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	result := &RelatedQueries{}
	for i, list := range payload.Default.RankedList {
		for _, rk := range list.RankedKeyword {
			rq := RankedQuery{Query: rk.Query, Value: rk.Value}
			if i == 0 {
				result.Top = append(result.Top, rq)
			} else {
				result.Rising = append(result.Rising, rq)
			}
		}
	}
	return result, nil
}
