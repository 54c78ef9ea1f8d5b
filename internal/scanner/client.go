package scanner

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
)

const userAgent = "Newswatch/1.0"

// GoogleNewsClient queries the Google News RSS search feed.
type GoogleNewsClient struct {
	parser   *gofeed.Parser
	client   *http.Client
	logger   *log.Logger
	language string
	region   string
}

// NewGoogleNewsClient builds a client for the given language/region pair
// (e.g. "tr", "TR").
func NewGoogleNewsClient(logger *log.Logger, language, region string) *GoogleNewsClient {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
	}
	return &GoogleNewsClient{
		parser: gofeed.NewParser(),
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		logger:   logger,
		language: language,
		region:   region,
	}
}

func (c *GoogleNewsClient) searchURL(keyword string) string {
	return fmt.Sprintf("https://news.google.com/rss/search?q=%s&hl=%s&gl=%s&ceid=%s:%s",
		url.QueryEscape(keyword), c.language, c.region, c.region, c.language)
}

// Fetch runs one keyword query and returns the parsed feed items.
func (c *GoogleNewsClient) Fetch(ctx context.Context, keyword string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(keyword), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status %d", resp.StatusCode)
	}

	// Cap the body to avoid huge downloads from a misbehaving upstream.
	const maxFeedBytes = 5 << 20
	feed, err := c.parser.Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("error parsing feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		pub := item.PublishedParsed
		if pub == nil {
			pub = item.UpdatedParsed
		}
		items = append(items, Item{
			Title:     item.Title,
			Link:      item.Link,
			Published: pub,
		})
	}
	return items, nil
}
