package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
)

const (
	fetchTimeout    = 30 * time.Second
	maxSummaryRunes = 500
)

// Fetcher retrieves syndication feeds and normalizes their entries into
// candidates. A whole-feed failure is logged and yields an empty slice so a
// batch pass over many sources is never aborted by one bad source.
type Fetcher struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		userAgent:    userAgent,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) []Candidate {
	data, err := f.fetchFeed(ctx, url)
	if err != nil {
		slog.Error("Failed to fetch feed", "url", url, "error", err)
		return nil
	}

	candidates, err := f.Parse(data)
	if err != nil {
		slog.Error("Failed to parse feed", "url", url, "error", err)
		return nil
	}

	return candidates
}

// Parse normalizes raw feed data into candidates. Entries are handled
// independently; a malformed entry degrades to whatever fields it carries
// instead of failing the batch.
func (f *Fetcher) Parse(data []byte) ([]Candidate, error) {
	feed, err := f.gofeedParser.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	candidates := make([]Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		candidates = append(candidates, f.normalizeItem(item))
	}

	return candidates, nil
}

func (f *Fetcher) normalizeItem(item *gofeed.Item) Candidate {
	candidate := Candidate{
		Title:       item.Title,
		URL:         item.Link,
		PublishedAt: resolvePublished(item),
		Summary:     truncate(stripHTML(resolveSummary(item)), maxSummaryRunes),
	}

	if raw, err := json.Marshal(item); err == nil {
		candidate.Raw = string(raw)
	}

	return candidate
}

// resolvePublished prefers the structured parsed date and falls back to a
// free-text parse of the raw date string. Never guesses: absent stays absent.
func resolvePublished(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	if item.Published != "" {
		if t, err := dateparse.ParseAny(item.Published); err == nil {
			return &t
		}
	}
	return nil
}

func resolveSummary(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
