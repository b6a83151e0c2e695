package ingest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>AI News</title>
    <link>https://example.com</link>
    <item>
      <title>Acme raises $5 million Series A</title>
      <link>https://example.com/acme-series-a</link>
      <pubDate>Mon, 15 Jan 2024 10:30:00 GMT</pubDate>
      <description><![CDATA[<p>Acme, an AI startup, raised <b>$5 million</b>.</p>]]></description>
    </item>
    <item>
      <title>DataCorp launches new model</title>
      <link>https://example.com/datacorp-launch</link>
      <description>DataCorp shipped a new model today.</description>
    </item>
  </channel>
</rss>`

func TestFetcher_Parse(t *testing.T) {
	fetcher := NewFetcher(&http.Client{}, "test-agent")

	candidates, err := fetcher.Parse([]byte(sampleRSS))
	if err != nil {
		t.Fatalf("Unexpected parse error: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.Title != "Acme raises $5 million Series A" {
		t.Errorf("Unexpected title: %q", first.Title)
	}
	if first.URL != "https://example.com/acme-series-a" {
		t.Errorf("Unexpected URL: %q", first.URL)
	}
	if first.PublishedAt == nil {
		t.Fatal("Expected a publish time")
	}
	expected := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(expected) {
		t.Errorf("Expected publish time %v, got %v", expected, first.PublishedAt)
	}
	if first.Raw == "" {
		t.Error("Expected raw entry payload to be kept")
	}
}

func TestFetcher_Parse_StripsHTMLFromSummary(t *testing.T) {
	fetcher := NewFetcher(&http.Client{}, "test-agent")

	candidates, err := fetcher.Parse([]byte(sampleRSS))
	if err != nil {
		t.Fatalf("Unexpected parse error: %v", err)
	}

	summary := candidates[0].Summary
	if strings.Contains(summary, "<") {
		t.Errorf("Expected HTML to be stripped, got %q", summary)
	}
	if !strings.Contains(summary, "$5 million") {
		t.Errorf("Expected text content to survive, got %q", summary)
	}
}

func TestFetcher_Parse_MissingPublishDate(t *testing.T) {
	fetcher := NewFetcher(&http.Client{}, "test-agent")

	candidates, err := fetcher.Parse([]byte(sampleRSS))
	if err != nil {
		t.Fatalf("Unexpected parse error: %v", err)
	}

	if candidates[1].PublishedAt != nil {
		t.Errorf("Expected absent publish time to stay absent, got %v", candidates[1].PublishedAt)
	}
}

func TestFetcher_Parse_TruncatesLongSummary(t *testing.T) {
	long := strings.Repeat("word ", 200)
	feed := `<?xml version="1.0"?><rss version="2.0"><channel><title>T</title><item><title>Item</title><link>https://example.com/a</link><description>` + long + `</description></item></channel></rss>`

	fetcher := NewFetcher(&http.Client{}, "test-agent")
	candidates, err := fetcher.Parse([]byte(feed))
	if err != nil {
		t.Fatalf("Unexpected parse error: %v", err)
	}

	if got := len([]rune(candidates[0].Summary)); got > 500 {
		t.Errorf("Expected summary capped at 500 runes, got %d", got)
	}
}

func TestFetcher_Parse_InvalidData(t *testing.T) {
	fetcher := NewFetcher(&http.Client{}, "test-agent")

	if _, err := fetcher.Parse([]byte("not a feed")); err == nil {
		t.Error("Expected an error for unparseable data")
	}
}

func TestFetcher_Fetch(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent")

	candidates := fetcher.Fetch(t.Context(), server.URL)
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	if gotUserAgent != "test-agent" {
		t.Errorf("Expected configured user agent, got %q", gotUserAgent)
	}
}

func TestFetcher_Fetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test-agent")

	if candidates := fetcher.Fetch(t.Context(), server.URL); candidates != nil {
		t.Errorf("Expected nil candidates on HTTP error, got %d", len(candidates))
	}
}
