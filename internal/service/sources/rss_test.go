package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	xhttp "CoinPulse/pkg/http"
	"CoinPulse/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordPredictionServed(string)    {}
func (nopMetrics) RecordSourceFetch(string, string) {}
func (nopMetrics) RecordMessageSent(string, string) {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordLastPrice(string, float64)  {}
func (nopMetrics) RecordLatency(string, float64)    {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func rssBody(items ...string) string {
	body := `<?xml version="1.0"?><rss version="2.0"><channel>`
	for _, it := range items {
		body += it
	}
	return body + `</channel></rss>`
}

func rssItemXML(title, pubDate string) string {
	return fmt.Sprintf(
		`<item><title>%s</title><link>https://example.com/a</link><description>d</description><pubDate>%s</pubDate></item>`,
		title, pubDate)
}

func TestRSSFetchParsesAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody(
			rssItemXML("Older story", "Mon, 02 Jan 2026 10:00:00 +0000"),
			rssItemXML("Newer story", "Tue, 03 Jan 2026 10:00:00 +0000"),
		))
	}))
	defer srv.Close()

	f := NewRSSFetcher(xhttp.NewClient(), []string{srv.URL + "/feed"}, testLogger(t), nopMetrics{})
	got := f.Fetch(context.Background())

	if len(got) != 2 {
		t.Fatalf("got %d articles, want 2", len(got))
	}
	if got[0].Title != "Newer story" {
		t.Fatalf("first article = %q, want newest first", got[0].Title)
	}
	if got[0].Published.IsZero() {
		t.Fatalf("pubDate not parsed")
	}
}

func TestRSSFetchDeduplicatesTitles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody(
			rssItemXML("Bitcoin hits 100k", "Mon, 02 Jan 2026 10:00:00 +0000"),
			rssItemXML("BITCOIN HITS 100K", "Mon, 02 Jan 2026 11:00:00 +0000"),
			rssItemXML("", "Mon, 02 Jan 2026 12:00:00 +0000"),
		))
	}))
	defer srv.Close()

	f := NewRSSFetcher(xhttp.NewClient(), []string{srv.URL}, testLogger(t), nopMetrics{})
	got := f.Fetch(context.Background())

	if len(got) != 1 {
		t.Fatalf("got %d articles, want 1 after dedupe and empty-title drop", len(got))
	}
	if got[0].Title != "Bitcoin hits 100k" {
		t.Fatalf("kept %q, want first occurrence", got[0].Title)
	}
}

func TestRSSFetchSkipsFailingFeed(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(bad.Close)
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody(rssItemXML("Only story", "Mon, 02 Jan 2026 10:00:00 +0000")))
	}))
	t.Cleanup(good.Close)

	f := NewRSSFetcher(xhttp.NewClient(), []string{bad.URL, good.URL}, testLogger(t), nopMetrics{})
	got := f.Fetch(context.Background())

	if len(got) != 1 || got[0].Title != "Only story" {
		t.Fatalf("got %+v, want the single good-feed article", got)
	}
}

func TestRSSFetchCapsPerFeedAndTotal(t *testing.T) {
	items := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		items = append(items, rssItemXML(
			fmt.Sprintf("Story %02d", i),
			time.Date(2026, 1, 1, i%24, 0, 0, 0, time.UTC).Format(time.RFC1123Z)))
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody(items...))
	}))
	defer srv.Close()

	f := NewRSSFetcher(xhttp.NewClient(), []string{srv.URL}, testLogger(t), nopMetrics{})
	got := f.Fetch(context.Background())

	if len(got) != perFeedLimit {
		t.Fatalf("got %d articles, want per-feed cap %d", len(got), perFeedLimit)
	}
}

func TestFeedSourceName(t *testing.T) {
	cases := map[string]string{
		"https://www.coindesk.com/arc/outboundfeeds/rss/": "Coindesk",
		"https://cointelegraph.com/rss":                   "Cointelegraph",
		"":                                                "Unknown",
	}
	for feed, want := range cases {
		if got := feedSourceName(feed); got != want {
			t.Errorf("feedSourceName(%q) = %q, want %q", feed, got, want)
		}
	}
}

func TestParsePubDateLayouts(t *testing.T) {
	if parsePubDate("Mon, 02 Jan 2026 10:00:00 +0000").IsZero() {
		t.Fatalf("RFC1123Z not parsed")
	}
	if parsePubDate("2026-01-02T10:00:00Z").IsZero() {
		t.Fatalf("RFC3339 not parsed")
	}
	if !parsePubDate("not a date").IsZero() {
		t.Fatalf("garbage date should yield zero time")
	}
}
