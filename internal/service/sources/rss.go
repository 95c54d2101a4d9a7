package sources

import (
	"context"
	"encoding/xml"
	"sort"
	"strings"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	xhttp "CoinPulse/pkg/http"
	"CoinPulse/pkg/logger"
)

const (
	perFeedLimit = 10
	maxArticles  = 20
)

// rssDocument matches the subset of RSS 2.0 the crypto feeds emit.
type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// RSSFetcher pulls crypto headlines from a fixed set of feeds. A failing feed
// is skipped; the fetcher itself never errors.
type RSSFetcher struct {
	client  *xhttp.Client
	feeds   []string
	log     *logger.Logger
	metrics repository.Metrics
}

func NewRSSFetcher(client *xhttp.Client, feeds []string, log *logger.Logger, m repository.Metrics) *RSSFetcher {
	return &RSSFetcher{client: client, feeds: feeds, log: log, metrics: m}
}

// Fetch returns up to 20 unique articles, newest first.
func (f *RSSFetcher) Fetch(ctx context.Context) []models.Article {
	all := make([]models.Article, 0, len(f.feeds)*perFeedLimit)

	for _, feed := range f.feeds {
		items, err := f.fetchFeed(ctx, feed)
		if err != nil {
			f.log.Warn("rss feed fetch failed", logger.String("feed", feed), logger.Error(err))
			f.metrics.RecordSourceFetch("rss", "error")
			continue
		}
		f.metrics.RecordSourceFetch("rss", "ok")

		source := feedSourceName(feed)
		if len(items) > perFeedLimit {
			items = items[:perFeedLimit]
		}
		for _, it := range items {
			all = append(all, models.Article{
				Title:     strings.TrimSpace(it.Title),
				Link:      it.Link,
				Source:    source,
				Summary:   strings.TrimSpace(it.Description),
				Published: parsePubDate(it.PubDate),
			})
		}
	}

	// Dedupe by lowercased title, keeping first occurrence.
	seen := make(map[string]struct{}, len(all))
	unique := all[:0]
	for _, a := range all {
		key := strings.ToLower(strings.TrimSpace(a.Title))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, a)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Published.After(unique[j].Published)
	})

	if len(unique) > maxArticles {
		unique = unique[:maxArticles]
	}
	f.log.Info("rss articles fetched", logger.Int("count", len(unique)))
	return unique
}

func (f *RSSFetcher) fetchFeed(ctx context.Context, feed string) ([]rssItem, error) {
	var raw []byte
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    feed,
	}, &raw)
	if err != nil {
		return nil, err
	}

	var doc rssDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc.Channel.Items, nil
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

func parsePubDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// feedSourceName derives a display name from the feed host.
func feedSourceName(feed string) string {
	host := feed
	if i := strings.Index(host, "//"); i >= 0 {
		host = host[i+2:]
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")
	if i := strings.IndexByte(host, '.'); i >= 0 {
		host = host[:i]
	}
	if host == "" {
		return "Unknown"
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
