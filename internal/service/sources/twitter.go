package sources

import (
	"context"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	xhttp "CoinPulse/pkg/http"
	"CoinPulse/pkg/logger"
	"CoinPulse/internal/service/ratelimit"
)

const (
	twitterSearchURL = "https://api.twitter.com/2/tweets/search/recent"
	twitterQuery     = "bitcoin OR crypto -is:retweet lang:en"
	tweetLimit       = 10
)

// TwitterClient fetches recent crypto tweets on the free tier. A cooldown
// after each successful fetch suppresses network I/O entirely; cooldown hits
// and all failures return mock posts.
type TwitterClient struct {
	client   *xhttp.Client
	token    string
	limiter  *ratelimit.Limiter
	cooldown *ratelimit.Cooldown
	quiet    time.Duration
	log      *logger.Logger
	metrics  repository.Metrics
}

func NewTwitterClient(client *xhttp.Client, token string, lim *ratelimit.Limiter, cd *ratelimit.Cooldown, quiet time.Duration, log *logger.Logger, m repository.Metrics) *TwitterClient {
	return &TwitterClient{
		client:   client,
		token:    token,
		limiter:  lim,
		cooldown: cd,
		quiet:    quiet,
		log:      log,
		metrics:  m,
	}
}

type tweetSearchResponse struct {
	Data []struct {
		Text          string `json:"text"`
		PublicMetrics struct {
			LikeCount    int `json:"like_count"`
			RetweetCount int `json:"retweet_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

func (t *TwitterClient) Fetch(ctx context.Context) []models.SocialPost {
	if t.token == "" {
		t.log.Warn("twitter bearer token not configured, using mock data")
		return mockPosts("twitter")
	}
	if t.cooldown.Active("twitter") {
		t.log.Info("twitter cooldown active, using mock data")
		return mockPosts("twitter")
	}

	// Free tier: 5 requests per 15 minutes.
	if err := t.limiter.Wait(ctx, "twitter", 5, 5.0/900.0); err != nil {
		return mockPosts("twitter")
	}

	var resp tweetSearchResponse
	err := t.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    twitterSearchURL,
		Headers: map[string]string{
			"Authorization": "Bearer " + t.token,
		},
		QueryParams: map[string][]string{
			"query":        {twitterQuery},
			"max_results":  {"10"},
			"tweet.fields": {"created_at,public_metrics"},
		},
	}, &resp)
	if err != nil {
		t.log.Warn("twitter fetch failed", logger.Error(err))
		t.metrics.RecordSourceFetch("twitter", "error")
		return mockPosts("twitter")
	}

	t.cooldown.Touch("twitter", t.quiet)
	t.metrics.RecordSourceFetch("twitter", "ok")

	posts := make([]models.SocialPost, 0, tweetLimit)
	for _, tw := range resp.Data {
		if len(posts) >= tweetLimit {
			break
		}
		posts = append(posts, models.SocialPost{
			Text:   tw.Text,
			Source: "twitter",
			Score:  tw.PublicMetrics.LikeCount + tw.PublicMetrics.RetweetCount,
		})
	}
	t.log.Info("tweets fetched", logger.Int("count", len(posts)))
	return posts
}

func mockPosts(source string) []models.SocialPost {
	return []models.SocialPost{
		{Text: "Bitcoin holding steady as markets await macro data", Source: source, Mock: true},
		{Text: "Crypto market sentiment mixed amid low volume", Source: source, Mock: true},
	}
}
