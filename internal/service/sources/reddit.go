package sources

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	xhttp "CoinPulse/pkg/http"
	"CoinPulse/pkg/logger"
	"CoinPulse/internal/service/ratelimit"
)

const (
	redditTokenURL = "https://www.reddit.com/api/v1/access_token"
	redditAPIBase  = "https://oauth.reddit.com"
	postsPerSub    = 10
)

var redditSubs = []string{"cryptocurrency", "bitcoin", "cryptomarkets"}

// RedditClient fetches hot posts from the crypto subreddits via the OAuth
// client-credentials flow. Missing credentials, cooldown hits and failures
// return mock posts.
type RedditClient struct {
	client    *xhttp.Client
	clientID  string
	secret    string
	userAgent string
	limiter   *ratelimit.Limiter
	cooldown  *ratelimit.Cooldown
	quiet     time.Duration
	log       *logger.Logger
	metrics   repository.Metrics

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewRedditClient(client *xhttp.Client, clientID, secret, userAgent string, lim *ratelimit.Limiter, cd *ratelimit.Cooldown, quiet time.Duration, log *logger.Logger, m repository.Metrics) *RedditClient {
	return &RedditClient{
		client:    client,
		clientID:  clientID,
		secret:    secret,
		userAgent: userAgent,
		limiter:   lim,
		cooldown:  cd,
		quiet:     quiet,
		log:       log,
		metrics:   m,
	}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title    string `json:"title"`
				SelfText string `json:"selftext"`
				Score    int    `json:"score"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (r *RedditClient) Fetch(ctx context.Context) []models.SocialPost {
	if r.clientID == "" || r.secret == "" {
		r.log.Warn("reddit credentials not configured, using mock data")
		return mockPosts("reddit")
	}
	if r.cooldown.Active("reddit") {
		r.log.Info("reddit cooldown active, using mock data")
		return mockPosts("reddit")
	}

	token, err := r.getToken(ctx)
	if err != nil {
		r.log.Warn("reddit auth failed", logger.Error(err))
		r.metrics.RecordSourceFetch("reddit", "error")
		return mockPosts("reddit")
	}

	posts := make([]models.SocialPost, 0, len(redditSubs)*postsPerSub)
	for _, sub := range redditSubs {
		// 30 requests per minute across all subreddits.
		if err := r.limiter.Wait(ctx, "reddit", 30, 30.0/60.0); err != nil {
			break
		}

		var listing redditListing
		err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    redditAPIBase + "/r/" + sub + "/hot",
			Headers: map[string]string{
				"Authorization": "Bearer " + token,
				"User-Agent":    r.userAgent,
			},
			QueryParams: map[string][]string{
				"limit": {"10"},
			},
		}, &listing)
		if err != nil {
			r.log.Warn("reddit subreddit fetch failed", logger.String("subreddit", sub), logger.Error(err))
			continue
		}

		count := 0
		for _, child := range listing.Data.Children {
			if count >= postsPerSub {
				break
			}
			text := child.Data.SelfText
			if text == "" {
				text = child.Data.Title
			}
			posts = append(posts, models.SocialPost{Text: text, Source: "reddit", Score: child.Data.Score})
			count++
		}
	}

	if len(posts) == 0 {
		r.metrics.RecordSourceFetch("reddit", "error")
		return mockPosts("reddit")
	}

	r.cooldown.Touch("reddit", r.quiet)
	r.metrics.RecordSourceFetch("reddit", "ok")
	r.log.Info("reddit posts fetched", logger.Int("count", len(posts)))
	return posts
}

type redditTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (r *RedditClient) getToken(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accessToken != "" && time.Now().Before(r.tokenExpiry) {
		return r.accessToken, nil
	}

	basic := base64.StdEncoding.EncodeToString([]byte(r.clientID + ":" + r.secret))
	var resp redditTokenResponse
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    redditTokenURL,
		Headers: map[string]string{
			"Authorization": "Basic " + basic,
			"User-Agent":    r.userAgent,
			"Content-Type":  "application/x-www-form-urlencoded",
		},
		Body: map[string]string{"grant_type": "client_credentials"},
	}, &resp)
	if err != nil {
		return "", err
	}

	r.accessToken = resp.AccessToken
	// renew a minute early
	r.tokenExpiry = time.Now().Add(time.Duration(resp.ExpiresIn-60) * time.Second)
	return r.accessToken, nil
}
