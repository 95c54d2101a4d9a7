package sources

import (
	"context"
	"sync"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/service"
)

// SocialAggregator fans out to Twitter and Reddit concurrently and merges the
// results. Either source failing just shrinks the batch.
type SocialAggregator struct {
	fetchers []service.SocialFetcher
}

func NewSocialAggregator(fetchers ...service.SocialFetcher) *SocialAggregator {
	return &SocialAggregator{fetchers: fetchers}
}

func (a *SocialAggregator) Fetch(ctx context.Context) []models.SocialPost {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		merged  []models.SocialPost
	)

	for _, f := range a.fetchers {
		wg.Add(1)
		go func(f service.SocialFetcher) {
			defer wg.Done()
			posts := f.Fetch(ctx)
			mu.Lock()
			merged = append(merged, posts...)
			mu.Unlock()
		}(f)
	}
	wg.Wait()
	return merged
}
