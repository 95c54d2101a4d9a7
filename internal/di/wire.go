//go:build wireinject
// +build wireinject

package di

import (
	"CoinPulse/pkg/config"
	"CoinPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisClient,

		// Storage
		ProvidePredictionStore,
		ProvideTradeStore,

		// Persistence pipeline
		ProvidePredictionSink,
		ProvideKafkaConsumer,
		ProvideKafkaPredictionsHandler,
		ProvidePredictionProcessor,
		ProvideSaveQueue,
		ProvideSaver,

		// Caching
		ProvideCacheService,
		ProvidePredictionCache,

		// External sources
		ProvideSourcesClient,
		ProvideLimiter,
		ProvideCooldown,
		ProvideNewsFetcher,
		ProvideMarketData,
		ProvideWhaleWatcher,
		ProvideSocialFetcher,
		ProvideTicker,

		// Model service
		ProvideModelBase,
		ProvideSentimentScorer,
		ProvideEnsemble,
		ProvideSummarizer,

		// Use cases
		ProvidePredictionService,
		ProvideTradeService,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
