package di

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"CoinPulse/internal/domain/repository"
	domsvc "CoinPulse/internal/domain/service"
	"CoinPulse/internal/handler/api"
	internalrepo "CoinPulse/internal/repository"
	"CoinPulse/internal/service/binance"
	svcache "CoinPulse/internal/service/cache"
	svcmetrics "CoinPulse/internal/service/metrics"
	"CoinPulse/internal/service/perplexity"
	"CoinPulse/internal/service/ratelimit"
	"CoinPulse/internal/service/sources"
	"CoinPulse/internal/services/analytics"
	"CoinPulse/internal/usecase"
	pkgcache "CoinPulse/pkg/cache"
	pkgch "CoinPulse/pkg/clickhouse"
	"CoinPulse/pkg/config"
	xhttp "CoinPulse/pkg/http"
	pkgkafka "CoinPulse/pkg/kafka"
	applogger "CoinPulse/pkg/logger"
	"CoinPulse/pkg/metrics"
	"CoinPulse/pkg/queue"
	"CoinPulse/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger. Development gets the console
// format, everything else structured JSON.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	svcmetrics.Register()
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the database
// exists. Table schemas belong to the stores.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvidePredictionStore creates the ClickHouse prediction log.
func ProvidePredictionStore(ch *pkgch.Client, l *applogger.Logger) (repository.PredictionStore, error) {
	store := internalrepo.NewCHPredictionStore(ch, l)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// ProvideTradeStore creates the ClickHouse trade journal.
func ProvideTradeStore(ch *pkgch.Client, l *applogger.Logger) (repository.TradeStore, error) {
	store := internalrepo.NewCHTradeStore(ch, l)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// ProvidePredictionSink creates the Kafka sink. With a ClickHouse backend it
// is nil and the processor writes to the store directly.
func ProvidePredictionSink(cfg *config.Config) (repository.PredictionSink, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaPredictionSink(producer, cfg.Kafka.Topic), nil
}

// ProvideKafkaConsumer creates the consumer that persists predictions from
// the topic. Nil unless the backend is kafka.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaPredictionsHandler registers the handler for the predictions topic.
func ProvideKafkaPredictionsHandler(store repository.PredictionStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaPredictionsHandler {
	return usecase.NewKafkaPredictionsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideRedisClient creates the shared Redis connection, nil when disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideCacheService builds the cache backing the prediction TTL cache:
// layered memory+redis when Redis is enabled, in-process LRU otherwise.
func ProvideCacheService(cfg *config.Config, l *applogger.Logger) pkgcache.Service {
	if cfg.Redis.Enabled {
		host, port := splitHostPort(cfg.Redis.Addr)
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
			pkgcache.WithRedisPrefix("coinpulse"),
		)
		if err == nil {
			return pkgcache.NewLayeredCache(rc,
				pkgcache.WithLayeredMemorySize(cfg.Cache.MaxSize))
		}
		l.Warn("redis cache unavailable, falling back to memory", applogger.Error(err))
	}
	return pkgcache.NewMemoryCache(
		pkgcache.WithMemoryMaxSize(cfg.Cache.MaxSize),
		pkgcache.WithMemoryCleanup(cfg.Cache.CleanupInterval),
	)
}

func splitHostPort(addr string) (string, int) {
	host, portStr, found := strings.Cut(addr, ":")
	if !found {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 6379
	}
	return host, port
}

// ProvidePredictionCache wraps the cache service with the prediction TTL.
func ProvidePredictionCache(svc pkgcache.Service, cfg *config.Config) *svcache.PredictionCache {
	return svcache.NewPredictionCache(svc, cfg.Cache.PredictionTTL)
}

// ProvideSourcesClient is the shared HTTP client for all external sources.
func ProvideSourcesClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Sources.FetchTimeout))
}

func ProvideLimiter() *ratelimit.Limiter   { return ratelimit.New() }
func ProvideCooldown() *ratelimit.Cooldown { return ratelimit.NewCooldown() }

func ProvideNewsFetcher(client *xhttp.Client, cfg *config.Config, l *applogger.Logger, m repository.Metrics) domsvc.NewsFetcher {
	return sources.NewRSSFetcher(client, cfg.Sources.RSSFeeds, l, m)
}

func ProvideMarketData(client *xhttp.Client, cfg *config.Config, l *applogger.Logger, m repository.Metrics) domsvc.MarketDataClient {
	return sources.NewCoinGeckoClient(client, cfg.Sources.CoinGeckoURL, l, m)
}

func ProvideWhaleWatcher(client *xhttp.Client, cfg *config.Config, lim *ratelimit.Limiter, l *applogger.Logger, m repository.Metrics) domsvc.WhaleWatcher {
	return sources.NewWhaleAlertClient(client, cfg.Sources.WhaleAlertURL, cfg.Sources.WhaleAlertKey, cfg.Sources.WhaleMinValue, lim, l, m)
}

func ProvideSocialFetcher(client *xhttp.Client, cfg *config.Config, lim *ratelimit.Limiter, cd *ratelimit.Cooldown, l *applogger.Logger, m repository.Metrics) domsvc.SocialFetcher {
	twitter := sources.NewTwitterClient(client, cfg.Sources.TwitterToken, lim, cd, cfg.Sources.TwitterCooldown, l, m)
	reddit := sources.NewRedditClient(client, cfg.Sources.RedditClientID, cfg.Sources.RedditSecret, cfg.Sources.RedditUserAgent, lim, cd, cfg.Sources.RedditCooldown, l, m)
	return sources.NewSocialAggregator(twitter, reddit)
}

// ProvideModelBase is the shared HTTP base for the model service.
func ProvideModelBase(cfg *config.Config) *analytics.HTTPServiceBase {
	return analytics.NewHTTPServiceBase(cfg)
}

func ProvideSentimentScorer(base *analytics.HTTPServiceBase, l *applogger.Logger, m repository.Metrics) domsvc.SentimentScorer {
	return analytics.NewHTTPSentimentScorer(base, l, m)
}

func ProvideEnsemble(base *analytics.HTTPServiceBase, l *applogger.Logger, m repository.Metrics) domsvc.EnsemblePredictor {
	return analytics.NewEnsembleService(base, analytics.DefaultScorers(base), l, m)
}

func ProvideSummarizer(cfg *config.Config, l *applogger.Logger, m repository.Metrics) domsvc.Summarizer {
	return perplexity.NewClient(
		cfg.Summary.PerplexityKey,
		cfg.Summary.PerplexityURL,
		cfg.Summary.Candidates,
		cfg.Summary.Timeout,
		l, m,
	)
}

// ProvideTicker creates the Binance live price stream, nil when disabled.
func ProvideTicker(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *binance.Ticker {
	if !cfg.Ticker.Enabled {
		return nil
	}
	return binance.NewTicker(
		cfg.Ticker.WebSocketURL,
		cfg.Ticker.Symbols,
		cfg.Ticker.ReconnectDelay,
		cfg.Ticker.PingInterval,
		l, m,
	)
}

func ProvidePredictionProcessor(sink repository.PredictionSink, store repository.PredictionStore, m repository.Metrics, cfg *config.Config) *usecase.PredictionProcessor {
	return usecase.NewPredictionProcessor(sink, store, m, cfg.Backend.Type)
}

// ProvideSaveQueue creates the Redis-backed persistence queue with the save
// job registered. Nil without Redis; the saver then writes directly.
func ProvideSaveQueue(rdb *redis.Client, processor *usecase.PredictionProcessor, l *applogger.Logger) *queue.RedisQueue {
	if rdb == nil {
		return nil
	}
	return queue.NewRedisConsumer(l,
		&queue.QueueConfig{Workers: 2, QueueSize: 100, RetryLimit: 3, RetryDelay: 10 * time.Second},
		rdb,
		[]queue.Job{usecase.NewSavePredictionJob(processor, l)},
	)
}

func ProvideSaver(q *queue.RedisQueue, processor *usecase.PredictionProcessor, l *applogger.Logger) usecase.PredictionSaver {
	if q == nil {
		return usecase.NewDirectPredictionSaver(processor, l)
	}
	return usecase.NewQueuedPredictionSaver(q, processor, l)
}

func ProvidePredictionService(
	pc *svcache.PredictionCache,
	news domsvc.NewsFetcher,
	market domsvc.MarketDataClient,
	whale domsvc.WhaleWatcher,
	social domsvc.SocialFetcher,
	sentiment domsvc.SentimentScorer,
	ensemble domsvc.EnsemblePredictor,
	summarizer domsvc.Summarizer,
	ticker *binance.Ticker,
	saver usecase.PredictionSaver,
	store repository.PredictionStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.PredictionService {
	deps := usecase.PredictionServiceDeps{
		Cache:      pc,
		News:       news,
		Market:     market,
		Whale:      whale,
		Social:     social,
		Sentiment:  sentiment,
		Ensemble:   ensemble,
		Indicators: analytics.NewEngine(),
		Features:   analytics.NewFeatureExtractor(),
		Summarizer: summarizer,
		Saver:      saver,
		Store:      store,
		Metrics:    m,
		Log:        l,
	}
	if ticker != nil {
		deps.LastPrice = ticker
	}
	return usecase.NewPredictionService(deps)
}

func ProvideTradeService(store repository.TradeStore, m repository.Metrics, l *applogger.Logger) *usecase.TradeService {
	return usecase.NewTradeService(store, m, l)
}

// ProvideHTTPHandler builds the route registrar for all feature handlers.
func ProvideHTTPHandler(l *applogger.Logger, predictions *usecase.PredictionService, trades *usecase.TradeService) xhttp.Handler {
	return api.NewRouter(
		api.NewPredictionEchoHandler(l, predictions),
		api.NewTradesEchoHandler(l, trades),
	)
}

// ProvideApp assembles the application server. With Redis available, warn and
// error logs are aggregated and shipped through a publisher-mode queue.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	ticker *binance.Ticker,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaPredictionsHandler,
	saveQueue *queue.RedisQueue,
	processor *usecase.PredictionProcessor,
	chClient *pkgch.Client,
	rdb *redis.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	if rdb != nil {
		publisher := queue.NewRedisPublisher(l, rdb, queue.WithKeyPrefix("coinpulse"))
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "logs.aggregate",
			Publisher:      publisher,
		})
	}
	return server.New(cfg, l, handler, ticker, consumer, kh, saveQueue, processor, chClient)
}
