package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type string `yaml:"type"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Cache struct {
		PredictionTTL   time.Duration `yaml:"prediction_ttl"`
		MaxSize         int           `yaml:"max_size"`
		CleanupInterval time.Duration `yaml:"cleanup_interval"`
	} `yaml:"cache"`
	Sources struct {
		RSSFeeds        []string      `yaml:"rss_feeds"`
		CoinGeckoURL    string        `yaml:"coingecko_url"`
		Coins           []string      `yaml:"coins"`
		HistoryDays     int           `yaml:"history_days"`
		WhaleAlertURL   string        `yaml:"whale_alert_url"`
		WhaleAlertKey   string        `yaml:"whale_alert_key"`
		WhaleMinValue   int64         `yaml:"whale_min_value"`
		TwitterToken    string        `yaml:"twitter_token"`
		TwitterCooldown time.Duration `yaml:"twitter_cooldown"`
		RedditClientID  string        `yaml:"reddit_client_id"`
		RedditSecret    string        `yaml:"reddit_secret"`
		RedditUserAgent string        `yaml:"reddit_user_agent"`
		RedditCooldown  time.Duration `yaml:"reddit_cooldown"`
		FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	} `yaml:"sources"`
	Models struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"models"`
	Summary struct {
		PerplexityKey string        `yaml:"perplexity_key"`
		PerplexityURL string        `yaml:"perplexity_url"`
		Candidates    []string      `yaml:"candidates"`
		Timeout       time.Duration `yaml:"timeout"`
	} `yaml:"summary"`
	Ticker struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"ticker"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// API keys are optional: a source without credentials serves mock data instead
// of failing startup.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("WHALE_ALERT_API_KEY"); v != "" {
		c.Sources.WhaleAlertKey = v
	}
	if v := os.Getenv("TWITTER_BEARER_TOKEN"); v != "" {
		c.Sources.TwitterToken = v
	}
	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		c.Sources.RedditClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		c.Sources.RedditSecret = v
	}
	if v := os.Getenv("PERPLEXITY_API_KEY"); v != "" {
		c.Summary.PerplexityKey = v
	}
	if v := os.Getenv("MODEL_SERVICE_URL"); v != "" {
		c.Models.ServiceURL = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if len(c.Sources.RSSFeeds) == 0 {
		c.Sources.RSSFeeds = []string{
			"https://www.coindesk.com/arc/outboundfeeds/rss/",
			"https://cointelegraph.com/rss",
			"https://cryptonews.com/news/feed/",
		}
	}
	if c.Sources.CoinGeckoURL == "" {
		c.Sources.CoinGeckoURL = "https://api.coingecko.com/api/v3"
	}
	if len(c.Sources.Coins) == 0 {
		c.Sources.Coins = []string{"bitcoin", "ethereum", "solana"}
	}
	if c.Sources.HistoryDays <= 0 {
		c.Sources.HistoryDays = 90
	}
	if c.Sources.WhaleAlertURL == "" {
		c.Sources.WhaleAlertURL = "https://api.whale-alert.io/v1"
	}
	if c.Sources.WhaleMinValue <= 0 {
		c.Sources.WhaleMinValue = 500_000
	}
	if c.Sources.TwitterCooldown <= 0 {
		c.Sources.TwitterCooldown = 15 * time.Minute
	}
	if c.Sources.RedditCooldown <= 0 {
		c.Sources.RedditCooldown = 5 * time.Minute
	}
	if c.Sources.RedditUserAgent == "" {
		c.Sources.RedditUserAgent = "coinpulse_prediction_bot_v1.0"
	}
	if c.Sources.FetchTimeout <= 0 {
		c.Sources.FetchTimeout = 30 * time.Second
	}
	if c.Cache.PredictionTTL <= 0 {
		c.Cache.PredictionTTL = 15 * time.Minute
	}
	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = 1000
	}
	if c.Cache.CleanupInterval <= 0 {
		c.Cache.CleanupInterval = 5 * time.Minute
	}
	if c.Summary.PerplexityURL == "" {
		c.Summary.PerplexityURL = "https://api.perplexity.ai/chat/completions"
	}
	if len(c.Summary.Candidates) == 0 {
		c.Summary.Candidates = []string{"sonar-pro", "sonar-reasoning-pro", "sonar"}
	}
	if c.Summary.Timeout <= 0 {
		c.Summary.Timeout = 15 * time.Second
	}
	if c.Models.Timeout <= 0 {
		c.Models.Timeout = 15 * time.Second
	}
	if c.Ticker.WebSocketURL == "" {
		c.Ticker.WebSocketURL = "wss://stream.binance.com:9443"
	}
	if c.Ticker.ReconnectDelay <= 0 {
		c.Ticker.ReconnectDelay = 5 * time.Second
	}
	if c.Ticker.PingInterval <= 0 {
		c.Ticker.PingInterval = 30 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when backend is kafka")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	return nil
}
