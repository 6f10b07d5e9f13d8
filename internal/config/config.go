package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Prediction  PredictionConfig `mapstructure:"prediction"`
	Technical   TechnicalConfig  `mapstructure:"technical"`
	Providers   ProvidersConfig  `mapstructure:"providers"`
	Telemetry   TelemetryConfig  `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Cache backends.
const (
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
	CacheBackendMemory   = "memory"
	CacheBackendNone     = "none"
)

type CacheConfig struct {
	Backend         string        `mapstructure:"backend"`
	MarketDataTTL   time.Duration `mapstructure:"market_data_ttl"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`

	// ConnectRetries is how many times opening Redis or Postgres is retried at startup.
	ConnectRetries    int           `mapstructure:"connect_retries"`
	ConnectRetryDelay time.Duration `mapstructure:"connect_retry_delay"`
}

type WeightsConfig struct {
	Technical int `mapstructure:"technical"`
	Sentiment int `mapstructure:"sentiment"`
	OnChain   int `mapstructure:"on_chain"`
	Macro     int `mapstructure:"macro"`
}

// Sum returns the total of all weights.
func (w WeightsConfig) Sum() int {
	return w.Technical + w.Sentiment + w.OnChain + w.Macro
}

type PredictionConfig struct {
	Weights          WeightsConfig `mapstructure:"weights"`
	BullishThreshold int           `mapstructure:"bullish_threshold"`
	BearishThreshold int           `mapstructure:"bearish_threshold"`
	MaxReasons       int           `mapstructure:"max_reasons"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	MaxBatchSize     int           `mapstructure:"max_batch_size"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
}

type TechnicalConfig struct {
	DefaultTimeframe string `mapstructure:"default_timeframe"`
	CandleLimit      int    `mapstructure:"candle_limit"`
}

type ProviderConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key" json:"-" yaml:"-"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MacroConfig adds the optional dollar index series to the macro provider.
type MacroConfig struct {
	ProviderConfig `mapstructure:",squash"`
	DollarSeries   string `mapstructure:"dollar_series"`
}

type DefiLlamaConfig struct {
	ProviderConfig `mapstructure:",squash"`
	StablecoinsURL string `mapstructure:"stablecoins_url"`
}

type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRequests      int           `mapstructure:"max_requests"`
}

type ProvidersConfig struct {
	CoinGecko      ProviderConfig  `mapstructure:"coingecko"`
	FearGreed      ProviderConfig  `mapstructure:"fear_greed"`
	Macro          MacroConfig     `mapstructure:"macro"`
	Derivatives    ProviderConfig  `mapstructure:"derivatives"`
	Klines         ProviderConfig  `mapstructure:"klines"`
	DefiLlama      DefiLlamaConfig `mapstructure:"defillama"`
	CircuitBreaker BreakerConfig   `mapstructure:"circuit_breaker"`
}

// FeatureFlags is the per-provider on/off switch handed to the services at startup.
type FeatureFlags struct {
	MarketData  bool `json:"market_data"`
	Sentiment   bool `json:"sentiment"`
	Macro       bool `json:"macro"`
	Derivatives bool `json:"derivatives"`
	Klines      bool `json:"klines"`
	OnChain     bool `json:"on_chain"`
}

// Flags derives the feature flags from the provider configuration.
func (p ProvidersConfig) Flags() FeatureFlags {
	return FeatureFlags{
		MarketData:  p.CoinGecko.Enabled,
		Sentiment:   p.FearGreed.Enabled,
		Macro:       p.Macro.Enabled,
		Derivatives: p.Derivatives.Enabled,
		Klines:      p.Klines.Enabled,
		OnChain:     p.DefiLlama.Enabled,
	}
}

type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	LogExport    bool    `mapstructure:"log_export"`
}

func Load() (*Config, error) {
	// A missing .env file is fine; the environment may already be populated.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("providers.macro.api_key", "FRED_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind FRED_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("providers.coingecko.api_key", "COINGECKO_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind COINGECKO_API_KEY environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)
	config.Cache.Backend = strings.ToLower(config.Cache.Backend)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the invariants the scoring engine and cache layer rely on.
func (c *Config) Validate() error {
	w := c.Prediction.Weights
	if w.Technical < 0 || w.Sentiment < 0 || w.OnChain < 0 || w.Macro < 0 {
		return errors.New("prediction weights must be non-negative")
	}
	if w.Sum() != 100 {
		return fmt.Errorf("prediction weights must sum to 100, got %d", w.Sum())
	}

	p := c.Prediction
	if p.BearishThreshold < 0 || p.BullishThreshold > 100 || p.BearishThreshold >= p.BullishThreshold {
		return fmt.Errorf("invalid direction thresholds: bearish %d, bullish %d", p.BearishThreshold, p.BullishThreshold)
	}
	if p.MaxReasons <= 0 {
		return fmt.Errorf("max reasons must be positive, got %d", p.MaxReasons)
	}
	if p.CacheTTL <= 0 {
		return fmt.Errorf("prediction cache ttl must be positive, got %s", p.CacheTTL)
	}
	if p.MaxBatchSize <= 0 || p.MaxBatchSize > 50 {
		return fmt.Errorf("max batch size must be between 1 and 50, got %d", p.MaxBatchSize)
	}
	if p.BatchConcurrency <= 0 {
		return fmt.Errorf("batch concurrency must be positive, got %d", p.BatchConcurrency)
	}

	switch c.Cache.Backend {
	case CacheBackendRedis, CacheBackendPostgres, CacheBackendMemory, CacheBackendNone:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Exporter {
		case "otlp", "stdout":
		default:
			return fmt.Errorf("unknown telemetry exporter %q", c.Telemetry.Exporter)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	// Environment
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "coinlens")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.database_url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "300s")
	v.SetDefault("database.conn_max_idle_time", "60s")
	v.SetDefault("database.auto_migrate", true)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Cache
	v.SetDefault("cache.backend", CacheBackendRedis)
	v.SetDefault("cache.market_data_ttl", "60s")
	v.SetDefault("cache.write_timeout", "5s")
	v.SetDefault("cache.cleanup_interval", "1m")
	v.SetDefault("cache.connect_retries", 3)
	v.SetDefault("cache.connect_retry_delay", "500ms")

	// Prediction
	v.SetDefault("prediction.weights.technical", 35)
	v.SetDefault("prediction.weights.sentiment", 15)
	v.SetDefault("prediction.weights.on_chain", 30)
	v.SetDefault("prediction.weights.macro", 20)
	v.SetDefault("prediction.bullish_threshold", 60)
	v.SetDefault("prediction.bearish_threshold", 40)
	v.SetDefault("prediction.max_reasons", 6)
	v.SetDefault("prediction.cache_ttl", "2m")
	v.SetDefault("prediction.max_batch_size", 10)
	v.SetDefault("prediction.batch_concurrency", 4)
	v.SetDefault("prediction.request_timeout", "20s")

	// Technical analysis
	v.SetDefault("technical.default_timeframe", "1d")
	v.SetDefault("technical.candle_limit", 250)

	// Providers
	v.SetDefault("providers.coingecko.enabled", true)
	v.SetDefault("providers.coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("providers.coingecko.timeout", "10s")
	v.SetDefault("providers.fear_greed.enabled", true)
	v.SetDefault("providers.fear_greed.base_url", "https://api.alternative.me")
	v.SetDefault("providers.fear_greed.timeout", "5s")
	v.SetDefault("providers.macro.enabled", true)
	v.SetDefault("providers.macro.base_url", "https://api.stlouisfed.org/fred")
	v.SetDefault("providers.macro.timeout", "8s")
	v.SetDefault("providers.macro.dollar_series", "")
	v.SetDefault("providers.derivatives.enabled", true)
	v.SetDefault("providers.derivatives.base_url", "https://fapi.binance.com")
	v.SetDefault("providers.derivatives.timeout", "5s")
	v.SetDefault("providers.klines.enabled", true)
	v.SetDefault("providers.klines.base_url", "https://api.binance.com")
	v.SetDefault("providers.klines.timeout", "8s")
	v.SetDefault("providers.defillama.enabled", true)
	v.SetDefault("providers.defillama.base_url", "https://api.llama.fi")
	v.SetDefault("providers.defillama.stablecoins_url", "https://stablecoins.llama.fi")
	v.SetDefault("providers.defillama.timeout", "8s")
	v.SetDefault("providers.circuit_breaker.failure_threshold", 5)
	v.SetDefault("providers.circuit_breaker.success_threshold", 2)
	v.SetDefault("providers.circuit_breaker.timeout", "30s")
	v.SetDefault("providers.circuit_breaker.max_requests", 3)

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.exporter", "otlp")
	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.service_name", "coinlens-go")
	v.SetDefault("telemetry.sample_rate", 1.0)
	v.SetDefault("telemetry.log_export", false)
}
