package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Cache: CacheConfig{Backend: CacheBackendMemory},
		Prediction: PredictionConfig{
			Weights:          WeightsConfig{Technical: 35, Sentiment: 15, OnChain: 30, Macro: 20},
			BullishThreshold: 60,
			BearishThreshold: 40,
			MaxReasons:       6,
			CacheTTL:         2 * time.Minute,
			MaxBatchSize:     10,
			BatchConcurrency: 4,
		},
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	config, err := Load()
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 30*time.Second, config.Server.ShutdownTimeout)
	assert.Equal(t, "coinlens", config.Database.DBName)
	assert.Equal(t, "localhost", config.Redis.Host)
	assert.Equal(t, 6379, config.Redis.Port)

	assert.Equal(t, CacheBackendRedis, config.Cache.Backend)
	assert.Equal(t, time.Minute, config.Cache.MarketDataTTL)

	assert.Equal(t, WeightsConfig{Technical: 35, Sentiment: 15, OnChain: 30, Macro: 20}, config.Prediction.Weights)
	assert.Equal(t, 100, config.Prediction.Weights.Sum())
	assert.Equal(t, 60, config.Prediction.BullishThreshold)
	assert.Equal(t, 40, config.Prediction.BearishThreshold)
	assert.Equal(t, 6, config.Prediction.MaxReasons)
	assert.Equal(t, 2*time.Minute, config.Prediction.CacheTTL)
	assert.Equal(t, 10, config.Prediction.MaxBatchSize)

	assert.Equal(t, "1d", config.Technical.DefaultTimeframe)
	assert.Equal(t, "https://api.coingecko.com/api/v3", config.Providers.CoinGecko.BaseURL)
	assert.Equal(t, "https://stablecoins.llama.fi", config.Providers.DefiLlama.StablecoinsURL)
	assert.Equal(t, "https://api.llama.fi", config.Providers.DefiLlama.BaseURL)
	assert.Equal(t, 5*time.Second, config.Providers.FearGreed.Timeout)
	assert.Empty(t, config.Providers.Macro.DollarSeries)
	assert.Equal(t, []string{"http://localhost:3000"}, config.Server.AllowedOrigins)
	assert.False(t, config.Telemetry.Enabled)
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("REDIS_HOST", "prod-redis.example.com")
	t.Setenv("CACHE_BACKEND", "POSTGRES")
	t.Setenv("PREDICTION_CACHE_TTL", "5m")
	t.Setenv("PREDICTION_WEIGHTS_TECHNICAL", "40")
	t.Setenv("PREDICTION_WEIGHTS_ON_CHAIN", "25")
	t.Setenv("PROVIDERS_MACRO_ENABLED", "false")
	t.Setenv("FRED_API_KEY", "fred-secret")
	t.Setenv("PROVIDERS_MACRO_DOLLAR_SERIES", "DTWEXBGS")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, "error", config.LogLevel)
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "prod-redis.example.com", config.Redis.Host)
	assert.Equal(t, CacheBackendPostgres, config.Cache.Backend)
	assert.Equal(t, 5*time.Minute, config.Prediction.CacheTTL)
	assert.Equal(t, 40, config.Prediction.Weights.Technical)
	assert.Equal(t, 25, config.Prediction.Weights.OnChain)
	assert.False(t, config.Providers.Macro.Enabled)
	assert.Equal(t, "fred-secret", config.Providers.Macro.APIKey)
	assert.Equal(t, "DTWEXBGS", config.Providers.Macro.DollarSeries)

	flags := config.Providers.Flags()
	assert.False(t, flags.Macro)
	assert.True(t, flags.MarketData)
	assert.True(t, flags.OnChain)
}

func TestLoad_RejectsBadWeights(t *testing.T) {
	t.Setenv("PREDICTION_WEIGHTS_MACRO", "30")

	config, err := Load()
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "sum to 100")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"negative weight", func(c *Config) {
			c.Prediction.Weights = WeightsConfig{Technical: 120, Sentiment: -20}
		}, "non-negative"},
		{"weights off", func(c *Config) { c.Prediction.Weights.Macro = 10 }, "sum to 100"},
		{"inverted thresholds", func(c *Config) {
			c.Prediction.BullishThreshold = 40
			c.Prediction.BearishThreshold = 60
		}, "direction thresholds"},
		{"no reasons", func(c *Config) { c.Prediction.MaxReasons = 0 }, "max reasons"},
		{"zero ttl", func(c *Config) { c.Prediction.CacheTTL = 0 }, "cache ttl"},
		{"huge batch", func(c *Config) { c.Prediction.MaxBatchSize = 500 }, "batch size"},
		{"no concurrency", func(c *Config) { c.Prediction.BatchConcurrency = 0 }, "concurrency"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache backend"},
		{"unknown exporter", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Exporter = "zipkin"
		}, "telemetry exporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProvidersConfig_Flags(t *testing.T) {
	p := ProvidersConfig{
		CoinGecko: ProviderConfig{Enabled: true},
		Klines:    ProviderConfig{Enabled: true},
	}
	assert.Equal(t, FeatureFlags{MarketData: true, Klines: true}, p.Flags())
}
