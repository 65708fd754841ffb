package config

import "essayproxy-go/internal/constants"

const (
	DefaultPort        = "8080"
	DefaultRedisPrefix = "essayproxy:"
	DefaultMongoDB     = "essayproxy"
)

// Default returns the built-in configuration, the lowest layer of the
// defaults → file → environment precedence chain.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: DefaultPort},
		Upstream: UpstreamConfig{
			BaseURL:         constants.DefaultBaseURL,
			Model:           constants.DefaultModel,
			Timeout:         constants.UpstreamAttemptTimeout,
			ExhaustedStatus: 429,
		},
		Generation: GenerationConfig{
			Temperature:     constants.DefaultTemperature,
			TopP:            constants.DefaultTopP,
			MaxOutputTokens: constants.DefaultMaxOutputTokens,
		},
		Storage: StorageConfig{
			Backend:        BackendKVRest,
			IndexKey:       constants.DefaultIndexKey,
			RedisPrefix:    DefaultRedisPrefix,
			MongoDatabase:  DefaultMongoDB,
			Timeout:        constants.IndexStoreTimeout,
			ConnectTimeout: constants.IndexStoreConnectTimeout,
			Strict:         true,
		},
		Security:  SecurityConfig{RequestLog: true},
		RateLimit: RateLimitConfig{RPS: 2, Burst: 5},
	}
}

func applyZeroDefaults(c *Config) {
	d := Default()
	if c.Upstream.Timeout <= 0 {
		c.Upstream.Timeout = d.Upstream.Timeout
	}
	if c.Storage.Timeout <= 0 {
		c.Storage.Timeout = d.Storage.Timeout
	}
	if c.Storage.ConnectTimeout <= 0 {
		c.Storage.ConnectTimeout = d.Storage.ConnectTimeout
	}
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = d.Upstream.BaseURL
	}
	if c.Upstream.Model == "" {
		c.Upstream.Model = d.Upstream.Model
	}
	if c.Storage.IndexKey == "" {
		c.Storage.IndexKey = d.Storage.IndexKey
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Generation.MaxOutputTokens <= 0 {
		c.Generation.MaxOutputTokens = d.Generation.MaxOutputTokens
	}
	if c.RateLimit.RPS <= 0 {
		c.RateLimit.RPS = d.RateLimit.RPS
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = d.RateLimit.Burst
	}
}
