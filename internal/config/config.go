package config

import (
	"fmt"
	"strings"
)

// Config 主配置结构体，包含所有功能域的配置
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Upstream   UpstreamConfig   `yaml:"upstream" json:"upstream"`
	Generation GenerationConfig `yaml:"generation" json:"generation"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Security   SecurityConfig   `yaml:"security" json:"security"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" json:"rate_limit"`
	Routing    RoutingConfig    `yaml:"routing" json:"routing"`
	Prompt     PromptConfig     `yaml:"prompt" json:"prompt"`
}

// Clone returns a deep copy; slices are not shared with the receiver.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Upstream.APIKeys = append([]string(nil), c.Upstream.APIKeys...)
	return &out
}

// Credentials returns the configured API keys with blanks removed. The
// result is derived from the snapshot on every call.
func (c *Config) Credentials() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Upstream.APIKeys))
	for _, k := range c.Upstream.APIKeys {
		out = append(out, splitAndTrim(k, ",")...)
	}
	return out
}

// CredentialsConfigured reports whether the key list was supplied at all,
// even if every entry is blank.
func (c *Config) CredentialsConfigured() bool {
	return c != nil && len(c.Upstream.APIKeys) > 0
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.Server.Port), ":")
	if port == "" {
		port = DefaultPort
	}
	return ":" + port
}

// Backend names accepted by INDEX_STORE_BACKEND.
const (
	BackendKVRest   = "kvrest"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongodb"
	BackendMemory   = "memory"
	BackendNone     = "none"
)

// MissingParams lists the connection parameters the selected backend needs
// but does not have.
func (s StorageConfig) MissingParams() []string {
	var missing []string
	switch s.Backend {
	case BackendKVRest:
		if s.KVRestURL == "" {
			missing = append(missing, "KV_REST_API_URL")
		}
		if s.KVRestToken == "" {
			missing = append(missing, "KV_REST_API_TOKEN")
		}
	case BackendRedis:
		if s.RedisAddr == "" {
			missing = append(missing, "REDIS_ADDR")
		}
	case BackendPostgres:
		if s.PostgresDSN == "" {
			missing = append(missing, "POSTGRES_DSN")
		}
	case BackendMongo:
		if s.MongoURI == "" {
			missing = append(missing, "MONGODB_URI")
		}
	}
	return missing
}

func (s StorageConfig) String() string {
	return fmt.Sprintf("backend=%s key=%s", s.Backend, s.IndexKey)
}
