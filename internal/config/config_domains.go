package config

import "time"

// ServerConfig 服务器和端点配置
type ServerConfig struct {
	Port     string `yaml:"port" json:"port" env:"PORT"`
	BasePath string `yaml:"base_path" json:"base_path" env:"BASE_PATH"`
}

// UpstreamConfig 上游凭证和提供商配置
type UpstreamConfig struct {
	APIKeys         []string      `yaml:"api_keys" json:"-" env:"GEMINI_API_KEYS" envSeparator:","`
	BaseURL         string        `yaml:"base_url" json:"base_url" env:"GEMINI_BASE_URL"`
	Model           string        `yaml:"model" json:"model" env:"GEMINI_MODEL"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout" env:"UPSTREAM_TIMEOUT"`
	ExhaustedStatus int           `yaml:"exhausted_status" json:"exhausted_status" env:"EXHAUSTED_STATUS"`
}

// GenerationConfig 生成参数
type GenerationConfig struct {
	Temperature     float64 `yaml:"temperature" json:"temperature" env:"GEN_TEMPERATURE"`
	TopP            float64 `yaml:"top_p" json:"top_p" env:"GEN_TOP_P"`
	MaxOutputTokens int     `yaml:"max_output_tokens" json:"max_output_tokens" env:"GEN_MAX_OUTPUT_TOKENS"`
	// SafetySettings is a CATEGORY=THRESHOLD list, comma separated.
	SafetySettings string `yaml:"safety_settings" json:"safety_settings" env:"SAFETY_SETTINGS"`
}

// StorageConfig 轮换索引存储后端配置
type StorageConfig struct {
	Backend        string        `yaml:"backend" json:"backend" env:"INDEX_STORE_BACKEND"`
	IndexKey       string        `yaml:"index_key" json:"index_key" env:"INDEX_KEY"`
	KVRestURL      string        `yaml:"kv_rest_url" json:"kv_rest_url" env:"KV_REST_API_URL"`
	KVRestToken    string        `yaml:"kv_rest_token" json:"-" env:"KV_REST_API_TOKEN"`
	RedisAddr      string        `yaml:"redis_addr" json:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword  string        `yaml:"redis_password" json:"-" env:"REDIS_PASSWORD"`
	RedisDB        int           `yaml:"redis_db" json:"redis_db" env:"REDIS_DB"`
	RedisPrefix    string        `yaml:"redis_prefix" json:"redis_prefix" env:"REDIS_PREFIX"`
	PostgresDSN    string        `yaml:"postgres_dsn" json:"-" env:"POSTGRES_DSN"`
	MongoURI       string        `yaml:"mongodb_uri" json:"-" env:"MONGODB_URI"`
	MongoDatabase  string        `yaml:"mongodb_database" json:"mongodb_database" env:"MONGODB_DATABASE"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout" env:"STORE_TIMEOUT"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout" env:"STORE_CONNECT_TIMEOUT"`
	// Strict turns missing connection parameters into a configuration error
	// instead of degrading to the no-op store.
	Strict bool `yaml:"strict" json:"strict" env:"STRICT_STORE_CONFIG"`
}

// SecurityConfig 安全和管理访问配置
type SecurityConfig struct {
	ManagementKey     string `yaml:"management_key" json:"-" env:"MANAGEMENT_KEY"`
	ManagementKeyHash string `yaml:"management_key_hash" json:"-" env:"MANAGEMENT_KEY_HASH"`
	Debug             bool   `yaml:"debug" json:"debug" env:"DEBUG"`
	LogFile           string `yaml:"log_file" json:"log_file" env:"LOG_FILE"`
	RequestLog        bool   `yaml:"request_log" json:"request_log" env:"REQUEST_LOG"`
}

// RateLimitConfig 入站速率限制配置
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" env:"RATE_LIMIT_ENABLED"`
	RPS     int  `yaml:"rps" json:"rps" env:"RATE_LIMIT_RPS"`
	Burst   int  `yaml:"burst" json:"burst" env:"RATE_LIMIT_BURST"`
}

// RoutingConfig 路由调试配置
type RoutingConfig struct {
	DebugHeaders bool `yaml:"debug_headers" json:"debug_headers" env:"ROUTING_DEBUG_HEADERS"`
}

// PromptConfig 提示词配置
type PromptConfig struct {
	ExemplarsFile string `yaml:"exemplars_file" json:"exemplars_file" env:"PROMPT_EXEMPLARS_FILE"`
}
