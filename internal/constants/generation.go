package constants

const (
	// DefaultModel 是默认的上游生成模型。
	DefaultModel = "gemini-2.5-pro"
	// DefaultBaseURL 是 Gemini generativelanguage API 的默认地址。
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	DefaultTemperature     = 1.0
	DefaultTopP            = 0.9
	DefaultMaxOutputTokens = 4096

	// DefaultIndexKey is the shared store key holding the rotation index.
	DefaultIndexKey = "current_gemini_key_index"

	// MaxErrorMessageLength caps raw upstream bodies echoed back to callers.
	MaxErrorMessageLength = 200
	// MaxRequestBodyBytes caps inbound request bodies.
	MaxRequestBodyBytes = 1 << 20
)
