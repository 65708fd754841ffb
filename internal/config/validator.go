package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s=%s]: %s", e.Field, e.Value, e.Message)
}

// ValidationResult holds the results of configuration validation
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
	Valid    bool
}

func (r *ValidationResult) AddError(field, value, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: message})
	r.Valid = false
}

func (r *ValidationResult) AddWarning(field, value, message string) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Value: value, Message: message})
}

// Err joins all errors into one, or returns nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

var validBackends = []string{BackendKVRest, BackendRedis, BackendPostgres, BackendMongo, BackendMemory, BackendNone}

// Validate checks values that cannot be corrected silently. Missing
// credentials and missing store parameters are not errors here: they are
// reported per request so that the service still starts and answers health
// checks.
func (c *Config) Validate() ValidationResult {
	result := ValidationResult{Valid: true}

	if n, err := strconv.Atoi(strings.TrimPrefix(c.Server.Port, ":")); err != nil || n < 1 || n > 65535 {
		result.AddError("port", c.Server.Port, "must be a number between 1 and 65535")
	}

	if !contains(validBackends, c.Storage.Backend) {
		result.AddError("index_store_backend", c.Storage.Backend,
			fmt.Sprintf("must be one of: %s", strings.Join(validBackends, ", ")))
	} else if missing := c.Storage.MissingParams(); len(missing) > 0 {
		result.AddWarning("index_store_backend", c.Storage.Backend,
			fmt.Sprintf("missing %s", strings.Join(missing, ", ")))
	}

	if c.Upstream.ExhaustedStatus != 429 && c.Upstream.ExhaustedStatus != 503 {
		result.AddError("exhausted_status", strconv.Itoa(c.Upstream.ExhaustedStatus), "must be 429 or 503")
	}

	if u, err := url.Parse(c.Upstream.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		result.AddError("gemini_base_url", c.Upstream.BaseURL, "must be an absolute URL")
	}

	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		result.AddError("gen_temperature", fmt.Sprint(c.Generation.Temperature), "must be within [0, 2]")
	}
	if c.Generation.TopP < 0 || c.Generation.TopP > 1 {
		result.AddError("gen_top_p", fmt.Sprint(c.Generation.TopP), "must be within [0, 1]")
	}
	if _, err := ParseSafetySettings(c.Generation.SafetySettings); err != nil {
		result.AddError("safety_settings", c.Generation.SafetySettings, err.Error())
	}

	if len(c.Credentials()) == 0 {
		result.AddWarning("gemini_api_keys", "", "no API keys configured; generation requests will fail")
	}
	if c.Routing.DebugHeaders && !c.Security.Debug {
		result.AddWarning("routing_debug_headers", "true", "ignored unless DEBUG is enabled")
	}

	return result
}

// SafetySetting is one CATEGORY=THRESHOLD pair.
type SafetySetting struct {
	Category  string
	Threshold string
}

// ParseSafetySettings parses "CATEGORY=THRESHOLD,..." into pairs.
func ParseSafetySettings(raw string) ([]SafetySetting, error) {
	var out []SafetySetting
	for _, part := range splitAndTrim(raw, ",") {
		cat, thr, ok := strings.Cut(part, "=")
		cat, thr = strings.TrimSpace(cat), strings.TrimSpace(thr)
		if !ok || cat == "" || thr == "" {
			return nil, fmt.Errorf("invalid safety setting %q, want CATEGORY=THRESHOLD", part)
		}
		out = append(out, SafetySetting{Category: cat, Threshold: thr})
	}
	return out, nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
