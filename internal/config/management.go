package config

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// ManagementEnabled reports whether any management credential is configured.
func (c *Config) ManagementEnabled() bool {
	return c != nil && (c.Security.ManagementKey != "" || c.Security.ManagementKeyHash != "")
}

// CheckManagementKey verifies whether the provided key matches the configured management credential.
func CheckManagementKey(cfg *Config, candidate string) bool {
	if cfg == nil || candidate == "" {
		return false
	}
	if k := cfg.Security.ManagementKey; k != "" && subtle.ConstantTimeCompare([]byte(candidate), []byte(k)) == 1 {
		return true
	}
	if cfg.Security.ManagementKeyHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(cfg.Security.ManagementKeyHash), []byte(candidate)); err == nil {
			return true
		}
	}
	return false
}

// ManagementKeyValidator returns a closure suitable for middleware
// validation. The snapshot func is consulted on every call so that a
// reloaded key takes effect immediately.
func ManagementKeyValidator(snapshot func() *Config) func(string) bool {
	return func(candidate string) bool {
		return CheckManagementKey(snapshot(), candidate)
	}
}
