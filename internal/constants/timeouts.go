package constants

import "time"

const (
	// UpstreamAttemptTimeout bounds a single generateContent call. It must stay
	// below the caller's own execution budget.
	UpstreamAttemptTimeout = 45 * time.Second
	// IndexStoreTimeout bounds one read or write against the shared index store.
	IndexStoreTimeout = 2 * time.Second
	// IndexStoreConnectTimeout bounds the startup connect/ping retry loop.
	IndexStoreConnectTimeout = 15 * time.Second
	// ConfigPollInterval is used when fsnotify is unavailable.
	ConfigPollInterval = 5 * time.Second
	// ServerShutdownTimeout bounds graceful HTTP server shutdown.
	ServerShutdownTimeout = 30 * time.Second
	// ServerReadHeaderTimeout protects against slowloris clients.
	ServerReadHeaderTimeout = 10 * time.Second
)
