package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"essayproxy-go/internal/config"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

// Build constructs the backend selected by cfg.Backend without connecting.
// Missing connection parameters yield ErrMissingConfig.
func Build(cfg config.StorageConfig) (IndexBackend, error) {
	if missing := cfg.MissingParams(); len(missing) > 0 {
		return nil, fmt.Errorf("%w for %s backend: %s", ErrMissingConfig, cfg.Backend, strings.Join(missing, ", "))
	}
	switch cfg.Backend {
	case config.BackendKVRest:
		return NewKVRestBackend(cfg.KVRestURL, cfg.KVRestToken, cfg.IndexKey, nil), nil
	case config.BackendRedis:
		return NewRedisBackend(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix, cfg.IndexKey), nil
	case config.BackendPostgres:
		return NewPostgresBackend(cfg.PostgresDSN, cfg.IndexKey), nil
	case config.BackendMongo:
		return NewMongoDBBackend(cfg.MongoURI, cfg.MongoDatabase, cfg.IndexKey), nil
	case config.BackendMemory:
		return NewMemoryBackend(), nil
	case config.BackendNone:
		return NoopBackend{}, nil
	default:
		return nil, fmt.Errorf("unsupported index store backend %q", cfg.Backend)
	}
}

// Connect calls Initialize with exponential backoff until it succeeds or
// the connect budget is spent.
func Connect(ctx context.Context, backend IndexBackend, budget time.Duration) error {
	if budget <= 0 {
		budget = 15 * time.Second
	}
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 200 * time.Millisecond
	expo.MaxInterval = 3 * time.Second
	expo.MaxElapsedTime = budget

	label := DetectBackendLabel(backend)
	attempt := 0
	op := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, budget)
		defer cancel()
		err := backend.Initialize(attemptCtx)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"backend": label, "attempt": attempt}).Debug("index store connect failed")
		}
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		return fmt.Errorf("connect %s index store: %w", label, err)
	}
	log.WithFields(log.Fields{"backend": label, "attempts": attempt}).Info("index store connected")
	return nil
}

// Open builds, instruments and connects the configured backend. A connect
// failure is returned together with the usable backend so callers can
// decide to run degraded; every later call goes through the fail-open
// wrapper anyway.
func Open(ctx context.Context, cfg config.StorageConfig) (IndexBackend, error) {
	backend, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	backend = WithInstrumentation(backend, DetectBackendLabel(backend))
	if err := Connect(ctx, backend, cfg.ConnectTimeout); err != nil {
		return backend, err
	}
	return backend, nil
}
