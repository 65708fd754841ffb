package main

import (
	"context"
	"errors"

	"essayproxy-go/internal/config"
	"essayproxy-go/internal/events"
	store "essayproxy-go/internal/storage"

	log "github.com/sirupsen/logrus"
)

// openIndexStore connects the configured rotation index backend. Startup
// never fails on the store: a backend that cannot be reached is still
// wrapped fail-open, and missing parameters degrade to the no-op store
// (the strict check is enforced per request by the essay handler).
func openIndexStore(ctx context.Context, cfg *config.Config) (*store.FailOpenStore, func()) {
	backend, err := store.Open(ctx, cfg.Storage)
	fields := log.Fields{"backend": cfg.Storage.Backend, "key": cfg.Storage.IndexKey}
	switch {
	case errors.Is(err, store.ErrMissingConfig):
		entry := log.WithError(err).WithFields(fields)
		if cfg.Storage.Strict {
			entry.Error("index store misconfigured; generation requests will be rejected")
		} else {
			entry.Warn("index store misconfigured; rotation index will not be persisted")
		}
		backend = nil
	case err != nil && backend == nil:
		log.WithError(err).WithFields(fields).Error("index store unavailable; rotation index will not be persisted")
	case err != nil:
		// 连接失败不阻止启动，后续读写按失败放行处理
		log.WithError(err).WithFields(fields).Warn("index store unreachable at startup; continuing fail-open")
	default:
		log.WithFields(fields).Info("index store ready")
	}

	wrapped := store.FailOpen(backend, cfg.Storage.Timeout)
	closeFn := func() {
		if backend == nil {
			return
		}
		if err := backend.Close(); err != nil {
			log.WithError(err).Warn("close index store")
		}
	}
	return wrapped, closeFn
}

// subscribeDebugEvents mirrors rotation and config events into the debug log.
func subscribeDebugEvents(hub *events.Hub, cfg *config.Config) {
	if hub == nil || cfg == nil || !cfg.Security.Debug {
		return
	}
	hub.Subscribe(events.TopicAll, func(_ context.Context, evt events.Event) {
		log.WithField("topic", evt.Topic).Debugf("event: %v", evt.Payload)
	})
}
