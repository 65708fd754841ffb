package storage

import (
	"context"
	"time"

	"essayproxy-go/internal/constants"
	"essayproxy-go/internal/monitoring"

	log "github.com/sirupsen/logrus"
)

// FailOpenStore adapts an errorful IndexBackend to the infallible
// Read/Write contract used by the rotation engine: every call is bounded by
// timeout, a failed read yields 0 and a failed write is dropped. Failures
// are logged and counted, never returned.
type FailOpenStore struct {
	backend IndexBackend
	timeout time.Duration
	label   string
}

// FailOpen wraps backend. A nil backend behaves like NoopBackend.
func FailOpen(backend IndexBackend, timeout time.Duration) *FailOpenStore {
	if backend == nil {
		backend = NoopBackend{}
	}
	if timeout <= 0 {
		timeout = constants.IndexStoreTimeout
	}
	return &FailOpenStore{backend: backend, timeout: timeout, label: DetectBackendLabel(backend)}
}

// Read returns the persisted index, or 0 on any failure.
func (s *FailOpenStore) Read(ctx context.Context) int {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	idx, err := s.backend.Get(ctx)
	if err != nil {
		monitoring.IndexStoreFailOpen.WithLabelValues("read").Inc()
		log.WithError(err).WithField("backend", s.label).Warn("index store read failed, starting from 0")
		return 0
	}
	return idx
}

// Write persists idx on a best-effort basis.
func (s *FailOpenStore) Write(ctx context.Context, idx int) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if err := s.backend.Set(ctx, idx); err != nil {
		monitoring.IndexStoreFailOpen.WithLabelValues("write").Inc()
		log.WithError(err).WithFields(log.Fields{"backend": s.label, "index": idx}).Warn("index store write failed, rotation not persisted")
	}
}

// Backend returns the wrapped backend for management and health checks.
func (s *FailOpenStore) Backend() IndexBackend { return s.backend }

// Label names the underlying backend.
func (s *FailOpenStore) Label() string { return s.label }

// bound detaches from caller cancellation so a write that follows a failed
// attempt still lands, while keeping request-scoped values.
func (s *FailOpenStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
}
