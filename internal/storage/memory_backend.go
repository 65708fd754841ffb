package storage

import (
	"context"
	"sync"
)

// MemoryBackend keeps the index in process memory. It is only shared by
// requests served by the same process.
type MemoryBackend struct {
	mu  sync.Mutex
	idx int
	set bool
}

func NewMemoryBackend() *MemoryBackend { return &MemoryBackend{} }

func (m *MemoryBackend) Initialize(context.Context) error { return nil }
func (m *MemoryBackend) Close() error { return nil }
func (m *MemoryBackend) Health(context.Context) error { return nil }

func (m *MemoryBackend) Get(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idx, nil
}

func (m *MemoryBackend) Set(ctx context.Context, idx int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.idx, m.set = idx, true
	m.mu.Unlock()
	return nil
}

// Written reports whether Set has been called at least once.
func (m *MemoryBackend) Written() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set
}

// NoopBackend always reads 0 and drops writes.
type NoopBackend struct{}

func (NoopBackend) Initialize(context.Context) error { return nil }
func (NoopBackend) Close() error { return nil }
func (NoopBackend) Health(context.Context) error { return nil }
func (NoopBackend) Get(context.Context) (int, error) { return 0, nil }
func (NoopBackend) Set(context.Context, int) error { return nil }
