package storage

import (
	"context"
	"time"

	"essayproxy-go/internal/monitoring"
	"essayproxy-go/internal/monitoring/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// WithInstrumentation wraps a backend with tracing spans and prometheus
// metrics labelled by backend name.
func WithInstrumentation(inner IndexBackend, label string) IndexBackend {
	if inner == nil {
		return nil
	}
	if label == "" {
		label = "unknown"
	}
	return &instrumentedBackend{IndexBackend: inner, label: label}
}

type instrumentedBackend struct {
	IndexBackend
	label string
}

func (i *instrumentedBackend) Get(ctx context.Context) (int, error) {
	var idx int
	err := i.instrument(ctx, "get", func(ctx context.Context) error {
		var innerErr error
		idx, innerErr = i.IndexBackend.Get(ctx)
		return innerErr
	})
	return idx, err
}

func (i *instrumentedBackend) Set(ctx context.Context, idx int) error {
	return i.instrument(ctx, "set", func(ctx context.Context) error {
		return i.IndexBackend.Set(ctx, idx)
	})
}

func (i *instrumentedBackend) Health(ctx context.Context) error {
	return i.instrument(ctx, "health", i.IndexBackend.Health)
}

// Unwrap exposes the wrapped backend.
func (i *instrumentedBackend) Unwrap() IndexBackend { return i.IndexBackend }

func (i *instrumentedBackend) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := tracing.StartSpan(ctx, "storage", "IndexStore."+operation)
	span.SetAttributes(
		attribute.String("storage.backend", i.label),
		attribute.String("storage.operation", operation),
	)
	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)
	result := "ok"
	if err != nil {
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	monitoring.IndexStoreOperations.WithLabelValues(i.label, operation, result).Inc()
	monitoring.IndexStoreLatency.WithLabelValues(i.label, operation).Observe(duration.Seconds())
	return err
}
