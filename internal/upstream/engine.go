package upstream

import (
	"context"
	"time"

	"essayproxy-go/internal/constants"
	"essayproxy-go/internal/credential"
	apierrors "essayproxy-go/internal/errors"
	"essayproxy-go/internal/events"
	"essayproxy-go/internal/logging"
	"essayproxy-go/internal/monitoring"
	"essayproxy-go/internal/monitoring/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Attempter performs exactly one upstream call with one credential.
type Attempter interface {
	Attempt(ctx context.Context, credential string, payload []byte) Outcome
}

// IndexStore is the infallible view of the shared rotation index.
type IndexStore interface {
	Read(ctx context.Context) int
	Write(ctx context.Context, idx int)
}

// Options tunes an Engine.
type Options struct {
	// AttemptTimeout bounds each attempt individually.
	AttemptTimeout time.Duration
	// ExhaustedStatus is 429 or 503.
	ExhaustedStatus int
	// Model labels metrics.
	Model     string
	Publisher events.Publisher
}

// Engine walks the credential pool starting at the shared index, rotating
// on retryable failures. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	attempter Attempter
	store     IndexStore
	opts      Options
}

func NewEngine(attempter Attempter, store IndexStore, opts Options) *Engine {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = constants.UpstreamAttemptTimeout
	}
	if opts.ExhaustedStatus == 0 {
		opts.ExhaustedStatus = 429
	}
	return &Engine{attempter: attempter, store: store, opts: opts}
}

// FailureClass is the terminal failure category of a run.
type FailureClass int

const (
	FailureConfig FailureClass = iota + 1
	FailureClient
	FailureExhausted
	FailureCanceled
	FailureInternal
)

func (c FailureClass) String() string {
	switch c {
	case FailureConfig:
		return "config"
	case FailureClient:
		return "client_error"
	case FailureExhausted:
		return "exhausted"
	case FailureCanceled:
		return "canceled"
	case FailureInternal:
		return "internal"
	}
	return "unknown"
}

// Failure describes why a run produced no text.
type Failure struct {
	Class   FailureClass
	Status  int
	Message string
}

// APIError maps the failure onto the caller-facing error taxonomy.
func (f *Failure) APIError() *apierrors.APIError {
	switch f.Class {
	case FailureClient:
		return apierrors.Client(f.Status, f.Message)
	case FailureExhausted:
		return apierrors.Exhausted(f.Status)
	case FailureCanceled:
		return apierrors.Canceled()
	case FailureConfig:
		return apierrors.Config("")
	}
	return apierrors.Internal(f.Message)
}

// Attempt records one step of a run.
type Attempt struct {
	Number   int
	Position int
	Outcome  Outcome
	Duration time.Duration
}

// Result is the terminal value of Run. Exactly one of Text (with Failure
// nil) or Failure is meaningful.
type Result struct {
	Text     string
	Failure  *Failure
	Start    int
	Attempts []Attempt
}

func (r Result) OK() bool { return r.Failure == nil }

// LastPosition is the pool position of the final attempt, or -1.
func (r Result) LastPosition() int {
	if len(r.Attempts) == 0 {
		return -1
	}
	return r.Attempts[len(r.Attempts)-1].Position
}

type state int

const (
	stateInit state = iota
	stateAttempting
	stateRotating
	stateSucceeded
	stateShortCircuit
	stateExhausted
	stateCanceled
	stateFailed
)

// Run executes one rotation-retry cycle:
//
//	Init -> Attempting(0) -> Succeeded
//	                      -> ShortCircuit (client error, index untouched)
//	                      -> Rotating -> Attempting(i+1) | Exhausted
//
// The shared index is read once. After every retryable failure the index
// of the next credential is written back, so concurrent runs and the next
// request start on a different key. At most N attempts are made and there
// is no delay between them.
func (e *Engine) Run(ctx context.Context, pool *credential.Pool, payload []byte) (res Result) {
	ctx, span := tracing.StartSpan(ctx, "upstream", "Engine.Run")
	defer func() {
		span.SetAttributes(
			attribute.Int("rotation.pool_size", pool.Size()),
			attribute.Int("rotation.start", res.Start),
			attribute.Int("rotation.attempts", len(res.Attempts)),
		)
		var err error
		if res.Failure != nil {
			err = res.Failure.APIError()
		}
		tracing.EndSpan(span, err)
		e.observeRun(res)
	}()

	logger := log.WithField("request_id", RequestID(ctx))
	n := pool.Size()
	var (
		st      = stateInit
		i       int
		pos     int
		outcome Outcome
	)

	for {
		switch st {
		case stateInit:
			if n == 0 {
				return Result{Failure: &Failure{Class: FailureConfig, Status: 500, Message: "no credentials configured"}}
			}
			if ctx.Err() != nil {
				st = stateCanceled
				continue
			}
			monitoring.CredentialPoolSize.Set(float64(n))
			res.Start = pool.Position(e.store.Read(ctx))
			st = stateAttempting

		case stateAttempting:
			if ctx.Err() != nil {
				st = stateCanceled
				continue
			}
			pos = (res.Start + i) % n
			outcome = e.attempt(ctx, pool, pos, payload, &res)
			logger.WithFields(log.Fields{
				"attempt":    i + 1,
				"position":   pos,
				"credential": pool.Masked(pos),
				"outcome":    outcome.Label(),
				"error_kind": logging.ErrorKind(outcome.Status, outcome.Kind != OutcomeSuccess),
				"status":     outcome.Status,
				"latency_ms": res.Attempts[len(res.Attempts)-1].Duration.Milliseconds(),
			}).Debug("upstream attempt finished")

			switch {
			case outcome.Kind == OutcomeSuccess:
				st = stateSucceeded
			case outcome.Kind == OutcomeClientError:
				st = stateShortCircuit
			case outcome.Kind == OutcomeCanceled:
				st = stateCanceled
			case outcome.Kind.Retryable():
				st = stateRotating
			default:
				st = stateFailed
			}

		case stateRotating:
			next := (pos + 1) % n
			e.store.Write(ctx, next)
			monitoring.RotationAdvancesTotal.Inc()
			e.publish(ctx, events.TopicRotationAdvanced, i, pos, next, n, outcome)
			logger.WithFields(log.Fields{
				"from":    pos,
				"to":      next,
				"outcome": outcome.Label(),
			}).Info("rotating to next credential")
			if i+1 < n {
				i++
				st = stateAttempting
			} else {
				st = stateExhausted
			}

		case stateSucceeded:
			res.Text = outcome.Text
			return res

		case stateShortCircuit:
			e.publish(ctx, events.TopicRotationShortCircuit, i, pos, pos, n, outcome)
			logger.WithFields(log.Fields{"status": outcome.Status, "position": pos}).
				Warn("upstream rejected the request, not rotating")
			res.Failure = &Failure{Class: FailureClient, Status: outcome.Status, Message: outcome.Message}
			return res

		case stateExhausted:
			e.publish(ctx, events.TopicRotationExhausted, i, pos, (pos+1)%n, n, outcome)
			logger.WithFields(log.Fields{"attempts": len(res.Attempts), "pool_size": n}).
				Error("all credentials failed")
			res.Failure = &Failure{Class: FailureExhausted, Status: e.opts.ExhaustedStatus, Message: apierrors.ExhaustedMessage}
			return res

		case stateFailed:
			// unknown outcome kinds never rotate: the index stays where it is
			logger.WithField("outcome", outcome.Label()).Error("unclassified upstream outcome")
			res.Failure = &Failure{Class: FailureInternal, Status: 500, Message: "unclassified upstream outcome"}
			return res

		case stateCanceled:
			logger.WithField("attempts", len(res.Attempts)).Info("request canceled by caller")
			res.Failure = &Failure{Class: FailureCanceled, Status: apierrors.StatusClientClosedRequest, Message: "request canceled"}
			return res
		}
	}
}

// attempt runs one call under its own timeout and normalizes cancellation:
// only the caller's context produces Canceled, an expired attempt timeout
// is a network failure.
func (e *Engine) attempt(ctx context.Context, pool *credential.Pool, pos int, payload []byte, res *Result) Outcome {
	attemptCtx, cancel := context.WithTimeout(ctx, e.opts.AttemptTimeout)
	start := time.Now()
	out := e.attempter.Attempt(attemptCtx, pool.At(pos), payload)
	cancel()
	elapsed := time.Since(start)

	switch {
	case ctx.Err() != nil && out.Kind != OutcomeSuccess:
		out = Canceled()
	case out.Kind == OutcomeCanceled:
		out = NetworkFailure("timeout")
	}

	res.Attempts = append(res.Attempts, Attempt{Number: len(res.Attempts) + 1, Position: pos, Outcome: out, Duration: elapsed})
	monitoring.UpstreamAttemptsTotal.WithLabelValues(e.opts.Model, out.Kind.String()).Inc()
	monitoring.UpstreamAttemptDuration.WithLabelValues(e.opts.Model, out.Kind.String()).Observe(elapsed.Seconds())
	if out.Kind == OutcomeNetworkFailure {
		monitoring.UpstreamNetworkErrors.WithLabelValues(out.Reason).Inc()
	}
	return out
}

func (e *Engine) publish(ctx context.Context, topic string, i, pos, next, n int, out Outcome) {
	if e.opts.Publisher == nil {
		return
	}
	e.opts.Publisher.Publish(ctx, topic, events.RotationEvent{
		Attempt:  i + 1,
		Position: pos,
		Next:     next,
		PoolSize: n,
		Outcome:  out.Label(),
		Status:   out.Status,
	}, map[string]string{"request_id": RequestID(ctx)})
}

func (e *Engine) observeRun(res Result) {
	label := "success"
	if res.Failure != nil {
		label = res.Failure.Class.String()
	}
	monitoring.RotationRunsTotal.WithLabelValues(label).Inc()
	if len(res.Attempts) > 0 {
		monitoring.RotationAttemptsPerRun.Observe(float64(len(res.Attempts)))
	}
}
