package upstream

import (
	"context"
	"fmt"
	"testing"

	"essayproxy-go/internal/credential"

	"pgregory.net/rapid"
)

var outcomeGen = rapid.Custom(func(t *rapid.T) Outcome {
	switch rapid.IntRange(0, 5).Draw(t, "kind") {
	case 0:
		return Success("text", "STOP", Usage{})
	case 1:
		return Blocked(rapid.SampledFrom([]string{"SAFETY", "empty", "OTHER"}).Draw(t, "reason"))
	case 2:
		return RateLimited(429)
	case 3:
		return ServerError(rapid.IntRange(500, 599).Draw(t, "status"))
	case 4:
		return ClientError(rapid.SampledFrom([]int{400, 401, 403, 404, 408}).Draw(t, "status"), "bad")
	default:
		return NetworkFailure("timeout")
	}
})

func drawPool(t *rapid.T) *credential.Pool {
	n := rapid.IntRange(1, 8).Draw(t, "n")
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}
	p, err := credential.NewPool(keys)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	return p
}

func TestEngineProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pool := drawPool(t)
		n := pool.Size()
		start := rapid.IntRange(0, n-1).Draw(t, "start")
		outcomes := rapid.SliceOfN(outcomeGen, n, n).Draw(t, "outcomes")

		store := &recordingStore{idx: start}
		att := &scriptedAttempter{outcomes: outcomes}
		res := NewEngine(att, store, Options{}).Run(context.Background(), pool, nil)

		if len(att.calls) > n {
			t.Fatalf("made %d attempts with pool of %d", len(att.calls), n)
		}
		for i, cred := range att.calls {
			if want := pool.At(start + i); cred != want {
				t.Fatalf("attempt %d used %s, want %s", i, cred, want)
			}
		}

		first := outcomes[0]
		switch first.Kind {
		case OutcomeSuccess:
			if !res.OK() || len(store.writes) != 0 || store.idx != start {
				t.Fatalf("success at start must leave index untouched: writes=%v", store.writes)
			}
		case OutcomeClientError:
			if res.OK() || res.Failure.Class != FailureClient || len(att.calls) != 1 || len(store.writes) != 0 {
				t.Fatalf("client error must short-circuit without writes")
			}
		}

		allRetryable := true
		for _, o := range outcomes {
			if !o.Kind.Retryable() {
				allRetryable = false
			}
		}
		if allRetryable {
			if res.OK() || res.Failure.Class != FailureExhausted {
				t.Fatalf("expected exhaustion, got %+v", res.Failure)
			}
			if store.idx != start {
				t.Fatalf("full loop must end at start index %d, got %d", start, store.idx)
			}
			if len(store.writes) != n {
				t.Fatalf("expected %d writes, got %d", n, len(store.writes))
			}
		}

		// every write is the position after a failed attempt
		for i, w := range store.writes {
			if want := (start + i + 1) % n; w != want {
				t.Fatalf("write %d = %d, want %d", i, w, want)
			}
		}
	})
}

func TestEngineNeverFailsOnBrokenStore(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pool := drawPool(t)
		outcomes := rapid.SliceOfN(outcomeGen, pool.Size(), pool.Size()).Draw(t, "outcomes")
		att := &scriptedAttempter{outcomes: outcomes}
		res := NewEngine(att, &brokenStore{}, Options{}).Run(context.Background(), pool, nil)
		if len(att.calls) == 0 || att.calls[0] != pool.At(0) {
			t.Fatalf("broken store must start at credential 0, calls=%v", att.calls)
		}
		if !res.OK() && res.Failure.Class == FailureConfig {
			t.Fatalf("store failure escalated to config error")
		}
	})
}
