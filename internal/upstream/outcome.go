package upstream

import "fmt"

// OutcomeKind classifies one upstream attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeBlocked
	OutcomeRateLimited
	OutcomeServerError
	OutcomeClientError
	OutcomeNetworkFailure
	// OutcomeCanceled means the caller went away. It aborts the run and
	// never rotates.
	OutcomeCanceled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeServerError:
		return "server_error"
	case OutcomeClientError:
		return "client_error"
	case OutcomeNetworkFailure:
		return "network_failure"
	case OutcomeCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Retryable reports whether the outcome advances the rotation index and
// moves on to the next credential.
func (k OutcomeKind) Retryable() bool {
	switch k {
	case OutcomeBlocked, OutcomeRateLimited, OutcomeServerError, OutcomeNetworkFailure:
		return true
	}
	return false
}

// Usage mirrors usageMetadata token counts.
type Usage struct {
	PromptTokens     int64
	CandidatesTokens int64
	TotalTokens      int64
}

// Outcome is the result of one attempt. Which fields are meaningful depends
// on Kind:
//
//	Success         Text, FinishReason, Usage
//	Blocked         Reason
//	RateLimited     Status
//	ServerError     Status
//	ClientError     Status, Message
//	NetworkFailure  Reason
type Outcome struct {
	Kind         OutcomeKind
	Status       int
	Text         string
	FinishReason string
	Reason       string
	Message      string
	Usage        Usage
}

func Success(text, finishReason string, usage Usage) Outcome {
	return Outcome{Kind: OutcomeSuccess, Status: 200, Text: text, FinishReason: finishReason, Usage: usage}
}

func Blocked(reason string) Outcome {
	return Outcome{Kind: OutcomeBlocked, Status: 200, Reason: reason}
}

func RateLimited(status int) Outcome {
	return Outcome{Kind: OutcomeRateLimited, Status: status}
}

func ServerError(status int) Outcome {
	return Outcome{Kind: OutcomeServerError, Status: status}
}

func ClientError(status int, message string) Outcome {
	return Outcome{Kind: OutcomeClientError, Status: status, Message: message}
}

func NetworkFailure(reason string) Outcome {
	return Outcome{Kind: OutcomeNetworkFailure, Reason: reason}
}

func Canceled() Outcome {
	return Outcome{Kind: OutcomeCanceled, Reason: "canceled"}
}

// Label is a short low-cardinality description for logs and metrics.
func (o Outcome) Label() string {
	switch o.Kind {
	case OutcomeBlocked, OutcomeNetworkFailure:
		if o.Reason != "" {
			return o.Kind.String() + ":" + o.Reason
		}
	}
	return o.Kind.String()
}
