package errors

// Kind is the caller-visible error class. Exactly one kind is attached to
// every APIError returned to a client.
type Kind string

const (
	KindConfig     Kind = "config_error"
	KindValidation Kind = "validation_error"
	KindClient     Kind = "client_error"
	KindExhausted  Kind = "exhaustion_error"
	KindCanceled   Kind = "canceled"
	KindInternal   Kind = "internal_error"
)

// StatusClientClosedRequest is the nginx convention for a caller that went
// away before a response was written.
const StatusClientClosedRequest = 499

// APIError represents a standardized error returned to callers.
type APIError struct {
	HTTPStatus int
	Code       string
	Message    string
	Kind       Kind
}

// ErrorBody is the JSON envelope written for every failure.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return string(e.Kind) + ": " + e.Message
}
