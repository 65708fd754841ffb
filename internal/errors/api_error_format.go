package errors

import (
	"encoding/json"
	"net/http"
)

// ExhaustedMessage is returned when every credential in the pool failed.
const ExhaustedMessage = "all API keys are temporarily unavailable or rate limited, please try again later"

func New(httpStatus int, code string, kind Kind, message string) *APIError {
	return &APIError{HTTPStatus: httpStatus, Code: code, Kind: kind, Message: message}
}

func (e *APIError) Body() ErrorBody {
	return ErrorBody{Error: e.Message, Code: e.Code}
}

func (e *APIError) ToJSON() ([]byte, error) {
	return json.Marshal(e.Body())
}

// Config reports missing or unusable server configuration. Details belong in the log.
func Config(message string) *APIError {
	return New(http.StatusInternalServerError, "service_misconfigured", KindConfig, firstNonEmpty(message, "service misconfigured"))
}

func Validation(message string) *APIError {
	return New(http.StatusBadRequest, "invalid_request", KindValidation, message)
}

// Client carries an upstream 4xx verbatim.
func Client(status int, message string) *APIError {
	if status < 400 || status > 499 {
		status = http.StatusBadRequest
	}
	return New(status, "upstream_client_error", KindClient, firstNonEmpty(message, http.StatusText(status)))
}

// Exhausted reports that every credential was tried. Only 429 and 503 are
// valid statuses; anything else falls back to 429.
func Exhausted(status int) *APIError {
	if status != http.StatusTooManyRequests && status != http.StatusServiceUnavailable {
		status = http.StatusTooManyRequests
	}
	return New(status, "credentials_exhausted", KindExhausted, ExhaustedMessage)
}

func Canceled() *APIError {
	return New(StatusClientClosedRequest, "request_canceled", KindCanceled, "request canceled by client")
}

func Internal(message string) *APIError {
	return New(http.StatusInternalServerError, "internal_error", KindInternal, firstNonEmpty(message, "internal server error"))
}
