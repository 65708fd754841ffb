package logging

import "net/http"

// ErrorKind labels one upstream exchange for attempt logs. failed is true
// for every outcome other than a usable answer, so a 200 carrying a
// blocked or empty candidate reads "blocked" rather than "ok".
func ErrorKind(status int, failed bool) string {
	switch {
	case status == 0 && failed:
		return "transport"
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status >= 500 && status <= 599:
		return "server_error"
	case status >= 400 && status <= 499:
		return "client_error"
	case failed && status >= 200 && status <= 299:
		return "blocked"
	case failed:
		return "unexpected_status"
	}
	return "ok"
}
