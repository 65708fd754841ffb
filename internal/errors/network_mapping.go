package errors

import (
	"context"
	stderrors "errors"
	"net"
	"net/url"
	"strings"
)

// NetworkReason labels a transport failure for logs and metrics.
func NetworkReason(err error) string {
	if err == nil {
		return ""
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if stderrors.Is(err, context.Canceled) {
		return "canceled"
	}
	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		return "dns"
	}
	var ue *url.Error
	if stderrors.As(err, &ue) && ue.Timeout() {
		return "timeout"
	}
	s := err.Error()
	switch {
	case strings.Contains(s, "no such host") || strings.Contains(s, "name resolution"):
		return "dns"
	case strings.Contains(s, "connection refused"):
		return "conn_refused"
	case strings.Contains(s, "connection reset"):
		return "conn_reset"
	case strings.Contains(s, "broken pipe"):
		return "conn_broken_pipe"
	case strings.Contains(s, "i/o timeout"):
		return "timeout"
	case strings.Contains(s, "certificate") || strings.Contains(s, "tls"):
		return "tls"
	case strings.Contains(s, "EOF"):
		return "eof"
	}
	return "network_error"
}

// RedactURL strips the query string from any *url.Error in the chain so that
// credentials passed as query parameters never reach a log line.
func RedactURL(err error) error {
	if err == nil {
		return nil
	}
	var ue *url.Error
	if !stderrors.As(err, &ue) {
		return err
	}
	redacted := ue.URL
	if u, perr := url.Parse(ue.URL); perr == nil {
		u.RawQuery = ""
		redacted = u.String()
	} else if i := strings.IndexByte(redacted, '?'); i >= 0 {
		redacted = redacted[:i]
	}
	return &url.Error{Op: ue.Op, URL: redacted, Err: ue.Err}
}
