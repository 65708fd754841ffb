package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// IndexBackend persists the shared rotation index. Implementations return
// (0, nil) when the key has never been written.
type IndexBackend interface {
	// Initialize connects and prepares schema where needed.
	Initialize(ctx context.Context) error
	Close() error
	Health(ctx context.Context) error

	Get(ctx context.Context) (int, error)
	Set(ctx context.Context, idx int) error
}

// ErrMissingConfig is returned when the selected backend lacks connection
// parameters.
var ErrMissingConfig = errors.New("index store connection parameters missing")

// ErrInvalidIndex wraps a stored value that is not an integer.
type ErrInvalidIndex struct {
	Raw string
}

func (e *ErrInvalidIndex) Error() string {
	return fmt.Sprintf("stored rotation index is not an integer: %q", e.Raw)
}

// ParseIndex parses a stored index value. KV stores written by other
// clients may hold the number JSON-encoded one or more times ("3",
// "\"3\""), so surrounding quotes are peeled before parsing.
func ParseIndex(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "null" {
		return 0, nil
	}
	for i := 0; i < 4 && len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'; i++ {
		unq, err := strconv.Unquote(s)
		if err != nil {
			break
		}
		s = strings.TrimSpace(unq)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ErrInvalidIndex{Raw: raw}
	}
	return n, nil
}
