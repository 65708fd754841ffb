package credential

import (
	"errors"
	"strings"

	"essayproxy-go/internal/logging"
)

// ErrEmptyPool is returned when no usable API key is configured.
var ErrEmptyPool = errors.New("credential pool is empty")

// Pool is an ordered, immutable list of API keys. It is built per request
// from the current configuration snapshot and never mutated.
type Pool struct {
	keys []string
}

// NewPool trims entries and drops blanks. Order is preserved and duplicates
// are kept: a duplicated key simply gets more turns.
func NewPool(entries []string) (*Pool, error) {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if k := strings.TrimSpace(e); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, ErrEmptyPool
	}
	return &Pool{keys: keys}, nil
}

// Size returns N.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Position maps any integer, including a stale or negative stored index,
// onto [0, N).
func (p *Pool) Position(i int) int {
	n := p.Size()
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

// At returns the key at Position(i).
func (p *Pool) At(i int) string {
	if p.Size() == 0 {
		return ""
	}
	return p.keys[p.Position(i)]
}

// Masked returns the masked form of the key at Position(i), safe to log.
func (p *Pool) Masked(i int) string {
	return Mask(p.At(i))
}

// Mask hides all but the edges of a key.
func Mask(key string) string {
	return logging.MaskSecret(key)
}
