package llm

import (
	"fmt"
	"strings"
	"sync/atomic"

	"StockMind/internal/domain"
	"StockMind/internal/ports"
)

// Rotator hands out API keys in strict round-robin order.
type Rotator struct {
	keys   []string
	cursor atomic.Uint64
}

var _ ports.CredentialSource = (*Rotator)(nil)

// NewRotator copies keys and fails when none are usable.
func NewRotator(keys []string) (*Rotator, error) {
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			clean = append(clean, k)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: no generation api keys configured", domain.ErrConfiguration)
	}
	return &Rotator{keys: clean}, nil
}

// Next returns the key under the cursor and advances it.
func (r *Rotator) Next() string {
	n := r.cursor.Add(1) - 1
	return r.keys[n%uint64(len(r.keys))]
}

// Len reports how many keys are in rotation.
func (r *Rotator) Len() int {
	return len(r.keys)
}
