// Package ids generates the identifiers used across the pipeline: message
// UUIDs, correlation IDs, and fallback delivery IDs.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var generator = newMonotonicSource()

// monotonicSource serializes access to a single monotonic entropy reader so
// IDs minted within the same millisecond still sort in creation order.
type monotonicSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newMonotonicSource() *monotonicSource {
	return &monotonicSource{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (s *monotonicSource) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// CreateULID returns a time-sortable ULID encoded as a 26-character string.
// IDs generated by a single process are strictly increasing.
func CreateULID() string {
	return generator.next()
}
