// Package idgen produces the identifiers used by the bankroll store: random
// fixed-length numeric ids for domain entities and time-ordered UUIDv7 handles
// for storage documents.
//
// Numeric ids are only probabilistically unique. Nothing checks for
// collisions; two entities may receive the same id.
package idgen

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"

	googleuuid "github.com/google/uuid"
)

// Widths of the numeric identifiers.
const (
	GroupIDDigits   = 6
	PlayerIDDigits  = 6
	BalanceIDDigits = 9
	HistoryIDDigits = 9
)

// Source generates numeric identifiers.
type Source interface {
	// Numeric returns k random decimal digits parsed as an integer. Leading
	// zeros are dropped, so the value may have fewer than k digits.
	Numeric(k int) int64
}

// Random is the default Source backed by math/rand.
type Random struct{}

// Numeric implements Source.
func (Random) Numeric(k int) int64 {
	n, _ := strconv.ParseInt(Digits(k), 10, 64)
	return n
}

// Digits returns a string of k random decimal digits.
func Digits(k int) string {
	var b strings.Builder
	b.Grow(k)
	for i := 0; i < k; i++ {
		b.WriteByte(byte('0' + rand.Intn(10)))
	}
	return b.String()
}

// Sequence is a deterministic Source that hands out consecutive values
// starting at Next. It is safe for concurrent use.
type Sequence struct {
	mu   sync.Mutex
	Next int64
}

// Numeric implements Source. The width argument is ignored.
func (s *Sequence) Numeric(int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Next++
	return s.Next
}

// Handle returns a new UUIDv7 string. UUIDv7 values are time-ordered, which
// keeps document handles roughly insertion-ordered in every backend.
func Handle() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}

// IsHandle reports whether s parses as a UUID.
func IsHandle(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
