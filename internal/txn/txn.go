// Package txn carries the per-invocation context shared by a top-level
// ledger call and every nested call it makes into other components.
package txn

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmerrifield20/recordledger/internal/identity"
)

// Tx is one top-level invocation. Nested component calls reuse the same Tx,
// so they observe the same timestamp and caller.
type Tx struct {
	ID        string
	Timestamp time.Time
	Caller    identity.Caller
}

// Clock supplies transaction timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current UTC time truncated to microseconds so it survives
// every storage backend unchanged.
func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

// FixedClock always returns T. Advance moves it forward.
type FixedClock struct {
	T time.Time
}

// Now implements Clock.
func (c *FixedClock) Now() time.Time { return c.T }

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// New starts a transaction for caller stamped by clock.
func New(caller identity.Caller, clock Clock) *Tx {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Tx{
		ID:        uuid.New().String(),
		Timestamp: clock.Now(),
		Caller:    caller,
	}
}
