// Package journal implements a hash-chained log of every contract
// invocation the gateway commits.
//
// The chain begins with a well-known genesis entry whose Hash equals
// GenesisHash (64 hex zeros). Every later entry records the SHA-256 of its
// predecessor, so any tampering is detectable via Verify.
//
// Two implementations of the Journal interface are provided:
//   - MemoryJournal: in-process, for tests and the memory state backend.
//   - PostgresJournal: durable, used with the postgres state backend.
package journal

import (
	"context"
	"time"
)

// Invocation describes one committed contract call.
type Invocation struct {
	TxID      string
	Timestamp time.Time
	Contract  string
	Function  string
	Invoker   string
	// Outcome is "ok" or the failure kind.
	Outcome string
	Args    []string
}

// Journal is the append-only invocation log.
type Journal interface {
	// Append chains a new entry for inv. The SHA-256 of inv.Args, JSON
	// encoded, is stored as DataHash.
	Append(ctx context.Context, inv Invocation) (*Entry, error)

	// Get returns the entry at the given zero-based index.
	Get(ctx context.Context, index int) (*Entry, error)

	// Len returns the number of entries, genesis included.
	Len(ctx context.Context) (int, error)

	// Verify walks the chain and checks hash consistency.
	Verify(ctx context.Context) error

	// Root returns the hash of the most recent entry.
	Root(ctx context.Context) (string, error)
}
