package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// GenesisHash is the hash of the genesis entry and the anchor of the chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// systemInvoker is recorded as the invoker of the genesis entry.
const systemInvoker = "ledger-system"

// ErrNotFound is returned by Get for an index outside the chain.
var ErrNotFound = errors.New("journal entry not found")

// Entry is one link of the chain.
type Entry struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	TxID      string    `json:"tx_id"`
	Contract  string    `json:"contract"`
	Function  string    `json:"function"`
	Invoker   string    `json:"invoker"`
	Outcome   string    `json:"outcome"`
	DataHash  string    `json:"data_hash"`
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

func genesis(at time.Time) *Entry {
	return &Entry{
		Index:     0,
		Timestamp: at,
		Function:  "genesis",
		Invoker:   systemInvoker,
		Outcome:   "ok",
		DataHash:  GenesisHash,
		PrevHash:  GenesisHash,
		Hash:      GenesisHash,
	}
}

// newEntry builds the entry following prev for inv, hash included.
func newEntry(prev *Entry, inv Invocation) (*Entry, error) {
	args := inv.Args
	if args == nil {
		args = []string{}
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal args: %w", err)
	}
	ts := inv.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	e := &Entry{
		Index:     prev.Index + 1,
		Timestamp: ts.UTC().Truncate(time.Microsecond),
		TxID:      inv.TxID,
		Contract:  inv.Contract,
		Function:  inv.Function,
		Invoker:   inv.Invoker,
		Outcome:   inv.Outcome,
		DataHash:  sha256Sum(argsJSON),
		PrevHash:  prev.Hash,
	}
	e.Hash = hashEntry(e)
	return e, nil
}

// hashEntry computes the SHA-256 over an entry's fields. Never called on
// the genesis entry.
func hashEntry(e *Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s|%s|%s|%s|%s|%s",
		e.Index, e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.TxID, e.Contract, e.Function, e.Invoker, e.Outcome,
		e.DataHash, e.PrevHash,
	)
	return hex.EncodeToString(h.Sum(nil))
}

func sha256Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// verifyLink checks curr against its predecessor. prev is nil for index 0.
func verifyLink(prev, curr *Entry) error {
	if prev == nil {
		if curr.Hash != GenesisHash {
			return fmt.Errorf("genesis entry has wrong hash: got %q", curr.Hash)
		}
		return nil
	}
	if curr.PrevHash != prev.Hash {
		return fmt.Errorf("hash chain broken at index %d", curr.Index)
	}
	if curr.Hash != hashEntry(curr) {
		return fmt.Errorf("entry %d has invalid hash", curr.Index)
	}
	return nil
}
