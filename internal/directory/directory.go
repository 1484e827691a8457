// Package directory keeps, per user, the records the user owns and the
// provider each record is held with.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmerrifield20/recordledger/internal/codec"
	"github.com/jmerrifield20/recordledger/internal/fault"
	"github.com/jmerrifield20/recordledger/internal/reputation"
	"github.com/jmerrifield20/recordledger/internal/state"
	"github.com/jmerrifield20/recordledger/internal/txn"
	"go.uber.org/zap"
)

// DefaultEditIncrement is credited to a record's provider on every edit.
const DefaultEditIncrement int64 = 10

// Reference is one record held by a user.
type Reference struct {
	Provider string    `json:"provider"`
	LastEdit time.Time `json:"last_edit"`
}

// Entry is the per-user value, keyed by record reference.
type Entry struct {
	References map[string]Reference `json:"references"`
}

// HasProvider reports whether any reference in e is held with provider.
func (e *Entry) HasProvider(provider string) (string, bool) {
	for ref, r := range e.References {
		if strings.EqualFold(r.Provider, provider) {
			return ref, true
		}
	}
	return "", false
}

// Crediter adds significance to a provider.
type Crediter interface {
	Credit(ctx context.Context, tx *txn.Tx, providerID string, amount int64) (*reputation.Score, error)
}

// Directory is the directory component. It owns the directory namespace.
type Directory struct {
	entries   *state.Collection[Entry]
	scores    Crediter
	increment int64
	logger    *zap.Logger
}

// New creates a Directory over store that credits edits through scores.
func New(store state.Store, c codec.Codec, scores Crediter, logger *zap.Logger) *Directory {
	return &Directory{
		entries:   state.NewCollection[Entry](store, state.NamespaceDirectory, c),
		scores:    scores,
		increment: DefaultEditIncrement,
		logger:    logger,
	}
}

// SetEditIncrement overrides DefaultEditIncrement.
func (d *Directory) SetEditIncrement(n int64) {
	if n >= 0 {
		d.increment = n
	}
}

// Register maps recordRef to providerID for userID. A user may hold only one
// record per provider, and a record reference only once.
func (d *Directory) Register(ctx context.Context, tx *txn.Tx, userID, recordRef, providerID string) error {
	if userID == "" || recordRef == "" || providerID == "" {
		return fault.Malformedf("user id, record reference and provider are required")
	}

	entry, err := d.entries.Get(ctx, userID)
	switch {
	case errors.Is(err, state.ErrNotFound):
		entry = &Entry{References: map[string]Reference{}}
	case err != nil:
		return fmt.Errorf("load directory entry %s: %w", userID, err)
	default:
		if entry.References == nil {
			entry.References = map[string]Reference{}
		}
		if existing, ok := entry.HasProvider(providerID); ok {
			return fault.Duplicatef("user %s already holds record %s with provider %s", userID, existing, providerID)
		}
		if _, ok := entry.References[recordRef]; ok {
			return fault.Duplicatef("record %s is already registered for user %s", recordRef, userID)
		}
	}

	entry.References[recordRef] = Reference{Provider: providerID, LastEdit: tx.Timestamp}
	if err := d.entries.Put(ctx, userID, entry); err != nil {
		return fmt.Errorf("store directory entry %s: %w", userID, err)
	}
	d.logger.Info("registered record reference",
		zap.String("user", userID),
		zap.String("record", recordRef),
		zap.String("provider", providerID),
	)
	return nil
}

// owner finds the user holding recordRef by scanning every entry. The first
// user in ascending id order wins.
func (d *Directory) owner(ctx context.Context, recordRef string) (string, *Entry, error) {
	var (
		userID string
		found  *Entry
	)
	err := d.entries.Scan(ctx, func(id string, e *Entry) error {
		if _, ok := e.References[recordRef]; ok {
			userID, found = id, e
			return state.ErrStopScan
		}
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("scan directory: %w", err)
	}
	if found == nil {
		return "", nil, fault.NotFoundf("record %s is not associated with any user", recordRef)
	}
	return userID, found, nil
}

// Owner returns the user holding recordRef.
func (d *Directory) Owner(ctx context.Context, recordRef string) (string, error) {
	userID, _, err := d.owner(ctx, recordRef)
	return userID, err
}

// Touch refreshes the last-edit time of recordRef to the transaction time
// and credits the owning provider with the edit increment.
func (d *Directory) Touch(ctx context.Context, tx *txn.Tx, recordRef string) error {
	userID, entry, err := d.owner(ctx, recordRef)
	if err != nil {
		return err
	}

	ref := entry.References[recordRef]
	ref.LastEdit = tx.Timestamp
	entry.References[recordRef] = ref
	if err := d.entries.Put(ctx, userID, entry); err != nil {
		return fmt.Errorf("store directory entry %s: %w", userID, err)
	}

	if _, err := d.scores.Credit(ctx, tx, ref.Provider, d.increment); err != nil {
		return fault.Wrap("reputation", err)
	}
	d.logger.Info("updated record last edit",
		zap.String("user", userID),
		zap.String("record", recordRef),
		zap.Time("last_edit", tx.Timestamp),
	)
	return nil
}

// Remove drops recordRef from whichever user holds it. The user's entry is
// kept even when it becomes empty.
func (d *Directory) Remove(ctx context.Context, recordRef string) error {
	userID, entry, err := d.owner(ctx, recordRef)
	if err != nil {
		return err
	}
	delete(entry.References, recordRef)
	if err := d.entries.Put(ctx, userID, entry); err != nil {
		return fmt.Errorf("store directory entry %s: %w", userID, err)
	}
	d.logger.Info("removed record reference",
		zap.String("user", userID),
		zap.String("record", recordRef),
	)
	return nil
}

// Get returns the directory entry for userID.
func (d *Directory) Get(ctx context.Context, userID string) (*Entry, error) {
	entry, err := d.entries.Get(ctx, userID)
	if errors.Is(err, state.ErrNotFound) {
		return nil, fault.NotFoundf("no directory entry for user %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("load directory entry %s: %w", userID, err)
	}
	return entry, nil
}

// DeleteEntry removes the whole entry for userID.
func (d *Directory) DeleteEntry(ctx context.Context, userID string) error {
	if err := d.entries.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete directory entry %s: %w", userID, err)
	}
	d.logger.Info("deleted directory entry", zap.String("user", userID))
	return nil
}
