// Package access implements the record ledger: per-record access-control
// lists, audit logs and significance counters.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmerrifield20/recordledger/internal/codec"
	"github.com/jmerrifield20/recordledger/internal/fault"
	"github.com/jmerrifield20/recordledger/internal/reputation"
	"github.com/jmerrifield20/recordledger/internal/state"
	"github.com/jmerrifield20/recordledger/internal/txn"
	"go.uber.org/zap"
)

// Directory is the part of the directory component the ledger calls into.
type Directory interface {
	Register(ctx context.Context, tx *txn.Tx, userID, recordRef, providerID string) error
	Touch(ctx context.Context, tx *txn.Tx, recordRef string) error
	Remove(ctx context.Context, recordRef string) error
}

// Reputation is the part of the reputation component the ledger calls into.
type Reputation interface {
	Credit(ctx context.Context, tx *txn.Tx, providerID string, amount int64) (*reputation.Score, error)
	SelectEndorser(ctx context.Context, tx *txn.Tx, exclude string) (string, error)
}

// Config holds the ledger's tunables.
type Config struct {
	UserIDLength   int
	EditIncrement  int64
	EndorserReward int64
	// CompensateFailedCreate deletes a freshly created record when its
	// directory registration fails. Off by default, which leaves the record
	// in place.
	CompensateFailedCreate bool
}

// DefaultConfig returns the standard tunables.
func DefaultConfig() Config {
	return Config{
		UserIDLength:   11,
		EditIncrement:  10,
		EndorserReward: 100,
	}
}

// Op selects between granting and revoking in UpdateACL.
type Op int

const (
	OpGrant Op = iota
	OpRevoke
)

// Ledger is the record component. It owns the records namespace.
type Ledger struct {
	records *state.Collection[Record]
	dir     Directory
	rep     Reputation
	cfg     Config
	logger  *zap.Logger
}

// New creates a Ledger over store.
func New(store state.Store, c codec.Codec, dir Directory, rep Reputation, cfg Config, logger *zap.Logger) *Ledger {
	return &Ledger{
		records: state.NewCollection[Record](store, state.NamespaceRecords, c),
		dir:     dir,
		rep:     rep,
		cfg:     cfg,
		logger:  logger,
	}
}

func (l *Ledger) validUserID(id string) bool {
	if len(id) != l.cfg.UserIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}

func (l *Ledger) load(ctx context.Context, recordRef string) (*Record, error) {
	if recordRef == "" {
		return nil, fault.Malformedf("record reference is required")
	}
	rec, err := l.records.Get(ctx, recordRef)
	if errors.Is(err, state.ErrNotFound) {
		return nil, fault.NotFoundf("record %s does not exist", recordRef)
	}
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", recordRef, err)
	}
	return rec, nil
}

func (l *Ledger) store(ctx context.Context, recordRef string, rec *Record) error {
	if err := l.records.Put(ctx, recordRef, rec); err != nil {
		return fmt.Errorf("store record %s: %w", recordRef, err)
	}
	return nil
}

// Get returns the record without auditing the read.
func (l *Ledger) Get(ctx context.Context, recordRef string) (*Record, error) {
	return l.load(ctx, recordRef)
}

// Create writes a new record owned by the invoking client, registers it in
// the directory for userID and credits the invoking provider with
// initialSignificance.
//
// The record is written before the directory call. When that call fails the
// record stays unless CompensateFailedCreate is set.
func (l *Ledger) Create(ctx context.Context, tx *txn.Tx, recordRef, userID string, initialSignificance int64) (*Record, error) {
	if recordRef == "" {
		return nil, fault.Malformedf("record reference is required")
	}
	if !l.validUserID(userID) {
		return nil, fault.Malformedf("user id must be %d digits", l.cfg.UserIDLength)
	}
	if initialSignificance < 0 {
		return nil, fault.Malformedf("initial significance must not be negative")
	}
	exists, err := l.records.Exists(ctx, recordRef)
	if err != nil {
		return nil, fmt.Errorf("check record %s: %w", recordRef, err)
	}
	if exists {
		return nil, fault.Duplicatef("record %s already exists", recordRef)
	}

	caller := tx.Caller
	rec := &Record{Significance: initialSignificance}
	for _, a := range []Action{ActionCreate, ActionRead, ActionWrite} {
		_ = rec.ACL.Grant(Client(caller.ClientID), a)
	}
	_ = rec.ACL.Grant(Provider(caller.Provider), ActionRead)
	rec.appendLog(ActionCreate, "", caller.ClientID, tx.Timestamp)

	if err := l.store(ctx, recordRef, rec); err != nil {
		return nil, err
	}
	l.logger.Info("created record",
		zap.String("record", recordRef),
		zap.String("user", userID),
		zap.String("provider", caller.Provider),
	)

	if err := l.dir.Register(ctx, tx, userID, recordRef, caller.Provider); err != nil {
		if l.cfg.CompensateFailedCreate {
			if derr := l.records.Delete(ctx, recordRef); derr != nil {
				l.logger.Error("compensating delete failed", zap.String("record", recordRef), zap.Error(derr))
			} else {
				l.logger.Warn("rolled back record after failed registration", zap.String("record", recordRef))
			}
		}
		return nil, fault.Wrap("directory", err)
	}

	if _, err := l.rep.Credit(ctx, tx, caller.Provider, initialSignificance); err != nil {
		return nil, fault.Wrap("reputation", err)
	}
	if err := l.rewardEndorser(ctx, tx); err != nil {
		return nil, err
	}
	return rec, nil
}

// Log appends an audit entry labelled action. Any label other than READ
// counts as an edit: the record's significance grows by the edit increment
// and the directory refreshes the record's last edit.
func (l *Ledger) Log(ctx context.Context, tx *txn.Tx, recordRef, action, detail string) (*AuditEntry, error) {
	if action == "" {
		return nil, fault.Malformedf("action label is required")
	}
	rec, err := l.load(ctx, recordRef)
	if err != nil {
		return nil, err
	}

	label := Action(action)
	edit := label != ActionRead
	entry := rec.appendLog(label, detail, tx.Caller.ClientID, tx.Timestamp)
	if edit {
		rec.Significance += l.cfg.EditIncrement
	}
	if err := l.store(ctx, recordRef, rec); err != nil {
		return nil, err
	}
	l.logger.Info("appended audit entry",
		zap.String("record", recordRef),
		zap.String("action", action),
	)

	if edit {
		if err := l.dir.Touch(ctx, tx, recordRef); err != nil {
			return nil, fault.Wrap("directory", err)
		}
	}
	if err := l.rewardEndorser(ctx, tx); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateACL grants or revokes action for the target principal. Only the
// client holding CREATE may change the ACL, the creator's own row can never
// be changed, and CREATE itself is never granted.
func (l *Ledger) UpdateACL(ctx context.Context, tx *txn.Tx, recordRef, targetID string, op Op, kind PrincipalKind, action Action) (*Record, error) {
	if targetID == "" {
		return nil, fault.Malformedf("target id is required")
	}
	if kind != KindClient && kind != KindProvider {
		return nil, fault.Malformedf("unknown principal kind %q", kind)
	}
	if _, err := ParseAction(string(action)); err != nil {
		return nil, err
	}
	rec, err := l.load(ctx, recordRef)
	if err != nil {
		return nil, err
	}

	invoker := tx.Caller.ClientID
	if !rec.ACL.Has(Client(invoker), ActionCreate) {
		return nil, fault.Deniedf("edit denied: invoker does not own record %s", recordRef)
	}
	if creator, ok := rec.ACL.Creator(); ok && creator.ID == targetID {
		return nil, fault.Deniedf("edit denied: the creator's access cannot be changed")
	}

	target := Principal{Kind: kind, ID: targetID}
	var label Action
	switch op {
	case OpGrant:
		if action == ActionCreate {
			return nil, fault.Deniedf("edit denied: %s cannot be granted", ActionCreate)
		}
		if err := rec.ACL.Grant(target, action); err != nil {
			return nil, err
		}
		label = ActionGrant
	case OpRevoke:
		if err := rec.ACL.Revoke(target, action); err != nil {
			return nil, err
		}
		label = ActionRevoke
	default:
		return nil, fault.Malformedf("unknown ACL operation %d", op)
	}

	rec.appendLog(label, fmt.Sprintf("%s access for %s", action, targetID), invoker, tx.Timestamp)
	if err := l.store(ctx, recordRef, rec); err != nil {
		return nil, err
	}
	l.logger.Info("updated record ACL",
		zap.String("record", recordRef),
		zap.String("change", string(label)),
		zap.String("kind", string(kind)),
		zap.String("action", string(action)),
	)

	if err := l.rewardEndorser(ctx, tx); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the record and its directory reference. Only the client
// holding CREATE may delete.
func (l *Ledger) Delete(ctx context.Context, tx *txn.Tx, recordRef string) error {
	rec, err := l.load(ctx, recordRef)
	if err != nil {
		return err
	}
	if !rec.ACL.Has(Client(tx.Caller.ClientID), ActionCreate) {
		return fault.Deniedf("delete denied: invoker does not own record %s", recordRef)
	}

	if err := l.records.Delete(ctx, recordRef); err != nil {
		return fmt.Errorf("delete record %s: %w", recordRef, err)
	}
	l.logger.Info("deleted record", zap.String("record", recordRef))

	if err := l.dir.Remove(ctx, recordRef); err != nil {
		return fault.Wrap("directory", err)
	}
	return l.rewardEndorser(ctx, tx)
}

// Query returns the record and audits the read. A caller without READ,
// either as a client or through its provider, is refused unless
// allowOverride is set, in which case the read is audited as an OVERRIDE.
func (l *Ledger) Query(ctx context.Context, tx *txn.Tx, recordRef string, allowOverride bool) (*Record, error) {
	rec, err := l.load(ctx, recordRef)
	if err != nil {
		return nil, err
	}

	caller := tx.Caller
	switch {
	case rec.ACL.Has(Client(caller.ClientID), ActionRead) || rec.ACL.Has(Provider(caller.Provider), ActionRead):
		rec.appendLog(ActionRead, "", caller.ClientID, tx.Timestamp)
	case allowOverride:
		rec.appendLog(ActionOverride, string(ActionOverride)+" "+string(ActionRead), caller.ClientID, tx.Timestamp)
		l.logger.Warn("ACL override",
			zap.String("record", recordRef),
			zap.String("provider", caller.Provider),
		)
	default:
		return nil, fault.Deniedf("client is not authorized to read record %s", recordRef)
	}

	if err := l.store(ctx, recordRef, rec); err != nil {
		return nil, err
	}
	if err := l.rewardEndorser(ctx, tx); err != nil {
		return nil, err
	}
	return rec, nil
}

// rewardEndorser credits the provider selected to endorse tx, never the
// invoker's own provider. Having no eligible provider is not an error.
func (l *Ledger) rewardEndorser(ctx context.Context, tx *txn.Tx) error {
	endorser, err := l.rep.SelectEndorser(ctx, tx, tx.Caller.Provider)
	if errors.Is(err, fault.ErrNoCandidate) {
		l.logger.Warn("no endorser to reward", zap.String("tx_id", tx.ID))
		return nil
	}
	if err != nil {
		return fault.Wrap("reputation", err)
	}
	if _, err := l.rep.Credit(ctx, tx, endorser, l.cfg.EndorserReward); err != nil {
		return fault.Wrap("reputation", err)
	}
	l.logger.Info("rewarded endorser",
		zap.String("provider", endorser),
		zap.Int64("reward", l.cfg.EndorserReward),
	)
	return nil
}
