package client

import (
	"context"
	"strconv"
	"time"
)

// Contract names hosted by ledgerd.
const (
	ContractAccess     = "access"
	ContractDirectory  = "directory"
	ContractReputation = "reputation"
)

// Principal kinds accepted by UpdateACL.
type PrincipalKind string

const (
	KindClient   PrincipalKind = "0"
	KindProvider PrincipalKind = "1"
)

// ACLOp selects between granting and revoking in UpdateACL.
type ACLOp string

const (
	OpGrant  ACLOp = "0"
	OpRevoke ACLOp = "1"
)

// Principal is a client or provider named in an ACL.
type Principal struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Grant is one ACL row.
type Grant struct {
	Principal Principal `json:"principal"`
	Actions   []string  `json:"actions"`
}

// AuditEntry is one line of a record's audit log.
type AuditEntry struct {
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	Invoker   string    `json:"invoker"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is a ledger record as returned by create, update and query.
type Record struct {
	ACL          []Grant      `json:"acl"`
	Significance int64        `json:"significance"`
	Log          []AuditEntry `json:"log"`
}

// Reference is one record in a user's directory entry.
type Reference struct {
	Provider string    `json:"provider"`
	LastEdit time.Time `json:"last_edit"`
}

// DirectoryEntry maps record references to the provider holding them.
type DirectoryEntry struct {
	References map[string]Reference `json:"references"`
}

// Score is a provider's reputation.
type Score struct {
	Significance int64     `json:"significance"`
	LastUpdate   time.Time `json:"last_update"`
}

// Standing is a provider and its score.
type Standing struct {
	Provider     string    `json:"provider"`
	Significance int64     `json:"significance"`
	LastUpdate   time.Time `json:"last_update"`
}

// CreateRecord creates recordRef for userID, crediting the caller's
// provider with initialSignificance.
func (c *Client) CreateRecord(ctx context.Context, recordRef, userID string, initialSignificance int64) (*Record, error) {
	var rec Record
	if err := c.invokeInto(ctx, &rec, ContractAccess, "create", recordRef, userID, itoa(initialSignificance)); err != nil {
		return nil, err
	}
	return &rec, nil
}

// LogRecord appends an audit entry to recordRef.
func (c *Client) LogRecord(ctx context.Context, recordRef, action, detail string) (*AuditEntry, error) {
	var entry AuditEntry
	if err := c.invokeInto(ctx, &entry, ContractAccess, "log", recordRef, action, detail); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateACL grants or revokes action on recordRef for targetID.
func (c *Client) UpdateACL(ctx context.Context, recordRef, targetID string, op ACLOp, kind PrincipalKind, action string) (*Record, error) {
	var rec Record
	if err := c.invokeInto(ctx, &rec, ContractAccess, "update", recordRef, targetID, string(op), string(kind), action); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteRecord deletes recordRef and its directory reference.
func (c *Client) DeleteRecord(ctx context.Context, recordRef string) error {
	return c.invokeInto(ctx, nil, ContractAccess, "delete", recordRef)
}

// QueryRecord reads recordRef. With override set, a caller without READ
// is let through and the read is audited as an override.
func (c *Client) QueryRecord(ctx context.Context, recordRef string, override bool) (*Record, error) {
	var rec Record
	if err := c.invokeInto(ctx, &rec, ContractAccess, "query", recordRef, strconv.FormatBool(override)); err != nil {
		return nil, err
	}
	return &rec, nil
}

// QueryDirectory returns userID's directory entry.
func (c *Client) QueryDirectory(ctx context.Context, userID string) (*DirectoryEntry, error) {
	var entry DirectoryEntry
	if err := c.invokeInto(ctx, &entry, ContractDirectory, "query", userID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteDirectoryEntry removes userID's whole directory entry.
func (c *Client) DeleteDirectoryEntry(ctx context.Context, userID string) error {
	return c.invokeInto(ctx, nil, ContractDirectory, "delete", userID)
}

// CreditProvider adds amount to providerID's significance.
func (c *Client) CreditProvider(ctx context.Context, providerID string, amount int64) (*Score, error) {
	var score Score
	if err := c.invokeInto(ctx, &score, ContractReputation, "update", providerID, itoa(amount)); err != nil {
		return nil, err
	}
	return &score, nil
}

// ProviderSignificance returns providerID's significance.
func (c *Client) ProviderSignificance(ctx context.Context, providerID string) (int64, error) {
	var n int64
	if err := c.invokeInto(ctx, &n, ContractReputation, "query", providerID); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteProvider removes providerID's score.
func (c *Client) DeleteProvider(ctx context.Context, providerID string) error {
	return c.invokeInto(ctx, nil, ContractReputation, "delete", providerID)
}

// Providers lists every provider's standing.
func (c *Client) Providers(ctx context.Context) ([]Standing, error) {
	var out []Standing
	if err := c.invokeInto(ctx, &out, ContractReputation, "list"); err != nil {
		return nil, err
	}
	return out, nil
}

// SelectEndorser picks the provider to endorse a transaction, never
// exclude. An empty exclude excludes the caller's own provider.
func (c *Client) SelectEndorser(ctx context.Context, exclude string) (string, error) {
	var args []string
	if exclude != "" {
		args = []string{exclude}
	}
	var endorser string
	if err := c.invokeInto(ctx, &endorser, ContractReputation, "selectEndorser", args...); err != nil {
		return "", err
	}
	return endorser, nil
}
