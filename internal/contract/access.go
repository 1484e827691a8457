package contract

import (
	"context"
	"strconv"

	"github.com/jmerrifield20/recordledger/internal/access"
	"github.com/jmerrifield20/recordledger/internal/fault"
	"github.com/jmerrifield20/recordledger/internal/txn"
)

// AccessContract is the entry point of the record ledger.
//
//	create  recordRef userId initialSignificance
//	log     recordRef action detail
//	update  recordRef targetId grantOrRevoke(0|1) kind(0 client|1 provider) action
//	delete  recordRef
//	query   recordRef override(0|1)
type AccessContract struct {
	ledger *access.Ledger
}

// NewAccessContract wraps l.
func NewAccessContract(l *access.Ledger) *AccessContract {
	return &AccessContract{ledger: l}
}

func (c *AccessContract) Name() string { return "access" }

func (c *AccessContract) Functions() []string {
	return []string{"create", "log", "update", "delete", "query"}
}

func (c *AccessContract) Invoke(ctx context.Context, tx *txn.Tx, function string, args []string) (*Response, error) {
	switch function {
	case "create":
		if err := expectArgs(function, args, 3); err != nil {
			return nil, err
		}
		significance, err := parseAmount("initial significance", args[2])
		if err != nil {
			return nil, err
		}
		rec, err := c.ledger.Create(ctx, tx, args[0], args[1], significance)
		if err != nil {
			return nil, annotate(function, err)
		}
		return success("Invoke Success", rec), nil

	case "log":
		if err := expectArgs(function, args, 3); err != nil {
			return nil, err
		}
		entry, err := c.ledger.Log(ctx, tx, args[0], args[1], args[2])
		if err != nil {
			return nil, annotate(function, err)
		}
		return success("Log Success", entry), nil

	case "update":
		if err := expectArgs(function, args, 5); err != nil {
			return nil, err
		}
		op, err := parseFlag("grant/revoke flag", args[2], "0", "1")
		if err != nil {
			return nil, err
		}
		kind, err := parseFlag("principal kind flag", args[3], "0", "1")
		if err != nil {
			return nil, err
		}
		action, err := access.ParseAction(args[4])
		if err != nil {
			return nil, err
		}
		principalKind := access.KindClient
		if kind == 1 {
			principalKind = access.KindProvider
		}
		rec, err := c.ledger.UpdateACL(ctx, tx, args[0], args[1], access.Op(op), principalKind, action)
		if err != nil {
			return nil, annotate(function, err)
		}
		return success("Update Success", rec), nil

	case "delete":
		if err := expectArgs(function, args, 1); err != nil {
			return nil, err
		}
		if err := c.ledger.Delete(ctx, tx, args[0]); err != nil {
			return nil, annotate(function, err)
		}
		return success("Delete Success", nil), nil

	case "query":
		if err := expectArgs(function, args, 2); err != nil {
			return nil, err
		}
		override, err := strconv.ParseBool(args[1])
		if err != nil {
			return nil, fault.Malformedf("override flag must be 0 or 1, got %q", args[1])
		}
		rec, err := c.ledger.Query(ctx, tx, args[0], override)
		if err != nil {
			return nil, annotate(function, err)
		}
		return success("Query Success", rec), nil
	}
	return nil, unsupported(c, function)
}
