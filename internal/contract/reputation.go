package contract

import (
	"context"

	"github.com/jmerrifield20/recordledger/internal/fault"
	"github.com/jmerrifield20/recordledger/internal/reputation"
	"github.com/jmerrifield20/recordledger/internal/txn"
)

// ReputationContract is the entry point of the provider reputation tracker.
//
//	update          providerId amount
//	delete          providerId
//	query           providerId
//	selectEndorser  [excludeProviderId]   defaults to the caller's provider
//	init            id1 .. idN score1 .. scoreN
//	list
type ReputationContract struct {
	tracker *reputation.Tracker
}

// NewReputationContract wraps t.
func NewReputationContract(t *reputation.Tracker) *ReputationContract {
	return &ReputationContract{tracker: t}
}

func (c *ReputationContract) Name() string { return "reputation" }

func (c *ReputationContract) Functions() []string {
	return []string{"update", "delete", "query", "selectEndorser", "init", "list"}
}

func (c *ReputationContract) Invoke(ctx context.Context, tx *txn.Tx, function string, args []string) (*Response, error) {
	switch function {
	case "update":
		if err := expectArgs(function, args, 2); err != nil {
			return nil, err
		}
		amount, err := parseAmount("significance increase", args[1])
		if err != nil {
			return nil, err
		}
		score, err := c.tracker.Credit(ctx, tx, args[0], amount)
		if err != nil {
			return nil, annotate(function, err)
		}
		return success("Invoke Success", score), nil

	case "delete":
		if err := expectArgs(function, args, 1); err != nil {
			return nil, err
		}
		if err := c.tracker.Delete(ctx, args[0]); err != nil {
			return nil, annotate(function, err)
		}
		return success("Delete Success", nil), nil

	case "query":
		if err := expectArgs(function, args, 1); err != nil {
			return nil, err
		}
		significance, err := c.tracker.Get(ctx, args[0])
		if err != nil {
			return nil, annotate(function, err)
		}
		return success("Query Success", significance), nil

	case "selectEndorser":
		exclude := tx.Caller.Provider
		switch len(args) {
		case 0:
		case 1:
			exclude = args[0]
		default:
			return nil, fault.Malformedf("incorrect number of arguments for %s: expecting 0 or 1, got %d", function, len(args))
		}
		endorser, err := c.tracker.SelectEndorser(ctx, tx, exclude)
		if err != nil {
			return nil, annotate(function, err)
		}
		return success("Query Success", endorser), nil

	case "init":
		if len(args)%2 != 0 {
			return nil, fault.Malformedf("expecting an even number of arguments for %s, got %d", function, len(args))
		}
		half := len(args) / 2
		seeds := make(map[string]int64, half)
		for i := 0; i < half; i++ {
			n, err := parseAmount("seed significance", args[half+i])
			if err != nil {
				return nil, err
			}
			seeds[args[i]] = n
		}
		if err := c.tracker.Seed(ctx, tx, seeds); err != nil {
			return nil, annotate(function, err)
		}
		return success("Init finished successfully", nil), nil

	case "list":
		if err := expectArgs(function, args, 0); err != nil {
			return nil, err
		}
		standings, err := c.tracker.List(ctx)
		if err != nil {
			return nil, annotate(function, err)
		}
		return success("Query Success", standings), nil
	}
	return nil, unsupported(c, function)
}
