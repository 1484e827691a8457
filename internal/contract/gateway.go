package contract

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jmerrifield20/recordledger/internal/fault"
	"github.com/jmerrifield20/recordledger/internal/identity"
	"github.com/jmerrifield20/recordledger/internal/journal"
	"github.com/jmerrifield20/recordledger/internal/tracing"
	"github.com/jmerrifield20/recordledger/internal/txn"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OutcomeOK is the journal and metrics outcome of a successful invocation.
const OutcomeOK = "ok"

// unsupportedLabel replaces unknown function names in metrics labels.
const unsupportedLabel = "unsupported"

// Gateway runs top-level invocations. Invocations are serialized, so each
// one observes the state left by the previous one and nested component
// calls never interleave with another caller's.
type Gateway struct {
	mu        sync.Mutex
	contracts map[string]Contract
	journal   journal.Journal
	clock     txn.Clock
	logger    *zap.Logger
}

// NewGateway creates a Gateway over contracts. j may be nil to disable the
// journal; a nil clock uses the wall clock.
func NewGateway(contracts []Contract, j journal.Journal, clock txn.Clock, logger *zap.Logger) *Gateway {
	m := make(map[string]Contract, len(contracts))
	for _, c := range contracts {
		m[c.Name()] = c
	}
	if clock == nil {
		clock = txn.SystemClock{}
	}
	return &Gateway{contracts: m, journal: j, clock: clock, logger: logger}
}

// Contracts returns the registered contract names, sorted.
func (g *Gateway) Contracts() []string {
	names := make([]string, 0, len(g.contracts))
	for name := range g.contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs function on the named contract as caller.
//
// Every invocation that reaches a contract is journaled, failures included,
// since a failed call may already have committed part of its writes. A
// journal failure is logged and never fails the invocation.
func (g *Gateway) Invoke(ctx context.Context, contractName, function string, args []string, caller identity.Caller) (*Response, error) {
	c, ok := g.contracts[contractName]
	if !ok {
		return nil, fault.NotFoundf("unknown contract %q", contractName)
	}
	if !supports(c, function) {
		recordInvocation(contractName, unsupportedLabel, string(fault.Malformed), 0)
		return nil, unsupported(c, function)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	tx := txn.New(caller, g.clock)
	ctx, end := tracing.StartSpan(ctx, contractName+"."+function,
		attribute.String("ledger.contract", contractName),
		attribute.String("ledger.function", function),
		attribute.String("ledger.tx_id", tx.ID),
		attribute.String("ledger.provider", caller.Provider),
	)

	start := time.Now()
	resp, err := c.Invoke(ctx, tx, function, args)
	end(err)

	outcome := OutcomeOK
	if err != nil {
		outcome = string(fault.KindOf(err))
	}
	recordInvocation(contractName, function, outcome, time.Since(start))

	if g.journal != nil {
		_, jerr := g.journal.Append(ctx, journal.Invocation{
			TxID:      tx.ID,
			Timestamp: tx.Timestamp,
			Contract:  contractName,
			Function:  function,
			Invoker:   caller.ClientID,
			Outcome:   outcome,
			Args:      args,
		})
		recordJournalAppend(jerr == nil)
		if jerr != nil {
			g.logger.Warn("journal append failed",
				zap.String("tx_id", tx.ID),
				zap.Error(jerr),
			)
		}
	}

	if err != nil {
		g.logger.Info("invocation failed",
			zap.String("contract", contractName),
			zap.String("function", function),
			zap.String("kind", outcome),
			zap.String("tx_id", tx.ID),
			zap.Error(err),
		)
		return nil, err
	}
	g.logger.Debug("invocation succeeded",
		zap.String("contract", contractName),
		zap.String("function", function),
		zap.String("tx_id", tx.ID),
	)
	return resp, nil
}
