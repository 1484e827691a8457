// Package contract exposes the ledger components through entry points
// dispatched by function name with positional string arguments, and the
// Gateway that runs every top-level invocation.
package contract

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/jmerrifield20/recordledger/internal/fault"
	"github.com/jmerrifield20/recordledger/internal/txn"
)

// StatusOK is the status of every successful Response.
const StatusOK = 200

// Response is the result of a successful invocation.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Payload any    `json:"payload,omitempty"`
}

func success(message string, payload any) *Response {
	return &Response{Status: StatusOK, Message: message, Payload: payload}
}

// Contract is one component's entry point.
type Contract interface {
	// Name is the contract name callers address.
	Name() string
	// Functions lists the function names Invoke accepts.
	Functions() []string
	// Invoke runs function with args inside tx.
	Invoke(ctx context.Context, tx *txn.Tx, function string, args []string) (*Response, error)
}

func expectArgs(function string, args []string, n int) error {
	if len(args) != n {
		return fault.Malformedf("incorrect number of arguments for %s: expecting %d, got %d", function, n, len(args))
	}
	return nil
}

func unsupported(c Contract, function string) error {
	return fault.Malformedf("function %q not supported by %s; expecting one of %v", function, c.Name(), c.Functions())
}

func supports(c Contract, function string) bool {
	return slices.Contains(c.Functions(), function)
}

func parseAmount(name, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fault.Malformedf("%s must be an integer, got %q", name, s)
	}
	return n, nil
}

func parseFlag(name, s string, values ...string) (int, error) {
	i := slices.Index(values, s)
	if i < 0 {
		return 0, fault.Malformedf("%s must be one of %v, got %q", name, values, s)
	}
	return i, nil
}

// annotate prefixes err with function. The fault kind is kept.
func annotate(function string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", function, err)
}
