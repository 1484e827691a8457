package contract_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmerrifield20/recordledger/internal/access"
	"github.com/jmerrifield20/recordledger/internal/codec"
	"github.com/jmerrifield20/recordledger/internal/contract"
	"github.com/jmerrifield20/recordledger/internal/directory"
	"github.com/jmerrifield20/recordledger/internal/fault"
	"github.com/jmerrifield20/recordledger/internal/identity"
	"github.com/jmerrifield20/recordledger/internal/journal"
	"github.com/jmerrifield20/recordledger/internal/reputation"
	"github.com/jmerrifield20/recordledger/internal/state"
	"github.com/jmerrifield20/recordledger/internal/txn"
	"go.uber.org/zap"
)

var ctx = context.Background()

var (
	alice   = identity.Caller{ClientID: "YWxpY2U=", Provider: "Org1"}
	mallory = identity.Caller{ClientID: "bWFsbG9yeQ==", Provider: "Org3"}
)

func newGateway(t *testing.T) (*contract.Gateway, *journal.MemoryJournal) {
	t.Helper()
	store := state.NewMemoryStore()
	log := zap.NewNop()
	rep := reputation.NewTracker(store, codec.CBOR, log)
	dir := directory.New(store, codec.CBOR, rep, log)
	ledger := access.New(store, codec.CBOR, dir, rep, access.DefaultConfig(), log)

	j := journal.NewMemory()
	gw := contract.NewGateway([]contract.Contract{
		contract.NewAccessContract(ledger),
		contract.NewDirectoryContract(dir),
		contract.NewReputationContract(rep),
	}, j, &txn.FixedClock{T: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}, log)
	return gw, j
}

func TestGateway_contracts(t *testing.T) {
	gw, _ := newGateway(t)
	got := gw.Contracts()
	want := []string{"access", "directory", "reputation"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestGateway_unknownContractAndFunction(t *testing.T) {
	gw, j := newGateway(t)

	if _, err := gw.Invoke(ctx, "billing", "create", nil, alice); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("unknown contract: expected not found, got %v", err)
	}
	if _, err := gw.Invoke(ctx, "access", "destroy", nil, alice); !errors.Is(err, fault.ErrMalformed) {
		t.Errorf("unknown function: expected malformed, got %v", err)
	}
	if n, _ := j.Len(ctx); n != 1 {
		t.Errorf("rejected dispatch must not be journaled, journal has %d entries", n)
	}
}

func TestGateway_argumentCounts(t *testing.T) {
	gw, _ := newGateway(t)
	cases := []struct {
		contract, function string
		args               []string
	}{
		{"access", "create", []string{"rec1", "12345678901"}},
		{"access", "log", []string{"rec1", "WRITE"}},
		{"access", "update", []string{"rec1", "x", "0", "0"}},
		{"access", "delete", nil},
		{"access", "query", []string{"rec1"}},
		{"directory", "add", []string{"12345678901", "rec1"}},
		{"directory", "update", nil},
		{"directory", "delete", []string{"a", "b"}},
		{"directory", "deleteReference", nil},
		{"directory", "query", nil},
		{"reputation", "update", []string{"org1"}},
		{"reputation", "delete", nil},
		{"reputation", "query", nil},
		{"reputation", "selectEndorser", []string{"a", "b"}},
		{"reputation", "init", []string{"org1"}},
		{"reputation", "list", []string{"x"}},
	}
	for _, tc := range cases {
		_, err := gw.Invoke(ctx, tc.contract, tc.function, tc.args, alice)
		if !errors.Is(err, fault.ErrMalformed) {
			t.Errorf("%s.%s%v: expected malformed, got %v", tc.contract, tc.function, tc.args, err)
		}
	}
}

func TestGateway_argumentParsing(t *testing.T) {
	gw, _ := newGateway(t)
	if _, err := gw.Invoke(ctx, "access", "create", []string{"rec1", "12345678901", "lots"}, alice); !errors.Is(err, fault.ErrMalformed) {
		t.Errorf("non-numeric significance: got %v", err)
	}
	if _, err := gw.Invoke(ctx, "access", "create", []string{"rec1", "12345678901", "5"}, alice); err != nil {
		t.Fatal(err)
	}

	bad := [][]string{
		{"rec1", "target", "2", "0", "READ"},
		{"rec1", "target", "0", "client", "READ"},
		{"rec1", "target", "0", "0", "ERASE"},
	}
	for _, args := range bad {
		if _, err := gw.Invoke(ctx, "access", "update", args, alice); !errors.Is(err, fault.ErrMalformed) {
			t.Errorf("update %v: expected malformed, got %v", args, err)
		}
	}
	if _, err := gw.Invoke(ctx, "access", "query", []string{"rec1", "maybe"}, alice); !errors.Is(err, fault.ErrMalformed) {
		t.Errorf("bad override flag: got %v", err)
	}
}

func TestGateway_recordLifecycle(t *testing.T) {
	gw, j := newGateway(t)

	resp, err := gw.Invoke(ctx, "access", "create", []string{"rec1", "12345678901", "50"}, alice)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != contract.StatusOK || resp.Message != "Invoke Success" {
		t.Errorf("create response: %+v", resp)
	}

	// Grant provider Org3 READ, then mallory may read through her provider.
	if _, err := gw.Invoke(ctx, "access", "update", []string{"rec1", "Org3", "0", "1", "READ"}, alice); err != nil {
		t.Fatal(err)
	}
	resp, err = gw.Invoke(ctx, "access", "query", []string{"rec1", "0"}, mallory)
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := resp.Payload.(*access.Record)
	if !ok {
		t.Fatalf("query payload: got %T", resp.Payload)
	}
	if last := rec.Log[len(rec.Log)-1]; last.Action != access.ActionRead {
		t.Errorf("last audit entry: %+v", last)
	}

	// Revoke it again: mallory is now refused.
	if _, err := gw.Invoke(ctx, "access", "update", []string{"rec1", "Org3", "1", "1", "READ"}, alice); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.Invoke(ctx, "access", "query", []string{"rec1", "0"}, mallory); !errors.Is(err, fault.ErrDenied) {
		t.Errorf("expected denied, got %v", err)
	}

	resp, err = gw.Invoke(ctx, "directory", "query", []string{"12345678901"}, alice)
	if err != nil {
		t.Fatal(err)
	}
	if entry := resp.Payload.(*directory.Entry); entry.References["rec1"].Provider != "Org1" {
		t.Errorf("directory entry: %+v", entry)
	}

	if _, err := gw.Invoke(ctx, "access", "delete", []string{"rec1"}, alice); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.Invoke(ctx, "access", "query", []string{"rec1", "1"}, alice); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}

	n, _ := j.Len(ctx)
	if n != 9 { // genesis + 8 invocations
		t.Errorf("journal length: got %d, want 9", n)
	}
	denied, err := j.Get(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if denied.Function != "query" || denied.Outcome != string(fault.Denied) || denied.Invoker != mallory.ClientID {
		t.Errorf("journal entry 5: %+v", denied)
	}
	if err := j.Verify(ctx); err != nil {
		t.Errorf("journal should verify: %v", err)
	}
}

func TestGateway_reputation(t *testing.T) {
	gw, _ := newGateway(t)

	if _, err := gw.Invoke(ctx, "reputation", "init", []string{"Org1", "org2", "5", "10"}, alice); err != nil {
		t.Fatal(err)
	}
	resp, err := gw.Invoke(ctx, "reputation", "query", []string{"org1"}, alice)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Payload != int64(5) {
		t.Errorf("org1 significance: got %v", resp.Payload)
	}

	// No argument excludes the caller's own provider (org1).
	resp, err = gw.Invoke(ctx, "reputation", "selectEndorser", nil, alice)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Payload != "org2" {
		t.Errorf("endorser: got %v, want org2", resp.Payload)
	}
	resp, err = gw.Invoke(ctx, "reputation", "selectEndorser", []string{"org2"}, alice)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Payload != "org1" {
		t.Errorf("endorser: got %v, want org1", resp.Payload)
	}

	if _, err := gw.Invoke(ctx, "reputation", "update", []string{"org2", "-3"}, alice); !errors.Is(err, fault.ErrMalformed) {
		t.Errorf("negative credit: expected malformed, got %v", err)
	}
	if _, err := gw.Invoke(ctx, "reputation", "delete", []string{"org2"}, alice); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.Invoke(ctx, "reputation", "selectEndorser", nil, alice); !errors.Is(err, fault.ErrNoCandidate) {
		t.Errorf("expected no candidate, got %v", err)
	}

	resp, err = gw.Invoke(ctx, "reputation", "list", nil, alice)
	if err != nil {
		t.Fatal(err)
	}
	if list := resp.Payload.([]reputation.Standing); len(list) != 1 || list[0].Provider != "org1" {
		t.Errorf("list: %+v", list)
	}
}

func TestGateway_directoryAdministration(t *testing.T) {
	gw, _ := newGateway(t)
	if _, err := gw.Invoke(ctx, "directory", "add", []string{"12345678901", "rec9", "Org5"}, alice); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.Invoke(ctx, "directory", "add", []string{"12345678901", "rec10", "Org5"}, alice); !errors.Is(err, fault.ErrDuplicate) {
		t.Errorf("expected duplicate, got %v", err)
	}
	if _, err := gw.Invoke(ctx, "directory", "update", []string{"rec9"}, alice); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.Invoke(ctx, "reputation", "query", []string{"org5"}, alice); err != nil {
		t.Errorf("touch should credit Org5: %v", err)
	}
	if _, err := gw.Invoke(ctx, "directory", "deleteReference", []string{"rec9"}, alice); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.Invoke(ctx, "directory", "deleteReference", []string{"rec9"}, alice); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := gw.Invoke(ctx, "directory", "delete", []string{"12345678901"}, alice); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.Invoke(ctx, "directory", "query", []string{"12345678901"}, alice); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
