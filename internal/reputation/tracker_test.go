package reputation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmerrifield20/recordledger/internal/codec"
	"github.com/jmerrifield20/recordledger/internal/fault"
	"github.com/jmerrifield20/recordledger/internal/identity"
	"github.com/jmerrifield20/recordledger/internal/reputation"
	"github.com/jmerrifield20/recordledger/internal/state"
	"github.com/jmerrifield20/recordledger/internal/txn"
	"go.uber.org/zap"
)

var ctx = context.Background()

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTracker() (*reputation.Tracker, *txn.FixedClock) {
	return reputation.NewTracker(state.NewMemoryStore(), codec.JSON, zap.NewNop()), &txn.FixedClock{T: t0}
}

func txAt(clock *txn.FixedClock) *txn.Tx {
	return txn.New(identity.Caller{ClientID: "c", Provider: "org0"}, clock)
}

func TestCredit_createsThenAccumulates(t *testing.T) {
	tr, clock := newTracker()

	s, err := tr.Credit(ctx, txAt(clock), "Org1", 50)
	if err != nil {
		t.Fatal(err)
	}
	if s.Significance != 50 || !s.LastUpdate.Equal(t0) {
		t.Errorf("first credit: got %+v", s)
	}

	clock.Advance(time.Minute)
	s, err = tr.Credit(ctx, txAt(clock), "org1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if s.Significance != 60 {
		t.Errorf("significance: got %d, want 60", s.Significance)
	}
	if !s.LastUpdate.Equal(t0.Add(time.Minute)) {
		t.Errorf("last update not refreshed: %v", s.LastUpdate)
	}

	got, err := tr.Get(ctx, "ORG1")
	if err != nil {
		t.Fatal(err)
	}
	if got != 60 {
		t.Errorf("Get: got %d, want 60", got)
	}
}

func TestCredit_rejectsNegative(t *testing.T) {
	tr, clock := newTracker()
	if _, err := tr.Credit(ctx, txAt(clock), "org1", -1); !errors.Is(err, fault.ErrMalformed) {
		t.Errorf("expected malformed, got %v", err)
	}
	if _, err := tr.Get(ctx, "org1"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("rejected credit must not create a score, got %v", err)
	}
}

func TestGetDelete(t *testing.T) {
	tr, clock := newTracker()
	if _, err := tr.Get(ctx, "missing"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	_, _ = tr.Credit(ctx, txAt(clock), "org1", 5)
	if err := tr.Delete(ctx, "org1"); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Get(ctx, "org1"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := tr.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("delete of absent provider: %v", err)
	}
}

func TestSelectEndorser_prefersLowerSignificanceWhenFresh(t *testing.T) {
	tr, clock := newTracker()
	_, _ = tr.Credit(ctx, txAt(clock), "high", 10)
	_, _ = tr.Credit(ctx, txAt(clock), "low", 5)

	clock.Advance(30 * time.Second)
	got, err := tr.SelectEndorser(ctx, txAt(clock), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "low" {
		t.Errorf("got %q, want low", got)
	}
}

func TestSelectEndorser_prefersIdleProvider(t *testing.T) {
	tr, clock := newTracker()
	// "a" is scanned first so the idle rule, not the first-seen rule, must
	// pick "b".
	_, _ = tr.Credit(ctx, txAt(clock), "b", 10)
	clock.Advance(670 * time.Second)
	_, _ = tr.Credit(ctx, txAt(clock), "a", 5)
	clock.Advance(30 * time.Second)

	got, err := tr.SelectEndorser(ctx, txAt(clock), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "b" {
		t.Errorf("got %q, want the idle provider b", got)
	}
}

func TestSelectEndorser_idleFirstIsKept(t *testing.T) {
	tr, clock := newTracker()
	_, _ = tr.Credit(ctx, txAt(clock), "a", 10)
	clock.Advance(670 * time.Second)
	_, _ = tr.Credit(ctx, txAt(clock), "b", 5)
	clock.Advance(30 * time.Second)

	got, err := tr.SelectEndorser(ctx, txAt(clock), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "a" {
		t.Errorf("got %q, want the idle provider a", got)
	}
}

func TestSelectEndorser_mostIdleWins(t *testing.T) {
	tr, clock := newTracker()
	_, _ = tr.Credit(ctx, txAt(clock), "c", 1000)
	clock.Advance(100 * time.Second)
	_, _ = tr.Credit(ctx, txAt(clock), "a", 1)
	_, _ = tr.Credit(ctx, txAt(clock), "b", 900)
	clock.Advance(time.Hour)

	got, err := tr.SelectEndorser(ctx, txAt(clock), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "c" {
		t.Errorf("got %q, want c", got)
	}
}

func TestSelectEndorser_tieGoesToFirstID(t *testing.T) {
	tr, clock := newTracker()
	_, _ = tr.Credit(ctx, txAt(clock), "zeta", 7)
	_, _ = tr.Credit(ctx, txAt(clock), "alpha", 7)

	got, err := tr.SelectEndorser(ctx, txAt(clock), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "alpha" {
		t.Errorf("got %q, want alpha", got)
	}
}

func TestSelectEndorser_neverReturnsExcluded(t *testing.T) {
	tr, clock := newTracker()
	_, _ = tr.Credit(ctx, txAt(clock), "org1", 0)
	_, _ = tr.Credit(ctx, txAt(clock), "org2", 500)

	for _, offset := range []time.Duration{0, 10 * time.Minute, 2 * time.Hour} {
		clock.Advance(offset)
		got, err := tr.SelectEndorser(ctx, txAt(clock), "Org1")
		if err != nil {
			t.Fatal(err)
		}
		if got != "org2" {
			t.Errorf("after %v: got %q, want org2", offset, got)
		}
	}
}

func TestSelectEndorser_noCandidate(t *testing.T) {
	tr, clock := newTracker()
	if _, err := tr.SelectEndorser(ctx, txAt(clock), ""); !errors.Is(err, fault.ErrNoCandidate) {
		t.Errorf("empty tracker: expected no candidate, got %v", err)
	}

	_, _ = tr.Credit(ctx, txAt(clock), "only", 3)
	if _, err := tr.SelectEndorser(ctx, txAt(clock), "only"); !errors.Is(err, fault.ErrNoCandidate) {
		t.Errorf("all excluded: expected no candidate, got %v", err)
	}
}

func TestSelectEndorser_customThreshold(t *testing.T) {
	tr, clock := newTracker()
	tr.SetIdleThreshold(time.Minute)
	_, _ = tr.Credit(ctx, txAt(clock), "b", 10)
	clock.Advance(90 * time.Second)
	_, _ = tr.Credit(ctx, txAt(clock), "a", 5)

	got, err := tr.SelectEndorser(ctx, txAt(clock), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "b" {
		t.Errorf("got %q, want b", got)
	}
}

func TestSeedAndList(t *testing.T) {
	tr, clock := newTracker()
	if err := tr.Seed(ctx, txAt(clock), map[string]int64{"Org2": 20, "org1": 10}); err != nil {
		t.Fatal(err)
	}

	list, err := tr.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 standings, got %d", len(list))
	}
	if list[0].Provider != "org1" || list[0].Significance != 10 {
		t.Errorf("list[0]: got %+v", list[0])
	}
	if list[1].Provider != "org2" || list[1].Significance != 20 {
		t.Errorf("list[1]: got %+v", list[1])
	}

	if err := tr.Seed(ctx, txAt(clock), map[string]int64{"org3": -4}); !errors.Is(err, fault.ErrMalformed) {
		t.Errorf("expected malformed for negative seed, got %v", err)
	}
}

func TestScore_roundTrip(t *testing.T) {
	want := reputation.Score{Significance: 42, LastUpdate: t0.Add(123456 * time.Microsecond)}
	for _, c := range []codec.Codec{codec.JSON, codec.CBOR} {
		raw, err := c.Marshal(want)
		if err != nil {
			t.Fatalf("%s marshal: %v", c.Name(), err)
		}
		var got reputation.Score
		if err := c.Unmarshal(raw, &got); err != nil {
			t.Fatalf("%s unmarshal: %v", c.Name(), err)
		}
		if got.Significance != want.Significance || !got.LastUpdate.Equal(want.LastUpdate) {
			t.Errorf("%s: got %+v, want %+v", c.Name(), got, want)
		}
	}
}
