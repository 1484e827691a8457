package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmerrifield20/recordledger/internal/codec"
	"github.com/jmerrifield20/recordledger/internal/state"
)

var ctx = context.Background()

func TestMemoryStore_getMissing(t *testing.T) {
	s := state.NewMemoryStore()
	_, err := s.Get(ctx, state.Key{Namespace: "records", ID: "nope"})
	if !errors.Is(err, state.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_putGetDelete(t *testing.T) {
	s := state.NewMemoryStore()
	k := state.Key{Namespace: "records", ID: "rec1"}

	if err := s.Put(ctx, k, []byte("v1")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, k)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v1" {
		t.Errorf("got %q, want v1", got)
	}

	// Mutating the returned slice must not leak into the store.
	got[0] = 'X'
	again, _ := s.Get(ctx, k)
	if string(again) != "v1" {
		t.Errorf("store value was aliased: %q", again)
	}

	if err := s.Delete(ctx, k); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, k); err != nil {
		t.Errorf("deleting an absent key should succeed, got %v", err)
	}
	if _, err := s.Get(ctx, k); !errors.Is(err, state.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore_scanOrderedAndIsolated(t *testing.T) {
	s := state.NewMemoryStore()
	for _, id := range []string{"c", "a", "b"} {
		_ = s.Put(ctx, state.Key{Namespace: "providers", ID: id}, []byte(id))
	}
	_ = s.Put(ctx, state.Key{Namespace: "records", ID: "zzz"}, []byte("other"))

	var seen []string
	err := s.Scan(ctx, "providers", func(id string, _ []byte) error {
		seen = append(seen, id)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "c"}
	if len(seen) != len(want) {
		t.Fatalf("got %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestMemoryStore_scanStop(t *testing.T) {
	s := state.NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		_ = s.Put(ctx, state.Key{Namespace: "n", ID: id}, nil)
	}
	count := 0
	err := s.Scan(ctx, "n", func(string, []byte) error {
		count++
		return state.ErrStopScan
	})
	if err != nil {
		t.Fatalf("ErrStopScan should not surface, got %v", err)
	}
	if count != 1 {
		t.Errorf("expected scan to stop after 1, visited %d", count)
	}
}

type widget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCollection_roundTrip(t *testing.T) {
	for _, c := range []codec.Codec{codec.JSON, codec.CBOR} {
		t.Run(c.Name(), func(t *testing.T) {
			col := state.NewCollection[widget](state.NewMemoryStore(), "widgets", c)

			ok, err := col.Exists(ctx, "w1")
			if err != nil || ok {
				t.Fatalf("Exists before put: ok=%v err=%v", ok, err)
			}
			if err := col.Put(ctx, "w1", &widget{Name: "gear", Count: 3}); err != nil {
				t.Fatal(err)
			}
			got, err := col.Get(ctx, "w1")
			if err != nil {
				t.Fatal(err)
			}
			if *got != (widget{Name: "gear", Count: 3}) {
				t.Errorf("got %+v", *got)
			}
			ok, _ = col.Exists(ctx, "w1")
			if !ok {
				t.Error("expected Exists after put")
			}
		})
	}
}
