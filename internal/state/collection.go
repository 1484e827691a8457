package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmerrifield20/recordledger/internal/codec"
)

// Collection is a typed view over one namespace. Values are decoded into a
// fresh T on every read, so callers always mutate their own copy and write it
// back explicitly.
type Collection[T any] struct {
	store     Store
	namespace string
	codec     codec.Codec
}

// NewCollection binds namespace and codec over store.
func NewCollection[T any](store Store, namespace string, c codec.Codec) *Collection[T] {
	if c == nil {
		c = codec.JSON
	}
	return &Collection[T]{store: store, namespace: namespace, codec: c}
}

func (c *Collection[T]) key(id string) Key { return Key{Namespace: c.namespace, ID: id} }

// Get loads and decodes the value at id. Returns ErrNotFound when absent.
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	raw, err := c.store.Get(ctx, c.key(id))
	if err != nil {
		return nil, err
	}
	v := new(T)
	if err := c.codec.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", c.namespace, id, err)
	}
	return v, nil
}

// Exists reports whether id has a value.
func (c *Collection[T]) Exists(ctx context.Context, id string) (bool, error) {
	_, err := c.store.Get(ctx, c.key(id))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Put encodes v and stores it at id.
func (c *Collection[T]) Put(ctx context.Context, id string, v *T) error {
	raw, err := c.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.namespace, id, err)
	}
	return c.store.Put(ctx, c.key(id), raw)
}

// Delete removes id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.key(id))
}

// Scan decodes and visits every value in the namespace in ascending id
// order. Return ErrStopScan from fn to stop early.
func (c *Collection[T]) Scan(ctx context.Context, fn func(id string, v *T) error) error {
	return c.store.Scan(ctx, c.namespace, func(id string, raw []byte) error {
		v := new(T)
		if err := c.codec.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("decode %s/%s: %w", c.namespace, id, err)
		}
		return fn(id, v)
	})
}
