package state

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each namespace in one Redis hash named prefix+namespace.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a RedisStore. prefix is prepended to every hash
// name, e.g. "recordledger:".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) hash(namespace string) string { return s.prefix + namespace }

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key Key) ([]byte, error) {
	v, err := s.client.HGet(ctx, s.hash(key.Namespace), key.ID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, key Key, value []byte) error {
	if err := s.client.HSet(ctx, s.hash(key.Namespace), key.ID, value).Err(); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.HDel(ctx, s.hash(key.Namespace), key.ID).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Scan implements Store. HGETALL has no order, so ids are sorted client-side.
func (s *RedisStore) Scan(ctx context.Context, namespace string, fn ScanFunc) error {
	all, err := s.client.HGetAll(ctx, s.hash(namespace)).Result()
	if err != nil {
		return fmt.Errorf("scan %s: %w", namespace, err)
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := fn(id, []byte(all[id])); err != nil {
			if errors.Is(err, ErrStopScan) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error { return s.client.Close() }
