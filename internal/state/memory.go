package state

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryStore is an in-memory, thread-safe Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte // namespace → id → value
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string][]byte)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key Key) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key.Namespace][key.ID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, key Key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.data[key.Namespace]
	if !ok {
		ns = make(map[string][]byte)
		m.data[key.Namespace] = ns
	}
	ns[key.ID] = clone(value)
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[key.Namespace], key.ID)
	return nil
}

// Scan implements Store. The callback runs on a snapshot taken under the
// read lock, so it may call back into the store.
func (m *MemoryStore) Scan(ctx context.Context, namespace string, fn ScanFunc) error {
	m.mu.RLock()
	ns := m.data[namespace]
	ids := make([]string, 0, len(ns))
	snapshot := make(map[string][]byte, len(ns))
	for id, v := range ns {
		ids = append(ids, id)
		snapshot[id] = clone(v)
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(id, snapshot[id]); err != nil {
			if errors.Is(err, ErrStopScan) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
