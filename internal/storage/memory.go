package storage

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store for development and tests. It mimics the
// production layout: items keyed by their id attribute, reads served per
// stream in descending sort-key order.
type Memory struct {
	mu    sync.Mutex
	items map[string]Record
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]Record)}
}

func (m *Memory) Put(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(Record, len(rec))
	for k, v := range rec {
		cp[k] = v
	}
	m.items[rec[AttrID]] = cp
	return nil
}

func (m *Memory) QueryStream(_ context.Context, streamKey string, limit int32) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.items {
		if rec[AttrStream] == streamKey {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][AttrDateTime] != out[j][AttrDateTime] {
			return out[i][AttrDateTime] > out[j][AttrDateTime]
		}
		// Tie order is undefined by contract; sort by id so reads are stable.
		return out[i][AttrID] > out[j][AttrID]
	})
	if limit > 0 && int32(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len reports the number of stored items.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
