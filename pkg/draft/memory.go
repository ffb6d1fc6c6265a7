package draft

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryKV is an in-process KV with an optional byte quota, behaving like a
// browser storage area.
type MemoryKV struct {
	mu    sync.RWMutex
	data  map[string]string
	used  int64
	quota int64
}

// NewMemoryKV creates an empty MemoryKV. quotaBytes <= 0 means unlimited.
func NewMemoryKV(quotaBytes int64) *MemoryKV {
	return &MemoryKV{
		data:  make(map[string]string),
		quota: quotaBytes,
	}
}

// Get implements KV.
func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Put implements KV.
func (m *MemoryKV) Put(_ context.Context, entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used
	for k, v := range entries {
		if old, ok := m.data[k]; ok {
			used -= entrySize(k, old)
		}
		used += entrySize(k, v)
	}
	if m.quota > 0 && used > m.quota {
		return fmt.Errorf("%w: %d of %d bytes", ErrQuotaExceeded, used, m.quota)
	}

	for k, v := range entries {
		m.data[k] = v
	}
	m.used = used
	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		if old, ok := m.data[k]; ok {
			m.used -= entrySize(k, old)
			delete(m.data, k)
		}
	}
	return nil
}

// Keys implements KV.
func (m *MemoryKV) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Used returns the bytes currently counted against the quota.
func (m *MemoryKV) Used() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}

// Close implements KV.
func (m *MemoryKV) Close() error {
	return nil
}
