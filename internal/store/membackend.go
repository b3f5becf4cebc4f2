package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryBackend keeps blobs in process memory. It backs tests and the
// session-only mode used when no database can be opened.
type MemoryBackend struct {
	mu    sync.Mutex
	blobs map[string]Blob
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{blobs: map[string]Blob{}}
}

func (m *MemoryBackend) SaveBlob(_ context.Context, b Blob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.Data = append([]byte(nil), b.Data...)
	m.blobs[b.Name] = b
	return nil
}

func (m *MemoryBackend) LoadBlob(_ context.Context, name string) (*Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, name)
	}
	b.Data = append([]byte(nil), b.Data...)
	return &b, nil
}

func (m *MemoryBackend) ListBlobs(_ context.Context) ([]Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Blob, 0, len(m.blobs))
	for _, b := range m.blobs {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryBackend) Close() error { return nil }
