package objectstore

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore serves content from a map under baseURL.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[Handle][]byte
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: baseURL, objects: make(map[Handle][]byte)}
}

func (m *MemoryStore) Upload(_ context.Context, data []byte, contentType string) (Handle, error) {
	if len(data) == 0 {
		return "", errors.New("empty upload")
	}
	h := HandleFor(data, contentType)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[h] = append([]byte(nil), data...)
	return h, nil
}

func (m *MemoryStore) ResolvePublicURL(_ context.Context, h Handle) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[h]; !ok {
		return "", false, nil
	}
	return m.baseURL + "/" + string(h), true, nil
}
