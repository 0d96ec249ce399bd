package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNoRecord is returned by [Storage.Read] when the tier holds no
// persisted session record.
var ErrNoRecord = errors.New("no persisted session record")

// Storage is a single persistence tier for the encoded session record.
// Implementations must be safe for concurrent use.
type Storage interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, record []byte) error
	Clear(ctx context.Context) error
}

// MemoryStorage is the volatile tier: a single in-process record cell that
// disappears with the process.
type MemoryStorage struct {
	mu     sync.Mutex
	record []byte
}

// NewMemoryStorage creates an empty volatile tier.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Read returns the stored record or [ErrNoRecord].
func (m *MemoryStorage) Read(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.record == nil {
		return nil, ErrNoRecord
	}
	out := make([]byte, len(m.record))
	copy(out, m.record)
	return out, nil
}

// Write replaces the stored record.
func (m *MemoryStorage) Write(_ context.Context, record []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = make([]byte, len(record))
	copy(m.record, record)
	return nil
}

// Clear removes the stored record. Clearing an empty tier is a no-op.
func (m *MemoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = nil
	return nil
}
