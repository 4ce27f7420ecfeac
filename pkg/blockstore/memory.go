package blockstore

import (
	"context"
	"sync"

	cid "github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// Memory is an in-process Store backed by a map, guarded by a mutex. It is
// meant for tests and examples, not production replicas (see SQLite).
type Memory struct {
	mu     sync.RWMutex
	blocks map[string][]byte
}

// NewMemory constructs an empty Memory store.
func NewMemory() *Memory {
	return &Memory{blocks: make(map[string][]byte)}
}

func hashBytes(data []byte) (cid.Cid, error) {
	sum, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Put stores data and returns its content address.
func (m *Memory) Put(_ context.Context, data []byte) (cid.Cid, error) {
	c, err := hashBytes(data)
	if err != nil {
		return cid.Undef, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[c.KeyString()] = data
	return c, nil
}

// Get returns the bytes stored under c.
func (m *Memory) Get(_ context.Context, c cid.Cid) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blocks[c.KeyString()]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Has reports whether c is present.
func (m *Memory) Has(_ context.Context, c cid.Cid) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blocks[c.KeyString()]
	return ok, nil
}

// Close is a no-op for Memory.
func (m *Memory) Close() error { return nil }

// Len returns the number of blocks currently stored. Exposed for tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blocks)
}
