// Package store provides in-process BlobStore implementations.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	puts  int

	// failWrites makes Put fail, to exercise write-failure handling
	failWrites error
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Get returns a copy of the blob under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.blobs[key]
	if !ok {
		return nil, tuition.ErrBlobNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put replaces the blob under key.
func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWrites != nil {
		return m.failWrites
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.blobs[key] = v
	m.puts++
	return nil
}

// Puts returns how many successful writes have happened.
func (m *Memory) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}

// FailWrites makes every following Put return err. Pass nil to recover.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = err
}

// ErrInjected is a convenience error for FailWrites.
var ErrInjected = errors.New("injected write failure")
