// Package memory provides a process-local key-value backend.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/jsamuelsen/verse-service/internal/domain"
)

// KV keeps values in a map. Values are copied on the way in and out.
type KV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New creates an empty KV.
func New() *KV {
	return &KV{values: make(map[string][]byte)}
}

// Get returns the value under key.
func (kv *KV) Get(_ context.Context, key string) ([]byte, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	v, ok := kv.values[key]
	if !ok {
		return nil, domain.NewNotFoundError("key", key)
	}

	return slices.Clone(v), nil
}

// Put stores value under key.
func (kv *KV) Put(_ context.Context, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.values[key] = slices.Clone(value)

	return nil
}

// Delete removes key.
func (kv *KV) Delete(_ context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	delete(kv.values, key)

	return nil
}

// Len returns the number of stored keys.
func (kv *KV) Len() int {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	return len(kv.values)
}
