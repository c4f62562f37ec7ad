// ABOUTME: Registry of identifiers with a mutation in flight
// ABOUTME: Atomic test-and-set so rapid repeated actions dispatch only once

package oplock

import (
	"slices"
	"sync"
)

// Sentinel keys guarding the create forms.
const (
	AddMemory   = "add-memory"
	AddContact  = "add-contact"
	AddSouvenir = "add-souvenir"
)

// Registry tracks locked keys. A key is an item identifier or one of the
// create sentinels.
type Registry struct {
	mu     sync.Mutex
	locked map[string]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{locked: make(map[string]struct{})}
}

// TryAcquire atomically checks key and locks it if free. It reports false
// when key is already locked; the caller must then abandon the operation.
// This avoids the race a separate IsLocked then lock would have.
func (r *Registry) TryAcquire(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.locked[key]; held {
		return false
	}
	r.locked[key] = struct{}{}
	return true
}

// Release unlocks key. Releasing an unlocked key is a no-op.
func (r *Registry) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locked, key)
}

// IsLocked reports whether key has a mutation in flight.
func (r *Registry) IsLocked(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, held := r.locked[key]
	return held
}

// Held returns the locked keys in sorted order.
func (r *Registry) Held() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.locked))
	for k := range r.locked {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
