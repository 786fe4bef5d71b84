// Package registry maps opaque instance identifiers, shared by JS and
// native code, to the native objects created for them.
package registry

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// NativeID identifies a native object that has a JS-side counterpart. JS
// picks it (usually a UUID) before the native object exists.
type NativeID = string

// ErrUnknownNativeID is returned by feature operations addressed to an id
// with no live instance.
var ErrUnknownNativeID = errors.New("unknown native id")

// NewNativeID returns a fresh random NativeID.
func NewNativeID() NativeID {
	return uuid.NewString()
}

// Registry is a concurrency-safe NativeID to instance map. A NativeID maps
// to at most one instance: the first Register wins and later ones for the
// same id are ignored.
type Registry[T any] struct {
	mu    sync.RWMutex
	items map[NativeID]T
}

// New creates an empty Registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[NativeID]T)}
}

// Register stores v under id unless id is already present. It reports
// whether v was stored.
func (r *Registry[T]) Register(id NativeID, v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[id]; exists {
		return false
	}
	r.items[id] = v
	return true
}

// Get returns the instance for id.
func (r *Registry[T]) Get(id NativeID) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	return v, ok
}

// Remove deletes id and returns what was stored under it.
func (r *Registry[T]) Remove(id NativeID) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	if ok {
		delete(r.items, id)
	}
	return v, ok
}

// Len returns the number of registered instances.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// IDs returns a snapshot of the registered ids, in no particular order.
func (r *Registry[T]) IDs() []NativeID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]NativeID, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	return ids
}

// Clear removes every instance and returns them.
func (r *Registry[T]) Clear() map[NativeID]T {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.items
	r.items = make(map[NativeID]T)
	return old
}
