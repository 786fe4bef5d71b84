// Package simulated is an in-process implementation of the sdk interfaces.
// Players advance a virtual playhead on their own worker goroutine and call
// the configured hooks (network, DRM, decoder, adaptation) from there, the
// way a real SDK calls them from its internal threads.
package simulated

import (
	"slices"
	"sync"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

// Emitter implements sdk.EventEmitter. Listeners are called on the emitting
// goroutine, after the listener list has been copied and the lock dropped.
type Emitter struct {
	mu        sync.Mutex
	listeners map[sdk.EventKind][]sdk.Listener
}

func (e *Emitter) On(kind sdk.EventKind, l sdk.Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[sdk.EventKind][]sdk.Listener)
	}
	e.listeners[kind] = append(e.listeners[kind], l)
}

func (e *Emitter) Off(kind sdk.EventKind, l sdk.Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ls := e.listeners[kind]
	if i := slices.Index(ls, l); i >= 0 {
		e.listeners[kind] = slices.Delete(slices.Clone(ls), i, i+1)
	}
}

// Emit delivers ev to the listeners of its kind.
func (e *Emitter) Emit(ev sdk.Event) {
	e.mu.Lock()
	ls := e.listeners[ev.Kind()]
	e.mu.Unlock()
	for _, l := range ls {
		l.OnEvent(ev)
	}
}

// ListenerCount returns the number of listeners across all kinds.
func (e *Emitter) ListenerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ls := range e.listeners {
		n += len(ls)
	}
	return n
}
