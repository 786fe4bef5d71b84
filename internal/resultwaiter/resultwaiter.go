// Package resultwaiter lets a native thread block on a value that another
// thread (the JS side) supplies later, correlated by an integer id.
//
// Usage:
//
//	id, wait := w.Make(250 * time.Millisecond)
//	emit(id)                 // tell JS to answer with id
//	v, ok := wait()          // ok is false on timeout
//
// and elsewhere, from any goroutine:
//
//	w.Complete(id, answer)
package resultwaiter

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/metrics"
)

// Waiter is a table of pending waits for one callback kind. It is safe for
// concurrent use.
type Waiter[V any] struct {
	kind   string
	logger *slog.Logger

	lastID atomic.Int64

	mu      sync.Mutex
	pending map[int64]*slot[V]
	closed  bool
	done    chan struct{}
}

type slot[V any] struct {
	ch     chan V
	filled bool
}

// New creates a Waiter. kind labels its log records and metrics.
func New[V any](kind string, logger *slog.Logger) *Waiter[V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Waiter[V]{
		kind:    kind,
		logger:  logger.With("component", "resultwaiter", "kind", kind),
		pending: make(map[int64]*slot[V]),
		done:    make(chan struct{}),
	}
}

// Kind returns the label the Waiter was created with.
func (w *Waiter[V]) Kind() string { return w.kind }

// Make allocates a fresh id and returns it with a wait function. wait
// blocks until Complete is called for id, timeout elapses, or the Waiter is
// closed. It returns (value, true) only for a completion. The entry is
// removed when wait returns; calling wait again returns the same result
// without blocking.
func (w *Waiter[V]) Make(timeout time.Duration) (int64, func() (V, bool)) {
	id := w.lastID.Add(1)
	s := &slot[V]{ch: make(chan V, 1)}

	w.mu.Lock()
	if !w.closed {
		w.pending[id] = s
	}
	w.mu.Unlock()

	return id, sync.OnceValues(func() (V, bool) {
		return w.wait(id, s, timeout)
	})
}

func (w *Waiter[V]) wait(id int64, s *slot[V], timeout time.Duration) (V, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-s.ch:
		w.remove(id)
		return v, true
	case <-timer.C:
	case <-w.done:
	}

	w.mu.Lock()
	delete(w.pending, id)
	w.mu.Unlock()

	// a completion may have landed between the timer firing and the delete
	select {
	case v := <-s.ch:
		return v, true
	default:
		var zero V
		return zero, false
	}
}

func (w *Waiter[V]) remove(id int64) {
	w.mu.Lock()
	delete(w.pending, id)
	w.mu.Unlock()
}

// Complete supplies the value for id. Only the first completion of a live
// id is accepted; unknown, expired and repeated ids are dropped. It reports
// whether v was accepted.
func (w *Waiter[V]) Complete(id int64, v V) bool {
	w.mu.Lock()
	s, ok := w.pending[id]
	if !ok {
		w.mu.Unlock()
		metrics.IncCompletionDropped(w.kind, metrics.DropUnknownID)
		w.logger.Debug("dropping completion for unknown id", "id", id)
		return false
	}
	if s.filled {
		w.mu.Unlock()
		metrics.IncCompletionDropped(w.kind, metrics.DropDuplicate)
		w.logger.Debug("dropping duplicate completion", "id", id)
		return false
	}
	s.filled = true
	s.ch <- v
	w.mu.Unlock()
	return true
}

// Cancel forgets id without completing it. Use it when the request for id
// could not be delivered and its wait function will never be called.
func (w *Waiter[V]) Cancel(id int64) {
	w.remove(id)
}

// Len returns the number of waits not yet finished.
func (w *Waiter[V]) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Close releases every blocked wait with (zero, false) and makes future
// waits return immediately. It is idempotent.
func (w *Waiter[V]) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.done)
	clear(w.pending)
}
