// Package mainthread provides the bridge's main (UI) execution context: a
// single goroutine that runs posted blocks one at a time, in order.
//
// Native player objects are confined to it. JS-initiated writes (create,
// configure, destroy) are posted here. Blocking round trips never run on
// it: SDK worker goroutines issue them, and a JS call that waits on one,
// such as a fullscreen request, gets a goroutine of its own.
package mainthread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/goroutineid"
)

// ErrClosed is returned for work submitted after Close.
var ErrClosed = errors.New("main thread closed")

// Queue is an unbounded FIFO of blocks executed on one goroutine.
type Queue struct {
	logger *slog.Logger

	mu     sync.Mutex
	blocks []func()
	closed bool
	wake   chan struct{}

	id   atomic.Int64
	done chan struct{}
}

// New starts a Queue.
func New(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		logger: logger.With("component", "mainthread"),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	started := make(chan struct{})
	go q.loop(started)
	<-started
	return q
}

func (q *Queue) loop(started chan<- struct{}) {
	defer close(q.done)
	q.id.Store(goroutineid.Get())
	close(started)

	for {
		q.mu.Lock()
		for len(q.blocks) == 0 {
			if q.closed {
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()
			<-q.wake
			q.mu.Lock()
		}
		blocks := q.blocks
		q.blocks = nil
		q.mu.Unlock()

		for _, fn := range blocks {
			q.run(fn)
		}
	}
}

func (q *Queue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("main thread block panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

// Post enqueues fn and returns immediately. It returns false once the
// Queue is closed.
func (q *Queue) Post(fn func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.blocks = append(q.blocks, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes fn on the main thread and waits for its result. When called
// from the main thread itself, fn runs inline.
func (q *Queue) Run(ctx context.Context, fn func() error) error {
	if q.IsCurrent() {
		return fn()
	}
	errCh := make(chan error, 1)
	if !q.Post(func() { errCh <- fn() }) {
		return ErrClosed
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		// the block may have run just before shutdown
		select {
		case err := <-errCh:
			return err
		default:
			return ErrClosed
		}
	}
}

// IsCurrent reports whether the caller is running on the main thread.
func (q *Queue) IsCurrent() bool {
	return goroutineid.Is(q.id.Load())
}

// Close stops accepting blocks, lets the queued ones finish and waits for
// the goroutine to exit. Calling it from the main thread does not wait.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		select {
		case q.wake <- struct{}{}:
		default:
		}
	}
	q.mu.Unlock()
	if !q.IsCurrent() {
		<-q.done
	}
}

// Done is closed once the main thread goroutine has exited.
func (q *Queue) Done() <-chan struct{} { return q.done }
