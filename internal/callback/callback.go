// Package callback turns a synchronous native hook into a round trip to JS:
// the hook's input is sent as an event carrying a fresh request id, and the
// calling SDK thread blocks until JS completes that id or a timeout elapses.
//
// A round trip never fails. When no answer arrives in time, or the answer
// cannot be used, the caller gets ok == false and applies its documented
// default, which is normally to pass the original input through.
package callback

import (
	"log/slog"
	"maps"
	"time"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/metrics"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/registry"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/resultwaiter"
)

// Emitter delivers an event to JS.
type Emitter interface {
	SendEvent(event string, payload any) error
}

// LoopChecker reports whether the caller is the JS loop goroutine.
type LoopChecker interface {
	OnLoop() bool
}

// Envelope keys added to every request payload.
const (
	KeyNativeID = "nativeId"
	KeyID       = "id"
)

// RoundTrip is the adapter for one callback kind. Its event name doubles as
// the kind label, and it owns the Waiter for that kind, so ids of different
// kinds never meet.
type RoundTrip[V any] struct {
	event   string
	emitter Emitter
	loop    LoopChecker
	timeout time.Duration
	waiter  *resultwaiter.Waiter[V]
	logger  *slog.Logger
}

// New creates a RoundTrip that emits event and waits up to timeout.
func New[V any](event string, emitter Emitter, loop LoopChecker, timeout time.Duration, logger *slog.Logger) *RoundTrip[V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoundTrip[V]{
		event:   event,
		emitter: emitter,
		loop:    loop,
		timeout: timeout,
		waiter:  resultwaiter.New[V](event, logger),
		logger:  logger.With("component", "callback", "kind", event),
	}
}

// Sibling returns a RoundTrip that sends event but shares r's Waiter, so
// one completion function can answer requests of both.
func (r *RoundTrip[V]) Sibling(event string) *RoundTrip[V] {
	s := *r
	s.event = event
	s.logger = r.logger.With("event", event)
	return &s
}

// Event returns the event name requests are sent under.
func (r *RoundTrip[V]) Event() string { return r.event }

// Timeout returns the wait bound.
func (r *RoundTrip[V]) Timeout() time.Duration { return r.timeout }

// Call sends payload to JS for the instance nativeID and waits for the
// answer. payload is copied; the keys "nativeId" and "id" are set on the
// copy. It must not be called from the JS loop goroutine, which could never
// answer; there it returns ok == false at once.
func (r *RoundTrip[V]) Call(nativeID registry.NativeID, payload map[string]any) (V, bool) {
	var zero V
	if r.loop != nil && r.loop.OnLoop() {
		metrics.ObserveRoundTrip(r.event, metrics.OutcomeSkipped, 0)
		r.logger.Warn("round trip requested from the JS loop; using default", "nativeId", nativeID)
		return zero, false
	}

	start := time.Now()
	id, wait := r.waiter.Make(r.timeout)

	envelope := make(map[string]any, len(payload)+2)
	maps.Copy(envelope, payload)
	envelope[KeyNativeID] = nativeID
	envelope[KeyID] = id

	if err := r.emitter.SendEvent(r.event, envelope); err != nil {
		r.waiter.Cancel(id)
		metrics.ObserveRoundTrip(r.event, metrics.OutcomeSkipped, time.Since(start))
		r.logger.Warn("failed to send round trip request; using default", "nativeId", nativeID, "id", id, "error", err)
		return zero, false
	}

	v, ok := wait()
	took := time.Since(start)
	if !ok {
		metrics.ObserveRoundTrip(r.event, metrics.OutcomeTimeout, took)
		r.logger.Warn("round trip timed out; using default", "nativeId", nativeID, "id", id, "timeout", r.timeout)
		return zero, false
	}
	metrics.ObserveRoundTrip(r.event, metrics.OutcomeCompleted, took)
	return v, true
}

// Complete answers request id. Unknown, expired and repeated ids are
// ignored. It may be called from any goroutine.
func (r *RoundTrip[V]) Complete(id int64, v V) bool {
	return r.waiter.Complete(id, v)
}

// Pending returns the number of requests waiting for an answer.
func (r *RoundTrip[V]) Pending() int { return r.waiter.Len() }

// Close releases every waiting caller with its default.
func (r *RoundTrip[V]) Close() { r.waiter.Close() }
