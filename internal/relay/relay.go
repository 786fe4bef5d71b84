// Package relay forwards events from a swappable native emitter to a single
// output, under a fixed event-kind to event-name table.
package relay

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/metrics"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

// Output receives each relayed event with its name and the emitter it was
// raised by, as passed to SetEmitter. An error or panic drops that event
// only.
type Output func(source sdk.EventEmitter, name string, e sdk.Event) error

// DefaultNames maps every sdk.EventKind to "on" + its name, e.g. onReady,
// onPlayerError, onSourceLoaded.
func DefaultNames() map[sdk.EventKind]string {
	names := make(map[sdk.EventKind]string)
	for _, k := range sdk.AllEventKinds() {
		names[k] = "on" + k.String()
	}
	return names
}

// Relay subscribes to every kind in its table on the current emitter. A
// relay is bound to at most one emitter at a time; SetEmitter moves it.
//
// Events are forwarded in the order the emitter raises them. After
// SetEmitter returns, nothing raised by the previous emitter is forwarded,
// and nothing from the new emitter is forwarded before SetEmitter has
// subscribed to all kinds.
type Relay struct {
	names  map[sdk.EventKind]string
	output Output
	logger *slog.Logger

	mu      sync.RWMutex
	current *attachment

	failLog rate.Sometimes
}

type attachment struct {
	emitter  sdk.EventEmitter
	bindings []*binding
}

type binding struct {
	relay *Relay
	att   *attachment
	kind  sdk.EventKind
	name  string
}

func (b *binding) OnEvent(e sdk.Event) { b.relay.deliver(b, e) }

// New creates an unbound Relay. names is copied.
func New(names map[sdk.EventKind]string, output Output, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	table := make(map[sdk.EventKind]string, len(names))
	for k, v := range names {
		table[k] = v
	}
	return &Relay{
		names:   table,
		output:  output,
		logger:  logger.With("component", "relay"),
		failLog: rate.Sometimes{First: 5, Interval: 10 * time.Second},
	}
}

// SetEmitter detaches from the current emitter, if any, and attaches to
// emitter. A nil emitter only detaches. Setting the current emitter again
// is a no-op. Output must not call SetEmitter.
func (r *Relay) SetEmitter(emitter sdk.EventEmitter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old := r.current; old != nil {
		if old.emitter == emitter {
			return
		}
		for _, b := range old.bindings {
			old.emitter.Off(b.kind, b)
		}
		r.current = nil
	}
	if emitter == nil {
		return
	}

	att := &attachment{emitter: emitter}
	for k, name := range r.names {
		b := &binding{relay: r, att: att, kind: k, name: name}
		att.bindings = append(att.bindings, b)
		emitter.On(k, b)
	}
	r.current = att
}

// Emitter returns the current emitter, or nil.
func (r *Relay) Emitter() sdk.EventEmitter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil
	}
	return r.current.emitter
}

func (r *Relay) deliver(b *binding, e sdk.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current != b.att {
		metrics.IncRelayDropped(b.name, "detached")
		return
	}
	if err := r.forward(b.att.emitter, b.name, e); err != nil {
		metrics.IncRelayDropped(b.name, "output")
		r.failLog.Do(func() {
			r.logger.Warn("dropping event", "event", b.name, "error", err)
		})
		return
	}
	metrics.IncRelayEvent(b.name)
}

func (r *Relay) forward(source sdk.EventEmitter, name string, e sdk.Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("output panicked: %v", p)
		}
	}()
	return r.output(source, name, e)
}
