// Package playertest drives one or two players through the bridge from Go
// and asserts on the events their views relay. Each slot tracks its player
// by NativeID, so expectations never see another slot's events, even after
// the views are swapped.
package playertest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/host"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/registry"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk/simulated"
)

// DefaultTimeout bounds expectations unless Options.Timeout is set.
const DefaultTimeout = 5 * time.Second

// Slot names a player under test.
type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
)

// State is the lifecycle of a slot.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateDestroyed:
		return "destroyed"
	}
	return "uninitialized"
}

var (
	// ErrSlotState is returned for operations on a slot that is not
	// initialized, or for starting one twice.
	ErrSlotState = errors.New("slot in wrong state")
	// ErrUnexpectedEvent is returned by ExpectNoEvent.
	ErrUnexpectedEvent = errors.New("unexpected event")
	// ErrExpectationTimeout is returned when an expectation is not met in
	// time.
	ErrExpectationTimeout = errors.New("expectation not met")
)

// PlayerConfig configures a slot's player.
type PlayerConfig struct {
	LicenseKey string             `json:"licenseKey,omitempty"`
	Playback   sdk.PlaybackConfig `json:"playbackConfig"`
}

// Options configure a World.
type Options struct {
	// Host runs the players. nil starts a private host with a fast
	// simulated SDK, closed by World.Close.
	Host *host.Host
	// Timeout bounds each expectation. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// World owns the slots of one test.
type World struct {
	host    *host.Host
	owned   bool
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	slots map[Slot]*slot
}

type slot struct {
	name Slot

	mu       sync.Mutex
	state    State
	playerID registry.NativeID
	viewID   string
	watchers map[*watcher]struct{}
	history  []Event
}

type watcher struct {
	tracker tracker
	matched []Event
	done    chan struct{}
	closed  bool
}

// bootstrap installs the event sink and the helpers the world calls.
const bootstrap = `
var __world = (function () {
	var B = require('bitmovin');
	require('bitmovin:PlayerViewModule').addListener('onBmpEvent', function (e) {
		__playertestEvent(e);
	});
	var slots = {};
	return {
		start: function (name, playerId, viewId, config) {
			config.nativeId = playerId;
			var s = {player: new B.Player(config), view: new B.PlayerView({viewId: viewId})};
			slots[name] = s;
			return s.player.initialize().then(function () { return s.view.setPlayer(s.player); });
		},
		call: function (name, method, args) {
			var player = slots[name].player;
			if (typeof player[method] !== 'function') {
				throw new TypeError('Player has no method ' + method);
			}
			return player[method].apply(player, args);
		},
		swap: function (a, b) {
			var sa = slots[a], sb = slots[b];
			return Promise.all([sa.view.setPlayer(null), sb.view.setPlayer(null)]).then(function () {
				var v = sa.view;
				sa.view = sb.view;
				sb.view = v;
				return Promise.all([sa.view.setPlayer(sa.player), sb.view.setPlayer(sb.player)]);
			});
		},
		destroy: function (name) {
			var s = slots[name];
			delete slots[name];
			return Promise.all([s.view.destroy(), s.player.destroy()]);
		},
		discard: function (name) {
			var s = slots[name];
			if (!s) {
				return;
			}
			delete slots[name];
			return Promise.all([s.view.destroy(), s.player.destroy()]).catch(function () {});
		},
	};
})();
`

// New creates a World and installs its event sink in the host runtime.
func New(ctx context.Context, opts Options) (*World, error) {
	w := &World{
		host:    opts.Host,
		timeout: opts.Timeout,
		slots:   map[Slot]*slot{},
	}
	if w.timeout <= 0 {
		w.timeout = DefaultTimeout
	}
	if w.host == nil {
		h, err := host.New(ctx, host.Options{
			Factory: simulated.Factory{Options: simulated.Options{Tick: 10 * time.Millisecond, Speed: 10, Duration: 60}},
		})
		if err != nil {
			return nil, err
		}
		w.host, w.owned = h, true
	}
	w.logger = w.host.Logger().With("component", "playertest")

	if err := w.host.Runtime().SetGlobal("__playertestEvent", w.receive); err != nil {
		w.closeHost()
		return nil, err
	}
	if _, err := w.host.Evaluate(ctx, "playertest.js", bootstrap); err != nil {
		w.closeHost()
		return nil, fmt.Errorf("installing world: %w", err)
	}
	return w, nil
}

// Host returns the host the world runs in.
func (w *World) Host() *host.Host { return w.host }

// receive runs on the JS loop for every relayed event.
func (w *World) receive(envelope map[string]any) {
	e := Event{Received: time.Now()}
	e.Name, _ = envelope["name"].(string)
	e.NativeID, _ = envelope["nativeId"].(string)
	e.ViewID, _ = envelope["viewId"].(string)
	e.Data, _ = envelope["event"].(map[string]any)

	w.mu.Lock()
	var target *slot
	for _, s := range w.slots {
		if s.owns(e.NativeID) {
			target = s
			break
		}
	}
	w.mu.Unlock()
	if target == nil {
		return
	}
	target.deliver(e)
}

func (s *slot) owns(id registry.NativeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID == id && s.state != StateUninitialized
}

func (s *slot) deliver(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, e)
	for wt := range s.watchers {
		consumed, done := wt.tracker.observe(e)
		if consumed {
			wt.matched = append(wt.matched, e)
		}
		if done && !wt.closed {
			wt.closed = true
			close(wt.done)
			delete(s.watchers, wt)
		}
	}
}

func (s *slot) watch(exp Expectation) (*watcher, error) {
	t, err := exp.start()
	if err != nil {
		return nil, err
	}
	wt := &watcher{tracker: t, done: make(chan struct{})}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInitialized {
		return nil, fmt.Errorf("slot %s is %s: %w", s.name, s.state, ErrSlotState)
	}
	s.watchers[wt] = struct{}{}
	return wt, nil
}

func (s *slot) unwatch(wt *watcher) ([]Event, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watchers, wt)
	return append([]Event(nil), wt.matched...), wt.tracker.progress()
}

func (w *World) slot(name Slot) (*slot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.slots[name]
	if !ok {
		return nil, fmt.Errorf("slot %s is %s: %w", name, StateUninitialized, ErrSlotState)
	}
	return s, nil
}

// State returns the lifecycle state of a slot.
func (w *World) State(name Slot) State {
	s, err := w.slot(name)
	if err != nil {
		return StateUninitialized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PlayerID returns the NativeID of the slot's player.
func (w *World) PlayerID(name Slot) (registry.NativeID, error) {
	s, err := w.slot(name)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID, nil
}

// ViewID returns the id of the view currently showing the slot's player.
func (w *World) ViewID(name Slot) (string, error) {
	s, err := w.slot(name)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewID, nil
}

// Events returns every event the slot has received.
func (w *World) Events(name Slot) []Event {
	s, err := w.slot(name)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.history...)
}

// StartPlayerTest initializes slot A.
func (w *World) StartPlayerTest(ctx context.Context, cfg PlayerConfig) error {
	return w.start(ctx, SlotA, cfg)
}

// StartMultiPlayerTest initializes slots A and B concurrently.
func (w *World) StartMultiPlayerTest(ctx context.Context, a, b PlayerConfig) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.start(ctx, SlotA, a) })
	g.Go(func() error { return w.start(ctx, SlotB, b) })
	return g.Wait()
}

func (w *World) start(ctx context.Context, name Slot, cfg PlayerConfig) error {
	s := &slot{
		name:     name,
		playerID: registry.NewNativeID(),
		viewID:   registry.NewNativeID(),
		watchers: map[*watcher]struct{}{},
	}
	w.mu.Lock()
	if _, exists := w.slots[name]; exists {
		w.mu.Unlock()
		return fmt.Errorf("slot %s already started: %w", name, ErrSlotState)
	}
	w.slots[name] = s
	w.mu.Unlock()

	config, err := json.Marshal(cfg)
	if err != nil {
		w.discard(ctx, s)
		return err
	}
	s.mu.Lock()
	s.state = StateInitialized
	s.mu.Unlock()

	code := fmt.Sprintf("__world.start(%q, %q, %q, %s)", name, s.playerID, s.viewID, config)
	if _, err := w.host.Evaluate(ctx, "start.js", code); err != nil {
		w.discard(ctx, s)
		return fmt.Errorf("starting slot %s: %w", name, err)
	}
	w.logger.Debug("slot started", "slot", name, "playerId", s.playerID, "viewId", s.viewID)
	return nil
}

// discard forgets a slot whose start failed, so it can be started again.
// Whatever JS objects it created are destroyed on a best-effort basis.
func (w *World) discard(ctx context.Context, s *slot) {
	w.mu.Lock()
	if w.slots[s.name] == s {
		delete(w.slots, s.name)
	}
	w.mu.Unlock()

	s.mu.Lock()
	s.state = StateUninitialized
	for wt := range s.watchers {
		delete(s.watchers, wt)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()
	if _, err := w.host.Evaluate(ctx, "discard.js", fmt.Sprintf("__world.discard(%q)", s.name)); err != nil {
		w.logger.Debug("discarding slot", "slot", s.name, "error", err)
	}
}

// CallPlayer calls a method of the slot's JS Player with JSON-encodable
// args and returns its settled result.
func (w *World) CallPlayer(ctx context.Context, name Slot, method string, args ...any) (any, error) {
	s, err := w.slot(name)
	if err != nil {
		return nil, err
	}
	if st := w.State(name); st != StateInitialized {
		return nil, fmt.Errorf("slot %s is %s: %w", s.name, st, ErrSlotState)
	}
	if args == nil {
		args = []any{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return w.host.Evaluate(ctx, "call.js", fmt.Sprintf("__world.call(%q, %q, %s)", name, method, encoded))
}

// ExpectEvent waits for exp on the slot and returns the event that
// satisfied it. Only events after the call count.
func (w *World) ExpectEvent(ctx context.Context, name Slot, exp Expectation) (Event, error) {
	events, err := w.ExpectEvents(ctx, name, exp)
	if err != nil {
		return Event{}, err
	}
	return events[len(events)-1], nil
}

// ExpectEvents waits for exp on the slot and returns every event that
// counted towards it, in arrival order.
func (w *World) ExpectEvents(ctx context.Context, name Slot, exp Expectation) ([]Event, error) {
	s, err := w.slot(name)
	if err != nil {
		return nil, err
	}
	wt, err := s.watch(exp)
	if err != nil {
		return nil, err
	}
	return w.await(ctx, s, wt, exp)
}

// CallPlayerAndExpectEvent registers exp, then calls method, then waits.
func (w *World) CallPlayerAndExpectEvent(ctx context.Context, name Slot, exp Expectation, method string, args ...any) (Event, error) {
	events, err := w.CallPlayerAndExpectEvents(ctx, name, exp, method, args...)
	if err != nil {
		return Event{}, err
	}
	return events[len(events)-1], nil
}

// CallPlayerAndExpectEvents is CallPlayerAndExpectEvent for multi-event
// expectations.
func (w *World) CallPlayerAndExpectEvents(ctx context.Context, name Slot, exp Expectation, method string, args ...any) ([]Event, error) {
	s, err := w.slot(name)
	if err != nil {
		return nil, err
	}
	wt, err := s.watch(exp)
	if err != nil {
		return nil, err
	}
	if _, err := w.CallPlayer(ctx, name, method, args...); err != nil {
		s.unwatch(wt)
		return nil, err
	}
	return w.await(ctx, s, wt, exp)
}

func (w *World) await(ctx context.Context, s *slot, wt *watcher, exp Expectation) ([]Event, error) {
	timer := time.NewTimer(w.timeout)
	defer timer.Stop()
	select {
	case <-wt.done:
		events, _ := s.unwatch(wt)
		return events, nil
	case <-timer.C:
		_, progress := s.unwatch(wt)
		return nil, fmt.Errorf("slot %s: %s after %v (%s): %w", s.name, exp, w.timeout, progress, ErrExpectationTimeout)
	case <-ctx.Done():
		s.unwatch(wt)
		return nil, ctx.Err()
	}
}

// ExpectNoEvent fails as soon as exp is satisfied on the slot, and
// succeeds once d has elapsed without that happening.
func (w *World) ExpectNoEvent(ctx context.Context, name Slot, exp Expectation, d time.Duration) error {
	s, err := w.slot(name)
	if err != nil {
		return err
	}
	wt, err := s.watch(exp)
	if err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-wt.done:
		events, _ := s.unwatch(wt)
		return fmt.Errorf("slot %s: %s observed (%s): %w", s.name, exp, events[len(events)-1].Name, ErrUnexpectedEvent)
	case <-timer.C:
		s.unwatch(wt)
		return nil
	case <-ctx.Done():
		s.unwatch(wt)
		return ctx.Err()
	}
}

// LoadSourceConfig loads src into the slot's player and waits until it is
// ready. A source error is returned as an error.
func (w *World) LoadSourceConfig(ctx context.Context, name Slot, src SourceConfig) error {
	e, err := w.CallPlayerAndExpectEvent(ctx, name, AnyOf(Plain("onReady"), Plain("onSourceError")), "load", src)
	if err != nil {
		return err
	}
	if e.Name == "onSourceError" {
		return fmt.Errorf("slot %s: loading %s: %v", name, src.URL, e.Data["message"])
	}
	return nil
}

// LoadSource loads a source from the built-in catalogue.
func (w *World) LoadSource(ctx context.Context, name Slot, source string) error {
	src, err := Source(source)
	if err != nil {
		return err
	}
	return w.LoadSourceConfig(ctx, name, src)
}

// PlayFor plays for seconds of media time, then pauses. It returns the
// time-changed event that ended playback.
func (w *World) PlayFor(ctx context.Context, name Slot, seconds float64) (Event, error) {
	v, err := w.CallPlayer(ctx, name, "getCurrentTime")
	if err != nil {
		return Event{}, err
	}
	start, _ := toFloat(v)
	return w.playTo(ctx, name, start+seconds)
}

// PlayUntil plays until the media time reaches t, then pauses.
func (w *World) PlayUntil(ctx context.Context, name Slot, t float64) (Event, error) {
	return w.playTo(ctx, name, t)
}

func (w *World) playTo(ctx context.Context, name Slot, target float64) (Event, error) {
	reached := Filtered("onTimeChanged", func(e Event) bool {
		t, ok := e.Float("currentTime")
		return ok && t >= target
	})
	e, err := w.CallPlayerAndExpectEvent(ctx, name, reached, "play")
	if err != nil {
		return Event{}, err
	}
	if _, err := w.CallPlayer(ctx, name, "pause"); err != nil {
		return Event{}, err
	}
	return e, nil
}

// SwapViews exchanges the views of slots A and B. Each slot keeps its
// player, and so keeps receiving its own events.
func (w *World) SwapViews(ctx context.Context) error {
	a, err := w.slot(SlotA)
	if err != nil {
		return err
	}
	b, err := w.slot(SlotB)
	if err != nil {
		return err
	}
	if _, err := w.host.Evaluate(ctx, "swap.js", fmt.Sprintf("__world.swap(%q, %q)", SlotA, SlotB)); err != nil {
		return err
	}
	a.mu.Lock()
	b.mu.Lock()
	a.viewID, b.viewID = b.viewID, a.viewID
	b.mu.Unlock()
	a.mu.Unlock()
	return nil
}

// Destroy destroys the slot's player and view.
func (w *World) Destroy(ctx context.Context, name Slot) error {
	s, err := w.slot(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.state != StateInitialized {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("slot %s is %s: %w", name, st, ErrSlotState)
	}
	s.mu.Unlock()

	_, err = w.host.Evaluate(ctx, "destroy.js", fmt.Sprintf("__world.destroy(%q)", name))

	s.mu.Lock()
	s.state = StateDestroyed
	for wt := range s.watchers {
		delete(s.watchers, wt)
	}
	s.mu.Unlock()
	return err
}

// Close destroys every initialized slot and, when the world started its
// own host, closes it.
func (w *World) Close(ctx context.Context) error {
	w.mu.Lock()
	var names []Slot
	for name, s := range w.slots {
		s.mu.Lock()
		if s.state == StateInitialized {
			names = append(names, name)
		}
		s.mu.Unlock()
	}
	w.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error { return w.Destroy(gctx, name) })
	}
	err := g.Wait()
	return errors.Join(err, w.closeHost())
}

func (w *World) closeHost() error {
	if !w.owned {
		return nil
	}
	return w.host.Close()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}
