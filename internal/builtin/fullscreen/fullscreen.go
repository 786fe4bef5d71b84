// Package fullscreen implements FullscreenHandlerModule. The SDK asks a
// handler to enter or leave fullscreen; the handler forwards the request
// to JS and blocks until JS reports the resulting state.
package fullscreen

import (
	"sync"
	"time"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/callback"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/mainthread"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/registry"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

const (
	Name           = "FullscreenHandlerModule"
	EventEnter     = "onEnterFullscreen"
	EventExit      = "onExitFullscreen"
	DefaultTimeout = 250 * time.Millisecond
)

// Handler is the native FullscreenHandler for one JS bridge instance.
type Handler struct {
	id    registry.NativeID
	enter *callback.RoundTrip[any]
	exit  *callback.RoundTrip[any]

	mu     sync.Mutex
	active bool
}

var _ sdk.FullscreenHandler = (*Handler)(nil)

func (h *Handler) IsFullscreen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

func (h *Handler) setActive(active bool) {
	h.mu.Lock()
	h.active = active
	h.mu.Unlock()
}

// OnFullscreenRequested blocks until JS reports the new state. Without an
// answer the state is left unchanged.
func (h *Handler) OnFullscreenRequested() { h.request(h.enter) }

func (h *Handler) OnFullscreenExitRequested() { h.request(h.exit) }

func (h *Handler) request(rt *callback.RoundTrip[any]) {
	v, ok := rt.Call(h.id, nil)
	if !ok {
		return
	}
	if active, ok := v.(bool); ok {
		h.setActive(active)
	}
}

// Module owns the fullscreen handlers created from JS.
type Module struct {
	mod      *jsbridge.Module
	handlers *registry.Registry[*Handler]
	enter    *callback.RoundTrip[any]
	exit     *callback.RoundTrip[any]
}

// New registers FullscreenHandlerModule with rt.
func New(rt *jsbridge.Runtime, main *mainthread.Queue, timeout time.Duration) *Module {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	m := &Module{handlers: registry.New[*Handler]()}
	m.mod = jsbridge.NewModule(rt, main, jsbridge.Definition{
		Name:   Name,
		Events: []string{EventEnter, EventExit},
		Functions: map[string]jsbridge.Function{
			// notifyFullscreenChanged(id, isFullscreenActive) answers either
			// kind of request.
			"notifyFullscreenChanged": func(args jsbridge.Args) (any, error) {
				return callback.Completion(m.enter)(args)
			},
		},
		AsyncFunctions: map[string]jsbridge.Function{
			"registerHandler":       m.registerHandler,
			"destroy":               m.destroy,
			"setIsFullscreenActive": m.setIsFullscreenActive,
		},
	})
	m.enter = callback.New[any](EventEnter, m.mod, rt, timeout, m.mod.Logger())
	m.exit = m.enter.Sibling(EventExit)
	return m
}

// Handler returns the handler registered under id.
func (m *Module) Handler(id registry.NativeID) (*Handler, bool) {
	return m.handlers.Get(id)
}

func (m *Module) Close() { m.enter.Close() }

func (m *Module) registerHandler(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	m.handlers.Register(id, &Handler{id: id, enter: m.enter, exit: m.exit})
	return nil, nil
}

func (m *Module) destroy(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	m.handlers.Remove(id)
	return nil, nil
}

func (m *Module) setIsFullscreenActive(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	active, err := args.Bool(1)
	if err != nil {
		return nil, err
	}
	if h, ok := m.handlers.Get(id); ok {
		h.setActive(active)
	}
	return nil, nil
}
