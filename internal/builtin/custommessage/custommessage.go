// Package custommessage implements CustomMessageHandlerModule, the message
// channel between the player UI and the application's JS code.
package custommessage

import (
	"fmt"
	"sync"
	"time"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/callback"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/mainthread"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/registry"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

const (
	Name                    = "CustomMessageHandlerModule"
	EventSynchronousMessage = "onReceivedSynchronousMessage"
	EventAsyncMessage       = "onReceivedAsynchronousMessage"
	DefaultTimeout          = 250 * time.Millisecond
)

// Handler is the native CustomMessageHandler for one JS bridge instance.
type Handler struct {
	id     registry.NativeID
	module *Module

	mu      sync.Mutex
	receive func(message string, data *string)
}

var _ sdk.CustomMessageHandler = (*Handler)(nil)

// SendSynchronous asks JS for an answer. A timeout or a non-string answer
// yields nil.
func (h *Handler) SendSynchronous(message string, data *string) *string {
	v, ok := h.module.sync.Call(h.id, map[string]any{"message": message, "data": data})
	if !ok {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func (h *Handler) SendAsynchronous(message string, data *string) {
	err := h.module.mod.SendEvent(EventAsyncMessage, map[string]any{
		callback.KeyNativeID: h.id,
		"message":            message,
		"data":               data,
	})
	if err != nil {
		h.module.mod.Logger().Warn("dropping asynchronous message", "nativeId", h.id, "error", err)
	}
}

func (h *Handler) SetUIReceiver(receive func(message string, data *string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.receive = receive
}

func (h *Handler) deliver(message string, data *string) bool {
	h.mu.Lock()
	receive := h.receive
	h.mu.Unlock()
	if receive == nil {
		return false
	}
	receive(message, data)
	return true
}

// Module owns the custom message handlers created from JS.
type Module struct {
	mod      *jsbridge.Module
	handlers *registry.Registry[*Handler]
	sync     *callback.RoundTrip[any]
}

// New registers CustomMessageHandlerModule with rt.
func New(rt *jsbridge.Runtime, main *mainthread.Queue, timeout time.Duration) *Module {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	m := &Module{handlers: registry.New[*Handler]()}
	m.mod = jsbridge.NewModule(rt, main, jsbridge.Definition{
		Name:   Name,
		Events: []string{EventSynchronousMessage, EventAsyncMessage},
		Functions: map[string]jsbridge.Function{
			"onReceivedSynchronousMessageResult": func(args jsbridge.Args) (any, error) {
				return callback.Completion(m.sync)(args)
			},
		},
		AsyncFunctions: map[string]jsbridge.Function{
			"registerHandler": m.registerHandler,
			"destroy":         m.destroy,
			"sendMessage":     m.sendMessage,
		},
	})
	m.sync = callback.New[any](EventSynchronousMessage, m.mod, rt, timeout, m.mod.Logger())
	return m
}

// Handler returns the handler registered under id.
func (m *Module) Handler(id registry.NativeID) (*Handler, bool) {
	return m.handlers.Get(id)
}

func (m *Module) Close() { m.sync.Close() }

func (m *Module) registerHandler(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	m.handlers.Register(id, &Handler{id: id, module: m})
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

// sendMessage(nativeId, message, data) delivers a message from JS to the
// player UI the handler is attached to.
func (m *Module) sendMessage(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	message, err := args.String(1)
	if err != nil {
		return nil, err
	}
	var data *string
	if s, ok, err := args.OptionalString(2); err != nil {
		return nil, err
	} else if ok {
		data = &s
	}
	h, ok := m.handlers.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", registry.ErrUnknownNativeID, id)
	}
	if !h.deliver(message, data) {
		m.mod.Logger().Debug("no UI attached; message dropped", "nativeId", id, "message", message)
	}
	return nil, nil
}
