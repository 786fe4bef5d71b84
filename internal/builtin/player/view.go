package player

import (
	"fmt"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/mainthread"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/registry"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/relay"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

const (
	ViewName = "PlayerViewModule"
	// EventBmp carries every player event relayed by a view, as
	// {viewId, nativeId, name, event}.
	EventBmp = "onBmpEvent"
)

// Handlers resolves the UI handlers a view can be attached to.
type Handlers struct {
	Fullscreen    func(id registry.NativeID) (sdk.FullscreenHandler, bool)
	CustomMessage func(id registry.NativeID) (sdk.CustomMessageHandler, bool)
}

// attached tags a player with its NativeID, so relayed events carry the id
// of the player that raised them even across attach calls.
type attached struct {
	sdk.Player
	id registry.NativeID
}

type view struct {
	id    string
	view  sdk.View
	relay *relay.Relay
}

// ViewModule owns the views created from JS.
type ViewModule struct {
	mod      *jsbridge.Module
	factory  sdk.Factory
	players  *Module
	handlers Handlers
	views    *registry.Registry[*view]
}

// NewViewModule registers PlayerViewModule with rt.
func NewViewModule(rt *jsbridge.Runtime, main *mainthread.Queue, factory sdk.Factory, players *Module, handlers Handlers) *ViewModule {
	m := &ViewModule{
		factory:  factory,
		players:  players,
		handlers: handlers,
		views:    registry.New[*view](),
	}
	m.mod = jsbridge.NewModule(rt, main, jsbridge.Definition{
		Name:   ViewName,
		Events: []string{EventBmp},
		AsyncFunctions: map[string]jsbridge.Function{
			"create":                     m.create,
			"attachPlayer":               m.attachPlayer,
			"attachFullscreenBridge":     m.attachFullscreenBridge,
			"attachCustomMessageHandler": m.attachCustomMessageHandler,
			"isFullscreen":               m.isFullscreen,
			"destroy":                    m.destroy,
		},
		WorkerFunctions: map[string]jsbridge.Function{
			"requestFullscreen": m.requestFullscreen,
		},
	})
	return m
}

// View returns the native view registered under id.
func (m *ViewModule) View(id string) (sdk.View, bool) {
	v, ok := m.views.Get(id)
	if !ok {
		return nil, false
	}
	return v.view, true
}

// Close detaches and destroys every view.
func (m *ViewModule) Close() {
	for _, v := range m.views.Clear() {
		v.relay.SetEmitter(nil)
		v.view.Destroy()
	}
}

func (m *ViewModule) output(viewID string) relay.Output {
	return func(source sdk.EventEmitter, name string, e sdk.Event) error {
		env := map[string]any{
			"viewId": viewID,
			"name":   name,
			"event":  relay.Encode(name, e),
		}
		if a, ok := source.(*attached); ok {
			env["nativeId"] = a.id
		}
		return m.mod.SendEvent(EventBmp, env)
	}
}

func (m *ViewModule) get(args jsbridge.Args) (*view, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	v, ok := m.views.Get(id)
	if !ok {
		return nil, fmt.Errorf("view %s: %w", id, registry.ErrUnknownNativeID)
	}
	return v, nil
}

// create(viewId)
func (m *ViewModule) create(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	v := &view{
		id:    id,
		view:  m.factory.NewView(),
		relay: relay.New(relay.DefaultNames(), m.output(id), m.mod.Logger().With("viewId", id)),
	}
	if !m.views.Register(id, v) {
		v.view.Destroy()
	}
	return nil, nil
}

// attachPlayer(viewId, playerNativeId | null) moves the view, and its
// event relay, to another player.
func (m *ViewModule) attachPlayer(args jsbridge.Args) (any, error) {
	v, err := m.get(args)
	if err != nil {
		return nil, err
	}
	playerID, ok, err := args.OptionalString(1)
	if err != nil {
		return nil, err
	}
	if !ok {
		v.relay.SetEmitter(nil)
		v.view.SetPlayer(nil)
		return nil, nil
	}
	p, found := m.players.Player(playerID)
	if !found {
		return nil, fmt.Errorf("player %s: %w", playerID, registry.ErrUnknownNativeID)
	}
	v.view.SetPlayer(p)
	v.relay.SetEmitter(&attached{Player: p, id: playerID})
	return nil, nil
}

func (m *ViewModule) attachFullscreenBridge(args jsbridge.Args) (any, error) {
	v, err := m.get(args)
	if err != nil {
		return nil, err
	}
	id, ok, err := args.OptionalString(1)
	if err != nil {
		return nil, err
	}
	if !ok || m.handlers.Fullscreen == nil {
		v.view.SetFullscreenHandler(nil)
		return nil, nil
	}
	h, found := m.handlers.Fullscreen(id)
	if !found {
		return nil, fmt.Errorf("fullscreen handler %s: %w", id, registry.ErrUnknownNativeID)
	}
	v.view.SetFullscreenHandler(h)
	return nil, nil
}

func (m *ViewModule) attachCustomMessageHandler(args jsbridge.Args) (any, error) {
	v, err := m.get(args)
	if err != nil {
		return nil, err
	}
	id, ok, err := args.OptionalString(1)
	if err != nil {
		return nil, err
	}
	if !ok || m.handlers.CustomMessage == nil {
		v.view.SetCustomMessageHandler(nil)
		return nil, nil
	}
	h, found := m.handlers.CustomMessage(id)
	if !found {
		return nil, fmt.Errorf("custom message handler %s: %w", id, registry.ErrUnknownNativeID)
	}
	v.view.SetCustomMessageHandler(h)
	return nil, nil
}

// requestFullscreen(viewId, enter) runs the fullscreen round trip on a
// worker goroutine and resolves to the resulting state.
func (m *ViewModule) requestFullscreen(args jsbridge.Args) (any, error) {
	v, err := m.get(args)
	if err != nil {
		return nil, err
	}
	enter, err := args.Bool(1)
	if err != nil {
		return nil, err
	}
	v.view.RequestFullscreen(enter)
	return v.view.IsFullscreen(), nil
}

func (m *ViewModule) isFullscreen(args jsbridge.Args) (any, error) {
	v, err := m.get(args)
	if err != nil {
		return nil, err
	}
	return v.view.IsFullscreen(), nil
}

func (m *ViewModule) destroy(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	if v, ok := m.views.Remove(id); ok {
		v.relay.SetEmitter(nil)
		v.view.Destroy()
	}
	return nil, nil
}
