package simulated

import (
	"sync"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

// Message is a custom message delivered from native code to the UI.
type Message struct {
	Name string
	Data *string
}

// View implements sdk.View.
type View struct {
	mu         sync.Mutex
	player     sdk.Player
	fullscreen sdk.FullscreenHandler
	messages   sdk.CustomMessageHandler
	received   []Message
	destroyed  bool
}

var _ sdk.View = (*View)(nil)

// NewView creates an empty View.
func NewView() *View { return &View{} }

func (v *View) SetPlayer(p sdk.Player) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.player = p
}

func (v *View) Player() sdk.Player {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.player
}

func (v *View) SetFullscreenHandler(h sdk.FullscreenHandler) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fullscreen = h
}

func (v *View) SetCustomMessageHandler(h sdk.CustomMessageHandler) {
	v.mu.Lock()
	v.messages = h
	v.mu.Unlock()
	if h != nil {
		h.SetUIReceiver(v.receive)
	}
}

func (v *View) receive(name string, data *string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.received = append(v.received, Message{Name: name, Data: data})
}

// ReceivedMessages returns the messages native code sent to the UI.
func (v *View) ReceivedMessages() []Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Message(nil), v.received...)
}

// SendUIMessage simulates the player UI sending a message to the
// application. Synchronous messages return the handler's answer.
func (v *View) SendUIMessage(name string, data *string, synchronous bool) *string {
	v.mu.Lock()
	h := v.messages
	v.mu.Unlock()
	if h == nil {
		return nil
	}
	if synchronous {
		return h.SendSynchronous(name, data)
	}
	h.SendAsynchronous(name, data)
	return nil
}

// RequestFullscreen asks the handler to change state on the calling
// goroutine and raises FullscreenEnter or FullscreenExit through the
// attached player when the handler's state actually changed.
func (v *View) RequestFullscreen(enter bool) {
	v.mu.Lock()
	h, p := v.fullscreen, v.player
	v.mu.Unlock()
	if h == nil {
		return
	}

	before := h.IsFullscreen()
	if enter {
		h.OnFullscreenRequested()
	} else {
		h.OnFullscreenExitRequested()
	}
	after := h.IsFullscreen()
	if before == after {
		return
	}

	emitter, ok := p.(interface{ Emit(sdk.Event) })
	if !ok {
		return
	}
	if after {
		emitter.Emit(sdk.FullscreenEnterEvent{EventBase: sdk.NewBase()})
	} else {
		emitter.Emit(sdk.FullscreenExitEvent{EventBase: sdk.NewBase()})
	}
}

func (v *View) IsFullscreen() bool {
	v.mu.Lock()
	h := v.fullscreen
	v.mu.Unlock()
	return h != nil && h.IsFullscreen()
}

func (v *View) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.destroyed = true
	v.player = nil
	v.fullscreen = nil
	v.messages = nil
}

// Factory implements sdk.Factory with simulated objects.
type Factory struct {
	Options Options
}

func (f Factory) NewPlayer(cfg sdk.PlayerConfig) sdk.Player { return NewPlayer(cfg, f.Options) }

func (f Factory) NewView() sdk.View { return NewView() }
