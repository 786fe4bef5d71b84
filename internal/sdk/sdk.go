// Package sdk declares the native player SDK the bridge adapts: players,
// views, their events and the hook-based configuration objects through
// which the SDK asks the application for decisions.
//
// Hooks are plain Go functions invoked synchronously on an SDK worker
// goroutine; they must return a value, so a bridge implementation blocks
// until JS answers or its timeout elapses.
package sdk

// EventEmitter is implemented by anything that raises player events.
// Listeners are compared by identity and are invoked without any emitter
// lock held, so a listener may call On or Off.
type EventEmitter interface {
	On(kind EventKind, l Listener)
	Off(kind EventKind, l Listener)
}

// Listener receives events. Implementations must be comparable; pointer
// receivers are the norm.
type Listener interface {
	OnEvent(e Event)
}

// Player is a native player instance.
type Player interface {
	EventEmitter

	Config() PlayerConfig
	Load(source SourceConfig)
	Unload()
	Play()
	Pause()
	Seek(time float64)
	Mute()
	Unmute()
	Destroy()

	CurrentTime() float64
	Duration() float64
	IsPlaying() bool
	IsMuted() bool
}

// View is the on-screen surface a Player is attached to.
type View interface {
	// SetPlayer attaches p, which may be nil to detach.
	SetPlayer(p Player)
	Player() Player
	SetFullscreenHandler(h FullscreenHandler)
	SetCustomMessageHandler(h CustomMessageHandler)
	// RequestFullscreen asks the fullscreen handler to enter or exit
	// fullscreen, then raises the matching event if the handler's state
	// changed.
	RequestFullscreen(enter bool)
	IsFullscreen() bool
	Destroy()
}

// Factory creates SDK objects.
type Factory interface {
	NewPlayer(cfg PlayerConfig) Player
	NewView() View
}

// PlayerConfig holds the per-player configuration.
type PlayerConfig struct {
	LicenseKey string
	Playback   PlaybackConfig
	Network    *NetworkConfig
	Decoder    *DecoderConfig
	Adaptation *AdaptationConfig
}

// PlaybackConfig holds simple playback switches.
type PlaybackConfig struct {
	IsAutoplayEnabled bool `json:"isAutoplayEnabled"`
	IsMuted           bool `json:"isMuted"`
}

// SourceType is the streaming format of a source.
type SourceType string

const (
	SourceTypeDASH        SourceType = "dash"
	SourceTypeHLS         SourceType = "hls"
	SourceTypeSmooth      SourceType = "smooth"
	SourceTypeProgressive SourceType = "progressive"
)

// SourceConfig describes a media source.
type SourceConfig struct {
	URL    string     `json:"url"`
	Type   SourceType `json:"type"`
	Title  string     `json:"title,omitempty"`
	Poster string     `json:"poster,omitempty"`
	// DRM is set by the bridge from a separately registered DRM config.
	DRM *DrmConfig `json:"-"`
}

// FullscreenHandler decides how the application enters and leaves
// fullscreen.
type FullscreenHandler interface {
	IsFullscreen() bool
	OnFullscreenRequested()
	OnFullscreenExitRequested()
}

// CustomMessageHandler exchanges messages with the player UI.
type CustomMessageHandler interface {
	// SendSynchronous delivers a UI message that expects an answer; a nil
	// answer means none.
	SendSynchronous(message string, data *string) *string
	// SendAsynchronous delivers a UI message without expecting an answer.
	SendAsynchronous(message string, data *string)
	// SetUIReceiver connects messages sent from native code to the UI.
	SetUIReceiver(receive func(message string, data *string))
}
