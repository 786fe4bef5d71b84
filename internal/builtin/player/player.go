// Package player implements PlayerModule and PlayerViewModule. Players are
// created from a JS config that may link DRM, network, decoder and
// adaptation configurations registered by the other modules; views relay
// the events of their attached player to JS.
package player

import (
	"fmt"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/mainthread"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/registry"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

const Name = "PlayerModule"

// Lookup resolves a NativeID registered by another module.
type Lookup[T any] interface {
	Config(id registry.NativeID) (T, bool)
}

// Configs are the modules whose registrations a player config may link.
// Nil fields disable the corresponding link.
type Configs struct {
	DRM        Lookup[*sdk.DrmConfig]
	Network    Lookup[*sdk.NetworkConfig]
	Decoder    Lookup[*sdk.DecoderConfig]
	Adaptation Lookup[*sdk.AdaptationConfig]
}

// Config is the player configuration sent from JS.
type Config struct {
	LicenseKey         string             `json:"licenseKey"`
	PlaybackConfig     sdk.PlaybackConfig `json:"playbackConfig"`
	NetworkNativeID    string             `json:"networkNativeId"`
	DecoderNativeID    string             `json:"decoderNativeId"`
	AdaptationNativeID string             `json:"adaptationNativeId"`
}

// Module owns the players created from JS.
type Module struct {
	mod     *jsbridge.Module
	factory sdk.Factory
	configs Configs
	players *registry.Registry[sdk.Player]
}

// New registers PlayerModule with rt.
func New(rt *jsbridge.Runtime, main *mainthread.Queue, factory sdk.Factory, configs Configs) *Module {
	m := &Module{
		factory: factory,
		configs: configs,
		players: registry.New[sdk.Player](),
	}
	m.mod = jsbridge.NewModule(rt, main, jsbridge.Definition{
		Name: Name,
		AsyncFunctions: map[string]jsbridge.Function{
			"initializeWithConfig": m.initializeWithConfig,
			"load":                 m.load,
			"unload":               m.command(sdk.Player.Unload),
			"play":                 m.command(sdk.Player.Play),
			"pause":                m.command(sdk.Player.Pause),
			"mute":                 m.command(sdk.Player.Mute),
			"unmute":               m.command(sdk.Player.Unmute),
			"seek":                 m.seek,
			"destroy":              m.destroy,
			"currentTime":          m.query(func(p sdk.Player) any { return p.CurrentTime() }),
			"duration":             m.query(func(p sdk.Player) any { return p.Duration() }),
			"isPlaying":            m.query(func(p sdk.Player) any { return p.IsPlaying() }),
			"isMuted":              m.query(func(p sdk.Player) any { return p.IsMuted() }),
		},
	})
	return m
}

// Player returns the player registered under id.
func (m *Module) Player(id registry.NativeID) (sdk.Player, bool) {
	return m.players.Get(id)
}

// Close destroys every player.
func (m *Module) Close() {
	for _, p := range m.players.Clear() {
		p.Destroy()
	}
}

func (m *Module) initializeWithConfig(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if !args.IsNull(1) {
		if err := args.Decode(1, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", jsbridge.ErrInvalidConfig, err)
		}
	}
	if _, exists := m.players.Get(id); exists {
		m.mod.Logger().Debug("player already registered", "nativeId", id)
		return nil, nil
	}

	pc := sdk.PlayerConfig{LicenseKey: cfg.LicenseKey, Playback: cfg.PlaybackConfig}
	if pc.Network, err = link(m.configs.Network, "network", cfg.NetworkNativeID); err != nil {
		return nil, err
	}
	if pc.Decoder, err = link(m.configs.Decoder, "decoder", cfg.DecoderNativeID); err != nil {
		return nil, err
	}
	if pc.Adaptation, err = link(m.configs.Adaptation, "adaptation", cfg.AdaptationNativeID); err != nil {
		return nil, err
	}
	m.players.Register(id, m.factory.NewPlayer(pc))
	return nil, nil
}

// link resolves an optional reference to another module's registration.
func link[T any](l Lookup[*T], kind string, id registry.NativeID) (*T, error) {
	if id == "" {
		return nil, nil
	}
	if l == nil {
		return nil, fmt.Errorf("%w: %s configs are not supported", jsbridge.ErrInvalidConfig, kind)
	}
	v, ok := l.Config(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s config %s: %w", jsbridge.ErrInvalidConfig, kind, id, registry.ErrUnknownNativeID)
	}
	return v, nil
}

// load(nativeId, source, drmNativeId?)
func (m *Module) load(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	var source sdk.SourceConfig
	if err := args.Decode(1, &source); err != nil {
		return nil, fmt.Errorf("%w: %v", jsbridge.ErrInvalidConfig, err)
	}
	drmID, _, err := args.OptionalString(2)
	if err != nil {
		return nil, err
	}
	if source.DRM, err = link(m.configs.DRM, "drm", drmID); err != nil {
		return nil, err
	}
	if p, ok := m.players.Get(id); ok {
		p.Load(source)
	}
	return nil, nil
}

func (m *Module) seek(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	to, err := args.Float(1)
	if err != nil {
		return nil, err
	}
	if p, ok := m.players.Get(id); ok {
		p.Seek(to)
	}
	return nil, nil
}

func (m *Module) destroy(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	if p, ok := m.players.Remove(id); ok {
		p.Destroy()
	}
	return nil, nil
}

// command runs fn on the player named by the first argument. Unknown
// players are a no-op.
func (m *Module) command(fn func(sdk.Player)) jsbridge.Function {
	return func(args jsbridge.Args) (any, error) {
		id, err := args.String(0)
		if err != nil {
			return nil, err
		}
		if p, ok := m.players.Get(id); ok {
			fn(p)
		}
		return nil, nil
	}
}

// query resolves to fn's result, or null for unknown players.
func (m *Module) query(fn func(sdk.Player) any) jsbridge.Function {
	return func(args jsbridge.Args) (any, error) {
		id, err := args.String(0)
		if err != nil {
			return nil, err
		}
		p, ok := m.players.Get(id)
		if !ok {
			return nil, nil
		}
		return fn(p), nil
	}
}
