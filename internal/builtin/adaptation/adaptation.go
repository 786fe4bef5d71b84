// Package adaptation implements AdaptationModule: ABR settings plus a
// video adaptation hook answered by JS.
package adaptation

import (
	"fmt"
	"time"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/callback"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/mainthread"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/registry"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

const (
	Name                 = "AdaptationModule"
	EventVideoAdaptation = "onVideoAdaptation"
	DefaultTimeout       = time.Second
)

// Config is the adaptation configuration sent from JS.
type Config struct {
	MaxSelectableBitrate int `json:"maxSelectableBitrate"`
	VideoAdaptation      *struct {
		OnVideoAdaptation bool `json:"onVideoAdaptation"`
	} `json:"videoAdaptation"`
}

func (c Config) Validate() error {
	if c.MaxSelectableBitrate < 0 {
		return fmt.Errorf("%w: maxSelectableBitrate must not be negative", jsbridge.ErrInvalidConfig)
	}
	return nil
}

type Module struct {
	mod     *jsbridge.Module
	configs *registry.Registry[*sdk.AdaptationConfig]
	video   *callback.RoundTrip[any]
}

// New registers AdaptationModule with rt.
func New(rt *jsbridge.Runtime, main *mainthread.Queue, timeout time.Duration) *Module {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	m := &Module{configs: registry.New[*sdk.AdaptationConfig]()}
	m.mod = jsbridge.NewModule(rt, main, jsbridge.Definition{
		Name:   Name,
		Events: []string{EventVideoAdaptation},
		Functions: map[string]jsbridge.Function{
			"setOnVideoAdaptation": func(args jsbridge.Args) (any, error) {
				return callback.Completion(m.video)(args)
			},
		},
		AsyncFunctions: map[string]jsbridge.Function{
			"initializeWithConfig": m.initializeWithConfig,
			"destroy": func(args jsbridge.Args) (any, error) {
				id, err := args.String(0)
				if err != nil {
					return nil, err
				}
				m.configs.Remove(id)
				return nil, nil
			},
		},
	})
	m.video = callback.New[any](EventVideoAdaptation, m.mod, rt, timeout, m.mod.Logger())
	return m
}

// Config returns the native adaptation configuration registered under id.
func (m *Module) Config(id registry.NativeID) (*sdk.AdaptationConfig, bool) {
	return m.configs.Get(id)
}

func (m *Module) Close() { m.video.Close() }

func (m *Module) initializeWithConfig(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := args.Decode(1, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", jsbridge.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out := &sdk.AdaptationConfig{MaxSelectableVideoBitrate: cfg.MaxSelectableBitrate}
	if cfg.VideoAdaptation != nil && cfg.VideoAdaptation.OnVideoAdaptation {
		out.OnVideoAdaptation = m.onVideoAdaptation(id)
	}
	m.configs.Register(id, out)
	return nil, nil
}

// onVideoAdaptation keeps the SDK's suggestion unless JS names a quality.
func (m *Module) onVideoAdaptation(id registry.NativeID) func(sdk.VideoAdaptationData) string {
	return func(data sdk.VideoAdaptationData) string {
		v, ok := m.video.Call(id, map[string]any{"data": data})
		if !ok {
			return data.Suggested
		}
		if q := callback.String(v, ""); q != "" {
			return q
		}
		return data.Suggested
	}
}
