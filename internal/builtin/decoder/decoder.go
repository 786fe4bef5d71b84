// Package decoder implements DecoderConfigModule, which lets JS reorder
// the decoder candidates the SDK offers.
package decoder

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
	Name                          = "DecoderConfigModule"
	EventOverrideDecodersPriority = "onOverrideDecodersPriority"
	DefaultTimeout                = time.Second
)

// Config is the decoder configuration sent from JS.
type Config struct {
	DecoderPriorityProvider bool `json:"decoderPriorityProvider"`
}

// Module owns the decoder configurations created from JS.
type Module struct {
	mod      *jsbridge.Module
	configs  *registry.Registry[*sdk.DecoderConfig]
	priority *callback.RoundTrip[any]
}

// New registers DecoderConfigModule with rt.
func New(rt *jsbridge.Runtime, main *mainthread.Queue, timeout time.Duration) *Module {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	m := &Module{configs: registry.New[*sdk.DecoderConfig]()}
	m.mod = jsbridge.NewModule(rt, main, jsbridge.Definition{
		Name:   Name,
		Events: []string{EventOverrideDecodersPriority},
		Functions: map[string]jsbridge.Function{
			"overrideDecoderPriorityProviderComplete": func(args jsbridge.Args) (any, error) {
				return callback.Completion(m.priority)(args)
			},
		},
		AsyncFunctions: map[string]jsbridge.Function{
			"initializeWithConfig": m.initializeWithConfig,
			"destroy":              m.destroy,
		},
	})
	m.priority = callback.New[any](EventOverrideDecodersPriority, m.mod, rt, timeout, m.mod.Logger())
	return m
}

// Config returns the native decoder configuration registered under id.
func (m *Module) Config(id registry.NativeID) (*sdk.DecoderConfig, bool) {
	return m.configs.Get(id)
}

func (m *Module) Close() { m.priority.Close() }

func (m *Module) initializeWithConfig(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := args.Decode(1, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", jsbridge.ErrInvalidConfig, err)
	}
	out := &sdk.DecoderConfig{}
	if cfg.DecoderPriorityProvider {
		out.DecoderPriorityProvider = m.overridePriority(id)
	}
	m.configs.Register(id, out)
	return nil, nil
}

func (m *Module) destroy(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	m.configs.Remove(id)
	return nil, nil
}

// overridePriority answers with the preferred list itself unless JS returns
// a list made only of offered decoders.
func (m *Module) overridePriority(id registry.NativeID) func(sdk.DecoderContext, []sdk.MediaCodecInfo) []sdk.MediaCodecInfo {
	return func(ctx sdk.DecoderContext, preferred []sdk.MediaCodecInfo) []sdk.MediaCodecInfo {
		v, ok := m.priority.Call(id, map[string]any{"context": ctx, "preferredDecoders": preferred})
		if !ok {
			return preferred
		}
		list, err := callback.Decode[[]sdk.MediaCodecInfo](v)
		if err != nil || !offered(list, preferred) {
			m.mod.Logger().Debug("unusable decoder priority; using preferred", "nativeId", id, "error", err)
			return preferred
		}
		return list
	}
}

func offered(list, preferred []sdk.MediaCodecInfo) bool {
	if list == nil {
		return false
	}
	known := make(map[sdk.MediaCodecInfo]bool, len(preferred))
	for _, d := range preferred {
		known[d] = true
	}
	for _, d := range list {
		if !known[d] {
			return false
		}
	}
	return true
}
