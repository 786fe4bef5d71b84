// Package builtin wires every native bridge module into a runtime.
package builtin

import (
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/builtin/adaptation"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/builtin/custommessage"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/builtin/debug"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/builtin/decoder"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/builtin/drm"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/builtin/fullscreen"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/builtin/network"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/builtin/player"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/builtin/uuid"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/config"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/logging"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/mainthread"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/registry"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

// Modules are the registered feature modules.
type Modules struct {
	DRM           *drm.Module
	Network       *network.Module
	Decoder       *decoder.Module
	Adaptation    *adaptation.Module
	Fullscreen    *fullscreen.Module
	CustomMessage *custommessage.Module
	Player        *player.Module
	View          *player.ViewModule
}

// Register registers every module with rt, as require("bitmovin:<Name>").
// logs may be nil, in which case DebugModule is not available.
func Register(rt *jsbridge.Runtime, main *mainthread.Queue, factory sdk.Factory, timeouts config.Timeouts, logs *logging.Logger) *Modules {
	m := &Modules{
		DRM:           drm.New(rt, main, timeouts.DRM),
		Network:       network.New(rt, main, timeouts.Network),
		Decoder:       decoder.New(rt, main, timeouts.Decoder),
		Adaptation:    adaptation.New(rt, main, timeouts.Adaptation),
		Fullscreen:    fullscreen.New(rt, main, timeouts.Fullscreen),
		CustomMessage: custommessage.New(rt, main, timeouts.CustomMessage),
	}
	m.Player = player.New(rt, main, factory, player.Configs{
		DRM:        m.DRM,
		Network:    m.Network,
		Decoder:    m.Decoder,
		Adaptation: m.Adaptation,
	})
	m.View = player.NewViewModule(rt, main, factory, m.Player, player.Handlers{
		Fullscreen: func(id registry.NativeID) (sdk.FullscreenHandler, bool) {
			if h, ok := m.Fullscreen.Handler(id); ok {
				return h, true
			}
			return nil, false
		},
		CustomMessage: func(id registry.NativeID) (sdk.CustomMessageHandler, bool) {
			if h, ok := m.CustomMessage.Handler(id); ok {
				return h, true
			}
			return nil, false
		},
	})
	uuid.Register(rt, main)
	if logs != nil {
		debug.Register(rt, main, logs)
	}
	return m
}

// Close detaches views, destroys players, then releases every blocked
// round trip with its default.
func (m *Modules) Close() {
	m.View.Close()
	m.Player.Close()
	m.DRM.Close()
	m.Network.Close()
	m.Decoder.Close()
	m.Adaptation.Close()
	m.Fullscreen.Close()
	m.CustomMessage.Close()
}
