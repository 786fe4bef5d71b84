// Package uuid implements UuidModule, the source of NativeIDs for JS
// objects created without one.
package uuid

import (
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/mainthread"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/registry"
)

const Name = "UuidModule"

// Register adds UuidModule to rt.
func Register(rt *jsbridge.Runtime, main *mainthread.Queue) *jsbridge.Module {
	return jsbridge.NewModule(rt, main, jsbridge.Definition{
		Name: Name,
		Functions: map[string]jsbridge.Function{
			"generate": func(jsbridge.Args) (any, error) {
				return registry.NewNativeID(), nil
			},
		},
	})
}
