// Package debug implements DebugModule, which toggles verbose logging from
// JS.
package debug

import (
	"log/slog"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/logging"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/mainthread"
)

const Name = "DebugModule"

// Register adds DebugModule to rt. Disabling debug logging restores the
// level logs had when Register was called.
func Register(rt *jsbridge.Runtime, main *mainthread.Queue, logs *logging.Logger) *jsbridge.Module {
	base := logs.Level()
	if base <= slog.LevelDebug {
		base = slog.LevelInfo
	}
	return jsbridge.NewModule(rt, main, jsbridge.Definition{
		Name: Name,
		Functions: map[string]jsbridge.Function{
			"isDebugLoggingEnabled": func(jsbridge.Args) (any, error) {
				return logs.Level() <= slog.LevelDebug, nil
			},
		},
		AsyncFunctions: map[string]jsbridge.Function{
			"setDebugLoggingEnabled": func(args jsbridge.Args) (any, error) {
				enabled, err := args.Bool(0)
				if err != nil {
					return nil, err
				}
				if enabled {
					logs.SetLevel(slog.LevelDebug)
				} else {
					logs.SetLevel(base)
				}
				return nil, nil
			},
		},
	})
}
