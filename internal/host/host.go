// Package host assembles the bridge: logging, the JS runtime, the main
// thread, every native module and the JS library. It is the single owner
// of the registries the modules hold.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/builtin"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/config"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsapi"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/logging"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/mainthread"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk/simulated"
)

// Options configure a Host. Zero values fall back to the configuration.
type Options struct {
	// Config supplies timeouts and logging settings. nil means defaults.
	Config *config.Config
	// Factory creates native players and views. nil uses the simulated SDK.
	Factory sdk.Factory
	// LogLevel overrides log.level when set.
	LogLevel string
	// LogOutput, when non-nil, receives every record as a JSON line in
	// place of log.file.
	LogOutput io.Writer
}

// Host is a running bridge.
type Host struct {
	logs     *logging.Logger
	logFile  *os.File
	rt       *jsbridge.Runtime
	main     *mainthread.Queue
	modules  *builtin.Modules
	timeouts config.Timeouts
}

// New starts a Host. Cancelling ctx stops its runtime; Close releases the
// rest.
func New(ctx context.Context, opts Options) (*Host, error) {
	schema := config.DefaultSchema()
	cfg := opts.Config

	levelName := opts.LogLevel
	if levelName == "" {
		levelName = schema.Resolve(cfg, config.KeyLogLevel)
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	h := &Host{timeouts: config.ResolveTimeouts(cfg)}
	out := opts.LogOutput
	if out == nil {
		if path := schema.Resolve(cfg, config.KeyLogFile); path != "" {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("failed to open log file: %w", err)
			}
			h.logFile = f
			out = f
		}
	}
	h.logs = logging.New(logging.Options{
		Level:      level,
		BufferSize: schema.ResolveInt(cfg, config.KeyLogBufferSize),
		File:       out,
	})
	logger := h.logs.Slog()

	h.rt, err = jsbridge.NewRuntime(ctx,
		jsbridge.WithLogger(logger),
		jsbridge.WithSyncTimeout(schema.ResolveDuration(cfg, config.KeySyncTimeout)),
	)
	if err != nil {
		h.closeLogFile()
		return nil, err
	}
	h.main = mainthread.New(logger)

	factory := opts.Factory
	if factory == nil {
		factory = simulated.Factory{Options: simulated.Options{
			Tick:   schema.ResolveDuration(cfg, config.KeySimulatorTick),
			Logger: logger,
		}}
	}
	h.modules = builtin.Register(h.rt, h.main, factory, h.timeouts, h.logs)
	if err := jsapi.Register(h.rt); err != nil {
		_ = h.Close()
		return nil, err
	}

	logger.Debug("bridge host started",
		"drmTimeout", h.timeouts.DRM,
		"networkTimeout", h.timeouts.Network,
		"fullscreenTimeout", h.timeouts.Fullscreen)
	return h, nil
}

// Runtime returns the JS runtime.
func (h *Host) Runtime() *jsbridge.Runtime { return h.rt }

// Main returns the main thread queue.
func (h *Host) Main() *mainthread.Queue { return h.main }

// Modules returns the registered native modules.
func (h *Host) Modules() *builtin.Modules { return h.modules }

// Logs returns the logger, including its in-memory buffer.
func (h *Host) Logs() *logging.Logger { return h.logs }

// Logger returns the structured logger.
func (h *Host) Logger() *slog.Logger { return h.logs.Slog() }

// Timeouts returns the resolved round trip bounds.
func (h *Host) Timeouts() config.Timeouts { return h.timeouts }

// Evaluate runs code and awaits its completion value; see
// jsbridge.Runtime.Evaluate.
func (h *Host) Evaluate(ctx context.Context, name, code string) (any, error) {
	return h.rt.Evaluate(ctx, name, code)
}

// RunFile evaluates the script at path.
func (h *Host) RunFile(ctx context.Context, path string) (any, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return h.Evaluate(ctx, path, string(code))
}

// Close releases blocked round trips, destroys every player and view, then
// stops the main thread and the runtime. Safe to call repeatedly.
func (h *Host) Close() error {
	if h.modules != nil {
		h.modules.Close()
	}
	if h.main != nil {
		h.main.Close()
	}
	var err error
	if h.rt != nil {
		err = h.rt.Close()
	}
	return errors.Join(err, h.closeLogFile())
}

func (h *Host) closeLogFile() error {
	if h.logFile == nil {
		return nil
	}
	f := h.logFile
	h.logFile = nil
	return f.Close()
}
