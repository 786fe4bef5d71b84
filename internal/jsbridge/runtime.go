// Package jsbridge hosts the JS side of the bridge: a goja runtime driven
// by a single-goroutine event loop, plus the native modules JS code reaches
// through require("bitmovin:<Name>").
package jsbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/goroutineid"
)

// DefaultSyncTimeout bounds RunOnLoopSync unless overridden.
const DefaultSyncTimeout = 5 * time.Second

// ErrNotRunning is returned when work is submitted to a stopped runtime.
var ErrNotRunning = errors.New("event loop not running")

// ErrInvalidConfig is returned when a configuration object sent from JS
// cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Runtime owns the goja runtime and the loop that serializes all access to
// it. goja.Runtime is not goroutine-safe: every use of it happens inside a
// RunOnLoop callback, and promises are settled there too.
type Runtime struct {
	loop     *eventloop.EventLoop
	registry *require.Registry
	logger   *slog.Logger

	timeout time.Duration

	// loopID is the event loop goroutine, used to detect re-entrant calls.
	loopID atomic.Int64

	mu      sync.RWMutex
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger routes console output and runtime diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) { rt.logger = logger }
}

// WithSyncTimeout sets the RunOnLoopSync bound. Zero disables it.
func WithSyncTimeout(d time.Duration) Option {
	return func(rt *Runtime) { rt.timeout = d }
}

// WithRegistry shares an existing require registry.
func WithRegistry(registry *require.Registry) Option {
	return func(rt *Runtime) { rt.registry = registry }
}

// NewRuntime starts a Runtime. Cancelling ctx closes it.
func NewRuntime(ctx context.Context, opts ...Option) (*Runtime, error) {
	childCtx, cancel := context.WithCancel(context.Background())
	rt := &Runtime{
		timeout: DefaultSyncTimeout,
		ctx:     childCtx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.logger == nil {
		rt.logger = slog.Default()
	}
	if rt.registry == nil {
		rt.registry = require.NewRegistry()
	}
	rt.registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(consolePrinter{rt.logger.With("component", "console")}))

	rt.loop = eventloop.NewEventLoop(
		eventloop.WithRegistry(rt.registry),
		eventloop.EnableConsole(true),
	)
	rt.loop.Start()

	idCh := make(chan int64, 1)
	if !rt.loop.RunOnLoop(func(*goja.Runtime) { idCh <- goroutineid.Get() }) {
		cancel()
		return nil, fmt.Errorf("failed to initialize: %w", ErrNotRunning)
	}
	rt.loopID.Store(<-idCh)

	if ctx.Done() != nil {
		context.AfterFunc(ctx, func() { _ = rt.Close() })
	}
	return rt, nil
}

// Registry returns the require registry native modules are added to.
// Modules must be registered before a script requires them.
func (rt *Runtime) Registry() *require.Registry { return rt.registry }

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger { return rt.logger }

// Close stops the loop. Pending jobs are abandoned. Safe to call repeatedly.
func (rt *Runtime) Close() error {
	rt.mu.Lock()
	if rt.stopped {
		rt.mu.Unlock()
		return nil
	}
	rt.stopped = true
	rt.mu.Unlock()

	rt.cancel()
	if rt.OnLoop() {
		// Stop waits for the loop to exit, which cannot happen while we are
		// inside one of its callbacks.
		go rt.loop.Stop()
		return nil
	}
	rt.loop.Stop()
	return nil
}

// Done is closed once Close has been called.
func (rt *Runtime) Done() <-chan struct{} { return rt.ctx.Done() }

// IsRunning reports whether the runtime accepts work.
func (rt *Runtime) IsRunning() bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return !rt.stopped
}

// OnLoop reports whether the caller is the event loop goroutine.
func (rt *Runtime) OnLoop() bool {
	return goroutineid.Is(rt.loopID.Load())
}

// RunOnLoop schedules fn on the loop. It returns false if the runtime is
// stopped. The *goja.Runtime must not escape fn.
func (rt *Runtime) RunOnLoop(fn func(*goja.Runtime)) bool {
	if !rt.IsRunning() {
		return false
	}
	return rt.loop.RunOnLoop(fn)
}

// RunOnLoopSync runs fn on the loop and waits for it, up to the sync
// timeout. Calling it from the loop itself deadlocks; use TryRunOnLoopSync
// where that can happen.
func (rt *Runtime) RunOnLoopSync(fn func(*goja.Runtime) error) error {
	errCh := make(chan error, 1)
	if !rt.RunOnLoop(func(vm *goja.Runtime) { errCh <- fn(vm) }) {
		return ErrNotRunning
	}

	var timeoutCh <-chan time.Time
	if rt.timeout > 0 {
		timer := time.NewTimer(rt.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	select {
	case err := <-errCh:
		return err
	case <-rt.Done():
		return errors.New("runtime stopped before completion")
	case <-timeoutCh:
		return fmt.Errorf("operation timed out after %v", rt.timeout)
	}
}

// TryRunOnLoopSync runs fn inline when called on the loop (with currentVM)
// and behaves like RunOnLoopSync otherwise.
func (rt *Runtime) TryRunOnLoopSync(currentVM *goja.Runtime, fn func(*goja.Runtime) error) error {
	if !rt.IsRunning() {
		return ErrNotRunning
	}
	if currentVM != nil && rt.OnLoop() {
		return fn(currentVM)
	}
	return rt.RunOnLoopSync(fn)
}

// LoadScript compiles and runs code.
func (rt *Runtime) LoadScript(name, code string) error {
	return rt.RunOnLoopSync(func(vm *goja.Runtime) error {
		_, err := runScript(vm, name, code)
		return err
	})
}

func runScript(vm *goja.Runtime, name, code string) (goja.Value, error) {
	prg, err := goja.Compile(name, code, false)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", name, err)
	}
	v, err := vm.RunProgram(prg)
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return v, nil
}

// Evaluate runs code and waits for its completion value. A returned
// promise is awaited until it settles or ctx is done; a rejection becomes
// an error. The settled value is exported to Go.
func (rt *Runtime) Evaluate(ctx context.Context, name, code string) (any, error) {
	type result struct {
		v   any
		err error
	}
	resCh := make(chan result, 1)
	settle := func(v any, err error) {
		select {
		case resCh <- result{v, err}:
		default:
		}
	}

	err := rt.RunOnLoopSync(func(vm *goja.Runtime) error {
		v, err := runScript(vm, name, code)
		if err != nil {
			return err
		}
		p, ok := v.Export().(*goja.Promise)
		if !ok {
			settle(exportValue(v), nil)
			return nil
		}
		switch p.State() {
		case goja.PromiseStateFulfilled:
			settle(exportValue(p.Result()), nil)
			return nil
		case goja.PromiseStateRejected:
			settle(nil, rejectionError(p.Result()))
			return nil
		}
		obj := v.ToObject(vm)
		then, ok := goja.AssertFunction(obj.Get("then"))
		if !ok {
			return fmt.Errorf("%s: result is not a thenable", name)
		}
		_, err = then(obj,
			vm.ToValue(func(call goja.FunctionCall) goja.Value {
				settle(exportValue(call.Argument(0)), nil)
				return goja.Undefined()
			}),
			vm.ToValue(func(call goja.FunctionCall) goja.Value {
				settle(nil, rejectionError(call.Argument(0)))
				return goja.Undefined()
			}),
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	select {
	case r := <-resCh:
		return r.v, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-rt.Done():
		return nil, errors.New("runtime stopped before the script settled")
	}
}

// SetGlobal sets a global variable.
func (rt *Runtime) SetGlobal(name string, value any) error {
	return rt.RunOnLoopSync(func(vm *goja.Runtime) error {
		return vm.Set(name, value)
	})
}

// GetGlobal returns the exported value of a global, or nil.
func (rt *Runtime) GetGlobal(name string) (any, error) {
	var result any
	err := rt.RunOnLoopSync(func(vm *goja.Runtime) error {
		result = exportValue(vm.Get(name))
		return nil
	})
	return result, err
}

func exportValue(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

// JSError is a JS exception or promise rejection surfaced to Go.
type JSError struct {
	Message string
	Value   any
}

func (e *JSError) Error() string { return e.Message }

func rejectionError(v goja.Value) error {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return &JSError{Message: "rejected"}
	}
	if obj, ok := v.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return &JSError{Message: msg.String(), Value: v.Export()}
		}
	}
	return &JSError{Message: v.String(), Value: v.Export()}
}

type consolePrinter struct{ logger *slog.Logger }

func (p consolePrinter) Log(s string)   { p.logger.Info(s) }
func (p consolePrinter) Warn(s string)  { p.logger.Warn(s) }
func (p consolePrinter) Error(s string) { p.logger.Error(s) }
