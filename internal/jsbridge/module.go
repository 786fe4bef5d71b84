package jsbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dop251/goja"
	"golang.org/x/time/rate"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/mainthread"
)

// ModulePrefix namespaces bridge modules in the require registry.
const ModulePrefix = "bitmovin:"

// Function is the Go implementation of a module function. Arguments are
// exported from JS before it is called, so it may run on any goroutine.
type Function func(args Args) (any, error)

// Definition declares a native module.
type Definition struct {
	Name string
	// Events lists the event names the module may send. Sending anything
	// else is a programming error and is dropped.
	Events []string
	// Functions run synchronously on the JS loop. An error is thrown to JS.
	Functions map[string]Function
	// AsyncFunctions run on the main thread and return a promise to JS,
	// rejected on error.
	AsyncFunctions map[string]Function
	// WorkerFunctions are like AsyncFunctions but run on a goroutine of
	// their own. They are for calls that wait on a JS round trip, which
	// must leave both the loop and the main thread free.
	WorkerFunctions map[string]Function
}

// Module is a registered native module. It fans events sent from any
// goroutine out to the JS listeners subscribed through addListener.
type Module struct {
	def    Definition
	rt     *Runtime
	main   *mainthread.Queue
	logger *slog.Logger
	events map[string]bool

	// listeners is confined to the loop goroutine.
	listeners map[string][]*listener
	nextSub   int64

	dropLog rate.Sometimes
}

type listener struct {
	id int64
	fn goja.Callable
}

// NewModule registers def with rt's require registry as
// require("bitmovin:"+def.Name).
func NewModule(rt *Runtime, main *mainthread.Queue, def Definition) *Module {
	m := &Module{
		def:       def,
		rt:        rt,
		main:      main,
		logger:    rt.Logger().With("module", def.Name),
		events:    make(map[string]bool, len(def.Events)),
		listeners: make(map[string][]*listener),
		dropLog:   rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}
	for _, e := range def.Events {
		m.events[e] = true
	}
	rt.Registry().RegisterNativeModule(ModulePrefix+def.Name, m.require)
	return m
}

// Name returns the module name.
func (m *Module) Name() string { return m.def.Name }

// Logger returns the module's logger.
func (m *Module) Logger() *slog.Logger { return m.logger }

// Runtime returns the runtime the module is registered with.
func (m *Module) Runtime() *Runtime { return m.rt }

func (m *Module) require(vm *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").(*goja.Object)

	for _, name := range sortedKeys(m.def.Functions) {
		fn := m.def.Functions[name]
		_ = exports.Set(name, func(call goja.FunctionCall) goja.Value {
			res, err := fn(exportArgs(call.Arguments))
			if err != nil {
				panic(vm.NewGoError(fmt.Errorf("%s.%s: %w", m.def.Name, name, err)))
			}
			v, err := ToValue(vm, res)
			if err != nil {
				panic(vm.NewGoError(err))
			}
			return v
		})
	}

	for _, name := range sortedKeys(m.def.AsyncFunctions) {
		fn := m.def.AsyncFunctions[name]
		_ = exports.Set(name, func(call goja.FunctionCall) goja.Value {
			return m.callAsync(vm, name, fn, exportArgs(call.Arguments), false)
		})
	}

	for _, name := range sortedKeys(m.def.WorkerFunctions) {
		fn := m.def.WorkerFunctions[name]
		_ = exports.Set(name, func(call goja.FunctionCall) goja.Value {
			return m.callAsync(vm, name, fn, exportArgs(call.Arguments), true)
		})
	}

	// addListener(event, fn): {remove(): void}
	_ = exports.Set("addListener", func(call goja.FunctionCall) goja.Value {
		event := call.Argument(0).String()
		fn, ok := goja.AssertFunction(call.Argument(1))
		if !ok {
			panic(vm.NewTypeError("addListener: listener must be a function"))
		}
		if !m.events[event] {
			panic(vm.NewTypeError(fmt.Sprintf("%s does not emit %q", m.def.Name, event)))
		}
		m.nextSub++
		l := &listener{id: m.nextSub, fn: fn}
		m.listeners[event] = append(m.listeners[event], l)

		sub := vm.NewObject()
		_ = sub.Set("remove", func(goja.FunctionCall) goja.Value {
			m.removeListener(event, l.id)
			return goja.Undefined()
		})
		return sub
	})

	_ = exports.Set("removeAllListeners", func(call goja.FunctionCall) goja.Value {
		delete(m.listeners, call.Argument(0).String())
		return goja.Undefined()
	})

	_ = exports.Set("listenerCount", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(len(m.listeners[call.Argument(0).String()]))
	})
}

func (m *Module) callAsync(vm *goja.Runtime, name string, fn Function, args Args, worker bool) goja.Value {
	promise, resolve, reject := vm.NewPromise()

	settle := func(res any, err error) {
		m.rt.RunOnLoop(func(vm *goja.Runtime) {
			if err != nil {
				reject(vm.NewGoError(fmt.Errorf("%s.%s: %w", m.def.Name, name, err)))
				return
			}
			v, convErr := ToValue(vm, res)
			if convErr != nil {
				reject(vm.NewGoError(convErr))
				return
			}
			resolve(v)
		})
	}

	if worker {
		go func() { settle(fn(args)) }()
		return vm.ToValue(promise)
	}
	if !m.main.Post(func() { settle(fn(args)) }) {
		reject(vm.NewGoError(fmt.Errorf("%s.%s: %w", m.def.Name, name, mainthread.ErrClosed)))
	}
	return vm.ToValue(promise)
}

func (m *Module) removeListener(event string, id int64) {
	ls := m.listeners[event]
	for i, l := range ls {
		if l.id == id {
			// copy so a dispatch iterating the old slice is unaffected
			next := make([]*listener, 0, len(ls)-1)
			next = append(next, ls[:i]...)
			next = append(next, ls[i+1:]...)
			m.listeners[event] = next
			return
		}
	}
}

// ErrUnknownEvent is returned by SendEvent for undeclared event names.
var ErrUnknownEvent = errors.New("event not declared by module")

// SendEvent delivers payload to every JS listener of event, asynchronously
// and in call order. It may be called from any goroutine. The payload is
// encoded immediately, so later mutation by the caller has no effect. A
// listener that throws is logged and does not prevent delivery to the rest.
func (m *Module) SendEvent(event string, payload any) error {
	if !m.events[event] {
		return fmt.Errorf("%s.%s: %w", m.def.Name, event, ErrUnknownEvent)
	}
	data, err := json.Marshal(SanitizeNonFinite(payload))
	if err != nil {
		return fmt.Errorf("%s.%s: encoding payload: %w", m.def.Name, event, err)
	}
	if !m.rt.RunOnLoop(func(vm *goja.Runtime) { m.dispatch(vm, event, data) }) {
		return ErrNotRunning
	}
	return nil
}

func (m *Module) dispatch(vm *goja.Runtime, event string, data []byte) {
	ls := m.listeners[event]
	if len(ls) == 0 {
		m.dropLog.Do(func() {
			m.logger.Debug("no listener for event", "event", event)
		})
		return
	}
	arg, err := parseJSON(vm, data)
	if err != nil {
		m.logger.Error("failed to decode event payload", "event", event, "error", err)
		return
	}
	for _, l := range ls {
		if _, err := l.fn(goja.Undefined(), arg); err != nil {
			m.logger.Warn("event listener threw", "event", event, "error", err)
		}
	}
}

// ListenerCount returns the number of JS listeners for event.
func (m *Module) ListenerCount(event string) (int, error) {
	n := 0
	err := m.rt.RunOnLoopSync(func(*goja.Runtime) error {
		n = len(m.listeners[event])
		return nil
	})
	return n, err
}

func sortedKeys(fns map[string]Function) []string {
	keys := make([]string, 0, len(fns))
	for k := range fns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
