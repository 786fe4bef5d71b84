// Package jsbridgetest provides a runtime and main thread for tests of
// native modules.
package jsbridgetest

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/logging"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/mainthread"
)

// Env is a running runtime with a main thread, both closed on cleanup.
type Env struct {
	RT   *jsbridge.Runtime
	Main *mainthread.Queue
	Logs *logging.Logger
}

// New starts an Env.
func New(t testing.TB) *Env {
	t.Helper()
	logs := logging.New(logging.Options{Level: slog.LevelDebug})
	rt, err := jsbridge.NewRuntime(context.Background(), jsbridge.WithLogger(logs.Slog()))
	require.NoError(t, err)
	main := mainthread.New(logs.Slog())
	t.Cleanup(func() {
		main.Close()
		_ = rt.Close()
	})
	return &Env{RT: rt, Main: main, Logs: logs}
}

// Eval runs code, awaiting a returned promise, and fails the test on error.
func (e *Env) Eval(t testing.TB, code string) any {
	t.Helper()
	v, err := e.EvalErr(code)
	require.NoError(t, err)
	return v
}

// EvalErr runs code like Eval and returns its error.
func (e *Env) EvalErr(code string) (any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.RT.Evaluate(ctx, "test.js", code)
}
