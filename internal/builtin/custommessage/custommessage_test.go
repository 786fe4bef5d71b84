package custommessage

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge/jsbridgetest"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/registry"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/testutil"
)

func setup(t *testing.T, timeout time.Duration) (*jsbridgetest.Env, *Handler) {
	t.Helper()
	env := jsbridgetest.New(t)
	m := New(env.RT, env.Main, timeout)
	t.Cleanup(m.Close)
	env.Eval(t, `
		var cm = require('bitmovin:CustomMessageHandlerModule');
		var received = [];
		cm.addListener('onReceivedSynchronousMessage', function (e) {
			cm.onReceivedSynchronousMessageResult(e.id, e.message === 'ping' ? 'pong:' + e.data : null);
		});
		cm.addListener('onReceivedAsynchronousMessage', function (e) { received.push(e.message); });
		cm.registerHandler('c1');
	`)
	h, ok := m.Handler("c1")
	require.True(t, ok)
	return env, h
}

func ptr(s string) *string { return &s }

func TestSynchronousMessage(t *testing.T) {
	_, h := setup(t, time.Second)

	got := h.SendSynchronous("ping", ptr("1"))
	require.NotNil(t, got)
	assert.Equal(t, "pong:1", *got)
	assert.Nil(t, h.SendSynchronous("other", nil))
}

func TestSynchronousMessage_TimeoutIsNil(t *testing.T) {
	env := jsbridgetest.New(t)
	m := New(env.RT, env.Main, 20*time.Millisecond)
	env.Eval(t, `require('bitmovin:CustomMessageHandlerModule').registerHandler('c1')`)
	h, _ := m.Handler("c1")
	assert.Nil(t, h.SendSynchronous("ping", nil))
}

func TestAsynchronousMessage(t *testing.T) {
	env, h := setup(t, time.Second)
	h.SendAsynchronous("hello", nil)
	_, err := testutil.WaitForState(t.Context(), func() any {
		v, _ := env.EvalErr(`received.join(',')`)
		return v
	}, func(v any) bool { return v == "hello" }, time.Second, 5*time.Millisecond)
	require.NoError(t, err)
}

func TestSendMessageToUI(t *testing.T) {
	env, h := setup(t, time.Second)

	var mu sync.Mutex
	var got []string
	h.SetUIReceiver(func(message string, data *string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, message+"="+*data)
	})
	env.Eval(t, `cm.sendMessage('c1', 'toggle', 'on')`)
	mu.Lock()
	assert.Equal(t, []string{"toggle=on"}, got)
	mu.Unlock()

	_, err := env.EvalErr(`cm.sendMessage('missing', 'toggle', null)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), registry.ErrUnknownNativeID.Error())
}
