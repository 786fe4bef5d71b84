package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/config"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge/jsbridgetest"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk/simulated"
)

func TestRegister(t *testing.T) {
	env := jsbridgetest.New(t)
	mods := Register(env.RT, env.Main, simulated.Factory{}, config.DefaultTimeouts(), env.Logs)
	t.Cleanup(mods.Close)

	for _, name := range []string{
		"DrmModule",
		"NetworkModule",
		"DecoderConfigModule",
		"AdaptationModule",
		"FullscreenHandlerModule",
		"CustomMessageHandlerModule",
		"PlayerModule",
		"PlayerViewModule",
		"UuidModule",
		"DebugModule",
	} {
		v := env.Eval(t, `typeof require('bitmovin:`+name+`')`)
		assert.Equal(t, "object", v, name)
	}
}

func TestRegister_ViewResolvesHandlers(t *testing.T) {
	env := jsbridgetest.New(t)
	mods := Register(env.RT, env.Main, simulated.Factory{}, config.DefaultTimeouts(), nil)
	t.Cleanup(mods.Close)

	env.Eval(t, `
		var fs = require('bitmovin:FullscreenHandlerModule');
		var V = require('bitmovin:PlayerViewModule');
		fs.addListener('onEnterFullscreen', function (e) { fs.notifyFullscreenChanged(e.id, true); });
		fs.registerHandler('f1');
		require('bitmovin:CustomMessageHandlerModule').registerHandler('c1');
		V.create('v1');
		V.attachFullscreenBridge('v1', 'f1');
		V.attachCustomMessageHandler('v1', 'c1');
	`)
	assert.Equal(t, true, env.Eval(t, `V.requestFullscreen('v1', true)`))

	_, err := env.EvalErr(`V.attachFullscreenBridge('v1', 'missing')`)
	assert.Error(t, err)
	_, err = env.EvalErr(`require('bitmovin:DebugModule')`)
	assert.Error(t, err, "DebugModule needs a logger")
}
