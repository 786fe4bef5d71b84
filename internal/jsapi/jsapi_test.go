package jsapi_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/builtin"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/config"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsapi"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge/jsbridgetest"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk/simulated"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/testutil"
)

type fixture struct {
	env     *jsbridgetest.Env
	modules *builtin.Modules
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := jsbridgetest.New(t)
	factory := simulated.Factory{Options: simulated.Options{Tick: 5 * time.Millisecond, Speed: 50, Duration: 10}}
	timeouts := config.DefaultTimeouts()
	timeouts.DRM = time.Second
	timeouts.Network = time.Second
	timeouts.Adaptation = time.Second
	timeouts.Fullscreen = time.Second
	timeouts.CustomMessage = time.Second
	modules := builtin.Register(env.RT, env.Main, factory, timeouts, env.Logs)
	t.Cleanup(modules.Close)
	require.NoError(t, jsapi.Register(env.RT))
	env.Eval(t, `var B = require('bitmovin');`)
	return &fixture{env: env, modules: modules}
}

func (f *fixture) trace(t *testing.T, id string, ready func(simulated.Trace) bool) simulated.Trace {
	t.Helper()
	tr, err := testutil.WaitForState(context.Background(), func() simulated.Trace {
		p, ok := f.modules.Player.Player(id)
		if !ok {
			return simulated.Trace{}
		}
		return p.(*simulated.Player).Trace()
	}, ready, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, err)
	return tr
}

func hasLicense(tr simulated.Trace) bool { return len(tr.License) > 0 }

func TestDrmHooksAnswered(t *testing.T) {
	f := newFixture(t)
	// "bW9kaWZpZWQ=" is base64 for "modified".
	f.env.Eval(t, `
		var seen = null;
		var player = new B.Player({nativeId: 'p1'});
		player.load({
			url: 'https://example.com/a.mpd',
			type: 'dash',
			drmConfig: {
				widevine: {
					licenseUrl: 'https://license',
					prepareMessage: function (msg) { seen = msg; return 'bW9kaWZpZWQ='; },
					prepareLicense: function (license) { return Promise.resolve(license); },
				},
			},
		});
	`)
	tr := f.trace(t, "p1", hasLicense)
	assert.Equal(t, "modified", string(tr.LicenseRequest))
	assert.Equal(t, "license:modified", string(tr.License))
	assert.NotNil(t, f.env.Eval(t, `seen`), "hook saw the base64 challenge")
}

func TestDrmHookFailuresPassThrough(t *testing.T) {
	f := newFixture(t)
	f.env.Eval(t, `
		var player = new B.Player({nativeId: 'p1'});
		player.load({
			url: 'https://example.com/a.mpd',
			type: 'dash',
			drmConfig: {
				widevine: {
					licenseUrl: 'https://license',
					prepareMessage: function () { throw new Error('boom'); },
					prepareLicense: function () { return Promise.reject(new Error('nope')); },
				},
			},
		});
	`)
	tr := f.trace(t, "p1", hasLicense)
	assert.Equal(t, "widevine-challenge:https://example.com/a.mpd", string(tr.LicenseRequest))
	assert.Equal(t, "license:widevine-challenge:https://example.com/a.mpd", string(tr.License))
}

func TestNetworkPreprocessRequest(t *testing.T) {
	f := newFixture(t)
	f.env.Eval(t, `
		var player = new B.Player({
			nativeId: 'p1',
			networkConfig: {
				preprocessHttpRequest: function (type, request) {
					return Object.assign({}, request, {url: request.url + '?token=abc'});
				},
			},
		});
		player.load({url: 'https://example.com/a.mpd', type: 'dash'});
	`)
	tr := f.trace(t, "p1", func(tr simulated.Trace) bool { return tr.ManifestRequest != nil })
	assert.Equal(t, "https://example.com/a.mpd?token=abc", tr.ManifestRequest.URL)
	assert.Equal(t, "https://example.com/a.mpd?token=abc", tr.ManifestResponse.URL)
}

func TestAdaptationOverride(t *testing.T) {
	f := newFixture(t)
	f.env.Eval(t, `
		var suggested = null;
		var player = new B.Player({
			nativeId: 'p1',
			adaptationConfig: {
				videoAdaptation: {
					onVideoAdaptation: function (data) { suggested = data.suggested; return '360p'; },
				},
			},
		});
		player.load({url: 'https://example.com/a.mpd', type: 'dash'}).then(function () { return player.play(); });
	`)
	tr := f.trace(t, "p1", func(tr simulated.Trace) bool { return tr.Quality != nil })
	assert.Equal(t, "360p", tr.Quality.ID)
	assert.Equal(t, "1080p", f.env.Eval(t, `suggested`))
}

func TestRouterSharesOneSubscription(t *testing.T) {
	f := newFixture(t)
	f.env.Eval(t, `
		var D = require('bitmovin:DrmModule');
		var a = new B.Drm({widevine: {licenseUrl: 'https://a'}});
		var b = new B.Drm({widevine: {licenseUrl: 'https://b'}});
		Promise.all([a.initialize(), b.initialize()]);
	`)
	assert.EqualValues(t, 1, f.env.Eval(t, `D.listenerCount('onPrepareMessage')`))
	assert.NotEqual(t, f.env.Eval(t, `a.nativeId`), f.env.Eval(t, `b.nativeId`))

	f.env.Eval(t, `a.destroy()`)
	assert.EqualValues(t, 1, f.env.Eval(t, `D.listenerCount('onPrepareMessage')`))
	f.env.Eval(t, `b.destroy()`)
	assert.EqualValues(t, 0, f.env.Eval(t, `D.listenerCount('onPrepareMessage')`))
	assert.Equal(t, 0, f.modules.DRM.Pending())
}

func TestDuplicateNativeIDFirstInstanceWins(t *testing.T) {
	f := newFixture(t)
	// "Zmlyc3Q=" and "c2Vjb25k" are base64 for "first" and "second".
	f.env.Eval(t, `
		var D = require('bitmovin:DrmModule');
		var first = new B.Drm({nativeId: 'same', widevine: {
			licenseUrl: 'https://a',
			prepareLicense: function () { return 'Zmlyc3Q='; },
		}});
		var second = new B.Drm({nativeId: 'same', widevine: {
			licenseUrl: 'https://b',
			prepareLicense: function () { return 'c2Vjb25k'; },
		}});
		Promise.all([first.initialize(), second.initialize()]);
	`)
	cfg, ok := f.modules.DRM.Config("same")
	require.True(t, ok)
	assert.Equal(t, "https://a", cfg.Widevine.LicenseURL)
	assert.Equal(t, "first", string(cfg.Widevine.PrepareLicense([]byte("x"))))

	f.env.Eval(t, `second.destroy()`)
	_, ok = f.modules.DRM.Config("same")
	assert.True(t, ok, "the inert instance does not destroy the native config")
	assert.EqualValues(t, 1, f.env.Eval(t, `D.listenerCount('onPrepareLicense')`))
	assert.Equal(t, "first", string(cfg.Widevine.PrepareLicense([]byte("x"))))

	f.env.Eval(t, `first.destroy()`)
	_, ok = f.modules.DRM.Config("same")
	assert.False(t, ok)
	assert.EqualValues(t, 0, f.env.Eval(t, `D.listenerCount('onPrepareLicense')`))

	// The id is free again once its owner is gone.
	f.env.Eval(t, `var third = new B.Drm({nativeId: 'same', widevine: {licenseUrl: 'https://c'}}); third.initialize();`)
	cfg, ok = f.modules.DRM.Config("same")
	require.True(t, ok)
	assert.Equal(t, "https://c", cfg.Widevine.LicenseURL)
}

func TestDrmHooksPerSystem(t *testing.T) {
	f := newFixture(t)
	// "d3Y=" and "ZnA=" are base64 for "wv" and "fp".
	f.env.Eval(t, `
		var fairplayAsset = null;
		var drm = new B.Drm({
			nativeId: 'd1',
			widevine: {
				licenseUrl: 'https://wv',
				prepareMessage: function (msg) { return 'd3Y='; },
			},
			fairplay: {
				licenseUrl: 'https://fp',
				prepareMessage: function (msg, assetId) { fairplayAsset = assetId; return 'ZnA='; },
				prepareContentId: function (contentId) { return contentId + '-x'; },
			},
		});
		drm.initialize();
	`)
	cfg, ok := f.modules.DRM.Config("d1")
	require.True(t, ok)
	require.NotNil(t, cfg.Widevine)
	require.NotNil(t, cfg.Fairplay)

	assert.Equal(t, "wv", string(cfg.Widevine.PrepareMessage([]byte("challenge"))))
	assert.Equal(t, "fp", string(cfg.Fairplay.PrepareMessage([]byte("spc"), "asset-9")))
	assert.Equal(t, "asset-9", f.env.Eval(t, `fairplayAsset`))
	assert.Equal(t, "skd://a-x", cfg.Fairplay.PrepareContentID("skd://a"))
	assert.Nil(t, cfg.Widevine.PrepareLicense)
	assert.Nil(t, cfg.Fairplay.PrepareLicense)
}

func TestToNativeConfig(t *testing.T) {
	f := newFixture(t)
	got := f.env.Eval(t, `B.toNativeConfig({
		licenseUrl: 'x',
		prepareMessage: function () {},
		fairplay: {certificateUrl: 'c', prepareContentId: function () {}},
		list: [1, function () {}],
	})`)
	assert.Equal(t, map[string]any{
		"licenseUrl":     "x",
		"prepareMessage": true,
		"fairplay":       map[string]any{"certificateUrl": "c", "prepareContentId": true},
		"list":           []any{int64(1), true},
	}, got)
}

func TestPlayerViewEvents(t *testing.T) {
	f := newFixture(t)
	f.env.Eval(t, `
		var names = [];
		var ready = 0;
		var player = new B.Player({nativeId: 'p1'});
		var view = new B.PlayerView({viewId: 'v1'});
		view.on('onReady', function () { ready++; });
		view.on('onEvent', function (event, envelope) { names.push(envelope.name); });
		view.setPlayer(player).then(function () {
			return player.load({url: 'https://example.com/a.mpd', type: 'dash'});
		});
	`)
	require.NoError(t, testutil.Poll(context.Background(), func() bool {
		v, _ := f.env.EvalErr(`ready`)
		n, _ := v.(int64)
		return n == 1
	}, 2*time.Second, 5*time.Millisecond))
	names := f.env.Eval(t, `names`).([]any)
	assert.Contains(t, names, "onSourceLoaded")
	assert.Contains(t, names, "onReady")
}

func TestFullscreenHandler(t *testing.T) {
	f := newFixture(t)
	f.env.Eval(t, `
		var calls = [];
		var handler = {
			isFullscreenActive: false,
			enterFullscreen: function () { calls.push('enter'); this.isFullscreenActive = true; },
			exitFullscreen: function () { calls.push('exit'); this.isFullscreenActive = false; },
		};
		var view = new B.PlayerView({viewId: 'v1'});
		view.setFullscreenHandler(handler);
	`)
	assert.Equal(t, true, f.env.Eval(t, `view.requestFullscreen(true)`))
	assert.Equal(t, false, f.env.Eval(t, `view.requestFullscreen(false)`))
	assert.Equal(t, []any{"enter", "exit"}, f.env.Eval(t, `calls`))
}

func TestFullscreenWithoutHandlerKeepsState(t *testing.T) {
	f := newFixture(t)
	f.env.Eval(t, `
		var view = new B.PlayerView({viewId: 'v1'});
		view.setFullscreenHandler(undefined);
	`)
	assert.Equal(t, false, f.env.Eval(t, `view.requestFullscreen(true)`))
}

func TestCustomMessageHandler(t *testing.T) {
	f := newFixture(t)
	f.env.Eval(t, `
		var asyncMessages = [];
		var handler = {
			receivedSynchronousMessage: function (message, data) { return message + ':' + data; },
			receivedAsynchronousMessage: function (message, data) { asyncMessages.push(message); },
		};
		var view = new B.PlayerView({viewId: 'v1'});
		view.setCustomMessageHandler(handler);
	`)
	v, ok := f.modules.View.View("v1")
	require.True(t, ok)
	sv := v.(*simulated.View)

	data := "payload"
	got := sv.SendUIMessage("ping", &data, true)
	require.NotNil(t, got)
	assert.Equal(t, "ping:payload", *got)

	sv.SendUIMessage("note", nil, false)
	require.NoError(t, testutil.Poll(context.Background(), func() bool {
		v, _ := f.env.EvalErr(`asyncMessages.length`)
		n, _ := v.(int64)
		return n == 1
	}, 2*time.Second, 5*time.Millisecond))

	f.env.Eval(t, `handler.customMessageSender.sendMessage('toUI', 'x')`)
	msgs := sv.ReceivedMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "toUI", msgs[0].Name)
}

func TestPlayerDestroyReleasesLinked(t *testing.T) {
	f := newFixture(t)
	f.env.Eval(t, `
		var player = new B.Player({
			nativeId: 'p1',
			networkConfig: {preprocessHttpRequest: function (t, r) { return r; }},
		});
		player.initialize();
	`)
	networkID := f.env.Eval(t, `player.network.nativeId`).(string)
	_, ok := f.modules.Network.Config(networkID)
	require.True(t, ok)

	f.env.Eval(t, `player.destroy()`)
	_, ok = f.modules.Network.Config(networkID)
	assert.False(t, ok)
	_, ok = f.modules.Player.Player("p1")
	assert.False(t, ok)
}
