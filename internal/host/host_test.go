package host

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/config"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk/simulated"
)

func newHost(t *testing.T, cfg *config.Config) *Host {
	t.Helper()
	h, err := New(context.Background(), Options{
		Config:    cfg,
		Factory:   simulated.Factory{Options: simulated.Options{Tick: 5 * time.Millisecond, Speed: 50, Duration: 5}},
		LogOutput: &bytes.Buffer{},
	})
	require.NoError(t, err)
	return h
}

func TestHost_EndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newHost(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	v, err := h.Evaluate(ctx, "e2e.js", `
		var B = require('bitmovin');
		var player = new B.Player({nativeId: 'p1', playbackConfig: {isMuted: true}});
		var view = new B.PlayerView({viewId: 'v1'});
		new Promise(function (resolve) {
			view.on('onPlaybackFinished', function () { resolve(player.getCurrentTime()); });
			view.setPlayer(player)
				.then(function () { return player.load({url: 'https://example.com/a.m3u8', type: 'hls'}); })
				.then(function () { return player.play(); });
		});
	`)
	require.NoError(t, err)
	assert.EqualValues(t, 5, v)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
}

func TestHost_CloseReleasesBlockedRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := config.NewConfig()
	cfg.SetGlobalOption(config.KeyDRMTimeout, "1m")
	h := newHost(t, cfg)
	assert.Equal(t, time.Minute, h.Timeouts().DRM)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := h.Evaluate(ctx, "drm.js", `require('bitmovin:DrmModule').initializeWithConfig('d1', {widevine: {licenseUrl: 'x', prepareMessage: true}})`)
	require.NoError(t, err)

	drm, ok := h.Modules().DRM.Config("d1")
	require.True(t, ok)

	got := make(chan []byte, 1)
	go func() { got <- drm.Widevine.PrepareMessage([]byte("challenge")) }()

	require.Eventually(t, func() bool { return h.Modules().DRM.Pending() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, h.Close())

	select {
	case v := <-got:
		assert.Equal(t, "challenge", string(v))
	case <-time.After(2 * time.Second):
		t.Fatal("round trip still blocked after Close")
	}
}

func TestHost_RunFile(t *testing.T) {
	h := newHost(t, nil)
	defer h.Close()

	path := filepath.Join(t.TempDir(), "script.js")
	require.NoError(t, os.WriteFile(path, []byte(`
		var B = require('bitmovin');
		typeof B.Player + ':' + typeof require('bitmovin:UuidModule').generate();
	`), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := h.RunFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "function:string", v)

	_, err = h.RunFile(ctx, filepath.Join(t.TempDir(), "missing.js"))
	assert.Error(t, err)
}

func TestHost_ConsoleGoesToLogs(t *testing.T) {
	h := newHost(t, nil)
	defer h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := h.Evaluate(ctx, "log.js", `console.warn('watch out')`)
	require.NoError(t, err)
	assert.NotEmpty(t, h.Logs().SearchLogs("watch out"))
}

func TestHost_InvalidLogLevel(t *testing.T) {
	_, err := New(context.Background(), Options{LogLevel: "loud"})
	assert.Error(t, err)
}
