package adaptation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge/jsbridgetest"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

func TestVideoAdaptation(t *testing.T) {
	env := jsbridgetest.New(t)
	m := New(env.RT, env.Main, time.Second)
	t.Cleanup(m.Close)

	env.Eval(t, `
		var ad = require('bitmovin:AdaptationModule');
		ad.addListener('onVideoAdaptation', function (e) {
			ad.setOnVideoAdaptation(e.id, e.data.suggested === '1080p' ? '360p' : null);
		});
		ad.initializeWithConfig('a1', {maxSelectableBitrate: 3000000, videoAdaptation: {onVideoAdaptation: true}});
	`)
	cfg, ok := m.Config("a1")
	require.True(t, ok)
	assert.Equal(t, 3_000_000, cfg.MaxSelectableVideoBitrate)

	assert.Equal(t, "360p", cfg.OnVideoAdaptation(sdk.VideoAdaptationData{Suggested: "1080p"}))
	assert.Equal(t, "720p", cfg.OnVideoAdaptation(sdk.VideoAdaptationData{Suggested: "720p"}), "null answer keeps the suggestion")
}

func TestNoHookWithoutFlag(t *testing.T) {
	env := jsbridgetest.New(t)
	m := New(env.RT, env.Main, time.Second)
	env.Eval(t, `require('bitmovin:AdaptationModule').initializeWithConfig('a1', {})`)
	cfg, ok := m.Config("a1")
	require.True(t, ok)
	assert.Nil(t, cfg.OnVideoAdaptation)

	_, err := env.EvalErr(`require('bitmovin:AdaptationModule').initializeWithConfig('a2', {maxSelectableBitrate: -1})`)
	require.Error(t, err)
}

func TestVideoAdaptation_Timeout(t *testing.T) {
	env := jsbridgetest.New(t)
	m := New(env.RT, env.Main, 20*time.Millisecond)
	env.Eval(t, `require('bitmovin:AdaptationModule').initializeWithConfig('a1', {videoAdaptation: {onVideoAdaptation: true}})`)
	cfg, _ := m.Config("a1")
	assert.Equal(t, "720p", cfg.OnVideoAdaptation(sdk.VideoAdaptationData{Suggested: "720p"}))
}
