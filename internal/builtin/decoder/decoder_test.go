package decoder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge/jsbridgetest"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

var (
	hw        = sdk.MediaCodecInfo{Name: "c2.hw.avc.decoder"}
	sw        = sdk.MediaCodecInfo{Name: "c2.android.avc.decoder", IsSoftware: true}
	preferred = []sdk.MediaCodecInfo{hw, sw}
)

func setup(t *testing.T, timeout time.Duration, script string) (*jsbridgetest.Env, *sdk.DecoderConfig) {
	t.Helper()
	env := jsbridgetest.New(t)
	m := New(env.RT, env.Main, timeout)
	t.Cleanup(m.Close)
	env.Eval(t, `var dec = require('bitmovin:DecoderConfigModule'); var seen = [];`+script+`
		dec.initializeWithConfig('c1', {decoderPriorityProvider: true});`)
	cfg, ok := m.Config("c1")
	require.True(t, ok)
	require.NotNil(t, cfg.DecoderPriorityProvider)
	return env, cfg
}

func TestOverridePriority_SoftwareFirst(t *testing.T) {
	env, cfg := setup(t, 2*time.Second, `
		dec.addListener('onOverrideDecodersPriority', function (e) {
			seen.push(e);
			var list = e.preferredDecoders.slice().sort(function (a, b) { return b.isSoftware - a.isSoftware; });
			dec.overrideDecoderPriorityProviderComplete(e.id, list);
		});`)

	got := cfg.DecoderPriorityProvider(sdk.DecoderContext{MediaType: sdk.MediaTypeVideo}, preferred)
	assert.Equal(t, []sdk.MediaCodecInfo{sw, hw}, got)
	assert.Equal(t, "Video", env.Eval(t, `seen[0].context.mediaType`))
}

func TestOverridePriority_UnknownDecoderRejected(t *testing.T) {
	_, cfg := setup(t, 2*time.Second, `
		dec.addListener('onOverrideDecodersPriority', function (e) {
			dec.overrideDecoderPriorityProviderComplete(e.id, [{name: 'invented', isSoftware: false}]);
		});`)
	assert.Equal(t, preferred, cfg.DecoderPriorityProvider(sdk.DecoderContext{MediaType: sdk.MediaTypeAudio}, preferred))
}

func TestOverridePriority_Timeout(t *testing.T) {
	_, cfg := setup(t, 20*time.Millisecond, ``)
	assert.Equal(t, preferred, cfg.DecoderPriorityProvider(sdk.DecoderContext{}, preferred))
}
