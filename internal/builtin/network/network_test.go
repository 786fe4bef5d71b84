package network

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge/jsbridgetest"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

func setup(t *testing.T, timeout time.Duration, script string) (*jsbridgetest.Env, *sdk.NetworkConfig) {
	t.Helper()
	env := jsbridgetest.New(t)
	m := New(env.RT, env.Main, timeout)
	t.Cleanup(m.Close)
	env.Eval(t, `var net = require('bitmovin:NetworkModule'); var seen = [];`+script)
	cfg, ok := m.Config("n1")
	require.True(t, ok)
	return env, cfg
}

func TestPreprocessRequest(t *testing.T) {
	env, cfg := setup(t, 2*time.Second, `
		net.addListener('onPreprocessHttpRequest', function (e) {
			seen.push(e);
			var r = e.request;
			r.headers['Authorization'] = 'Bearer x';
			net.setPreprocessedHttpRequest(e.id, r);
		});
		net.initializeWithConfig('n1', {preprocessHttpRequest: true});
	`)
	assert.Nil(t, cfg.PreprocessHTTPResponse)

	in := sdk.HTTPRequest{Method: "POST", URL: "https://a/manifest.mpd", Headers: map[string]string{"Accept": "*/*"}, Body: []byte("hello")}
	out := cfg.PreprocessHTTPRequest(sdk.RequestManifestDASH, in)

	want := sdk.HTTPRequest{
		Method:  "POST",
		URL:     "https://a/manifest.mpd",
		Headers: map[string]string{"Accept": "*/*", "Authorization": "Bearer x"},
		Body:    []byte("hello"),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "manifest/dash", env.Eval(t, `seen[0].type`))
	assert.Equal(t, "aGVsbG8=", env.Eval(t, `seen[0].request.body`))
	assert.Equal(t, "n1", env.Eval(t, `seen[0].nativeId`))
}

func TestPreprocessResponse(t *testing.T) {
	_, cfg := setup(t, 2*time.Second, `
		net.addListener('onPreprocessHttpResponse', function (e) {
			var r = e.response;
			r.status = 299;
			r.body = 'cmV3cml0dGVu';
			net.setPreprocessedHttpResponse(e.id, r);
		});
		net.initializeWithConfig('n1', {preprocessHttpResponse: true});
	`)
	in := sdk.HTTPResponse{
		Request: sdk.HTTPRequest{Method: "GET", URL: "https://a"},
		URL:     "https://a",
		Status:  200,
		Body:    []byte("original"),
	}
	out := cfg.PreprocessHTTPResponse(sdk.RequestUnknown, in)
	assert.Equal(t, 299, out.Status)
	assert.Equal(t, "rewritten", string(out.Body))
	assert.Equal(t, "GET", out.Request.Method)
}

func TestMalformedAnswerFallsBack(t *testing.T) {
	_, cfg := setup(t, 2*time.Second, `
		net.addListener('onPreprocessHttpRequest', function (e) { net.setPreprocessedHttpRequest(e.id, 'nope'); });
		net.addListener('onPreprocessHttpResponse', function (e) { net.setPreprocessedHttpResponse(e.id, {url: 'x'}); });
		net.initializeWithConfig('n1', {preprocessHttpRequest: true, preprocessHttpResponse: true});
	`)
	req := sdk.HTTPRequest{Method: "GET", URL: "https://a"}
	assert.Equal(t, req, cfg.PreprocessHTTPRequest(sdk.RequestUnknown, req))

	resp := sdk.HTTPResponse{Request: req, URL: "https://a", Status: 200}
	assert.Equal(t, resp, cfg.PreprocessHTTPResponse(sdk.RequestUnknown, resp))
}

func TestTimeoutPassesThrough(t *testing.T) {
	_, cfg := setup(t, 30*time.Millisecond, `net.initializeWithConfig('n1', {preprocessHttpRequest: true});`)
	req := sdk.HTTPRequest{Method: "GET", URL: "https://a"}
	assert.Equal(t, req, cfg.PreprocessHTTPRequest(sdk.RequestUnknown, req))
}
