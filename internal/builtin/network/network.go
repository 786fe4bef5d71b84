// Package network implements NetworkModule: network configurations whose
// request and response preprocessing hooks are answered by JS.
package network

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/callback"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/mainthread"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/registry"
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

const Name = "NetworkModule"

const (
	EventPreprocessHTTPRequest  = "onPreprocessHttpRequest"
	EventPreprocessHTTPResponse = "onPreprocessHttpResponse"
)

const DefaultTimeout = 5 * time.Second

// Config is the network configuration sent from JS.
type Config struct {
	PreprocessHTTPRequest  bool `json:"preprocessHttpRequest"`
	PreprocessHTTPResponse bool `json:"preprocessHttpResponse"`
}

// Request is the wire form of sdk.HTTPRequest; Body is base64.
type Request struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body,omitempty"`
}

// Response is the wire form of sdk.HTTPResponse; Body is base64.
type Response struct {
	Request Request           `json:"request"`
	URL     string            `json:"url"`
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body,omitempty"`
}

func toWireRequest(r sdk.HTTPRequest) Request {
	out := Request{Method: r.Method, URL: r.URL, Headers: r.Headers}
	if out.Headers == nil {
		out.Headers = map[string]string{}
	}
	if len(r.Body) > 0 {
		out.Body = callback.EncodeBase64(r.Body)
	}
	return out
}

func toWireResponse(r sdk.HTTPResponse) Response {
	out := Response{Request: toWireRequest(r.Request), URL: r.URL, Status: r.Status, Headers: r.Headers}
	if out.Headers == nil {
		out.Headers = map[string]string{}
	}
	if len(r.Body) > 0 {
		out.Body = callback.EncodeBase64(r.Body)
	}
	return out
}

func (r Request) native(logger *slog.Logger, original sdk.HTTPRequest) (sdk.HTTPRequest, error) {
	if r.URL == "" || r.Method == "" {
		return original, fmt.Errorf("request needs method and url")
	}
	out := sdk.HTTPRequest{Method: r.Method, URL: r.URL, Headers: r.Headers}
	if r.Body != "" {
		out.Body = callback.Base64(r.Body, original.Body, logger)
	}
	return out, nil
}

func (r Response) native(logger *slog.Logger, original sdk.HTTPResponse) (sdk.HTTPResponse, error) {
	if r.Status == 0 {
		return original, fmt.Errorf("response needs a status")
	}
	req, err := r.Request.native(logger, original.Request)
	if err != nil {
		req = original.Request
	}
	out := sdk.HTTPResponse{Request: req, URL: r.URL, Status: r.Status, Headers: r.Headers}
	if out.URL == "" {
		out.URL = original.URL
	}
	if r.Body != "" {
		out.Body = callback.Base64(r.Body, original.Body, logger)
	}
	return out, nil
}

// Module owns the network configurations created from JS.
type Module struct {
	mod     *jsbridge.Module
	logger  *slog.Logger
	configs *registry.Registry[*sdk.NetworkConfig]

	request  *callback.RoundTrip[any]
	response *callback.RoundTrip[any]
}

// New registers NetworkModule with rt.
func New(rt *jsbridge.Runtime, main *mainthread.Queue, timeout time.Duration) *Module {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	m := &Module{configs: registry.New[*sdk.NetworkConfig]()}
	m.mod = jsbridge.NewModule(rt, main, jsbridge.Definition{
		Name:   Name,
		Events: []string{EventPreprocessHTTPRequest, EventPreprocessHTTPResponse},
		Functions: map[string]jsbridge.Function{
			"setPreprocessedHttpRequest": func(args jsbridge.Args) (any, error) {
				return callback.Completion(m.request)(args)
			},
			"setPreprocessedHttpResponse": func(args jsbridge.Args) (any, error) {
				return callback.Completion(m.response)(args)
			},
		},
		AsyncFunctions: map[string]jsbridge.Function{
			"initializeWithConfig": m.initializeWithConfig,
			"destroy":              m.destroy,
		},
	})
	m.logger = m.mod.Logger()
	m.request = callback.New[any](EventPreprocessHTTPRequest, m.mod, rt, timeout, m.logger)
	m.response = callback.New[any](EventPreprocessHTTPResponse, m.mod, rt, timeout, m.logger)
	return m
}

// Config returns the native network configuration registered under id.
func (m *Module) Config(id registry.NativeID) (*sdk.NetworkConfig, bool) {
	return m.configs.Get(id)
}

func (m *Module) Close() {
	m.request.Close()
	m.response.Close()
}

func (m *Module) initializeWithConfig(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := args.Decode(1, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", jsbridge.ErrInvalidConfig, err)
	}
	out := &sdk.NetworkConfig{}
	if cfg.PreprocessHTTPRequest {
		out.PreprocessHTTPRequest = m.preprocessRequest(id)
	}
	if cfg.PreprocessHTTPResponse {
		out.PreprocessHTTPResponse = m.preprocessResponse(id)
	}
	if !m.configs.Register(id, out) {
		m.logger.Debug("network config already registered", "nativeId", id)
	}
	return nil, nil
}

func (m *Module) destroy(args jsbridge.Args) (any, error) {
	id, err := args.String(0)
	if err != nil {
		return nil, err
	}
	m.configs.Remove(id)
	return nil, nil
}

func (m *Module) preprocessRequest(id registry.NativeID) func(sdk.HTTPRequestType, sdk.HTTPRequest) sdk.HTTPRequest {
	return func(t sdk.HTTPRequestType, req sdk.HTTPRequest) sdk.HTTPRequest {
		v, ok := m.request.Call(id, map[string]any{"type": string(t), "request": toWireRequest(req)})
		if !ok {
			return req
		}
		wire, err := callback.Decode[Request](v)
		if err == nil {
			var out sdk.HTTPRequest
			if out, err = wire.native(m.logger, req); err == nil {
				return out
			}
		}
		m.logger.Debug("unusable preprocessed request; using original", "nativeId", id, "error", err)
		return req
	}
}

func (m *Module) preprocessResponse(id registry.NativeID) func(sdk.HTTPRequestType, sdk.HTTPResponse) sdk.HTTPResponse {
	return func(t sdk.HTTPRequestType, resp sdk.HTTPResponse) sdk.HTTPResponse {
		v, ok := m.response.Call(id, map[string]any{"type": string(t), "response": toWireResponse(resp)})
		if !ok {
			return resp
		}
		wire, err := callback.Decode[Response](v)
		if err == nil {
			var out sdk.HTTPResponse
			if out, err = wire.native(m.logger, resp); err == nil {
				return out
			}
		}
		m.logger.Debug("unusable preprocessed response; using original", "nativeId", id, "error", err)
		return resp
	}
}
