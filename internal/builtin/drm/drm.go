// Package drm implements DrmModule: DRM configurations whose preparation
// hooks are answered by JS.
package drm

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

const Name = "DrmModule"

// Events sent to JS, one per hook kind.
const (
	EventPrepareCertificate      = "onPrepareCertificate"
	EventPrepareMessage          = "onPrepareMessage"
	EventPrepareSyncMessage      = "onPrepareSyncMessage"
	EventPrepareLicense          = "onPrepareLicense"
	EventPrepareLicenseServerURL = "onPrepareLicenseServerUrl"
	EventPrepareContentID        = "onPrepareContentId"
)

// DefaultTimeout bounds every DRM round trip.
const DefaultTimeout = 5 * time.Second

// Module owns the DRM configurations created from JS.
type Module struct {
	mod     *jsbridge.Module
	logger  *slog.Logger
	configs *registry.Registry[*sdk.DrmConfig]

	certificate      *callback.RoundTrip[any]
	message          *callback.RoundTrip[any]
	syncMessage      *callback.RoundTrip[any]
	license          *callback.RoundTrip[any]
	licenseServerURL *callback.RoundTrip[any]
	contentID        *callback.RoundTrip[any]
}

// New registers DrmModule with rt.
func New(rt *jsbridge.Runtime, main *mainthread.Queue, timeout time.Duration) *Module {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	m := &Module{configs: registry.New[*sdk.DrmConfig]()}
	m.mod = jsbridge.NewModule(rt, main, jsbridge.Definition{
		Name: Name,
		Events: []string{
			EventPrepareCertificate,
			EventPrepareMessage,
			EventPrepareSyncMessage,
			EventPrepareLicense,
			EventPrepareLicenseServerURL,
			EventPrepareContentID,
		},
		Functions: map[string]jsbridge.Function{
			"setPreparedCertificate":      m.complete(&m.certificate),
			"setPreparedMessage":          m.complete(&m.message),
			"setPreparedSyncMessage":      m.complete(&m.syncMessage),
			"setPreparedLicense":          m.complete(&m.license),
			"setPreparedLicenseServerUrl": m.complete(&m.licenseServerURL),
			"setPreparedContentId":        m.complete(&m.contentID),
		},
		AsyncFunctions: map[string]jsbridge.Function{
			"initializeWithConfig": m.initializeWithConfig,
			"destroy":              m.destroy,
		},
	})
	m.logger = m.mod.Logger()

	newRT := func(event string) *callback.RoundTrip[any] {
		return callback.New[any](event, m.mod, rt, timeout, m.logger)
	}
	m.certificate = newRT(EventPrepareCertificate)
	m.message = newRT(EventPrepareMessage)
	m.syncMessage = newRT(EventPrepareSyncMessage)
	m.license = newRT(EventPrepareLicense)
	m.licenseServerURL = newRT(EventPrepareLicenseServerURL)
	m.contentID = newRT(EventPrepareContentID)
	return m
}

func (m *Module) complete(rt **callback.RoundTrip[any]) jsbridge.Function {
	return func(args jsbridge.Args) (any, error) {
		return callback.Completion(*rt)(args)
	}
}

// Config returns the native DRM configuration registered under id.
func (m *Module) Config(id registry.NativeID) (*sdk.DrmConfig, bool) {
	return m.configs.Get(id)
}

// Close releases every blocked hook with its default.
func (m *Module) Close() {
	for _, rt := range m.roundTrips() {
		rt.Close()
	}
}

// Pending returns the number of unanswered DRM requests.
func (m *Module) Pending() int {
	n := 0
	for _, rt := range m.roundTrips() {
		n += rt.Pending()
	}
	return n
}

func (m *Module) roundTrips() []*callback.RoundTrip[any] {
	return []*callback.RoundTrip[any]{m.certificate, m.message, m.syncMessage, m.license, m.licenseServerURL, m.contentID}
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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !m.configs.Register(id, m.build(id, cfg)) {
		m.logger.Debug("drm config already registered", "nativeId", id)
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

// build installs only the hooks JS asked for, so absent hooks keep the
// SDK's own behaviour and timing.
func (m *Module) build(id registry.NativeID, cfg Config) *sdk.DrmConfig {
	out := &sdk.DrmConfig{}
	if wv := cfg.Widevine; wv != nil {
		w := &sdk.WidevineConfig{
			LicenseURL:                 wv.LicenseURL,
			HTTPHeaders:                wv.HTTPHeaders,
			PreferredSecurityLevel:     wv.PreferredSecurityLevel,
			ShouldKeepDrmSessionsAlive: wv.ShouldKeepDrmSessionsAlive,
		}
		if wv.PrepareMessage {
			w.PrepareMessage = m.bytesHook(m.message, id, SystemWidevine, "message")
		}
		if wv.PrepareLicense {
			w.PrepareLicense = m.bytesHook(m.license, id, SystemWidevine, "license")
		}
		out.Widevine = w
	}
	if fp := cfg.Fairplay; fp != nil {
		f := &sdk.FairplayConfig{
			LicenseURL:         fp.LicenseURL,
			CertificateURL:     fp.CertificateURL,
			HTTPHeaders:        fp.LicenseRequestHeaders,
			CertificateHeaders: fp.CertificateRequestHeaders,
		}
		if fp.PrepareCertificate {
			f.PrepareCertificate = m.bytesHook(m.certificate, id, SystemFairplay, "certificate")
		}
		if fp.PrepareMessage {
			f.PrepareMessage = m.assetHook(m.message, id, "message")
		}
		if fp.PrepareSyncMessage {
			f.PrepareSyncMessage = m.assetHook(m.syncMessage, id, "syncMessage")
		}
		if fp.PrepareLicense {
			f.PrepareLicense = m.bytesHook(m.license, id, SystemFairplay, "license")
		}
		if fp.PrepareLicenseServerURL {
			f.PrepareLicenseServerURL = m.stringHook(m.licenseServerURL, id, "licenseServerUrl")
		}
		if fp.PrepareContentID {
			f.PrepareContentID = m.stringHook(m.contentID, id, "contentId")
		}
		out.Fairplay = f
	}
	return out
}

func (m *Module) bytesHook(rt *callback.RoundTrip[any], id registry.NativeID, system, field string) func([]byte) []byte {
	return func(in []byte) []byte {
		v, ok := rt.Call(id, map[string]any{field: callback.EncodeBase64(in), "drmSystem": system})
		if !ok {
			return in
		}
		return callback.Base64(v, in, m.logger)
	}
}

func (m *Module) assetHook(rt *callback.RoundTrip[any], id registry.NativeID, field string) func([]byte, string) []byte {
	return func(in []byte, assetID string) []byte {
		v, ok := rt.Call(id, map[string]any{
			field:       callback.EncodeBase64(in),
			"assetId":   assetID,
			"drmSystem": SystemFairplay,
		})
		if !ok {
			return in
		}
		return callback.Base64(v, in, m.logger)
	}
}

func (m *Module) stringHook(rt *callback.RoundTrip[any], id registry.NativeID, field string) func(string) string {
	return func(in string) string {
		v, ok := rt.Call(id, map[string]any{field: in, "drmSystem": SystemFairplay})
		if !ok {
			return in
		}
		return callback.String(v, in)
	}
}
