package drm

import (
	"fmt"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/jsbridge"
)

// DRM system names carried in the drmSystem field of shared hook envelopes.
const (
	SystemWidevine = "widevine"
	SystemFairplay = "fairplay"
)

// Config is the DRM configuration sent from JS. Each system carries its own
// license URL and hooks; both may be present. Hook fields are presence
// flags: JS sends true where the application supplied a function.
type Config struct {
	Widevine *WidevineConfig `json:"widevine"`
	Fairplay *FairplayConfig `json:"fairplay"`
}

type WidevineConfig struct {
	LicenseURL                 string            `json:"licenseUrl"`
	HTTPHeaders                map[string]string `json:"httpHeaders"`
	PreferredSecurityLevel     string            `json:"preferredSecurityLevel"`
	ShouldKeepDrmSessionsAlive bool              `json:"shouldKeepDrmSessionsAlive"`
	PrepareMessage             bool              `json:"prepareMessage"`
	PrepareLicense             bool              `json:"prepareLicense"`
}

type FairplayConfig struct {
	LicenseURL                string            `json:"licenseUrl"`
	CertificateURL            string            `json:"certificateUrl"`
	LicenseRequestHeaders     map[string]string `json:"licenseRequestHeaders"`
	CertificateRequestHeaders map[string]string `json:"certificateRequestHeaders"`
	PrepareCertificate        bool              `json:"prepareCertificate"`
	PrepareMessage            bool              `json:"prepareMessage"`
	PrepareSyncMessage        bool              `json:"prepareSyncMessage"`
	PrepareLicense            bool              `json:"prepareLicense"`
	PrepareLicenseServerURL   bool              `json:"prepareLicenseServerUrl"`
	PrepareContentID          bool              `json:"prepareContentId"`
}

func (c Config) Validate() error {
	if c.Widevine == nil && c.Fairplay == nil {
		return fmt.Errorf("%w: widevine or fairplay is required", jsbridge.ErrInvalidConfig)
	}
	if c.Widevine != nil && c.Widevine.LicenseURL == "" {
		return fmt.Errorf("%w: widevine.licenseUrl is required", jsbridge.ErrInvalidConfig)
	}
	if c.Fairplay != nil && c.Fairplay.LicenseURL == "" {
		return fmt.Errorf("%w: fairplay.licenseUrl is required", jsbridge.ErrInvalidConfig)
	}
	return nil
}
