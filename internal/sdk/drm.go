package sdk

// DrmConfig holds the DRM systems configured for a source. A player uses the
// first one its platform supports, Widevine before FairPlay.
type DrmConfig struct {
	Widevine *WidevineConfig
	Fairplay *FairplayConfig
}

// WidevineConfig configures Widevine. Nil hooks are skipped.
type WidevineConfig struct {
	LicenseURL                 string
	HTTPHeaders                map[string]string
	PreferredSecurityLevel     string
	ShouldKeepDrmSessionsAlive bool

	// PrepareMessage rewrites the license request body.
	PrepareMessage func(message []byte) []byte
	// PrepareLicense rewrites the license server response.
	PrepareLicense func(license []byte) []byte
}

// FairplayConfig configures FairPlay. Nil hooks are skipped.
type FairplayConfig struct {
	LicenseURL         string
	CertificateURL     string
	HTTPHeaders        map[string]string
	CertificateHeaders map[string]string

	PrepareCertificate      func(certificate []byte) []byte
	PrepareMessage          func(spc []byte, assetID string) []byte
	PrepareSyncMessage      func(syncSPC []byte, assetID string) []byte
	PrepareLicense          func(ckc []byte) []byte
	PrepareLicenseServerURL func(licenseServerURL string) string
	PrepareContentID        func(contentID string) string
}
