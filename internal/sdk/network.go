package sdk

// HTTPRequestType tells network hooks what a request is for.
type HTTPRequestType string

const (
	RequestManifestDASH       HTTPRequestType = "manifest/dash"
	RequestManifestHLSMaster  HTTPRequestType = "manifest/hls/master"
	RequestManifestHLSVariant HTTPRequestType = "manifest/hls/variant"
	RequestManifestSmooth     HTTPRequestType = "manifest/smooth"
	RequestMediaProgressive   HTTPRequestType = "media/progressive"
	RequestMediaAudio         HTTPRequestType = "media/audio"
	RequestMediaVideo         HTTPRequestType = "media/video"
	RequestMediaSubtitles     HTTPRequestType = "media/subtitles"
	RequestMediaThumbnails    HTTPRequestType = "media/thumbnails"
	RequestDRMLicenseFairplay HTTPRequestType = "drm/license/fairplay"
	RequestDRMCertFairplay    HTTPRequestType = "drm/certificate/fairplay"
	RequestDRMLicenseWidevine HTTPRequestType = "drm/license/widevine"
	RequestKeyHLSAES          HTTPRequestType = "key/hls/aes"
	RequestUnknown            HTTPRequestType = "unknown"
)

// ManifestRequestType returns the request type used to fetch a source of
// type t.
func ManifestRequestType(t SourceType) HTTPRequestType {
	switch t {
	case SourceTypeDASH:
		return RequestManifestDASH
	case SourceTypeHLS:
		return RequestManifestHLSMaster
	case SourceTypeSmooth:
		return RequestManifestSmooth
	case SourceTypeProgressive:
		return RequestMediaProgressive
	default:
		return RequestUnknown
	}
}

// HTTPRequest is an outgoing request as seen by network hooks.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// HTTPResponse is a received response as seen by network hooks.
type HTTPResponse struct {
	Request HTTPRequest
	URL     string
	Status  int
	Headers map[string]string
	Body    []byte
}

// NetworkConfig lets the application rewrite requests before they are sent
// and responses before they are used. Nil hooks are skipped.
type NetworkConfig struct {
	PreprocessHTTPRequest  func(t HTTPRequestType, req HTTPRequest) HTTPRequest
	PreprocessHTTPResponse func(t HTTPRequestType, resp HTTPResponse) HTTPResponse
}
