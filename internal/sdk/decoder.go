package sdk

// DecoderContext describes what a decoder is being chosen for.
type DecoderContext struct {
	MediaType string `json:"mediaType"`
	IsAd      bool   `json:"isAd"`
}

// Decoder media types.
const (
	MediaTypeAudio = "Audio"
	MediaTypeVideo = "Video"
)

// MediaCodecInfo identifies a decoder.
type MediaCodecInfo struct {
	Name       string `json:"name"`
	IsSoftware bool   `json:"isSoftware"`
}

// DecoderConfig lets the application reorder decoder candidates.
type DecoderConfig struct {
	DecoderPriorityProvider func(ctx DecoderContext, preferred []MediaCodecInfo) []MediaCodecInfo
}
