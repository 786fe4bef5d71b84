package sdk

// VideoQuality describes one video rendition.
type VideoQuality struct {
	ID        string  `json:"id"`
	Label     string  `json:"label,omitempty"`
	Bitrate   int     `json:"bitrate"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Codec     string  `json:"codec,omitempty"`
	FrameRate float64 `json:"frameRate,omitempty"`
}

// VideoAdaptationData is passed to the video adaptation hook.
type VideoAdaptationData struct {
	// Suggested is the quality id the SDK would pick on its own.
	Suggested string `json:"suggested"`
}

// AdaptationConfig configures ABR.
type AdaptationConfig struct {
	MaxSelectableVideoBitrate int
	// OnVideoAdaptation returns the id of the quality to switch to.
	OnVideoAdaptation func(data VideoAdaptationData) string
}
