package relay

import (
	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

// Encode converts e into the JSON-ready object JS receives:
// {"name": name, "timestamp": <unix ms>, ...event fields}.
func Encode(name string, e sdk.Event) map[string]any {
	m := map[string]any{
		"name":      name,
		"timestamp": e.Timestamp().UnixMilli(),
	}
	switch ev := e.(type) {
	case sdk.PlayEvent:
		m["time"] = ev.Time
	case sdk.PlayingEvent:
		m["time"] = ev.Time
	case sdk.PausedEvent:
		m["time"] = ev.Time
	case sdk.TimeChangedEvent:
		m["currentTime"] = ev.CurrentTime
	case sdk.SeekEvent:
		m["from"] = map[string]any{"time": ev.From}
		m["to"] = map[string]any{"time": ev.To}
	case sdk.PlayerErrorEvent:
		m["code"], m["message"] = ev.Code, ev.Message
	case sdk.PlayerWarningEvent:
		m["code"], m["message"] = ev.Code, ev.Message
	case sdk.SourceErrorEvent:
		m["code"], m["message"] = ev.Code, ev.Message
	case sdk.SourceWarningEvent:
		m["code"], m["message"] = ev.Code, ev.Message
	case sdk.SourceLoadEvent:
		m["source"] = encodeSource(ev.Source)
	case sdk.SourceLoadedEvent:
		m["source"] = encodeSource(ev.Source)
	case sdk.SourceUnloadedEvent:
		m["source"] = encodeSource(ev.Source)
	case sdk.VideoPlaybackQualityChangedEvent:
		m["oldVideoQuality"] = encodeQuality(ev.OldQuality)
		m["newVideoQuality"] = encodeQuality(ev.NewQuality)
	}
	return m
}

func encodeSource(s sdk.SourceConfig) map[string]any {
	return map[string]any{
		"url":   s.URL,
		"type":  string(s.Type),
		"title": s.Title,
	}
}

func encodeQuality(q *sdk.VideoQuality) any {
	if q == nil {
		return nil
	}
	return map[string]any{
		"id":        q.ID,
		"label":     q.Label,
		"bitrate":   q.Bitrate,
		"width":     q.Width,
		"height":    q.Height,
		"codec":     q.Codec,
		"frameRate": q.FrameRate,
	}
}
