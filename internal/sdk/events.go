package sdk

import "time"

// EventKind is the closed set of events a Player raises.
type EventKind int

const (
	EventPlay EventKind = iota + 1
	EventPlaying
	EventPaused
	EventReady
	EventTimeChanged
	EventSeek
	EventSeeked
	EventPlaybackFinished
	EventMuted
	EventUnmuted
	EventStallStarted
	EventStallEnded
	EventDestroy
	EventPlayerError
	EventPlayerWarning
	EventSourceLoad
	EventSourceLoaded
	EventSourceUnloaded
	EventSourceError
	EventSourceWarning
	EventVideoPlaybackQualityChanged
	EventFullscreenEnter
	EventFullscreenExit
	eventKindEnd
)

var eventKindNames = [...]string{
	EventPlay:                        "Play",
	EventPlaying:                     "Playing",
	EventPaused:                      "Paused",
	EventReady:                       "Ready",
	EventTimeChanged:                 "TimeChanged",
	EventSeek:                        "Seek",
	EventSeeked:                      "Seeked",
	EventPlaybackFinished:            "PlaybackFinished",
	EventMuted:                       "Muted",
	EventUnmuted:                     "Unmuted",
	EventStallStarted:                "StallStarted",
	EventStallEnded:                  "StallEnded",
	EventDestroy:                     "Destroy",
	EventPlayerError:                 "PlayerError",
	EventPlayerWarning:               "PlayerWarning",
	EventSourceLoad:                  "SourceLoad",
	EventSourceLoaded:                "SourceLoaded",
	EventSourceUnloaded:              "SourceUnloaded",
	EventSourceError:                 "SourceError",
	EventSourceWarning:               "SourceWarning",
	EventVideoPlaybackQualityChanged: "VideoPlaybackQualityChanged",
	EventFullscreenEnter:             "FullscreenEnter",
	EventFullscreenExit:              "FullscreenExit",
}

func (k EventKind) String() string {
	if k > 0 && k < eventKindEnd {
		return eventKindNames[k]
	}
	return "Unknown"
}

// AllEventKinds returns every EventKind in declaration order.
func AllEventKinds() []EventKind {
	out := make([]EventKind, 0, eventKindEnd-1)
	for k := EventPlay; k < eventKindEnd; k++ {
		out = append(out, k)
	}
	return out
}

// Event is implemented by every event type.
type Event interface {
	Kind() EventKind
	Timestamp() time.Time
}

// EventBase carries the time an event was raised.
type EventBase struct {
	At time.Time
}

func (b EventBase) Timestamp() time.Time { return b.At }

// NewBase stamps an event with the current time.
func NewBase() EventBase { return EventBase{At: time.Now()} }

type (
	PlayEvent struct {
		EventBase
		Time float64
	}
	PlayingEvent struct {
		EventBase
		Time float64
	}
	PausedEvent struct {
		EventBase
		Time float64
	}
	ReadyEvent       struct{ EventBase }
	TimeChangedEvent struct {
		EventBase
		CurrentTime float64
	}
	SeekEvent struct {
		EventBase
		From, To float64
	}
	SeekedEvent           struct{ EventBase }
	PlaybackFinishedEvent struct{ EventBase }
	MutedEvent            struct{ EventBase }
	UnmutedEvent          struct{ EventBase }
	StallStartedEvent     struct{ EventBase }
	StallEndedEvent       struct{ EventBase }
	DestroyEvent          struct{ EventBase }
	PlayerErrorEvent      struct {
		EventBase
		Code    int
		Message string
	}
	PlayerWarningEvent struct {
		EventBase
		Code    int
		Message string
	}
	SourceLoadEvent struct {
		EventBase
		Source SourceConfig
	}
	SourceLoadedEvent struct {
		EventBase
		Source SourceConfig
	}
	SourceUnloadedEvent struct {
		EventBase
		Source SourceConfig
	}
	SourceErrorEvent struct {
		EventBase
		Code    int
		Message string
	}
	SourceWarningEvent struct {
		EventBase
		Code    int
		Message string
	}
	VideoPlaybackQualityChangedEvent struct {
		EventBase
		OldQuality *VideoQuality
		NewQuality *VideoQuality
	}
	FullscreenEnterEvent struct{ EventBase }
	FullscreenExitEvent  struct{ EventBase }
)

func (PlayEvent) Kind() EventKind                        { return EventPlay }
func (PlayingEvent) Kind() EventKind                     { return EventPlaying }
func (PausedEvent) Kind() EventKind                      { return EventPaused }
func (ReadyEvent) Kind() EventKind                       { return EventReady }
func (TimeChangedEvent) Kind() EventKind                 { return EventTimeChanged }
func (SeekEvent) Kind() EventKind                        { return EventSeek }
func (SeekedEvent) Kind() EventKind                      { return EventSeeked }
func (PlaybackFinishedEvent) Kind() EventKind            { return EventPlaybackFinished }
func (MutedEvent) Kind() EventKind                       { return EventMuted }
func (UnmutedEvent) Kind() EventKind                     { return EventUnmuted }
func (StallStartedEvent) Kind() EventKind                { return EventStallStarted }
func (StallEndedEvent) Kind() EventKind                  { return EventStallEnded }
func (DestroyEvent) Kind() EventKind                     { return EventDestroy }
func (PlayerErrorEvent) Kind() EventKind                 { return EventPlayerError }
func (PlayerWarningEvent) Kind() EventKind               { return EventPlayerWarning }
func (SourceLoadEvent) Kind() EventKind                  { return EventSourceLoad }
func (SourceLoadedEvent) Kind() EventKind                { return EventSourceLoaded }
func (SourceUnloadedEvent) Kind() EventKind              { return EventSourceUnloaded }
func (SourceErrorEvent) Kind() EventKind                 { return EventSourceError }
func (SourceWarningEvent) Kind() EventKind               { return EventSourceWarning }
func (VideoPlaybackQualityChangedEvent) Kind() EventKind { return EventVideoPlaybackQualityChanged }
func (FullscreenEnterEvent) Kind() EventKind             { return EventFullscreenEnter }
func (FullscreenExitEvent) Kind() EventKind              { return EventFullscreenExit }
