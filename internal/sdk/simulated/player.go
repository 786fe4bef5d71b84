package simulated

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bitmovin/bitmovin-player-react-native-sub000/internal/sdk"
)

// Error codes raised by the simulated player.
const (
	CodeSourceInvalid  = 2001
	CodeManifestFailed = 2002
	CodeDRMFailed      = 3001
)

// Options tune the simulation.
type Options struct {
	// Tick is the real-time interval between playhead advances.
	Tick time.Duration
	// Speed scales how much media time passes per tick.
	Speed float64
	// Duration is the media duration in seconds of every loaded source.
	Duration float64
	// Qualities are the video renditions every source offers, lowest first.
	Qualities []sdk.VideoQuality
	Logger    *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Tick <= 0 {
		o.Tick = 100 * time.Millisecond
	}
	if o.Speed <= 0 {
		o.Speed = 1
	}
	if o.Duration <= 0 {
		o.Duration = 120
	}
	if len(o.Qualities) == 0 {
		o.Qualities = []sdk.VideoQuality{
			{ID: "360p", Label: "360p", Bitrate: 800_000, Width: 640, Height: 360, Codec: "avc1.4d401e"},
			{ID: "720p", Label: "720p", Bitrate: 2_500_000, Width: 1280, Height: 720, Codec: "avc1.4d401f"},
			{ID: "1080p", Label: "1080p", Bitrate: 5_000_000, Width: 1920, Height: 1080, Codec: "avc1.640028"},
		}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// DefaultDecoders are the decoder candidates offered to the decoder hook.
var DefaultDecoders = []sdk.MediaCodecInfo{
	{Name: "c2.hw.avc.decoder", IsSoftware: false},
	{Name: "c2.android.avc.decoder", IsSoftware: true},
}

// Trace records what the hooks returned during the last load, so tests
// can observe the effect of a round trip.
type Trace struct {
	ManifestRequest  *sdk.HTTPRequest
	ManifestResponse *sdk.HTTPResponse
	LicenseRequest   []byte
	License          []byte
	Certificate      []byte
	SyncMessage      []byte
	LicenseServerURL string
	ContentID        string
	Decoders         []sdk.MediaCodecInfo
	Quality          *sdk.VideoQuality
}

// Player implements sdk.Player.
type Player struct {
	Emitter

	cfg    sdk.PlayerConfig
	opts   Options
	logger *slog.Logger

	cmds chan func()
	done chan struct{}

	mu          sync.RWMutex
	source      *sdk.SourceConfig
	ready       bool
	playing     bool
	muted       bool
	destroyed   bool
	currentTime float64
	trace       Trace
}

var _ sdk.Player = (*Player)(nil)

// NewPlayer starts a player worker goroutine. Destroy stops it.
func NewPlayer(cfg sdk.PlayerConfig, opts Options) *Player {
	opts = opts.withDefaults()
	p := &Player{
		cfg:    cfg,
		opts:   opts,
		logger: opts.Logger.With("component", "simulated-player"),
		cmds:   make(chan func(), 64),
		done:   make(chan struct{}),
		muted:  cfg.Playback.IsMuted,
	}
	go p.run()
	return p
}

func (p *Player) run() {
	ticker := time.NewTicker(p.opts.Tick)
	defer ticker.Stop()
	for {
		select {
		case fn := <-p.cmds:
			fn()
			if p.isDestroyed() {
				close(p.done)
				return
			}
		case <-ticker.C:
			p.tick()
		}
	}
}

func (p *Player) post(fn func()) {
	if p.isDestroyed() {
		return
	}
	select {
	case p.cmds <- fn:
	case <-p.done:
	}
}

func (p *Player) isDestroyed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.destroyed
}

// Done is closed once the player has been destroyed.
func (p *Player) Done() <-chan struct{} { return p.done }

func (p *Player) Config() sdk.PlayerConfig { return p.cfg }

func (p *Player) Load(source sdk.SourceConfig) {
	p.post(func() { p.load(source) })
}

func (p *Player) load(source sdk.SourceConfig) {
	if p.hasSource() {
		p.unload()
	}
	p.Emit(sdk.SourceLoadEvent{EventBase: sdk.NewBase(), Source: source})

	if source.URL == "" {
		p.fail(CodeSourceInvalid, "source has no url")
		return
	}

	var trace Trace
	if !p.fetchManifest(source, &trace) {
		return
	}
	if source.DRM != nil {
		p.acquireLicense(source, &trace)
	}
	if d := p.cfg.Decoder; d != nil && d.DecoderPriorityProvider != nil {
		trace.Decoders = d.DecoderPriorityProvider(sdk.DecoderContext{MediaType: sdk.MediaTypeVideo}, append([]sdk.MediaCodecInfo(nil), DefaultDecoders...))
	} else {
		trace.Decoders = DefaultDecoders
	}

	p.mu.Lock()
	p.source = &source
	p.ready = true
	p.currentTime = 0
	p.trace = trace
	p.mu.Unlock()

	p.Emit(sdk.SourceLoadedEvent{EventBase: sdk.NewBase(), Source: source})
	p.Emit(sdk.ReadyEvent{EventBase: sdk.NewBase()})

	if p.cfg.Playback.IsAutoplayEnabled {
		p.play()
	}
}

func (p *Player) fetchManifest(source sdk.SourceConfig, trace *Trace) bool {
	reqType := sdk.ManifestRequestType(source.Type)
	req := sdk.HTTPRequest{Method: "GET", URL: source.URL, Headers: map[string]string{"Accept": "*/*"}}
	net := p.cfg.Network
	if net != nil && net.PreprocessHTTPRequest != nil {
		req = net.PreprocessHTTPRequest(reqType, req)
	}
	trace.ManifestRequest = &req

	resp := sdk.HTTPResponse{
		Request: req,
		URL:     req.URL,
		Status:  200,
		Headers: map[string]string{"Content-Type": "application/octet-stream"},
		Body:    []byte("#manifest " + req.URL),
	}
	if strings.Contains(req.URL, "status=404") {
		resp.Status = 404
	}
	if net != nil && net.PreprocessHTTPResponse != nil {
		resp = net.PreprocessHTTPResponse(reqType, resp)
	}
	trace.ManifestResponse = &resp

	if resp.Status >= 400 {
		p.fail(CodeManifestFailed, fmt.Sprintf("manifest request failed with status %d", resp.Status))
		return false
	}
	return true
}

func (p *Player) acquireLicense(source sdk.SourceConfig, trace *Trace) {
	if wv := source.DRM.Widevine; wv != nil {
		msg := []byte("widevine-challenge:" + source.URL)
		if wv.PrepareMessage != nil {
			msg = wv.PrepareMessage(msg)
		}
		trace.LicenseRequest = msg
		license := append([]byte("license:"), msg...)
		if wv.PrepareLicense != nil {
			license = wv.PrepareLicense(license)
		}
		trace.License = license
		return
	}

	fp := source.DRM.Fairplay
	if fp == nil {
		return
	}
	cert := []byte("certificate:" + fp.CertificateURL)
	if fp.PrepareCertificate != nil {
		cert = fp.PrepareCertificate(cert)
	}
	trace.Certificate = cert

	contentID := "skd://" + strings.TrimPrefix(strings.TrimPrefix(source.URL, "https://"), "http://")
	if fp.PrepareContentID != nil {
		contentID = fp.PrepareContentID(contentID)
	}
	trace.ContentID = contentID

	spc := []byte("spc:" + contentID)
	if fp.PrepareMessage != nil {
		spc = fp.PrepareMessage(spc, contentID)
	}
	trace.LicenseRequest = spc

	serverURL := fp.LicenseURL
	if fp.PrepareLicenseServerURL != nil {
		serverURL = fp.PrepareLicenseServerURL(serverURL)
	}
	trace.LicenseServerURL = serverURL

	ckc := append([]byte("ckc:"), spc...)
	if fp.PrepareLicense != nil {
		ckc = fp.PrepareLicense(ckc)
	}
	trace.License = ckc

	if fp.PrepareSyncMessage != nil {
		trace.SyncMessage = fp.PrepareSyncMessage([]byte("sync-spc:"+contentID), contentID)
	}
}

func (p *Player) fail(code int, msg string) {
	p.logger.Debug("load failed", "code", code, "message", msg)
	p.Emit(sdk.SourceErrorEvent{EventBase: sdk.NewBase(), Code: code, Message: msg})
	p.Emit(sdk.PlayerErrorEvent{EventBase: sdk.NewBase(), Code: code, Message: msg})
}

func (p *Player) hasSource() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.source != nil
}

func (p *Player) Unload() { p.post(p.unload) }

func (p *Player) unload() {
	p.mu.Lock()
	src := p.source
	p.source, p.ready, p.playing, p.currentTime = nil, false, false, 0
	p.mu.Unlock()
	if src != nil {
		p.Emit(sdk.SourceUnloadedEvent{EventBase: sdk.NewBase(), Source: *src})
	}
}

func (p *Player) Play() { p.post(p.play) }

func (p *Player) play() {
	p.mu.RLock()
	ok := p.ready && !p.playing
	t := p.currentTime
	p.mu.RUnlock()
	if !ok {
		return
	}
	p.Emit(sdk.PlayEvent{EventBase: sdk.NewBase(), Time: t})
	p.adapt()
	p.mu.Lock()
	p.playing = true
	p.mu.Unlock()
	p.Emit(sdk.PlayingEvent{EventBase: sdk.NewBase(), Time: t})
}

// adapt runs one ABR decision: the SDK suggests the highest quality the
// bitrate cap allows and the hook may override it with any known id.
func (p *Player) adapt() {
	suggested := p.opts.Qualities[0]
	limit := 0
	if p.cfg.Adaptation != nil {
		limit = p.cfg.Adaptation.MaxSelectableVideoBitrate
	}
	for _, q := range p.opts.Qualities {
		if limit <= 0 || q.Bitrate <= limit {
			suggested = q
		}
	}
	chosen := suggested
	if a := p.cfg.Adaptation; a != nil && a.OnVideoAdaptation != nil {
		id := a.OnVideoAdaptation(sdk.VideoAdaptationData{Suggested: suggested.ID})
		for _, q := range p.opts.Qualities {
			if q.ID == id {
				chosen = q
			}
		}
	}

	p.mu.Lock()
	old := p.trace.Quality
	p.trace.Quality = &chosen
	p.mu.Unlock()
	if old == nil || old.ID != chosen.ID {
		p.Emit(sdk.VideoPlaybackQualityChangedEvent{EventBase: sdk.NewBase(), OldQuality: old, NewQuality: &chosen})
	}
}

func (p *Player) tick() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	p.currentTime += p.opts.Tick.Seconds() * p.opts.Speed
	finished := p.currentTime >= p.opts.Duration
	if finished {
		p.currentTime = p.opts.Duration
		p.playing = false
	}
	t := p.currentTime
	p.mu.Unlock()

	p.Emit(sdk.TimeChangedEvent{EventBase: sdk.NewBase(), CurrentTime: t})
	if finished {
		p.Emit(sdk.PlaybackFinishedEvent{EventBase: sdk.NewBase()})
	}
}

func (p *Player) Pause() {
	p.post(func() {
		p.mu.Lock()
		was := p.playing
		p.playing = false
		t := p.currentTime
		p.mu.Unlock()
		if was {
			p.Emit(sdk.PausedEvent{EventBase: sdk.NewBase(), Time: t})
		}
	})
}

func (p *Player) Seek(to float64) {
	p.post(func() {
		p.mu.Lock()
		if !p.ready {
			p.mu.Unlock()
			return
		}
		from := p.currentTime
		to = min(max(to, 0), p.opts.Duration)
		p.mu.Unlock()

		p.Emit(sdk.SeekEvent{EventBase: sdk.NewBase(), From: from, To: to})
		p.mu.Lock()
		p.currentTime = to
		p.mu.Unlock()
		p.Emit(sdk.SeekedEvent{EventBase: sdk.NewBase()})
	})
}

func (p *Player) Mute()   { p.post(func() { p.setMuted(true) }) }
func (p *Player) Unmute() { p.post(func() { p.setMuted(false) }) }

func (p *Player) setMuted(muted bool) {
	p.mu.Lock()
	changed := p.muted != muted
	p.muted = muted
	p.mu.Unlock()
	switch {
	case !changed:
	case muted:
		p.Emit(sdk.MutedEvent{EventBase: sdk.NewBase()})
	default:
		p.Emit(sdk.UnmutedEvent{EventBase: sdk.NewBase()})
	}
}

// Destroy raises Destroy and stops the worker. Later calls are no-ops.
func (p *Player) Destroy() {
	p.post(func() {
		p.Emit(sdk.DestroyEvent{EventBase: sdk.NewBase()})
		p.mu.Lock()
		p.destroyed = true
		p.playing = false
		p.mu.Unlock()
	})
}

func (p *Player) CurrentTime() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentTime
}

func (p *Player) Duration() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.source == nil {
		return 0
	}
	return p.opts.Duration
}

func (p *Player) IsPlaying() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playing
}

func (p *Player) IsMuted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.muted
}

// Trace returns what the hooks produced during the last load.
func (p *Player) Trace() Trace {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trace
}
