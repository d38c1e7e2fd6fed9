package service

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/ports"
)

// DefaultTickInterval is how often the driver polls the transport.
const DefaultTickInterval = 250 * time.Millisecond

// sessionSink is the part of SessionController the driver reports back to.
type sessionSink interface {
	UpdateProgress(position, duration time.Duration)
	TrackLoaded(trackID string, duration time.Duration)
	HandleTrackEnded()
}

// PlaybackDriver mirrors session events onto a MediaTransport and feeds the
// transport's progress back into the session.
type PlaybackDriver struct {
	logger    *slog.Logger
	bus       ports.EventBus
	transport ports.MediaTransport
	session   sessionSink
	interval  time.Duration

	subs []domain.SubscriptionID

	mu      sync.Mutex
	playing bool
	loaded  bool
	volume  float64
	muted   bool
	// endSignalled is set once the session was told about the current end
	endSignalled bool

	running  bool
	stop     chan struct{}
	updateWg sync.WaitGroup
}

// NewPlaybackDriver creates a driver and subscribes it to session events.
// A non-positive interval uses DefaultTickInterval.
func NewPlaybackDriver(
	logger *slog.Logger,
	bus ports.EventBus,
	transport ports.MediaTransport,
	session sessionSink,
	interval time.Duration,
) *PlaybackDriver {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	d := &PlaybackDriver{
		logger:    logger.With(slog.String("service", "driver")),
		bus:       bus,
		transport: transport,
		session:   session,
		interval:  interval,
		volume:    1.0,
	}

	d.subs = []domain.SubscriptionID{
		bus.Subscribe(domain.EventTrackChanged, d.onTrackChanged),
		bus.Subscribe(domain.EventPlayStateChanged, d.onPlayStateChanged),
		bus.Subscribe(domain.EventSeekRequested, d.onSeekRequested),
		bus.Subscribe(domain.EventVolumeChanged, d.onVolumeChanged),
		bus.Subscribe(domain.EventMuteToggled, d.onMuteToggled),
	}
	return d
}

// Start launches the progress ticker. Calling Start twice is a no-op.
func (d *PlaybackDriver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.stop = make(chan struct{})

	d.updateWg.Add(1)
	go d.run(d.stop)
}

func (d *PlaybackDriver) run(stop <-chan struct{}) {
	defer d.updateWg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			d.Tick()
		}
	}
}

// Tick polls the transport once. The ticker calls it; tests may call it directly.
func (d *PlaybackDriver) Tick() {
	d.mu.Lock()
	if !d.loaded {
		d.mu.Unlock()
		return
	}
	status := d.transport.Status()
	pos, dur := d.transport.Position()
	ended := status == ports.TransportEnded && !d.endSignalled
	if ended {
		d.endSignalled = true
	}
	d.mu.Unlock()

	// the session publishes events the driver handles, so call it unlocked
	switch {
	case ended:
		d.session.UpdateProgress(dur, dur)
		d.session.HandleTrackEnded()
	case status == ports.TransportPlaying:
		d.session.UpdateProgress(pos, dur)
	}
}

// Stop halts the ticker and unsubscribes from the bus. The transport stays open.
func (d *PlaybackDriver) Stop() {
	for _, id := range d.subs {
		d.bus.Unsubscribe(id)
	}
	d.subs = nil

	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stop)
	d.mu.Unlock()

	d.updateWg.Wait()
	d.logger.Debug("playback driver stopped")
}

func (d *PlaybackDriver) onTrackChanged(e domain.Event) {
	ev, ok := e.(domain.TrackChangedEvent)
	if !ok {
		return
	}
	d.mu.Lock()
	d.playing = ev.Playing
	d.endSignalled = false

	dur, err := d.transport.Load(ev.Track)
	if err != nil {
		d.loaded = false
		d.mu.Unlock()
		d.logger.Warn("transport failed to load track",
			slog.String("track_id", ev.Track.ID), slog.String("error", err.Error()))
		d.bus.Publish(domain.NewTrackErrorEvent(ev.Track, err))
		return
	}
	d.loaded = true
	d.logger.Debug("track loaded", slog.String("track_id", ev.Track.ID), slog.Duration("duration", dur))

	d.applyVolumeLocked()
	if d.playing {
		d.playLocked()
	}
	d.mu.Unlock()

	// tracks without a known length take the one the transport settled on
	d.session.TrackLoaded(ev.Track.ID, dur)
}

func (d *PlaybackDriver) onPlayStateChanged(e domain.Event) {
	ev, ok := e.(domain.PlayStateChangedEvent)
	if !ok {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.playing = ev.Playing
	if !d.loaded {
		return
	}
	if ev.Playing {
		d.endSignalled = false
		d.playLocked()
		return
	}
	if err := d.transport.Pause(); err != nil && !errors.Is(err, domain.ErrNotLoaded) {
		d.logger.Warn("transport failed to pause", slog.String("error", err.Error()))
	}
}

func (d *PlaybackDriver) onSeekRequested(e domain.Event) {
	ev, ok := e.(domain.SeekRequestedEvent)
	if !ok {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.loaded {
		return
	}
	if err := d.transport.Seek(ev.Position); err != nil {
		d.logger.Warn("transport failed to seek",
			slog.Duration("position", ev.Position), slog.String("error", err.Error()))
		return
	}
	d.endSignalled = false
	if d.playing && d.transport.Status() != ports.TransportPlaying {
		d.playLocked()
	}
}

func (d *PlaybackDriver) onVolumeChanged(e domain.Event) {
	ev, ok := e.(domain.VolumeChangedEvent)
	if !ok {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volume = ev.Volume
	d.applyVolumeLocked()
}

func (d *PlaybackDriver) onMuteToggled(e domain.Event) {
	ev, ok := e.(domain.MuteToggledEvent)
	if !ok {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.muted = ev.Muted
	d.applyVolumeLocked()
}

func (d *PlaybackDriver) playLocked() {
	if err := d.transport.Play(); err != nil {
		d.logger.Warn("transport failed to play", slog.String("error", err.Error()))
	}
}

func (d *PlaybackDriver) applyVolumeLocked() {
	level := d.volume
	if d.muted {
		level = 0
	}
	if err := d.transport.SetVolume(level); err != nil {
		d.logger.Warn("transport failed to set volume", slog.String("error", err.Error()))
	}
}
