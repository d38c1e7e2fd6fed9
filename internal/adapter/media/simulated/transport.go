// Package simulated provides a clock-driven MediaTransport.
//
// It stands in for a real player: position advances with wall-clock time
// while playing and the media reports ended once the duration is reached.
// Tests can inject a clock and failure switches.
package simulated

import (
	"log/slog"
	"sync"
	"time"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/ports"
)

// DefaultDuration is used for tracks without a known duration.
const DefaultDuration = 3 * time.Minute

// Transport is a simulated media player.
type Transport struct {
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	track    *domain.Track
	duration time.Duration
	// offset is the position at resumedAt; while paused it is the position
	offset    time.Duration
	resumedAt time.Time
	status    ports.TransportStatus
	volume    float64
	closed    bool

	failLoad bool
	failPlay bool
}

// NewTransport creates a transport driven by the wall clock.
func NewTransport(logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transport{
		logger: logger.With(slog.String("component", "transport")),
		now:    time.Now,
		volume: 1.0,
	}
}

// SetClock replaces the time source. Intended for tests.
func (t *Transport) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// SetFailLoad makes subsequent Load calls fail.
func (t *Transport) SetFailLoad(fail bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failLoad = fail
}

// SetFailPlay makes subsequent Play calls fail.
func (t *Transport) SetFailPlay(fail bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failPlay = fail
}

// Load implements ports.MediaTransport.
func (t *Transport) Load(track domain.Track) (time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, domain.ErrClosed
	}
	if t.failLoad {
		return 0, domain.NewServiceError("Transport", "Load", "simulated load failure", domain.ErrUnsupportedFormat)
	}
	if track.Source.ExternalID == "" && track.Source.LocalPath == "" {
		return 0, domain.NewValidationError("source", track.ID, "track has no playback source")
	}

	d := track.Duration
	if d <= 0 {
		d = DefaultDuration
	}
	t.track = &track
	t.duration = d
	t.offset = 0
	t.status = ports.TransportPaused

	t.logger.Debug("loaded", slog.String("track_id", track.ID), slog.Duration("duration", d))
	return d, nil
}

// Play implements ports.MediaTransport.
func (t *Transport) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.usable(); err != nil {
		return err
	}
	if t.failPlay {
		return domain.NewServiceError("Transport", "Play", "simulated playback failure", nil)
	}

	t.settle()
	if t.status == ports.TransportEnded {
		t.offset = 0
	}
	if t.status != ports.TransportPlaying {
		t.status = ports.TransportPlaying
		t.resumedAt = t.now()
	}
	return nil
}

// Pause implements ports.MediaTransport.
func (t *Transport) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.usable(); err != nil {
		return err
	}
	t.settle()
	if t.status == ports.TransportPlaying {
		t.offset = t.position()
		t.status = ports.TransportPaused
	}
	return nil
}

// Seek implements ports.MediaTransport.
func (t *Transport) Seek(position time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.usable(); err != nil {
		return err
	}
	if position < 0 || position > t.duration {
		return domain.ErrInvalidPosition
	}

	t.settle()
	t.offset = position
	switch t.status {
	case ports.TransportPlaying:
		t.resumedAt = t.now()
	case ports.TransportEnded:
		t.status = ports.TransportPaused
	}
	return nil
}

// SetVolume implements ports.MediaTransport.
func (t *Transport) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return domain.ErrClosed
	}
	t.volume = volume
	return nil
}

// Volume returns the last volume set.
func (t *Transport) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

// Loaded returns the loaded track, or nil.
func (t *Transport) Loaded() *domain.Track {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.track == nil {
		return nil
	}
	cp := *t.track
	return &cp
}

// Status implements ports.MediaTransport.
func (t *Transport) Status() ports.TransportStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settle()
	return t.status
}

// Position implements ports.MediaTransport.
func (t *Transport) Position() (time.Duration, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settle()
	return t.position(), t.duration
}

// Close implements ports.MediaTransport.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return domain.ErrClosed
	}
	t.closed = true
	t.track = nil
	t.status = ports.TransportIdle
	return nil
}

// usable must be called with mu held.
func (t *Transport) usable() error {
	if t.closed {
		return domain.ErrClosed
	}
	if t.track == nil {
		return domain.ErrNotLoaded
	}
	return nil
}

// position must be called with mu held.
func (t *Transport) position() time.Duration {
	if t.status != ports.TransportPlaying {
		return t.offset
	}
	return min(t.offset+t.now().Sub(t.resumedAt), t.duration)
}

// settle moves a playing transport that ran past its duration to ended.
// Must be called with mu held.
func (t *Transport) settle() {
	if t.status == ports.TransportPlaying && t.position() >= t.duration {
		t.offset = t.duration
		t.status = ports.TransportEnded
	}
}

var _ ports.MediaTransport = (*Transport)(nil)
