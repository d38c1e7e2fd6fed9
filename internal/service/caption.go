package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/ports"
)

// DefaultCaptionTimeout bounds a single caption lookup.
const DefaultCaptionTimeout = 8 * time.Second

// CaptionAnnotator fetches a caption for every new current track.
//
// The caller tags each request with an increasing sequence number. A request
// older than the latest one seen is dropped without a lookup; a newer one
// cancels the running lookup. A result is published only while its sequence
// number is still the latest.
type CaptionAnnotator struct {
	logger  *slog.Logger
	service ports.CaptionService
	bus     ports.EventBus
	timeout time.Duration

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewCaptionAnnotator creates an annotator. A non-positive timeout uses
// DefaultCaptionTimeout.
func NewCaptionAnnotator(
	logger *slog.Logger,
	service ports.CaptionService,
	bus ports.EventBus,
	timeout time.Duration,
) *CaptionAnnotator {
	if timeout <= 0 {
		timeout = DefaultCaptionTimeout
	}
	return &CaptionAnnotator{
		logger:  logger.With(slog.String("service", "caption")),
		service: service,
		bus:     bus,
		timeout: timeout,
	}
}

// Request starts the caption lookup for track under seq, superseding any
// earlier request. Local tracks resolve immediately to domain.LocalCaption
// without a lookup.
func (a *CaptionAnnotator) Request(track domain.Track, seq uint64) {
	a.mu.Lock()
	if a.closed || !a.supersedeLocked(seq) {
		latest := a.seq
		a.mu.Unlock()
		a.logger.Debug("caption request superseded before it started",
			slog.String("track_id", track.ID), slog.Uint64("seq", seq), slog.Uint64("latest", latest))
		return
	}

	if track.IsLocal {
		a.mu.Unlock()
		a.bus.Publish(domain.NewCaptionUpdatedEvent(domain.Caption{
			TrackID: track.ID,
			Seq:     seq,
			Status:  domain.CaptionReady,
			Text:    domain.LocalCaption,
		}))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	a.cancel = cancel
	a.wg.Add(1)
	a.mu.Unlock()

	a.bus.Publish(domain.NewCaptionUpdatedEvent(domain.Caption{
		TrackID: track.ID,
		Seq:     seq,
		Status:  domain.CaptionLoading,
	}))

	go a.lookup(ctx, cancel, seq, track)
}

func (a *CaptionAnnotator) lookup(ctx context.Context, cancel context.CancelFunc, seq uint64, track domain.Track) {
	defer a.wg.Done()
	defer cancel()

	text, err := a.service.Describe(ctx, track.Title, track.Artist)

	result := domain.Caption{TrackID: track.ID, Seq: seq}
	if err != nil {
		result.Status = domain.CaptionFailed
		result.Err = err
	} else {
		result.Status = domain.CaptionReady
		result.Text = text
	}

	a.mu.Lock()
	latest := a.seq
	a.mu.Unlock()

	if seq != latest {
		a.logger.Debug("discarding stale caption",
			slog.String("track_id", track.ID),
			slog.Uint64("seq", seq),
			slog.Uint64("latest", latest))
		return
	}

	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, context.Canceled) {
			level = slog.LevelDebug
		}
		a.logger.Log(context.Background(), level, "caption lookup failed",
			slog.String("track_id", track.ID),
			slog.String("error", err.Error()))
	}
	a.bus.Publish(domain.NewCaptionUpdatedEvent(result))
}

// Clear cancels any in-flight lookup older than seq and invalidates its result.
func (a *CaptionAnnotator) Clear(seq uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.closed {
		a.supersedeLocked(seq)
	}
}

// Latest returns the sequence number of the most recent request.
func (a *CaptionAnnotator) Latest() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seq
}

// supersedeLocked makes seq the latest sequence number and cancels the
// running lookup. It reports false if seq is not newer than the latest.
func (a *CaptionAnnotator) supersedeLocked(seq uint64) bool {
	if seq <= a.seq {
		return false
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.seq = seq
	return true
}

// Shutdown cancels the in-flight lookup and waits for it to return.
func (a *CaptionAnnotator) Shutdown() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.mu.Unlock()

	a.wg.Wait()
	a.logger.Debug("caption annotator stopped")
}
