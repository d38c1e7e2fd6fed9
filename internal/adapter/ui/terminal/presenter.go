package terminal

import (
	"iter"
	"log/slog"
	"sync"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/ports"
)

// StateSource is the read side of the session the presenter renders from.
type StateSource interface {
	State() domain.SessionState
	VisibleTracks() iter.Seq[domain.Track]
}

// Presenter maps session events onto a View.
//
// Responsibilities:
// - Subscribe to events from the event bus
// - Read the session snapshot and push the affected part to the view
// - Throttle progress output to whole seconds
type Presenter struct {
	logger *slog.Logger
	bus    ports.EventBus
	state  StateSource
	view   ports.View

	subs []domain.SubscriptionID

	mu           sync.Mutex
	lastSecond   int
	showProgress bool
	shutdownOnce sync.Once
}

// NewPresenter creates a presenter and subscribes it to the bus.
// Progress ticks are only rendered after EnableProgress.
func NewPresenter(logger *slog.Logger, bus ports.EventBus, state StateSource, view ports.View) *Presenter {
	p := &Presenter{
		logger:     logger.With(slog.String("component", "presenter")),
		bus:        bus,
		state:      state,
		view:       view,
		lastSecond: -1,
	}
	p.subscribeToEvents()
	return p
}

func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		domain.EventTrackChanged:     p.onNowPlaying,
		domain.EventPlayStateChanged: p.onNowPlaying,
		domain.EventCaptionUpdated:   p.onCaptionUpdated,
		domain.EventTrackProgress:    p.onProgress,
		domain.EventTrackError:       p.onTrackError,

		domain.EventVolumeChanged:  p.onModes,
		domain.EventMuteToggled:    p.onModes,
		domain.EventShuffleToggled: p.onModes,
		domain.EventRepeatChanged:  p.onModes,

		domain.EventQueueChanged:        p.onQueue,
		domain.EventLocalTracksIngested: p.onQueue,
		domain.EventBrowseChanged:       p.onBrowse,
	}

	for eventType, handler := range subscriptions {
		p.subs = append(p.subs, p.bus.Subscribe(eventType, handler))
	}
}

// EnableProgress turns progress rendering on or off.
func (p *Presenter) EnableProgress(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.showProgress = on
}

// Refresh renders the full session once.
func (p *Presenter) Refresh() {
	s := p.state.State()
	p.view.ShowNowPlaying(s)
	p.view.ShowModes(s.Shuffle, s.Repeat, s.Volume, s.Muted)
	p.view.ShowProgress(s.Progress.Seconds(), s.Duration.Seconds())
}

// ShowQueue renders the queue on demand.
func (p *Presenter) ShowQueue() {
	s := p.state.State()
	p.view.ShowQueue(s.Queue, currentID(s))
}

// ShowBrowse renders the tracks of the active view on demand.
func (p *Presenter) ShowBrowse() {
	s := p.state.State()
	p.view.ShowTracks(browseTitle(s), p.state.VisibleTracks())
}

// Shutdown detaches the presenter from the bus.
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		for _, id := range p.subs {
			p.bus.Unsubscribe(id)
		}
		p.subs = nil
	})
}

func (p *Presenter) onNowPlaying(domain.Event) {
	p.mu.Lock()
	p.lastSecond = -1
	p.mu.Unlock()
	p.view.ShowNowPlaying(p.state.State())
}

func (p *Presenter) onCaptionUpdated(e domain.Event) {
	ev, ok := e.(domain.CaptionUpdatedEvent)
	if !ok || ev.Caption.Status == domain.CaptionLoading {
		return
	}
	s := p.state.State()
	if s.CurrentTrack == nil || s.CurrentTrack.ID != ev.Caption.TrackID {
		return
	}
	p.view.ShowNowPlaying(s)
}

func (p *Presenter) onProgress(e domain.Event) {
	ev, ok := e.(domain.TrackProgressEvent)
	if !ok {
		return
	}
	sec := int(ev.Position.Seconds())

	p.mu.Lock()
	if !p.showProgress || sec == p.lastSecond {
		p.mu.Unlock()
		return
	}
	p.lastSecond = sec
	p.mu.Unlock()

	p.view.ShowProgress(ev.Position.Seconds(), ev.Duration.Seconds())
}

func (p *Presenter) onTrackError(e domain.Event) {
	if ev, ok := e.(domain.TrackErrorEvent); ok {
		p.logger.Debug("track error", slog.String("track_id", ev.Track.ID))
		p.view.ShowError(ev.Error)
	}
}

func (p *Presenter) onModes(domain.Event) {
	s := p.state.State()
	p.view.ShowModes(s.Shuffle, s.Repeat, s.Volume, s.Muted)
}

func (p *Presenter) onQueue(domain.Event) {
	p.ShowQueue()
}

func (p *Presenter) onBrowse(domain.Event) {
	p.ShowBrowse()
}

func currentID(s domain.SessionState) string {
	if s.CurrentTrack == nil {
		return ""
	}
	return s.CurrentTrack.ID
}

func browseTitle(s domain.SessionState) string {
	switch s.View {
	case domain.ViewSearch:
		return "Search " + string(s.Scope) + ": \"" + s.Query + "\""
	case domain.ViewAlbum:
		return "Album: " + s.SelectedID
	case domain.ViewArtist:
		return "Artist: " + s.SelectedID
	case domain.ViewLibrary:
		return "Library"
	case domain.ViewPlaylist:
		return "Playlist"
	default:
		return "Home"
	}
}
