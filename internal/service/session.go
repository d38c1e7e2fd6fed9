// Package service provides the business logic of the Siray playback session.
package service

import (
	"iter"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/ports"
)

// DefaultHistoryLimit bounds the play history kept in the session state.
const DefaultHistoryLimit = 50

// captionRequester is the part of CaptionAnnotator the controller drives.
// seq is allocated by the controller together with the track change it
// belongs to; requests with an older seq than one already seen are dropped.
type captionRequester interface {
	Request(track domain.Track, seq uint64)
	Clear(seq uint64)
}

// SessionController is the single writer of playback session state.
//
// Every mutation is a named transition. A transition queues its events and
// caption requests while holding the state lock; they run after the lock is
// released, in transition order, on whichever goroutine is flushing. So
// subscribers may call back in, and a subscriber never sees the events of two
// transitions interleaved or reordered.
type SessionController struct {
	// Dependencies (injected)
	logger   *slog.Logger
	bus      ports.EventBus
	catalog  ports.CatalogProvider
	captions captionRequester

	// pick returns a uniform index in [0, n) for shuffle
	pick         func(n int) int
	historyLimit int
	captionSub   domain.SubscriptionID

	mu         sync.RWMutex
	current    *domain.Track
	playing    bool
	shuffle    bool
	repeat     domain.RepeatMode
	progress   time.Duration
	duration   time.Duration
	volume     float64
	muted      bool
	queue      []domain.Track
	history    []domain.Track
	query      string
	scope      domain.SearchScope
	view       domain.View
	selectedID string
	caption    domain.Caption
	captionSeq uint64

	// outbox holds side effects of committed transitions, in commit order
	outbox   []func()
	flushing bool
}

// NewSessionController creates a controller whose queue starts as the default
// catalog, with its first track current and paused. captions may be nil.
func NewSessionController(
	logger *slog.Logger,
	bus ports.EventBus,
	catalog ports.CatalogProvider,
	captions captionRequester,
) *SessionController {
	c := &SessionController{
		logger:       logger.With(slog.String("service", "session")),
		bus:          bus,
		catalog:      catalog,
		captions:     captions,
		pick:         rand.IntN,
		historyLimit: DefaultHistoryLimit,
		volume:       1.0,
		queue:        catalog.Catalog(),
		scope:        domain.ScopeAll,
		view:         domain.ViewHome,
	}
	if len(c.queue) > 0 {
		first := c.queue[0]
		c.current = &first
		c.duration = first.Duration
	}

	c.captionSub = bus.Subscribe(domain.EventCaptionUpdated, c.onCaptionUpdated)
	c.logger.Debug("session controller initialized", slog.Int("queue_len", len(c.queue)))
	return c
}

// SetPicker replaces the shuffle index source. Intended for tests.
func (c *SessionController) SetPicker(pick func(n int) int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pick = pick
}

// SetHistoryLimit bounds the play history. Non-positive values are ignored.
func (c *SessionController) SetHistoryLimit(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.historyLimit = n
	if len(c.history) > n {
		c.history = c.history[:n]
	}
}

// Start announces the initial track so the transport loads it and its
// caption is requested.
func (c *SessionController) Start() {
	c.mu.Lock()
	if c.current != nil {
		c.emitLocked(domain.NewTrackChangedEvent(*c.current, nil, c.playing))
		c.requestCaptionLocked(*c.current)
	}
	c.unlockAndFlush()
}

// Shutdown detaches the controller from the event bus.
func (c *SessionController) Shutdown() {
	c.bus.Unsubscribe(c.captionSub)
}

// SelectTrack makes track current. Selecting the current track toggles
// playback instead; a new track starts playing and is put at the head of the
// queue if it is not queued yet.
func (c *SessionController) SelectTrack(track domain.Track) {
	c.mu.Lock()
	if c.current != nil && c.current.ID == track.ID {
		c.playing = !c.playing
		c.emitLocked(domain.NewPlayStateChangedEvent(ptr(*c.current), c.playing))
		c.unlockAndFlush()
		return
	}

	if !c.queuedLocked(track.ID) {
		c.queue = append([]domain.Track{track}, c.queue...)
		c.emitLocked(domain.NewQueueChangedEvent(slices.Clone(c.queue)))
	}
	c.setCurrentLocked(track, true)
	c.unlockAndFlush()
}

// SelectTrackByID resolves id against the queue, then the catalog, and selects it.
func (c *SessionController) SelectTrackByID(id string) error {
	track, ok := c.resolve(id)
	if !ok {
		return domain.ErrTrackNotFound
	}
	c.SelectTrack(track)
	return nil
}

func (c *SessionController) resolve(id string) (domain.Track, bool) {
	c.mu.RLock()
	t, ok := lo.Find(c.queue, func(t domain.Track) bool { return t.ID == id })
	c.mu.RUnlock()
	if ok {
		return t, true
	}
	return c.catalog.Lookup(id)
}

// Advance moves to the next track. With repeat one it only rewinds the
// current track. With shuffle a random index is drawn and re-drawn once if it
// hits the current track; otherwise the cyclic successor is chosen.
// An empty queue makes this a no-op.
func (c *SessionController) Advance() {
	c.mu.Lock()
	if c.repeat == domain.RepeatOne {
		c.rewindLocked()
		c.unlockAndFlush()
		return
	}

	n := len(c.queue)
	if n == 0 {
		c.unlockAndFlush()
		c.logger.Debug("advance on empty queue ignored")
		return
	}

	i := c.currentIndexLocked()
	var next int
	if c.shuffle {
		next = c.pick(n)
		if next == i && n > 1 {
			next = c.pick(n)
		}
	} else {
		next = (i + 1) % n
	}
	c.moveToLocked(next)
}

// Retreat moves to the cyclic predecessor in queue order. Shuffle is not
// consulted. An empty queue makes this a no-op.
func (c *SessionController) Retreat() {
	c.mu.Lock()
	n := len(c.queue)
	if n == 0 {
		c.unlockAndFlush()
		c.logger.Debug("retreat on empty queue ignored")
		return
	}
	c.moveToLocked((c.currentIndexLocked() - 1 + n) % n)
}

// moveToLocked makes queue[idx] current and playing. It releases mu.
func (c *SessionController) moveToLocked(idx int) {
	target := c.queue[idx]
	if c.current != nil && c.current.ID == target.ID {
		// single-track loop: rewind and keep playing
		c.rewindLocked()
		if !c.playing {
			c.playing = true
			c.emitLocked(domain.NewPlayStateChangedEvent(ptr(*c.current), true))
		}
		c.unlockAndFlush()
		return
	}

	c.setCurrentLocked(target, true)
	c.unlockAndFlush()
}

// ToggleShuffle flips the shuffle flag. The queue order is not touched.
func (c *SessionController) ToggleShuffle() {
	c.mu.Lock()
	c.shuffle = !c.shuffle
	c.emitLocked(domain.NewShuffleToggledEvent(c.shuffle))
	c.unlockAndFlush()
}

// CycleRepeat rotates the repeat mode none -> all -> one -> none.
func (c *SessionController) CycleRepeat() {
	c.mu.Lock()
	c.repeat = c.repeat.Next()
	c.emitLocked(domain.NewRepeatChangedEvent(c.repeat))
	c.unlockAndFlush()
}

// SetRepeat sets the repeat mode directly.
func (c *SessionController) SetRepeat(mode domain.RepeatMode) {
	c.mu.Lock()
	if c.repeat == mode {
		c.unlockAndFlush()
		return
	}
	c.repeat = mode
	c.emitLocked(domain.NewRepeatChangedEvent(mode))
	c.unlockAndFlush()
}

// RemoveFromQueue drops the track with the given id from the queue and
// reports whether it was queued.
//
// Removing the current track continues with the track that takes its place
// (wrapping to the head), keeping the play state. Removing the last queued
// track clears the current track and stops playback.
func (c *SessionController) RemoveFromQueue(id string) bool {
	c.mu.Lock()
	_, idx, ok := lo.FindIndexOf(c.queue, func(t domain.Track) bool { return t.ID == id })
	if !ok {
		c.unlockAndFlush()
		c.logger.Debug("remove of unqueued track ignored", slog.String("track_id", id))
		return false
	}

	c.queue = slices.Delete(slices.Clone(c.queue), idx, idx+1)
	c.emitLocked(domain.NewQueueChangedEvent(slices.Clone(c.queue)))

	switch {
	case c.current == nil || c.current.ID != id:
	case len(c.queue) == 0:
		c.pushHistoryLocked(*c.current)
		c.current = nil
		c.playing = false
		c.progress = 0
		c.duration = 0
		c.emitLocked(domain.NewPlayStateChangedEvent(nil, false))
		c.clearCaptionLocked()
	default:
		c.setCurrentLocked(c.queue[idx%len(c.queue)], c.playing)
	}
	c.unlockAndFlush()
	return true
}

// IngestLocalTracks adds user-supplied tracks. Tracks not yet queued are put
// before the existing queue in batch order; duplicates are dropped. The
// tracks are also recorded as local in the catalog, the first track of the
// batch starts playing and the library view is shown.
// Returns the tracks that were newly queued.
func (c *SessionController) IngestLocalTracks(tracks []domain.Track) []domain.Track {
	batch := lo.UniqBy(lo.Filter(tracks, func(t domain.Track, _ int) bool { return t.ID != "" }),
		func(t domain.Track) string { return t.ID })
	if len(batch) == 0 {
		return nil
	}
	c.catalog.AddLocal(batch...)
	// the catalog decides which ids are local; an id of the default catalog stays remote
	batch = lo.Map(batch, func(t domain.Track, _ int) domain.Track {
		if known, ok := c.catalog.Lookup(t.ID); ok {
			return known
		}
		return t
	})

	c.mu.Lock()
	fresh := lo.Filter(batch, func(t domain.Track, _ int) bool { return !c.queuedLocked(t.ID) })

	if len(fresh) > 0 {
		c.queue = append(slices.Clone(fresh), c.queue...)
		c.emitLocked(domain.NewQueueChangedEvent(slices.Clone(c.queue)))
	}
	c.emitLocked(domain.NewLocalTracksIngestedEvent(slices.Clone(fresh)))

	first := batch[0]
	if c.current == nil || c.current.ID != first.ID {
		c.setCurrentLocked(first, true)
	} else if !c.playing {
		c.playing = true
		c.emitLocked(domain.NewPlayStateChangedEvent(ptr(*c.current), true))
	}

	c.view = domain.ViewLibrary
	c.emitLocked(c.browseEventLocked())
	c.unlockAndFlush()

	c.logger.Info("local tracks ingested", slog.Int("batch", len(batch)), slog.Int("queued", len(fresh)))
	return fresh
}

// FilterCatalog returns the tracks visible for query, scope and view.
// See FilterTracks.
func (c *SessionController) FilterCatalog(query string, scope domain.SearchScope, view domain.View) iter.Seq[domain.Track] {
	return FilterTracks(c.catalog, query, scope, view)
}

// VisibleTracks derives the track list for the active view.
//
//   - album and artist views list default-catalog tracks whose album or
//     artist equals the selected id
//   - home lists the whole default catalog
//   - playlist lists the queue
//   - search and library apply the stored query and scope
func (c *SessionController) VisibleTracks() iter.Seq[domain.Track] {
	c.mu.RLock()
	view, query, scope, selected := c.view, c.query, c.scope, c.selectedID
	queue := slices.Clone(c.queue)
	c.mu.RUnlock()

	switch view {
	case domain.ViewAlbum:
		return seqWhere(c.catalog.Catalog, func(t domain.Track) bool { return t.Album == selected })
	case domain.ViewArtist:
		return seqWhere(c.catalog.Catalog, func(t domain.Track) bool { return t.Artist == selected })
	case domain.ViewHome:
		return seqWhere(c.catalog.Catalog, nil)
	case domain.ViewPlaylist:
		return slices.Values(queue)
	default:
		return c.FilterCatalog(query, scope, view)
	}
}

// TogglePlay flips play/pause of the current track.
func (c *SessionController) TogglePlay() error {
	c.mu.Lock()
	if c.current == nil {
		c.unlockAndFlush()
		return domain.ErrNoCurrentTrack
	}
	c.playing = !c.playing
	c.emitLocked(domain.NewPlayStateChangedEvent(ptr(*c.current), c.playing))
	c.unlockAndFlush()
	return nil
}

// Seek moves playback of the current track to position.
func (c *SessionController) Seek(position time.Duration) error {
	c.mu.Lock()
	if c.current == nil {
		c.unlockAndFlush()
		return domain.ErrNoCurrentTrack
	}
	if position < 0 || (c.duration > 0 && position > c.duration) {
		c.unlockAndFlush()
		return domain.ErrInvalidPosition
	}
	c.progress = position
	c.emitLocked(
		domain.NewSeekRequestedEvent(position),
		domain.NewTrackProgressEvent(position, c.duration),
	)
	c.unlockAndFlush()
	return nil
}

// UpdateProgress records a periodic progress tick from the transport.
func (c *SessionController) UpdateProgress(position, duration time.Duration) {
	c.mu.Lock()
	if c.current == nil {
		c.unlockAndFlush()
		return
	}
	if duration > 0 {
		c.duration = duration
	}
	c.progress = max(0, position)
	if c.duration > 0 {
		c.progress = min(c.progress, c.duration)
	}
	c.emitLocked(domain.NewTrackProgressEvent(c.progress, c.duration))
	c.unlockAndFlush()
}

// TrackLoaded records the duration the transport reported for trackID.
// It is ignored if trackID is no longer current or duration is not positive.
func (c *SessionController) TrackLoaded(trackID string, duration time.Duration) {
	c.mu.Lock()
	if c.current == nil || c.current.ID != trackID || duration <= 0 || duration == c.duration {
		c.unlockAndFlush()
		return
	}
	c.duration = duration
	c.progress = min(c.progress, duration)
	c.emitLocked(domain.NewTrackProgressEvent(c.progress, c.duration))
	c.unlockAndFlush()
}

// HandleTrackEnded reacts to the transport finishing the current track.
// Repeat one restarts it, repeat all advances, and with repeat off the
// session advances unless the last queued track finished in linear order, in
// which case playback stops at the start of that track.
func (c *SessionController) HandleTrackEnded() {
	c.mu.Lock()
	if c.current == nil {
		c.unlockAndFlush()
		return
	}

	switch {
	case c.repeat == domain.RepeatOne:
		c.rewindLocked()
		if !c.playing {
			c.playing = true
			c.emitLocked(domain.NewPlayStateChangedEvent(ptr(*c.current), true))
		}
		c.unlockAndFlush()

	case c.repeat == domain.RepeatNone && !c.shuffle && c.currentIndexLocked() == len(c.queue)-1:
		c.playing = false
		c.emitLocked(domain.NewPlayStateChangedEvent(ptr(*c.current), false))
		c.rewindLocked()
		c.unlockAndFlush()

	default:
		c.unlockAndFlush()
		c.Advance()
	}
}

// SetVolume sets the output volume (0.0 to 1.0).
func (c *SessionController) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}
	c.mu.Lock()
	c.volume = volume
	c.emitLocked(domain.NewVolumeChangedEvent(volume))
	c.unlockAndFlush()
	return nil
}

// ToggleMute flips the mute flag. The volume level is kept.
func (c *SessionController) ToggleMute() {
	c.mu.Lock()
	c.muted = !c.muted
	c.emitLocked(domain.NewMuteToggledEvent(c.muted))
	c.unlockAndFlush()
}

// SetQuery stores the search query and switches to the search view.
func (c *SessionController) SetQuery(query string) {
	c.mu.Lock()
	c.query = query
	c.view = domain.ViewSearch
	c.emitLocked(c.browseEventLocked())
	c.unlockAndFlush()
}

// SetScope stores the search scope.
func (c *SessionController) SetScope(scope domain.SearchScope) error {
	if _, err := domain.ParseSearchScope(string(scope)); err != nil {
		return err
	}
	c.mu.Lock()
	c.scope = scope
	c.emitLocked(c.browseEventLocked())
	c.unlockAndFlush()
	return nil
}

// Navigate switches the active view. Album and artist views need the album
// or artist name in selectedID.
func (c *SessionController) Navigate(view domain.View, selectedID string) error {
	if _, err := domain.ParseView(string(view)); err != nil {
		return err
	}
	if (view == domain.ViewAlbum || view == domain.ViewArtist) && selectedID == "" {
		return domain.NewValidationError("id", selectedID, "required for the "+string(view)+" view")
	}

	c.mu.Lock()
	c.view = view
	if selectedID != "" {
		c.selectedID = selectedID
	}
	c.emitLocked(c.browseEventLocked())
	c.unlockAndFlush()
	return nil
}

// State returns a snapshot of the session. The snapshot shares no memory
// with the controller.
func (c *SessionController) State() domain.SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := domain.SessionState{
		Playing:    c.playing,
		Shuffle:    c.shuffle,
		Repeat:     c.repeat,
		Progress:   c.progress,
		Duration:   c.duration,
		Volume:     c.volume,
		Muted:      c.muted,
		Queue:      slices.Clone(c.queue),
		History:    slices.Clone(c.history),
		Query:      c.query,
		Scope:      c.scope,
		View:       c.view,
		SelectedID: c.selectedID,
		Caption:    c.caption,
	}
	if c.current != nil {
		s.CurrentTrack = ptr(*c.current)
	}
	return s
}

// Queue returns a copy of the queue.
func (c *SessionController) Queue() []domain.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.queue)
}

func (c *SessionController) onCaptionUpdated(e domain.Event) {
	ev, ok := e.(domain.CaptionUpdatedEvent)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.ID != ev.Caption.TrackID || ev.Caption.Seq != c.captionSeq {
		c.logger.Debug("caption for stale track ignored",
			slog.String("track_id", ev.Caption.TrackID), slog.Uint64("seq", ev.Caption.Seq))
		return
	}
	c.caption = ev.Caption
}

// setCurrentLocked makes track current and queues the change event and
// the caption request for it.
func (c *SessionController) setCurrentLocked(track domain.Track, playing bool) {
	var previous *domain.Track
	if c.current != nil {
		previous = ptr(*c.current)
		c.pushHistoryLocked(*c.current)
	}
	c.current = ptr(track)
	c.playing = playing
	c.progress = 0
	c.duration = track.Duration
	c.emitLocked(domain.NewTrackChangedEvent(track, previous, playing))
	c.requestCaptionLocked(track)
}

func (c *SessionController) rewindLocked() {
	c.progress = 0
	c.emitLocked(
		domain.NewSeekRequestedEvent(0),
		domain.NewTrackProgressEvent(0, c.duration),
	)
}

func (c *SessionController) pushHistoryLocked(t domain.Track) {
	c.history = append([]domain.Track{t}, c.history...)
	if len(c.history) > c.historyLimit {
		c.history = c.history[:c.historyLimit]
	}
}

func (c *SessionController) browseEventLocked() domain.Event {
	return domain.NewBrowseChangedEvent(c.view, c.query, c.scope, c.selectedID)
}

// currentIndexLocked returns the queue index of the current track, or -1.
func (c *SessionController) currentIndexLocked() int {
	if c.current == nil {
		return -1
	}
	id := c.current.ID
	return slices.IndexFunc(c.queue, func(t domain.Track) bool { return t.ID == id })
}

func (c *SessionController) queuedLocked(id string) bool {
	return lo.ContainsBy(c.queue, func(t domain.Track) bool { return t.ID == id })
}

// requestCaptionLocked assigns the next caption seq to track and queues the
// lookup. The seq changes in the same critical section as the current track,
// so only the lookup for the current track can ever be applied.
func (c *SessionController) requestCaptionLocked(track domain.Track) {
	c.captionSeq++
	seq := c.captionSeq
	c.caption = domain.Caption{TrackID: track.ID, Seq: seq}
	switch {
	case track.IsLocal:
		c.caption.Status = domain.CaptionReady
		c.caption.Text = domain.LocalCaption
	case c.captions != nil:
		c.caption.Status = domain.CaptionLoading
	}
	if c.captions != nil {
		c.outbox = append(c.outbox, func() { c.captions.Request(track, seq) })
	}
}

func (c *SessionController) clearCaptionLocked() {
	c.captionSeq++
	seq := c.captionSeq
	c.caption = domain.Caption{Seq: seq}
	if c.captions != nil {
		c.outbox = append(c.outbox, func() { c.captions.Clear(seq) })
	}
}

func (c *SessionController) emitLocked(events ...domain.Event) {
	for _, e := range events {
		c.outbox = append(c.outbox, func() { c.bus.Publish(e) })
	}
}

// unlockAndFlush releases mu and runs the queued side effects. If another
// goroutine (or an outer call on this one) is already flushing, it picks the
// new entries up and this call returns at once.
func (c *SessionController) unlockAndFlush() {
	if c.flushing {
		c.mu.Unlock()
		return
	}
	c.flushing = true
	for len(c.outbox) > 0 {
		batch := c.outbox
		c.outbox = nil
		c.mu.Unlock()
		for _, run := range batch {
			run()
		}
		c.mu.Lock()
	}
	c.flushing = false
	c.mu.Unlock()
}

func ptr[T any](v T) *T {
	return &v
}

// Verify that SessionController implements the expected interface patterns
var _ interface {
	SelectTrack(domain.Track)
	SelectTrackByID(string) error
	Advance()
	Retreat()
	ToggleShuffle()
	CycleRepeat()
	RemoveFromQueue(string) bool
	IngestLocalTracks([]domain.Track) []domain.Track
	FilterCatalog(string, domain.SearchScope, domain.View) iter.Seq[domain.Track]
	State() domain.SessionState
} = (*SessionController)(nil)
