// Package domain defines events for the event-driven architecture.
// Events let the presentation layer and the playback driver observe the session
// without the controller knowing about them.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventTrackChanged     EventType = "track.changed"
	EventPlayStateChanged EventType = "track.play_state"
	EventTrackProgress    EventType = "track.progress"
	EventSeekRequested    EventType = "track.seek"
	EventTrackError       EventType = "track.error"

	// Volume events
	EventVolumeChanged EventType = "volume.changed"
	EventMuteToggled   EventType = "mute.toggled"

	// Playback mode events
	EventShuffleToggled EventType = "shuffle.toggled"
	EventRepeatChanged  EventType = "repeat.changed"

	// Queue and catalog events
	EventQueueChanged        EventType = "queue.changed"
	EventLocalTracksIngested EventType = "catalog.local_ingested"
	EventBrowseChanged       EventType = "browse.changed"
	EventCaptionUpdated      EventType = "caption.updated"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackChangedEvent is published when the current track changes.
type TrackChangedEvent struct {
	baseEvent
	Track    Track
	Previous *Track
	Playing  bool
}

// Type returns the event type.
func (e TrackChangedEvent) Type() EventType {
	return EventTrackChanged
}

// NewTrackChangedEvent creates a new TrackChangedEvent.
func NewTrackChangedEvent(track Track, previous *Track, playing bool) TrackChangedEvent {
	return TrackChangedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Previous:  previous,
		Playing:   playing,
	}
}

// PlayStateChangedEvent is published when playback starts, pauses or stops
// without the current track changing. Track is nil when the session has no track.
type PlayStateChangedEvent struct {
	baseEvent
	Track   *Track
	Playing bool
}

// Type returns the event type.
func (e PlayStateChangedEvent) Type() EventType {
	return EventPlayStateChanged
}

// NewPlayStateChangedEvent creates a new PlayStateChangedEvent.
func NewPlayStateChangedEvent(track *Track, playing bool) PlayStateChangedEvent {
	return PlayStateChangedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Playing:   playing,
	}
}

// TrackProgressEvent is published on every progress tick.
type TrackProgressEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e TrackProgressEvent) Type() EventType {
	return EventTrackProgress
}

// NewTrackProgressEvent creates a new TrackProgressEvent.
func NewTrackProgressEvent(position, duration time.Duration) TrackProgressEvent {
	return TrackProgressEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// SeekRequestedEvent asks the media transport to move to Position.
// The controller publishes it for user seeks and for repeat-one restarts.
type SeekRequestedEvent struct {
	baseEvent
	Position time.Duration
}

// Type returns the event type.
func (e SeekRequestedEvent) Type() EventType {
	return EventSeekRequested
}

// NewSeekRequestedEvent creates a new SeekRequestedEvent.
func NewSeekRequestedEvent(position time.Duration) SeekRequestedEvent {
	return SeekRequestedEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
	}
}

// TrackErrorEvent is published when the media transport cannot handle a track.
type TrackErrorEvent struct {
	baseEvent
	Track Track
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Error:     err,
	}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64 // 0.0 to 1.0
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// MuteToggledEvent is published when mute is toggled.
type MuteToggledEvent struct {
	baseEvent
	Muted bool
}

// Type returns the event type.
func (e MuteToggledEvent) Type() EventType {
	return EventMuteToggled
}

// NewMuteToggledEvent creates a new MuteToggledEvent.
func NewMuteToggledEvent(muted bool) MuteToggledEvent {
	return MuteToggledEvent{
		baseEvent: newBaseEvent(),
		Muted:     muted,
	}
}

// ShuffleToggledEvent is published when shuffle is toggled.
type ShuffleToggledEvent struct {
	baseEvent
	Enabled bool
}

// Type returns the event type.
func (e ShuffleToggledEvent) Type() EventType {
	return EventShuffleToggled
}

// NewShuffleToggledEvent creates a new ShuffleToggledEvent.
func NewShuffleToggledEvent(enabled bool) ShuffleToggledEvent {
	return ShuffleToggledEvent{
		baseEvent: newBaseEvent(),
		Enabled:   enabled,
	}
}

// RepeatChangedEvent is published when the repeat mode changes.
type RepeatChangedEvent struct {
	baseEvent
	Mode RepeatMode
}

// Type returns the event type.
func (e RepeatChangedEvent) Type() EventType {
	return EventRepeatChanged
}

// NewRepeatChangedEvent creates a new RepeatChangedEvent.
func NewRepeatChangedEvent(mode RepeatMode) RepeatChangedEvent {
	return RepeatChangedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
	}
}

// QueueChangedEvent is published when the queue changes.
type QueueChangedEvent struct {
	baseEvent
	Queue []Track
}

// Type returns the event type.
func (e QueueChangedEvent) Type() EventType {
	return EventQueueChanged
}

// NewQueueChangedEvent creates a new QueueChangedEvent.
func NewQueueChangedEvent(queue []Track) QueueChangedEvent {
	return QueueChangedEvent{
		baseEvent: newBaseEvent(),
		Queue:     queue,
	}
}

// LocalTracksIngestedEvent is published after a batch of local tracks was ingested.
// Added holds only the tracks that were not already queued.
type LocalTracksIngestedEvent struct {
	baseEvent
	Added []Track
}

// Type returns the event type.
func (e LocalTracksIngestedEvent) Type() EventType {
	return EventLocalTracksIngested
}

// NewLocalTracksIngestedEvent creates a new LocalTracksIngestedEvent.
func NewLocalTracksIngestedEvent(added []Track) LocalTracksIngestedEvent {
	return LocalTracksIngestedEvent{
		baseEvent: newBaseEvent(),
		Added:     added,
	}
}

// BrowseChangedEvent is published when the query, scope or view changes.
type BrowseChangedEvent struct {
	baseEvent
	View       View
	Query      string
	Scope      SearchScope
	SelectedID string
}

// Type returns the event type.
func (e BrowseChangedEvent) Type() EventType {
	return EventBrowseChanged
}

// NewBrowseChangedEvent creates a new BrowseChangedEvent.
func NewBrowseChangedEvent(view View, query string, scope SearchScope, selectedID string) BrowseChangedEvent {
	return BrowseChangedEvent{
		baseEvent:  newBaseEvent(),
		View:       view,
		Query:      query,
		Scope:      scope,
		SelectedID: selectedID,
	}
}

// CaptionUpdatedEvent is published when the caption for the current track changes state.
type CaptionUpdatedEvent struct {
	baseEvent
	Caption Caption
}

// Type returns the event type.
func (e CaptionUpdatedEvent) Type() EventType {
	return EventCaptionUpdated
}

// NewCaptionUpdatedEvent creates a new CaptionUpdatedEvent.
func NewCaptionUpdatedEvent(caption Caption) CaptionUpdatedEvent {
	return CaptionUpdatedEvent{
		baseEvent: newBaseEvent(),
		Caption:   caption,
	}
}
