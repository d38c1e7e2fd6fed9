// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the Siray playback session.
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Track represents a single playable item in the catalog or queue.
// Tracks are immutable once loaded and are identified by ID.
type Track struct {
	// ID is the unique identifier of the track
	ID string `json:"id"`

	// Title is the song title
	Title string `json:"title"`

	// Artist is the performing artist name
	Artist string `json:"artist"`

	// Album is the album name
	Album string `json:"album"`

	// CoverURL references the cover artwork
	CoverURL string `json:"cover_url,omitempty"`

	// Duration is the nominal length of the track
	Duration time.Duration `json:"duration"`

	// Genre is the optional music genre
	Genre string `json:"genre,omitempty"`

	// Lyrics are optional embedded lyrics
	Lyrics string `json:"lyrics,omitempty"`

	// Accent is the theming accent used by the presentation layer
	Accent string `json:"accent,omitempty"`

	// Source tells the media transport where to find the audio
	Source TrackSource `json:"source"`

	// IsLocal is true for tracks supplied by the user rather than the catalog
	IsLocal bool `json:"is_local,omitempty"`
}

// TrackSource is the playback source reference of a track.
// Exactly one of ExternalID or LocalPath is expected to be set.
type TrackSource struct {
	// ExternalID identifies the track on a remote media provider
	ExternalID string `json:"external_id,omitempty"`

	// LocalPath is the filesystem path of a user-supplied file
	LocalPath string `json:"local_path,omitempty"`
}

// RepeatMode is the tri-state repeat setting of the session.
type RepeatMode int

const (
	// RepeatNone plays through the queue once
	RepeatNone RepeatMode = iota

	// RepeatAll loops the whole queue
	RepeatAll

	// RepeatOne loops the current track
	RepeatOne
)

// Next returns the following mode in the fixed cycle none -> all -> one -> none.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

// String returns a human-readable representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "none"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// ParseRepeatMode converts "none", "all" or "one" into a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off", "":
		return RepeatNone, nil
	case "all":
		return RepeatAll, nil
	case "one", "track":
		return RepeatOne, nil
	default:
		return RepeatNone, NewValidationError("repeat", s, "must be one of none, all, one")
	}
}

// SearchScope selects which fields a search query is matched against.
type SearchScope string

const (
	ScopeAll     SearchScope = "all"
	ScopeSongs   SearchScope = "songs"
	ScopeArtists SearchScope = "artists"
	ScopeAlbums  SearchScope = "albums"
)

// ParseSearchScope validates a scope name. An empty string maps to ScopeAll.
func ParseSearchScope(s string) (SearchScope, error) {
	switch scope := SearchScope(strings.ToLower(strings.TrimSpace(s))); scope {
	case "":
		return ScopeAll, nil
	case ScopeAll, ScopeSongs, ScopeArtists, ScopeAlbums:
		return scope, nil
	default:
		return ScopeAll, NewValidationError("scope", s, "must be one of all, songs, artists, albums")
	}
}

// View is the screen the presentation layer is currently showing.
type View string

const (
	ViewHome     View = "home"
	ViewSearch   View = "search"
	ViewLibrary  View = "library"
	ViewPlaylist View = "playlist"
	ViewArtist   View = "artist"
	ViewAlbum    View = "album"
)

// ParseView validates a view name. An empty string maps to ViewHome.
func ParseView(s string) (View, error) {
	switch view := View(strings.ToLower(strings.TrimSpace(s))); view {
	case "":
		return ViewHome, nil
	case ViewHome, ViewSearch, ViewLibrary, ViewPlaylist, ViewArtist, ViewAlbum:
		return view, nil
	default:
		return ViewHome, NewValidationError("view", s, "unknown view")
	}
}

// SessionState is a point-in-time snapshot of the playback session.
// Snapshots are copies; mutating one never affects the controller.
type SessionState struct {
	CurrentTrack *Track        `json:"current_track"`
	Playing      bool          `json:"playing"`
	Shuffle      bool          `json:"shuffle"`
	Repeat       RepeatMode    `json:"repeat"`
	Progress     time.Duration `json:"progress"`
	Duration     time.Duration `json:"duration"`
	Volume       float64       `json:"volume"`
	Muted        bool          `json:"muted"`
	Queue        []Track       `json:"queue"`
	History      []Track       `json:"history"`
	Query        string        `json:"query"`
	Scope        SearchScope   `json:"scope"`
	View         View          `json:"view"`

	// SelectedID is the album or artist name shown by the album/artist views
	SelectedID string `json:"selected_id,omitempty"`

	Caption Caption `json:"caption"`
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s SessionState) ProgressPercent() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Progress) / float64(s.Duration) * 100
}

// ParseClock parses "m:ss" or "h:mm:ss" durations as used by catalog listings.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock duration %q", s)
	}

	var total time.Duration
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid clock duration %q", s)
		}
		total = total*60 + time.Duration(n)
	}
	return total * time.Second, nil
}

// FormatClock renders a duration as m:ss.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
