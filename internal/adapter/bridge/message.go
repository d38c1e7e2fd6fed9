// Package bridge exposes the playback session to remote presentation clients
// over a websocket. Clients send intents and receive state snapshots.
package bridge

import (
	"iter"
	"slices"

	"github.com/samber/lo"

	"github.com/siraymusic/siray/internal/domain"
)

// Message types sent to clients.
const (
	TypeState    = "state"
	TypeProgress = "progress"
	TypeError    = "error"
)

// cmdState asks the hub for a fresh snapshot without touching the session.
const cmdState = "state"

// inbound is a client request: {"cmd": "next", "args": {...}}.
type inbound struct {
	Cmd  string            `json:"cmd"`
	Args map[string]string `json:"args,omitempty"`
}

// outbound is every message the hub sends.
type outbound struct {
	Type  string     `json:"type"`
	Event string     `json:"event,omitempty"`
	State *stateView `json:"state,omitempty"`

	Position float64 `json:"position,omitempty"`
	Duration float64 `json:"duration,omitempty"`

	Cmd   string `json:"cmd,omitempty"`
	Error string `json:"error,omitempty"`
}

type trackView struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	CoverURL string  `json:"cover_url,omitempty"`
	Duration float64 `json:"duration"`
	Genre    string  `json:"genre,omitempty"`
	Accent   string  `json:"accent,omitempty"`
	Local    bool    `json:"local,omitempty"`
}

type captionView struct {
	TrackID string `json:"track_id,omitempty"`
	Status  string `json:"status"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

type stateView struct {
	Current    *trackView  `json:"current"`
	Playing    bool        `json:"playing"`
	Shuffle    bool        `json:"shuffle"`
	Repeat     string      `json:"repeat"`
	Progress   float64     `json:"progress"`
	Duration   float64     `json:"duration"`
	Percent    float64     `json:"percent"`
	Volume     float64     `json:"volume"`
	Muted      bool        `json:"muted"`
	Query      string      `json:"query"`
	Scope      string      `json:"scope"`
	View       string      `json:"view"`
	SelectedID string      `json:"selected_id,omitempty"`
	Caption    captionView `json:"caption"`
	Queue      []trackView `json:"queue"`
	History    []trackView `json:"history"`
	Visible    []trackView `json:"visible"`
}

func newTrackView(t domain.Track) trackView {
	return trackView{
		ID:       t.ID,
		Title:    t.Title,
		Artist:   t.Artist,
		Album:    t.Album,
		CoverURL: t.CoverURL,
		Duration: t.Duration.Seconds(),
		Genre:    t.Genre,
		Accent:   t.Accent,
		Local:    t.IsLocal,
	}
}

func trackViews(tracks []domain.Track) []trackView {
	return lo.Map(tracks, func(t domain.Track, _ int) trackView { return newTrackView(t) })
}

func newStateView(s domain.SessionState, visible iter.Seq[domain.Track]) *stateView {
	v := &stateView{
		Playing:    s.Playing,
		Shuffle:    s.Shuffle,
		Repeat:     s.Repeat.String(),
		Progress:   s.Progress.Seconds(),
		Duration:   s.Duration.Seconds(),
		Percent:    s.ProgressPercent(),
		Volume:     s.Volume,
		Muted:      s.Muted,
		Query:      s.Query,
		Scope:      string(s.Scope),
		View:       string(s.View),
		SelectedID: s.SelectedID,
		Caption: captionView{
			TrackID: s.Caption.TrackID,
			Status:  s.Caption.Status.String(),
			Text:    s.Caption.Text,
			Error:   s.Caption.Reason(),
		},
		Queue:   trackViews(s.Queue),
		History: trackViews(s.History),
		Visible: []trackView{},
	}
	if s.CurrentTrack != nil {
		cur := newTrackView(*s.CurrentTrack)
		v.Current = &cur
	}
	if visible != nil {
		v.Visible = trackViews(slices.Collect(visible))
	}
	return v
}
