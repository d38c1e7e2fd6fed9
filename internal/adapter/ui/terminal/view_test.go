package terminal

import (
	"bytes"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/siraymusic/siray/internal/domain"
)

func sampleTrack() domain.Track {
	return domain.Track{ID: "1", Title: "Midnight City", Artist: "M83", Album: "Hurry Up, We're Dreaming", Duration: 4*time.Minute + 3*time.Second}
}

func TestView_NowPlaying(t *testing.T) {
	var buf bytes.Buffer
	v := NewView(&buf)

	tr := sampleTrack()
	v.ShowNowPlaying(domain.SessionState{
		CurrentTrack: &tr,
		Playing:      true,
		Caption:      domain.Caption{TrackID: "1", Status: domain.CaptionReady, Text: "Neon skylines."},
	})

	out := buf.String()
	assert.Contains(t, out, "▶")
	assert.Contains(t, out, "Midnight City")
	assert.Contains(t, out, "M83")
	assert.Contains(t, out, "Neon skylines.")
}

func TestView_NowPlayingCaptionStates(t *testing.T) {
	tr := sampleTrack()
	tests := []struct {
		name    string
		caption domain.Caption
		want    string
		absent  string
	}{
		{name: "loading", caption: domain.Caption{TrackID: "1", Status: domain.CaptionLoading}, want: "fetching caption"},
		{name: "failed", caption: domain.Caption{TrackID: "1", Status: domain.CaptionFailed, Err: errors.New("offline")}, want: "no caption: offline"},
		{name: "other track", caption: domain.Caption{TrackID: "2", Status: domain.CaptionReady, Text: "stale"}, absent: "stale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewView(&buf).ShowNowPlaying(domain.SessionState{CurrentTrack: &tr, Caption: tt.caption})
			if tt.want != "" {
				assert.Contains(t, buf.String(), tt.want)
			}
			if tt.absent != "" {
				assert.NotContains(t, buf.String(), tt.absent)
			}
			assert.Contains(t, buf.String(), "❚❚")
		})
	}
}

func TestView_NothingQueued(t *testing.T) {
	var buf bytes.Buffer
	NewView(&buf).ShowNowPlaying(domain.SessionState{})
	assert.Contains(t, buf.String(), "nothing queued")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "0:30 [=====     ] 1:00", ProgressBar(30, 60, 10))
	assert.Equal(t, "0:00 [          ] 0:00", ProgressBar(0, 0, 10))
	assert.Equal(t, "2:00 [==========] 1:00", ProgressBar(120, 60, 10))
}

func TestView_Queue(t *testing.T) {
	var buf bytes.Buffer
	v := NewView(&buf)

	queue := []domain.Track{sampleTrack(), {ID: "2", Title: "Blinding Lights", Artist: "The Weeknd"}}
	v.ShowQueue(queue, "2")

	out := buf.String()
	assert.Contains(t, out, "Queue")
	assert.Contains(t, out, "Midnight City")
	assert.Contains(t, out, "Blinding Lights")
	assert.Contains(t, out, "4:03")

	buf.Reset()
	v.ShowQueue(nil, "")
	assert.Contains(t, buf.String(), "queue is empty")
}

func TestView_Tracks(t *testing.T) {
	var buf bytes.Buffer
	v := NewView(&buf)

	v.ShowTracks("Artist: M83", slices.Values([]domain.Track{sampleTrack()}))
	assert.Contains(t, buf.String(), "Artist: M83")
	assert.Contains(t, buf.String(), "Midnight City")

	buf.Reset()
	v.ShowTracks("Search", slices.Values([]domain.Track(nil)))
	assert.Contains(t, buf.String(), "Search: no matches")
}

func TestView_ModesAndErrors(t *testing.T) {
	var buf bytes.Buffer
	v := NewView(&buf)

	v.ShowModes(false, domain.RepeatAll, 0.8, false)
	assert.Contains(t, buf.String(), "shuffle off")
	assert.Contains(t, buf.String(), "repeat all")
	assert.Contains(t, buf.String(), "vol 80%")

	buf.Reset()
	v.ShowModes(true, domain.RepeatNone, 0.5, true)
	assert.Contains(t, buf.String(), "(muted)")

	buf.Reset()
	v.ShowError(errors.New("boom"))
	assert.Contains(t, buf.String(), "error: boom")

	buf.Reset()
	v.ShowError(nil)
	assert.Empty(t, buf.String())
}
