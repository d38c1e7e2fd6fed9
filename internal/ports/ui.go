package ports

import (
	"iter"

	"github.com/siraymusic/siray/internal/domain"
)

// View is the rendering side of the presentation layer.
// A presenter translates domain events into these calls; views never talk to
// the session controller directly.
type View interface {
	// ShowNowPlaying renders the current track line, play state and caption.
	ShowNowPlaying(state domain.SessionState)

	// ShowProgress renders the progress bar.
	ShowProgress(position, duration float64)

	// ShowQueue renders the queue, highlighting the current track.
	ShowQueue(queue []domain.Track, currentID string)

	// ShowTracks renders a browse or search result list.
	ShowTracks(title string, tracks iter.Seq[domain.Track])

	// ShowModes renders the shuffle, repeat, volume and mute indicators.
	ShowModes(shuffle bool, repeat domain.RepeatMode, volume float64, muted bool)

	// ShowError renders a non-fatal error.
	ShowError(err error)
}
