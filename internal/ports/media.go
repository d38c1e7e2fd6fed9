package ports

import (
	"time"

	"github.com/siraymusic/siray/internal/domain"
)

// TransportStatus is the state reported by a media transport.
type TransportStatus int

const (
	// TransportIdle means nothing is loaded
	TransportIdle TransportStatus = iota

	// TransportPlaying means the loaded media is playing
	TransportPlaying

	// TransportPaused means the loaded media is paused
	TransportPaused

	// TransportEnded means the loaded media played to its end
	TransportEnded
)

// String returns a human-readable representation of the transport status.
func (s TransportStatus) String() string {
	switch s {
	case TransportIdle:
		return "idle"
	case TransportPlaying:
		return "playing"
	case TransportPaused:
		return "paused"
	case TransportEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// MediaTransport is the external playback primitive the session orchestrates.
// The session never decodes audio; it only tells a transport what to do and
// polls it for progress.
//
// Thread-safety: Implementations must be thread-safe.
type MediaTransport interface {
	// Load replaces the current media with track and returns its duration.
	// The transport is paused at position zero after Load.
	Load(track domain.Track) (time.Duration, error)

	// Play starts or resumes the loaded media.
	Play() error

	// Pause pauses the loaded media, keeping its position.
	Pause() error

	// Seek moves the playback position. It must be within [0, duration].
	Seek(position time.Duration) error

	// SetVolume sets the output level (0.0 to 1.0).
	SetVolume(volume float64) error

	// Status returns the transport state.
	Status() TransportStatus

	// Position returns the current position and the loaded media's duration.
	Position() (position, duration time.Duration)

	// Close releases the transport.
	Close() error
}
