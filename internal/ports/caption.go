package ports

import (
	"context"
)

// CaptionService produces a short descriptive text for a track.
// Implementations may call remote services and may fail; callers never retry.
type CaptionService interface {
	// Describe returns a caption for the track identified by title and artist.
	// It must honour ctx cancellation.
	Describe(ctx context.Context, title, artist string) (string, error)
}
