// Package ports define interfaces for dependency inversion.
// These interfaces keep the session core independent of catalogs, caption
// services, media players and presentation frameworks.
package ports

import (
	"context"

	"github.com/siraymusic/siray/internal/domain"
)

// CatalogProvider supplies the tracks the session can browse and play.
//
// Thread-safety: Implementations must be thread-safe.
type CatalogProvider interface {
	// Catalog returns the default (sample) catalog in display order.
	Catalog() []domain.Track

	// LocalTracks returns user-supplied tracks, most recently added first.
	LocalTracks() []domain.Track

	// AddLocal records user-supplied tracks. Tracks whose ID is already known
	// are ignored. Returns the tracks that were actually added, in input order.
	AddLocal(tracks ...domain.Track) []domain.Track

	// Lookup finds a track by ID across the local and default catalogs.
	Lookup(id string) (domain.Track, bool)
}

// TrackImporter turns user-supplied files into local tracks.
// Format and validation rules belong to the implementation.
type TrackImporter interface {
	// ImportFiles imports the given files in order. Tracks that imported are
	// returned even when others failed.
	ImportFiles(paths []string) ([]domain.Track, error)

	// ImportDir imports every supported file below dir.
	ImportDir(ctx context.Context, dir string) ([]domain.Track, error)
}
