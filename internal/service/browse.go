package service

import (
	"iter"
	"strings"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/ports"
)

// FilterTracks returns a lazy, restartable sequence over the catalog for the
// given view, filtered by query within scope.
//
// The library view reads local tracks followed by the default catalog; every
// other view reads the default catalog only. Matching is a case-insensitive
// substring test: title or artist for the all and songs scopes, artist for
// artists, album for albums. An empty query yields the unfiltered list.
//
// Each iteration reads the catalog afresh, so the sequence always reflects
// the current catalog contents.
func FilterTracks(catalog ports.CatalogProvider, query string, scope domain.SearchScope, view domain.View) iter.Seq[domain.Track] {
	source := catalog.Catalog
	if view == domain.ViewLibrary {
		source = func() []domain.Track {
			return append(catalog.LocalTracks(), catalog.Catalog()...)
		}
	}
	if query == "" {
		return seqWhere(source, nil)
	}
	return seqWhere(source, matcher(strings.ToLower(query), scope))
}

func matcher(needle string, scope domain.SearchScope) func(domain.Track) bool {
	has := func(field string) bool {
		return strings.Contains(strings.ToLower(field), needle)
	}
	switch scope {
	case domain.ScopeArtists:
		return func(t domain.Track) bool { return has(t.Artist) }
	case domain.ScopeAlbums:
		return func(t domain.Track) bool { return has(t.Album) }
	default:
		return func(t domain.Track) bool { return has(t.Title) || has(t.Artist) }
	}
}

// seqWhere yields the tracks of source() accepted by keep. A nil keep accepts all.
func seqWhere(source func() []domain.Track, keep func(domain.Track) bool) iter.Seq[domain.Track] {
	return func(yield func(domain.Track) bool) {
		for _, t := range source() {
			if keep != nil && !keep(t) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}
