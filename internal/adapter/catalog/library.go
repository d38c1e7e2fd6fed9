package catalog

import (
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/ports"
)

// Library is an in-memory CatalogProvider.
// It holds a fixed default catalog and a growing list of local tracks,
// newest batch first.
type Library struct {
	sample []domain.Track

	mu    sync.RWMutex
	local []domain.Track
}

// NewLibrary creates a library over the given default catalog.
// Duplicate ids in sample keep their first occurrence.
func NewLibrary(sample []domain.Track) *Library {
	return &Library{
		sample: lo.UniqBy(sample, func(t domain.Track) string { return t.ID }),
	}
}

// NewSampleLibrary creates a library over the built-in sample catalog.
func NewSampleLibrary() *Library {
	return NewLibrary(SampleTracks())
}

// Catalog returns a copy of the default catalog.
func (l *Library) Catalog() []domain.Track {
	return slices.Clone(l.sample)
}

// LocalTracks returns a copy of the local tracks, most recent batch first.
func (l *Library) LocalTracks() []domain.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.local)
}

// AddLocal prepends the batch to the local list, keeping the batch order.
// Tracks whose id is already local or part of the default catalog are skipped.
func (l *Library) AddLocal(tracks ...domain.Track) []domain.Track {
	l.mu.Lock()
	defer l.mu.Unlock()

	known := lo.SliceToMap(append(slices.Clone(l.local), l.sample...), func(t domain.Track) (string, struct{}) {
		return t.ID, struct{}{}
	})

	added := make([]domain.Track, 0, len(tracks))
	for _, t := range tracks {
		if _, ok := known[t.ID]; ok || t.ID == "" {
			continue
		}
		known[t.ID] = struct{}{}
		t.IsLocal = true
		added = append(added, t)
	}
	if len(added) > 0 {
		l.local = append(slices.Clone(added), l.local...)
	}
	return added
}

// Lookup finds a track by id, searching local tracks first.
func (l *Library) Lookup(id string) (domain.Track, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	byID := func(t domain.Track) bool { return t.ID == id }
	if t, ok := lo.Find(l.local, byID); ok {
		return t, true
	}
	return lo.Find(l.sample, byID)
}

var _ ports.CatalogProvider = (*Library)(nil)
