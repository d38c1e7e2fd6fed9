package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siraymusic/siray/internal/domain"
)

func localTrack(id, title string) domain.Track {
	return domain.Track{ID: id, Title: title, Artist: "Local File", Source: domain.TrackSource{LocalPath: "/music/" + id + ".mp3"}}
}

func TestSampleTracks(t *testing.T) {
	tracks := SampleTracks()
	require.Len(t, tracks, 5)

	ids := make(map[string]bool)
	for _, tr := range tracks {
		assert.False(t, ids[tr.ID], "duplicate id %s", tr.ID)
		ids[tr.ID] = true
		assert.NotEmpty(t, tr.Source.ExternalID)
		assert.Positive(t, tr.Duration)
		assert.False(t, tr.IsLocal)
	}

	assert.Equal(t, "Blinding Lights", tracks[1].Title)
	assert.Equal(t, "3:22", domain.FormatClock(tracks[1].Duration))

	// fresh slice each call
	tracks[0].Title = "changed"
	assert.Equal(t, "Midnight City", SampleTracks()[0].Title)
}

func TestLibrary_AddLocal(t *testing.T) {
	lib := NewSampleLibrary()

	added := lib.AddLocal(localTrack("a", "A"), localTrack("b", "B"))
	require.Len(t, added, 2)
	assert.True(t, added[0].IsLocal)

	added = lib.AddLocal(localTrack("c", "C"), localTrack("a", "A again"), localTrack("c", "C twice"))
	require.Len(t, added, 1)
	assert.Equal(t, "c", added[0].ID)

	local := lib.LocalTracks()
	ids := make([]string, 0, len(local))
	for _, tr := range local {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids, "newest batch first, batch order kept")
}

func TestLibrary_AddLocal_SkipsCatalogIDs(t *testing.T) {
	lib := NewSampleLibrary()

	added := lib.AddLocal(localTrack("1", "Clash"), domain.Track{Title: "no id"})
	assert.Empty(t, added)
	assert.Empty(t, lib.LocalTracks())
}

func TestLibrary_Lookup(t *testing.T) {
	lib := NewSampleLibrary()
	lib.AddLocal(localTrack("x", "X"))

	tr, ok := lib.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "X", tr.Title)

	tr, ok = lib.Lookup("3")
	require.True(t, ok)
	assert.Equal(t, "Levitating", tr.Title)

	_, ok = lib.Lookup("missing")
	assert.False(t, ok)
}

func TestLibrary_CopiesAreIndependent(t *testing.T) {
	lib := NewSampleLibrary()
	lib.AddLocal(localTrack("x", "X"))

	cat := lib.Catalog()
	cat[0].Title = "mutated"
	local := lib.LocalTracks()
	local[0].Title = "mutated"

	assert.Equal(t, "Midnight City", lib.Catalog()[0].Title)
	assert.Equal(t, "X", lib.LocalTracks()[0].Title)
}

func TestNewLibrary_DedupesSample(t *testing.T) {
	lib := NewLibrary([]domain.Track{{ID: "a", Title: "first"}, {ID: "a", Title: "second"}, {ID: "b"}})
	cat := lib.Catalog()
	require.Len(t, cat, 2)
	assert.Equal(t, "first", cat[0].Title)
}
