// Package catalog provides the track catalogs the session browses:
// the built-in sample catalog, user-supplied local tracks, a tag importer for
// audio files and a folder watcher feeding new files into the session.
package catalog

import (
	"time"

	"github.com/siraymusic/siray/internal/domain"
)

func clock(s string) time.Duration {
	d, err := domain.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return d
}

// SampleTracks returns the built-in catalog in display order.
// Every call returns a fresh slice.
func SampleTracks() []domain.Track {
	return []domain.Track{
		{
			ID:       "1",
			Title:    "Midnight City",
			Artist:   "M83",
			Album:    "Hurry Up, We're Dreaming",
			CoverURL: "https://images.unsplash.com/photo-1493225457124-a3eb161ffa5f?w=600&h=600&fit=crop",
			Duration: clock("3:45"),
			Accent:   "from-[#ff2e63] to-purple-900",
			Source:   domain.TrackSource{ExternalID: "dX3k_UAnyS8"},
		},
		{
			ID:       "2",
			Title:    "Blinding Lights",
			Artist:   "The Weeknd",
			Album:    "After Hours",
			CoverURL: "https://images.unsplash.com/photo-1470225620780-dba8ba36b745?w=600&h=600&fit=crop",
			Duration: clock("3:22"),
			Accent:   "from-red-600 to-black",
			Source:   domain.TrackSource{ExternalID: "4NRXx6U8ABQ"},
		},
		{
			ID:       "3",
			Title:    "Levitating",
			Artist:   "Dua Lipa",
			Album:    "Future Nostalgia",
			CoverURL: "https://images.unsplash.com/photo-1511379938547-c1f69419868d?w=600&h=600&fit=crop",
			Duration: clock("3:24"),
			Accent:   "from-[#08d9d6] to-blue-900",
			Source:   domain.TrackSource{ExternalID: "TUVcZfQe-Kw"},
		},
		{
			ID:       "4",
			Title:    "Stay",
			Artist:   "The Kid LAROI, Justin Bieber",
			Album:    "Stay Single",
			CoverURL: "https://images.unsplash.com/photo-1518609878373-06d740f60d8b?w=600&h=600&fit=crop",
			Duration: clock("2:21"),
			Accent:   "from-blue-600 to-black",
			Source:   domain.TrackSource{ExternalID: "kTJczUoc26U"},
		},
		{
			ID:       "5",
			Title:    "Bad Habits",
			Artist:   "Ed Sheeran",
			Album:    "=",
			CoverURL: "https://images.unsplash.com/photo-1511671782779-c97d3d27a1d4?w=600&h=600&fit=crop",
			Duration: clock("3:50"),
			Accent:   "from-yellow-600 to-red-900",
			Source:   domain.TrackSource{ExternalID: "orJSJGHjBLI"},
		},
	}
}
