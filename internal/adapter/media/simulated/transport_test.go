package simulated

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/ports"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTransport() (*Transport, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr := NewTransport(nil)
	tr.SetClock(clock.now)
	return tr, clock
}

func remoteTrack(d time.Duration) domain.Track {
	return domain.Track{ID: "1", Title: "Song", Duration: d, Source: domain.TrackSource{ExternalID: "abc"}}
}

func TestTransport_Load(t *testing.T) {
	tr, _ := newTestTransport()

	assert.Equal(t, ports.TransportIdle, tr.Status())
	assert.ErrorIs(t, tr.Play(), domain.ErrNotLoaded)

	d, err := tr.Load(remoteTrack(2 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d)
	assert.Equal(t, ports.TransportPaused, tr.Status())
	require.NotNil(t, tr.Loaded())
	assert.Equal(t, "1", tr.Loaded().ID)

	d, err = tr.Load(domain.Track{ID: "local", Source: domain.TrackSource{LocalPath: "/a.mp3"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultDuration, d)

	_, err = tr.Load(domain.Track{ID: "nosource"})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestTransport_PlayPauseProgress(t *testing.T) {
	tr, clock := newTestTransport()
	_, err := tr.Load(remoteTrack(time.Minute))
	require.NoError(t, err)

	require.NoError(t, tr.Play())
	clock.advance(10 * time.Second)
	pos, dur := tr.Position()
	assert.Equal(t, 10*time.Second, pos)
	assert.Equal(t, time.Minute, dur)

	require.NoError(t, tr.Pause())
	clock.advance(30 * time.Second)
	pos, _ = tr.Position()
	assert.Equal(t, 10*time.Second, pos)
	assert.Equal(t, ports.TransportPaused, tr.Status())

	require.NoError(t, tr.Play())
	clock.advance(5 * time.Second)
	pos, _ = tr.Position()
	assert.Equal(t, 15*time.Second, pos)
}

func TestTransport_Ends(t *testing.T) {
	tr, clock := newTestTransport()
	_, err := tr.Load(remoteTrack(time.Minute))
	require.NoError(t, err)
	require.NoError(t, tr.Play())

	clock.advance(2 * time.Minute)
	assert.Equal(t, ports.TransportEnded, tr.Status())
	pos, _ := tr.Position()
	assert.Equal(t, time.Minute, pos)

	// playing again after the end restarts from zero
	require.NoError(t, tr.Play())
	clock.advance(time.Second)
	pos, _ = tr.Position()
	assert.Equal(t, time.Second, pos)
}

func TestTransport_Seek(t *testing.T) {
	tr, clock := newTestTransport()
	_, err := tr.Load(remoteTrack(time.Minute))
	require.NoError(t, err)
	require.NoError(t, tr.Play())
	clock.advance(20 * time.Second)

	require.NoError(t, tr.Seek(5*time.Second))
	clock.advance(time.Second)
	pos, _ := tr.Position()
	assert.Equal(t, 6*time.Second, pos)

	assert.ErrorIs(t, tr.Seek(-time.Second), domain.ErrInvalidPosition)
	assert.ErrorIs(t, tr.Seek(2*time.Minute), domain.ErrInvalidPosition)

	clock.advance(time.Hour)
	require.Equal(t, ports.TransportEnded, tr.Status())
	require.NoError(t, tr.Seek(0))
	assert.Equal(t, ports.TransportPaused, tr.Status())
}

func TestTransport_Volume(t *testing.T) {
	tr, _ := newTestTransport()
	assert.InDelta(t, 1.0, tr.Volume(), 0.0001)
	require.NoError(t, tr.SetVolume(0.25))
	assert.InDelta(t, 0.25, tr.Volume(), 0.0001)
	assert.ErrorIs(t, tr.SetVolume(1.5), domain.ErrInvalidVolume)
}

func TestTransport_Failures(t *testing.T) {
	tr, _ := newTestTransport()

	tr.SetFailLoad(true)
	_, err := tr.Load(remoteTrack(time.Minute))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	tr.SetFailLoad(false)
	_, err = tr.Load(remoteTrack(time.Minute))
	require.NoError(t, err)
	tr.SetFailPlay(true)
	assert.Error(t, tr.Play())
}

func TestTransport_Close(t *testing.T) {
	tr, _ := newTestTransport()
	_, err := tr.Load(remoteTrack(time.Minute))
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	assert.ErrorIs(t, tr.Close(), domain.ErrClosed)
	assert.ErrorIs(t, tr.Play(), domain.ErrClosed)
	_, err = tr.Load(remoteTrack(time.Minute))
	assert.ErrorIs(t, err, domain.ErrClosed)
	assert.Nil(t, tr.Loaded())
}
