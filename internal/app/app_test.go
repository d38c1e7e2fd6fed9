package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/logger"
	"github.com/siraymusic/siray/internal/testutil"
)

func testConfig() Config {
	config := DefaultConfig()
	config.Logger = logger.NewTestLogger()
	config.Playback.TickMS = 10
	return config
}

func TestNewApplication(t *testing.T) {
	app, err := NewApplication(testConfig())
	require.NoError(t, err)
	require.NotNil(t, app)

	assert.NotNil(t, app.EventBus())
	assert.NotNil(t, app.Session())
	assert.NotNil(t, app.Dispatcher())
	assert.Len(t, app.Library().Catalog(), 5)
	assert.Nil(t, app.Watcher(), "no watch dir configured")

	assert.NoError(t, app.Shutdown())
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	config := testConfig()
	config.Caption.TimeoutMS = 0

	_, err := NewApplication(config)
	assert.ErrorContains(t, err, "caption.timeout_ms")
}

func TestApplicationLifecycle(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	app, err := NewApplication(testConfig())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	require.NoError(t, app.Start(ctx))

	// the offline caption service resolves the initial track
	require.Eventually(t, func() bool {
		return app.Session().State().Caption.Status == domain.CaptionReady
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, app.Dispatcher().Dispatch(ctx, domain.NewIntent(domain.IntentPlay)))
	require.Eventually(t, func() bool {
		return app.Session().State().Progress > 0
	}, 2*time.Second, 5*time.Millisecond)

	assert.NoError(t, app.Shutdown())
	assert.NoError(t, app.Shutdown(), "shutdown again should not fail")
}

func TestApplication_WatchDirImport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Demo.mp3"), []byte("x"), 0o644))

	config := testConfig()
	config.Library.WatchDir = dir

	app, err := NewApplication(config)
	require.NoError(t, err)
	defer func() { _ = app.Shutdown() }()

	require.NoError(t, app.Start(context.Background()))

	local := app.Library().LocalTracks()
	require.Len(t, local, 1)
	assert.Equal(t, "Demo", local[0].Title)
	assert.Equal(t, "1", app.Session().State().CurrentTrack.ID, "startup import leaves the session alone")
	assert.NotNil(t, app.Watcher())
}

func TestApplication_HubWiring(t *testing.T) {
	app, err := NewApplication(testConfig())
	require.NoError(t, err)
	defer func() { _ = app.Shutdown() }()

	hub := app.NewHub()
	defer hub.Close()
	assert.Zero(t, hub.Clients())
}
