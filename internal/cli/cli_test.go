package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siraymusic/siray/internal/domain"
)

func TestBuildConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "siray.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log": {"level": "debug"}, "server": {"listen": ":9000"}}`), 0o600))

	cfg, err := buildConfig(overrides{
		configPath: path,
		captions:   "https://captions.example.com",
		dir:        "/music",
		logLevel:   "error",
	})
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "https://captions.example.com", cfg.Caption.Endpoint)
	assert.Equal(t, "/music", cfg.Library.WatchDir)
	assert.Equal(t, ":9000", cfg.Server.Listen)
}

func TestBuildConfig_Errors(t *testing.T) {
	_, err := buildConfig(overrides{configPath: filepath.Join(t.TempDir(), "missing.json")})
	assert.ErrorContains(t, err, "failed to load config")

	_, err = buildConfig(overrides{captions: "ftp://captions"})
	assert.ErrorContains(t, err, "invalid config")
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp3"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "albums"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.flac"), nil, 0o644))

	got := listFiles("import " + filepath.Join(dir, "a"))
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.mp3"),
		filepath.Join(dir, "albums") + string(filepath.Separator),
	}, got)

	assert.Nil(t, listFiles("import "+filepath.Join(dir, "nope", "x")))
}

func TestRunCatalog(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runCatalog(context.Background(), &CatalogParams{Query: "weeknd", Scope: "artists"}, &out))
	assert.Contains(t, out.String(), "Blinding Lights")
	assert.NotContains(t, out.String(), "Levitating")
}

func TestRunCatalog_JSONWithDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Demo.mp3"), []byte("x"), 0o644))

	var out bytes.Buffer
	require.NoError(t, runCatalog(context.Background(), &CatalogParams{Dir: dir, Scope: "all", JSON: true}, &out))

	var tracks []domain.Track
	require.NoError(t, json.Unmarshal(out.Bytes(), &tracks))
	require.Len(t, tracks, 6)
	assert.Equal(t, "Demo", tracks[0].Title, "local tracks come first in the library view")
}

func TestRunCatalog_BadScope(t *testing.T) {
	var out bytes.Buffer
	err := runCatalog(context.Background(), &CatalogParams{Scope: "genres"}, &out)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}
