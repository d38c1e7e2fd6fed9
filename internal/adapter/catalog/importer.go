package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/siraymusic/siray/internal/domain"
)

// localNamespace seeds the name-based UUIDs of local files, so the same path
// always maps to the same track id.
var localNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://siray.music/local"))

// DefaultExtensions lists the audio formats accepted for local import.
var DefaultExtensions = []string{
	".mp3", ".m4a", ".m4b", ".mp4", ".aac",
	".flac", ".ogg", ".oga", ".opus", ".wav",
}

// Importer turns local audio files into tracks, reading embedded tags where present.
type Importer struct {
	logger *slog.Logger
	exts   []string
}

// NewImporter creates an importer accepting the given extensions.
// With no extensions, DefaultExtensions is used.
func NewImporter(logger *slog.Logger, exts ...string) *Importer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	normalized := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		normalized = append(normalized, e)
	}
	return &Importer{
		logger: logger.With(slog.String("component", "importer")),
		exts:   normalized,
	}
}

// IsSupported reports whether path has an accepted audio extension.
func (im *Importer) IsSupported(path string) bool {
	return slices.Contains(im.exts, strings.ToLower(filepath.Ext(path)))
}

// LocalID returns the stable track id for a local file path.
func LocalID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "local-" + uuid.NewSHA1(localNamespace, []byte(filepath.Clean(path))).String()
}

// ImportFile reads one audio file into a local track.
// Files without readable tags are still imported, titled after the file name.
func (im *Importer) ImportFile(path string) (domain.Track, error) {
	if path == "" {
		return domain.Track{}, domain.ErrInvalidFilePath
	}
	if !im.IsSupported(path) {
		return domain.Track{}, fmt.Errorf("%s: %w", path, domain.ErrUnsupportedFormat)
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.Track{}, fmt.Errorf("%s: %w", path, errors.Join(domain.ErrInvalidFilePath, err))
	}
	if info.IsDir() {
		return domain.Track{}, fmt.Errorf("%s is a directory: %w", path, domain.ErrInvalidFilePath)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	base := filepath.Base(abs)
	track := domain.Track{
		ID:      LocalID(abs),
		Title:   strings.TrimSuffix(base, filepath.Ext(base)),
		Artist:  "Local File",
		Album:   "My Uploads",
		Accent:  "from-zinc-700 to-black",
		Source:  domain.TrackSource{LocalPath: abs},
		IsLocal: true,
	}

	im.readTags(&track)
	return track, nil
}

func (im *Importer) readTags(track *domain.Track) {
	f, err := os.Open(track.Source.LocalPath)
	if err != nil {
		im.logger.Debug("cannot open file for tags", slog.String("path", track.Source.LocalPath), slog.String("error", err.Error()))
		return
	}
	defer func() { _ = f.Close() }()

	m, err := tag.ReadFrom(f)
	if err != nil || m == nil {
		im.logger.Debug("no tags found", slog.String("path", track.Source.LocalPath))
		return
	}

	if v := strings.TrimSpace(m.Title()); v != "" {
		track.Title = v
	}
	if v := strings.TrimSpace(m.Artist()); v != "" {
		track.Artist = v
	}
	if v := strings.TrimSpace(m.Album()); v != "" {
		track.Album = v
	}
	track.Genre = strings.TrimSpace(m.Genre())
	track.Lyrics = strings.TrimSpace(m.Lyrics())
}

// ImportFiles imports every supported path in order.
// Unsupported or unreadable files are skipped and reported in the joined error;
// the tracks that did import are always returned.
func (im *Importer) ImportFiles(paths []string) ([]domain.Track, error) {
	tracks := make([]domain.Track, 0, len(paths))
	var errs []error
	for _, p := range paths {
		t, err := im.ImportFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tracks = append(tracks, t)
	}
	return tracks, errors.Join(errs...)
}

// ImportDir walks dir and imports every supported file in lexical order.
func (im *Importer) ImportDir(ctx context.Context, dir string) ([]domain.Track, error) {
	var tracks []domain.Track
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == dir {
				return err
			}
			im.logger.Warn("skipping unreadable entry", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		if d.IsDir() || !im.IsSupported(path) {
			return nil
		}

		t, err := im.ImportFile(path)
		if err != nil {
			im.logger.Warn("skipping file", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		tracks = append(tracks, t)
		return nil
	})
	if err != nil {
		return tracks, fmt.Errorf("import %s: %w", dir, err)
	}
	return tracks, nil
}
