package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/siraymusic/siray/internal/domain"
)

// DefaultSettle is how long a new file must stay quiet before it is imported.
const DefaultSettle = 300 * time.Millisecond

// Watcher imports audio files that appear in a directory and hands each
// settled batch to a sink, typically the session's local ingestion.
type Watcher struct {
	dir      string
	importer *Importer
	sink     func([]domain.Track)
	logger   *slog.Logger
	settle   time.Duration
}

// NewWatcher creates a watcher for dir. A non-positive settle uses DefaultSettle.
func NewWatcher(dir string, importer *Importer, sink func([]domain.Track), settle time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		dir:      dir,
		importer: importer,
		sink:     sink,
		logger:   logger.With(slog.String("component", "watcher"), slog.String("dir", dir)),
		settle:   settle,
	}
}

// Run watches until ctx is cancelled. It returns nil on cancellation and an
// error only when the watch cannot be established.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching for local tracks")

	// path -> time of the last write seen
	pending := make(map[string]time.Time)
	tick := time.NewTicker(w.settle / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.importer.IsSupported(event.Name) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[event.Name] = time.Now()
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, event.Name)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))

		case now := <-tick.C:
			w.flush(now, pending)
		}
	}
}

func (w *Watcher) flush(now time.Time, pending map[string]time.Time) {
	var ready []string
	for path, last := range pending {
		if now.Sub(last) >= w.settle {
			ready = append(ready, path)
		}
	}
	if len(ready) == 0 {
		return
	}
	slices.Sort(ready)
	for _, path := range ready {
		delete(pending, path)
	}

	tracks, err := w.importer.ImportFiles(ready)
	if err != nil {
		w.logger.Warn("some files were not imported", slog.String("error", err.Error()))
	}
	if len(tracks) == 0 {
		return
	}
	w.logger.Info("imported local tracks", slog.Int("count", len(tracks)))
	w.sink(tracks)
}
