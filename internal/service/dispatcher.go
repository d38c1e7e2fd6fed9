package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/ports"
)

// Dispatcher turns presentation intents into controller transitions.
// It is the only entry point the bridges use, so the intent set is the whole
// presentation contract.
type Dispatcher struct {
	logger   *slog.Logger
	session  *SessionController
	importer ports.TrackImporter
}

// NewDispatcher creates a dispatcher. importer may be nil, in which case
// ingest intents are rejected.
func NewDispatcher(logger *slog.Logger, session *SessionController, importer ports.TrackImporter) *Dispatcher {
	return &Dispatcher{
		logger:   logger.With(slog.String("service", "dispatcher")),
		session:  session,
		importer: importer,
	}
}

// Dispatch applies one intent. Unknown intents yield domain.ErrUnknownIntent
// and malformed arguments a *domain.ValidationError.
func (d *Dispatcher) Dispatch(ctx context.Context, intent domain.Intent) error {
	d.logger.Debug("dispatching intent", slog.String("cmd", string(intent.Name)), slog.Any("args", intent.Args))

	switch intent.Name {
	case domain.IntentSelect:
		id, err := intent.RequireArg("id")
		if err != nil {
			return err
		}
		if err := d.session.SelectTrackByID(id); err != nil {
			return fmt.Errorf("select %q: %w", id, err)
		}

	case domain.IntentPlay:
		return d.session.TogglePlay()

	case domain.IntentNext:
		d.session.Advance()

	case domain.IntentPrev:
		d.session.Retreat()

	case domain.IntentShuffle:
		d.session.ToggleShuffle()

	case domain.IntentRepeat:
		raw := intent.Arg("mode")
		if raw == "" {
			d.session.CycleRepeat()
			return nil
		}
		mode, err := domain.ParseRepeatMode(raw)
		if err != nil {
			return err
		}
		d.session.SetRepeat(mode)

	case domain.IntentRemove:
		id, err := intent.RequireArg("id")
		if err != nil {
			return err
		}
		if !d.session.RemoveFromQueue(id) {
			return fmt.Errorf("remove %q: %w", id, domain.ErrTrackNotFound)
		}

	case domain.IntentSeek:
		pos, err := intent.SecondsArg("position")
		if err != nil {
			return err
		}
		return d.session.Seek(pos)

	case domain.IntentVolume:
		level, err := intent.FloatArg("level")
		if err != nil {
			return err
		}
		if err := d.session.SetVolume(level); err != nil {
			return domain.NewValidationError("level", level, err.Error())
		}

	case domain.IntentMute:
		d.session.ToggleMute()

	case domain.IntentSearch:
		if raw := intent.Arg("scope"); raw != "" {
			scope, err := domain.ParseSearchScope(raw)
			if err != nil {
				return err
			}
			if err := d.session.SetScope(scope); err != nil {
				return err
			}
		}
		d.session.SetQuery(intent.Arg("query"))

	case domain.IntentScope:
		scope, err := domain.ParseSearchScope(intent.Arg("scope"))
		if err != nil {
			return err
		}
		return d.session.SetScope(scope)

	case domain.IntentView:
		view, err := domain.ParseView(intent.Arg("view"))
		if err != nil {
			return err
		}
		return d.session.Navigate(view, intent.Arg("id"))

	case domain.IntentIngest:
		return d.ingest(ctx, intent)

	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownIntent, intent.Name)
	}
	return nil
}

// ingest accepts either "paths" (comma separated files) or "dir".
func (d *Dispatcher) ingest(ctx context.Context, intent domain.Intent) error {
	if d.importer == nil {
		return domain.NewServiceError("Dispatcher", "ingest", "local import is disabled", nil)
	}

	var (
		tracks []domain.Track
		err    error
	)
	switch {
	case intent.Arg("dir") != "":
		tracks, err = d.importer.ImportDir(ctx, intent.Arg("dir"))
	case intent.Arg("paths") != "":
		var paths []string
		for _, p := range strings.Split(intent.Arg("paths"), ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		tracks, err = d.importer.ImportFiles(paths)
	default:
		return domain.NewValidationError("paths", "", "ingest needs paths or dir")
	}

	if len(tracks) > 0 {
		d.session.IngestLocalTracks(tracks)
	}
	if err != nil {
		if len(tracks) > 0 {
			d.logger.Warn("some local files were skipped", slog.String("error", err.Error()))
			return nil
		}
		return domain.NewServiceError("Dispatcher", "ingest", "no tracks imported", err)
	}
	if len(tracks) == 0 {
		return domain.NewServiceError("Dispatcher", "ingest", "no supported audio files found", domain.ErrUnsupportedFormat)
	}
	return nil
}
