package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"github.com/siraymusic/siray/internal/adapter/catalog"
	"github.com/siraymusic/siray/internal/adapter/ui/terminal"
	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/logger"
	"github.com/siraymusic/siray/internal/service"
)

type CatalogParams struct {
	Dir   string `optional:"true" help:"Directory of local audio files to list alongside the default catalog."`
	Query string `short:"q" optional:"true" help:"Only list tracks matching this text."`
	Scope string `short:"s" help:"Fields the query matches: all, songs, artists, albums." default:"all"`
	JSON  bool   `help:"Print tracks as JSON instead of a table." default:"false"`
}

func CatalogCmd() *cobra.Command {
	return boa.CmdT[CatalogParams]{
		Use:         "catalog",
		Aliases:     []string{"ls"},
		Short:       "List the track catalog",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *CatalogParams, cmd *cobra.Command, args []string) {
			exitOnError("catalog", runCatalog(cmd.Context(), params, os.Stdout))
		},
	}.ToCobra()
}

func runCatalog(ctx context.Context, params *CatalogParams, out io.Writer) error {
	scope, err := domain.ParseSearchScope(params.Scope)
	if err != nil {
		return err
	}

	library := catalog.NewSampleLibrary()
	view := domain.ViewHome
	if params.Dir != "" {
		log := logger.NewLogger(logger.Config{Level: slog.LevelError, Output: os.Stderr})
		importer := catalog.NewImporter(log)
		tracks, err := importer.ImportDir(ctx, params.Dir)
		if err != nil {
			return err
		}
		library.AddLocal(tracks...)
		view = domain.ViewLibrary
	}

	tracks := service.FilterTracks(library, params.Query, scope, view)
	if params.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		list := slices.Collect(tracks)
		if list == nil {
			list = []domain.Track{}
		}
		return enc.Encode(list)
	}

	title := "Catalog"
	if params.Query != "" {
		title = fmt.Sprintf("Catalog matching %q (%s)", params.Query, scope)
	}
	terminal.NewView(out).ShowTracks(title, tracks)
	return nil
}
