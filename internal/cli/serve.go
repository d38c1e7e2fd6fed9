package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/siraymusic/siray/internal/app"
)

type ServeParams struct {
	Config   string `short:"c" optional:"true" help:"Path to a JSON config file."`
	Listen   string `optional:"true" help:"Address to listen on, e.g. 127.0.0.1:8765."`
	Captions string `optional:"true" help:"Caption service endpoint. Without one, captions are generated offline."`
	Dir      string `optional:"true" help:"Directory of local audio files to import and watch."`
	LogLevel string `optional:"true" help:"Log level: debug, info, warn, error."`
}

func ServeCmd() *cobra.Command {
	return boa.CmdT[ServeParams]{
		Use:         "serve",
		Short:       "Serve the playback session to websocket clients",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *ServeParams, cmd *cobra.Command, args []string) {
			exitOnError("serve", runServe(cmd.Context(), params))
		},
	}.ToCobra()
}

func runServe(ctx context.Context, params *ServeParams) error {
	cfg, err := buildConfig(overrides{
		configPath: params.Config,
		captions:   params.Captions,
		dir:        params.Dir,
		logLevel:   params.LogLevel,
	})
	if err != nil {
		return err
	}
	if params.Listen != "" {
		cfg.Server.Listen = params.Listen
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = application.Shutdown() }()
	log := application.Logger()

	if err := application.Start(ctx); err != nil {
		return err
	}

	hub := application.NewHub()
	mux := http.NewServeMux()
	mux.Handle(cfg.Server.Path, hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"clients": hub.Clients(),
			"version": app.GetVersionInfo().Version,
		})
	})

	server := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("serving session", slog.String("addr", "ws://"+cfg.Server.Listen+cfg.Server.Path))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})
	if w := application.Watcher(); w != nil {
		g.Go(func() error { return w.Run(gctx) })
	}

	return g.Wait()
}
