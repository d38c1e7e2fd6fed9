// Package cli holds the siray subcommands.
package cli

import (
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"

	"github.com/siraymusic/siray/internal/app"
)

func defaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// overrides are the flags every command shares on top of the config file.
type overrides struct {
	configPath string
	captions   string
	dir        string
	logLevel   string
}

// buildConfig loads the config file, if any, and applies flag overrides.
func buildConfig(o overrides) (app.Config, error) {
	cfg := app.DefaultConfig()
	if o.configPath != "" {
		loaded, err := app.LoadConfig(o.configPath)
		if err != nil {
			return app.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if o.captions != "" {
		cfg.Caption.Endpoint = o.captions
	}
	if o.dir != "" {
		cfg.Library.WatchDir = o.dir
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return app.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func exitOnError(name string, err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}
