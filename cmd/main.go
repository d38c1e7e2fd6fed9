// Command siray runs a music playback session from the terminal or as a
// websocket service.
package main

import (
	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"github.com/siraymusic/siray/internal/app"
	"github.com/siraymusic/siray/internal/cli"
)

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "siray",
		Short:   "Music playback session with captions and local import",
		Version: app.GetVersionInfo().String(),
		SubCmds: []*cobra.Command{
			cli.ShellCmd(),
			cli.ServeCmd(),
			cli.CatalogCmd(),
		},
	}.Run()
}
