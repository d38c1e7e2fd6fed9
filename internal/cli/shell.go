package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/siraymusic/siray/internal/adapter/ui/terminal"
	"github.com/siraymusic/siray/internal/app"
	"github.com/siraymusic/siray/internal/service"
)

type ShellParams struct {
	Config   string `short:"c" optional:"true" help:"Path to a JSON config file."`
	Captions string `optional:"true" help:"Caption service endpoint. Without one, captions are generated offline."`
	Dir      string `optional:"true" help:"Directory of local audio files to import and watch."`
	LogLevel string `optional:"true" help:"Log level: debug, info, warn, error. Defaults to warn so logs stay out of the prompt."`
	Progress bool   `help:"Print a progress line every second while playing." default:"false"`
}

func ShellCmd() *cobra.Command {
	return boa.CmdT[ShellParams]{
		Use:         "shell",
		Aliases:     []string{"play"},
		Short:       "Interactive playback session",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *ShellParams, cmd *cobra.Command, args []string) {
			exitOnError("shell", runShell(cmd.Context(), params))
		},
	}.ToCobra()
}

const shellHelp = `commands:
  play | next | prev | shuffle | mute     transport and modes
  repeat [none|all|one]                   cycle or set repeat
  select <id> | remove <id>               pick or drop a track
  seek <secs|m:ss> | vol <0-100>          position and volume
  search <text> | scope <all|songs|artists|albums>
  view <home|search|library|playlist|artist|album> [name]
  import <files...> | import-dir <dir>    add local audio files
  now | queue | ls | help | quit`

func runShell(ctx context.Context, params *ShellParams) error {
	level := params.LogLevel
	if level == "" && params.Config == "" {
		level = "warn"
	}
	cfg, err := buildConfig(overrides{
		configPath: params.Config,
		captions:   params.Captions,
		dir:        params.Dir,
		logLevel:   level,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	application, err := app.NewApplication(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = application.Shutdown() }()

	session := application.Session()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "siray> ",
		HistoryFile:     historyFile(),
		AutoComplete:    shellCompleter(session),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("failed to start shell: %w", err)
	}

	view := terminal.NewView(rl.Stdout())
	presenter := terminal.NewPresenter(application.Logger(), application.EventBus(), session, view)
	defer presenter.Shutdown()
	presenter.EnableProgress(params.Progress)

	if err := application.Start(ctx); err != nil {
		_ = rl.Close()
		return err
	}
	_, _ = fmt.Fprintln(rl.Stdout(), "siray shell. type help for commands.")
	presenter.Refresh()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if w := application.Watcher(); w != nil {
		g.Go(func() error { return w.Run(gctx) })
	}
	g.Go(func() error {
		defer cancel()
		return repl(gctx, rl, application, presenter, view)
	})
	g.Go(func() error {
		<-gctx.Done()
		return rl.Close()
	})
	return g.Wait()
}

func repl(ctx context.Context, rl *readline.Instance, application *app.Application, presenter *terminal.Presenter, view *terminal.View) error {
	dispatcher := application.Dispatcher()
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help", "?":
			_, _ = fmt.Fprintln(rl.Stdout(), shellHelp)
			continue
		case "now", "status":
			presenter.Refresh()
			continue
		case "queue", "q":
			presenter.ShowQueue()
			continue
		case "ls", "browse":
			presenter.ShowBrowse()
			continue
		}

		intent, err := terminal.ParseCommand(line)
		if err != nil {
			view.ShowError(err)
			continue
		}
		if err := dispatcher.Dispatch(ctx, intent); err != nil {
			view.ShowError(err)
		}
	}
}

func shellCompleter(session *service.SessionController) *readline.PrefixCompleter {
	trackIDs := readline.PcItemDynamic(func(string) []string {
		var ids []string
		for _, t := range session.State().Queue {
			ids = append(ids, t.ID)
		}
		return ids
	})
	files := readline.PcItemDynamic(listFiles)

	var items []readline.PrefixCompleterInterface
	for _, name := range terminal.Commands {
		switch name {
		case "repeat":
			items = append(items, readline.PcItem(name, readline.PcItem("none"), readline.PcItem("all"), readline.PcItem("one")))
		case "scope":
			items = append(items, readline.PcItem(name,
				readline.PcItem("all"), readline.PcItem("songs"), readline.PcItem("artists"), readline.PcItem("albums")))
		case "view":
			items = append(items, readline.PcItem(name,
				readline.PcItem("home"), readline.PcItem("search"), readline.PcItem("library"),
				readline.PcItem("playlist"), readline.PcItem("artist"), readline.PcItem("album")))
		case "select", "remove":
			items = append(items, readline.PcItem(name, trackIDs))
		case "import", "import-dir":
			items = append(items, readline.PcItem(name, files))
		default:
			items = append(items, readline.PcItem(name))
		}
	}
	for _, meta := range []string{"now", "queue", "ls", "help", "quit"} {
		items = append(items, readline.PcItem(meta))
	}
	return readline.NewPrefixCompleter(items...)
}

// listFiles completes the last path argument on the line.
func listFiles(line string) []string {
	fields := strings.Fields(line)
	partial := ""
	if len(fields) > 1 && !strings.HasSuffix(line, " ") {
		partial = fields[len(fields)-1]
	}

	dir := filepath.Dir(partial)
	if partial == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		name := filepath.Join(dir, e.Name())
		if e.IsDir() {
			name += string(filepath.Separator)
		}
		if strings.HasPrefix(name, partial) {
			names = append(names, name)
		}
	}
	return names
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "siray")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "shell_history")
}
