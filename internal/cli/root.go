// Package cli builds the canvaid command tree.
//
// COMMANDS:
//
//	canvaid serve                  run the REST server and pages
//	canvaid render <board> -o f    draw a board to a PNG file
//	canvaid export <board> [-o f]  write one board as a snapshot document
//	canvaid import <file>          load a snapshot document's boards
//	canvaid watch <board> -o f     re-render whenever the snapshot file changes
//
// render and export read from the database by default, from the snapshot
// file with --snapshot, or from a running server with --remote.
//
// Every command resolves its settings through config.Load first, then lets
// explicitly set flags win.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sakif/canvaid/internal/config"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	configPath  string
	logLevel    string
	dbPath      string
	snapshotDir string
	apiURL      string

	cfg    config.Config
	logger *slog.Logger
}

// NewRootCmd creates the top-level "canvaid" command and registers all
// subcommands.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "canvaid",
		Short:         "Visual note canvas: boards, sections, cards and connections",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	flags.StringVar(&a.dbPath, "db", "", "SQLite database path")
	flags.StringVar(&a.snapshotDir, "snapshot-dir", "", "directory of the local snapshot file")
	flags.StringVar(&a.apiURL, "api-url", "", "base URL of a canvaid server, for --remote")

	root.AddCommand(
		newServeCmd(a),
		newRenderCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newWatchCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("db") {
		cfg.Database.Path = a.dbPath
	}
	if flags.Changed("snapshot-dir") {
		cfg.Snapshot.Dir = a.snapshotDir
	}
	if flags.Changed("api-url") {
		cfg.Client.BaseURL = a.apiURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = NewLogger(cmd.ErrOrStderr(), cfg.Level())
	return nil
}

// NewLogger writes human-readable text to a terminal and JSON lines
// everywhere else.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
