package cli

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakif/canvaid/internal/render"
	"github.com/sakif/canvaid/internal/snapshot"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		out  string
		opts = render.DefaultOptions()
	)
	cmd := &cobra.Command{
		Use:   "watch <boardID>",
		Short: "Re-render a snapshot board whenever the snapshot file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			id := args[0]
			if out == "" {
				out = id + ".png"
			}
			store, err := snapshot.Open(a.cfg.Snapshot.Dir, a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			draw := func() {
				board, err := store.LoadBoard(ctx, id)
				if err != nil {
					a.logger.Warn("board unavailable", slog.String("id", id), slog.String("error", err.Error()))
					return
				}
				if err := render.SavePNG(out, board, opts); err != nil {
					a.logger.Error("render failed", slog.String("error", err.Error()))
					return
				}
				a.logger.Info("board rendered", slog.String("id", id), slog.String("file", out))
			}

			draw()
			fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", store.Path())
			return store.Watch(ctx, draw)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "PNG file to write (default <boardID>.png)")
	cmd.Flags().IntVar(&opts.Width, "width", opts.Width, "image width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", opts.Height, "image height in pixels")
	return cmd
}
