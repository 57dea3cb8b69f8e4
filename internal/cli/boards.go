package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/canvaid/internal/client"
	"github.com/sakif/canvaid/internal/model"
	"github.com/sakif/canvaid/internal/render"
	sqliteRepo "github.com/sakif/canvaid/internal/repository/sqlite"
	"github.com/sakif/canvaid/internal/service"
	"github.com/sakif/canvaid/internal/snapshot"
)

// boardSource reads whole boards from whichever store a command was pointed
// at. boardStore can also write them.
type boardSource interface {
	load(ctx context.Context, id string) (*model.Board, error)
	close() error
}

type boardStore interface {
	boardSource
	put(ctx context.Context, b *model.Board) error
}

type dbSource struct {
	db  *sqliteRepo.DB
	svc *service.BoardService
}

func (s dbSource) load(ctx context.Context, id string) (*model.Board, error) { return s.svc.Get(ctx, id) }
func (s dbSource) put(ctx context.Context, b *model.Board) error            { return s.svc.Import(ctx, b) }
func (s dbSource) close() error                                             { return s.db.Close() }

type snapshotSource struct{ store *snapshot.Store }

func (s snapshotSource) load(ctx context.Context, id string) (*model.Board, error) {
	return s.store.LoadBoard(ctx, id)
}
func (s snapshotSource) put(ctx context.Context, b *model.Board) error { return s.store.PutBoard(ctx, b) }
func (s snapshotSource) close() error                                 { return nil }

// remoteSource reads boards from a running canvaid server.
type remoteSource struct{ c *client.Client }

func (s remoteSource) load(ctx context.Context, id string) (*model.Board, error) {
	return s.c.LoadBoard(ctx, id)
}
func (s remoteSource) close() error { return nil }

type sourceKind int

const (
	fromDatabase sourceKind = iota
	fromSnapshot
	fromRemote
)

// sourceFlags registers --snapshot and --remote on cmd. The returned func
// reports which one was chosen once flags are parsed.
func sourceFlags(cmd *cobra.Command) func() sourceKind {
	var snap, remote bool
	cmd.Flags().BoolVar(&snap, "snapshot", false, "read the board from the snapshot file instead of the database")
	cmd.Flags().BoolVar(&remote, "remote", false, "read the board from the canvaid server at --api-url")
	cmd.MarkFlagsMutuallyExclusive("snapshot", "remote")
	return func() sourceKind {
		switch {
		case remote:
			return fromRemote
		case snap:
			return fromSnapshot
		default:
			return fromDatabase
		}
	}
}

// open returns a read-only view of the store kind names.
func (a *app) open(kind sourceKind) (boardSource, error) {
	if kind == fromRemote {
		c := client.New(a.cfg.Client.BaseURL,
			client.WithTimeout(a.cfg.Client.Timeout),
			client.WithLogger(a.logger),
		)
		return remoteSource{c: c}, nil
	}
	return a.openStore(kind == fromSnapshot)
}

// openStore returns the snapshot store when toSnapshot is set and the
// database otherwise.
func (a *app) openStore(toSnapshot bool) (boardStore, error) {
	if toSnapshot {
		store, err := snapshot.Open(a.cfg.Snapshot.Dir, a.logger)
		if err != nil {
			return nil, err
		}
		return snapshotSource{store: store}, nil
	}
	db, err := sqliteRepo.New(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return dbSource{db: db, svc: service.NewBoardService(db, nil, a.logger)}, nil
}

func newRenderCmd(a *app) *cobra.Command {
	var (
		out    string
		source func() sourceKind
		opts   = render.DefaultOptions()
	)
	cmd := &cobra.Command{
		Use:   "render <boardID>",
		Short: "Draw a board to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			src, err := a.open(source())
			if err != nil {
				return err
			}
			defer src.close()

			board, err := src.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = board.ID + ".png"
			}
			if err := render.SavePNG(out, board, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "PNG file to write (default <boardID>.png)")
	cmd.Flags().IntVar(&opts.Width, "width", opts.Width, "image width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", opts.Height, "image height in pixels")
	cmd.Flags().Float64Var(&opts.Padding, "padding", opts.Padding, "margin around the board in pixels")
	source = sourceFlags(cmd)
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		out    string
		source func() sourceKind
	)
	cmd := &cobra.Command{
		Use:   "export <boardID>",
		Short: "Write one board as a snapshot document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.open(source())
			if err != nil {
				return err
			}
			defer src.close()

			board, err := src.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return writeDocument(w, snapshot.Document{Boards: []*model.Board{board}})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "file to write (default stdout)")
	source = sourceFlags(cmd)
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var toSnapshot bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load every board of a snapshot document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			dst, err := a.openStore(toSnapshot)
			if err != nil {
				return err
			}
			defer dst.close()

			for _, b := range doc.Boards {
				if err := dst.put(cmd.Context(), b); err != nil {
					return fmt.Errorf("importing board %s: %w", b.ID, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d boards\n", len(doc.Boards))
			return nil
		},
	}
	cmd.Flags().BoolVar(&toSnapshot, "snapshot", false, "write into the snapshot file instead of the database")
	return cmd
}

func writeDocument(w io.Writer, doc snapshot.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

func readDocument(path string) (snapshot.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return snapshot.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc snapshot.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return snapshot.Document{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}
